package memory

import (
	"context"
	"testing"
	"time"

	"quizzalo-service/internal/domain"
)

func TestScoreStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewScoreStore()

	if _, ok, err := store.GetPlayerBest(ctx, "alice"); err != nil || ok {
		t.Fatalf("expected no record, ok=%v err=%v", ok, err)
	}

	best := domain.PlayerBest{
		PlayerName:  "alice",
		BestByTopic: map[string]int{"t": 4},
		TotalPoints: 4,
		UpdatedAt:   time.Unix(100, 0),
	}
	if err := store.UpsertPlayerBest(ctx, best); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, ok, err := store.GetPlayerBest(ctx, "alice")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.BestByTopic["t"] != 4 || got.TotalPoints != 4 {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Returned map is a copy; mutating it must not leak into the store.
	got.BestByTopic["t"] = 99
	again, _, _ := store.GetPlayerBest(ctx, "alice")
	if again.BestByTopic["t"] != 4 {
		t.Fatalf("store state leaked through returned map")
	}
}

func TestScoreStoreRanking(t *testing.T) {
	ctx := context.Background()
	store := NewScoreStore()
	upsert := func(name string, points int, at int64) {
		err := store.UpsertPlayerBest(ctx, domain.PlayerBest{
			PlayerName:  name,
			BestByTopic: map[string]int{"t": points},
			TotalPoints: points,
			UpdatedAt:   time.Unix(at, 0),
		})
		if err != nil {
			t.Fatalf("upsert %s: %v", name, err)
		}
	}
	upsert("p1", 30, 200)
	upsert("p2", 30, 100)
	upsert("p3", 25, 300)

	top, err := store.TopPlayers(ctx, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 3 || top[0].PlayerName != "p2" || top[1].PlayerName != "p1" || top[2].PlayerName != "p3" {
		t.Fatalf("unexpected order: %+v", top)
	}

	top, err = store.TopPlayers(ctx, 2)
	if err != nil {
		t.Fatalf("top limited: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("limit ignored: %d rows", len(top))
	}

	ref, _, _ := store.GetPlayerBest(ctx, "p1")
	above, err := store.CountRankedAbove(ctx, ref)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if above != 1 {
		t.Fatalf("expected 1 above p1, got %d", above)
	}
}

func TestScoreStoreAppendsScores(t *testing.T) {
	ctx := context.Background()
	store := NewScoreStore()
	for i := 0; i < 3; i++ {
		err := store.InsertScore(ctx, domain.QuizScore{
			PlayerName:     "alice",
			Topic:          "t",
			Score:          i,
			TotalQuestions: 10,
		})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if got := len(store.Scores()); got != 3 {
		t.Fatalf("expected 3 rows, got %d", got)
	}
}
