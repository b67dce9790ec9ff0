package app

import (
	"context"
	"log"
	"time"

	"quizzalo-service/internal/domain"
)

// ScoreStore persists run scores and per-player best aggregates.
type ScoreStore interface {
	InsertScore(ctx context.Context, score domain.QuizScore) error
	GetPlayerBest(ctx context.Context, playerName string) (domain.PlayerBest, bool, error)
	UpsertPlayerBest(ctx context.Context, best domain.PlayerBest) error
}

// ScoreSubmitter records a finished run: it appends the attempt to the score
// log and conditionally updates the player's best aggregate. It is invoked
// exactly once per run, only from the FINISHED transition, fire-and-forget.
type ScoreSubmitter struct {
	store ScoreStore
	clock func() time.Time
}

func NewScoreSubmitter(store ScoreStore) *ScoreSubmitter {
	return &ScoreSubmitter{store: store, clock: time.Now}
}

// NewScoreSubmitterWithClock is for tests that need deterministic updated_at.
func NewScoreSubmitterWithClock(store ScoreStore, clock func() time.Time) *ScoreSubmitter {
	return &ScoreSubmitter{store: store, clock: clock}
}

// Submit records one finished run. With no store configured it silently
// no-ops: results are shown locally regardless of persistence outcome.
//
// Known race: the read-modify-write on PlayerBest is not atomic against a
// concurrent submission by the same player from another session; a stale best
// can overwrite a fresher one. Accepted for single-player usage.
func (s *ScoreSubmitter) Submit(ctx context.Context, playerName, topic string, finalScore, timeRemainingSeconds, totalQuestions int) error {
	if s.store == nil {
		return nil
	}

	// The attempt log is best-effort; a failed insert never blocks the
	// best-score update.
	err := s.store.InsertScore(ctx, domain.QuizScore{
		PlayerName:      playerName,
		Topic:           topic,
		Score:           finalScore,
		TotalQuestions:  totalQuestions,
		TimeRemainingMS: timeRemainingSeconds * 1000,
	})
	if err != nil {
		log.Printf("insert quiz score for %s: %v", playerName, err)
	}

	best, exists, err := s.store.GetPlayerBest(ctx, playerName)
	if err != nil {
		return err
	}

	prev := best.BestByTopic[topic]
	if exists && finalScore <= prev {
		return nil
	}

	if best.BestByTopic == nil {
		best.BestByTopic = make(map[string]int)
	}
	if finalScore > prev {
		best.BestByTopic[topic] = finalScore
	} else {
		best.BestByTopic[topic] = prev
	}
	best.PlayerName = playerName
	best.TotalPoints = best.SumBest()
	best.UpdatedAt = s.clock()

	return s.store.UpsertPlayerBest(ctx, best)
}
