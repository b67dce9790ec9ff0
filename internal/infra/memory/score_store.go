package memory

import (
	"context"
	"sort"
	"sync"

	"quizzalo-service/internal/domain"
)

// ScoreStore is an in-memory implementation of the score log and PlayerBest
// set, backing tests and store-less demo runs.
type ScoreStore struct {
	mu     sync.RWMutex
	scores []domain.QuizScore
	bests  map[string]domain.PlayerBest
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{
		bests: make(map[string]domain.PlayerBest),
	}
}

func (s *ScoreStore) InsertScore(_ context.Context, score domain.QuizScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores = append(s.scores, score)
	return nil
}

func (s *ScoreStore) GetPlayerBest(_ context.Context, playerName string) (domain.PlayerBest, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	best, ok := s.bests[playerName]
	if !ok {
		return domain.PlayerBest{}, false, nil
	}
	return cloneBest(best), true, nil
}

func (s *ScoreStore) UpsertPlayerBest(_ context.Context, best domain.PlayerBest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bests[best.PlayerName] = cloneBest(best)
	return nil
}

func (s *ScoreStore) TopPlayers(_ context.Context, limit int) ([]domain.PlayerBest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.PlayerBest, 0, len(s.bests))
	for _, best := range s.bests {
		all = append(all, cloneBest(best))
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].RanksAbove(all[j])
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *ScoreStore) CountRankedAbove(_ context.Context, ref domain.PlayerBest) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for name, best := range s.bests {
		if name == ref.PlayerName {
			continue
		}
		if best.RanksAbove(ref) {
			count++
		}
	}
	return count, nil
}

// Scores snapshots the append-only log, for assertions.
func (s *ScoreStore) Scores() []domain.QuizScore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.QuizScore, len(s.scores))
	copy(out, s.scores)
	return out
}

func cloneBest(best domain.PlayerBest) domain.PlayerBest {
	byTopic := make(map[string]int, len(best.BestByTopic))
	for topic, score := range best.BestByTopic {
		byTopic[topic] = score
	}
	best.BestByTopic = byTopic
	return best
}
