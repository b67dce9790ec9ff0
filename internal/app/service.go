package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"quizzalo-service/internal/domain"
)

// TopicRepository loads a topic's full question pool (from cache/backing store).
type TopicRepository interface {
	GetPool(ctx context.Context, topic string) ([]domain.Question, error)
}

// GameService creates quiz runs from the configured question bank.
type GameService struct {
	bank TopicRepository
	cfg  RunConfig

	mu  sync.Mutex
	rng *rand.Rand
}

func NewGameService(bank TopicRepository, cfg RunConfig) *GameService {
	return &GameService{
		bank: bank,
		cfg:  cfg.withDefaults(),
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Config exposes the run timing the service was built with.
func (s *GameService) Config() RunConfig {
	return s.cfg
}

// StartRun loads the topic pool and creates a fresh run in COUNTDOWN.
// Each call reshuffles, so "try again" gets a new question order.
func (s *GameService) StartRun(ctx context.Context, topic string) (*Run, error) {
	pool, err := s.bank.GetPool(ctx, topic)
	if err != nil {
		return nil, err
	}

	// rand.Rand is not safe for concurrent use; runs start from many
	// connection goroutines.
	s.mu.Lock()
	run := NewRun(topic, pool, s.cfg, s.rng)
	s.mu.Unlock()
	return run, nil
}
