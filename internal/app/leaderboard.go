package app

import (
	"context"

	"quizzalo-service/internal/domain"
)

// LeaderboardLimit is how many rows the top ranking returns.
const LeaderboardLimit = 10

// LeaderboardStore exposes the ranking reads over the PlayerBest set.
type LeaderboardStore interface {
	// TopPlayers returns up to limit rows ordered by total_points descending,
	// ties broken by updated_at ascending.
	TopPlayers(ctx context.Context, limit int) ([]domain.PlayerBest, error)
	GetPlayerBest(ctx context.Context, playerName string) (domain.PlayerBest, bool, error)
	// CountRankedAbove counts rows that rank strictly above ref: greater
	// total_points, or equal total_points with earlier updated_at.
	CountRankedAbove(ctx context.Context, ref domain.PlayerBest) (int, error)
}

// LeaderboardService answers the two ranking queries. It issues pure reads
// against the store and keeps no cache of its own.
type LeaderboardService struct {
	store LeaderboardStore
}

func NewLeaderboardService(store LeaderboardStore) *LeaderboardService {
	return &LeaderboardService{store: store}
}

// Available reports whether a store is configured.
func (s *LeaderboardService) Available() bool {
	return s.store != nil
}

// Top returns the top 10 players.
func (s *LeaderboardService) Top(ctx context.Context) ([]domain.PlayerBest, error) {
	if s.store == nil {
		return nil, domain.ErrLeaderboardUnavailable
	}
	return s.store.TopPlayers(ctx, LeaderboardLimit)
}

// PlayerRank returns the player's best record and 1-based rank: one more than
// the count of records ranking strictly above it.
func (s *LeaderboardService) PlayerRank(ctx context.Context, playerName string) (domain.PlayerBest, int, error) {
	if s.store == nil {
		return domain.PlayerBest{}, 0, domain.ErrLeaderboardUnavailable
	}
	best, ok, err := s.store.GetPlayerBest(ctx, playerName)
	if err != nil {
		return domain.PlayerBest{}, 0, err
	}
	if !ok {
		return domain.PlayerBest{}, 0, domain.ErrPlayerNotFound
	}
	above, err := s.store.CountRankedAbove(ctx, best)
	if err != nil {
		return domain.PlayerBest{}, 0, err
	}
	return best, above + 1, nil
}
