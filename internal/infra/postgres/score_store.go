package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"quizzalo-service/internal/domain"
)

// ScoreStore persists the append-only quiz_scores log and the player_best
// aggregate table.
type ScoreStore struct {
	pool *pgxpool.Pool
}

func NewScoreStore(pool *pgxpool.Pool) *ScoreStore {
	return &ScoreStore{pool: pool}
}

func (s *ScoreStore) InsertScore(ctx context.Context, score domain.QuizScore) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO quiz_scores (player_name, topic, score, total_questions, time_remaining_ms)
		 VALUES ($1, $2, $3, $4, $5)`,
		score.PlayerName, score.Topic, score.Score, score.TotalQuestions, score.TimeRemainingMS)
	if err != nil {
		return fmt.Errorf("insert quiz score: %w", err)
	}
	return nil
}

func (s *ScoreStore) GetPlayerBest(ctx context.Context, playerName string) (domain.PlayerBest, bool, error) {
	var (
		best domain.PlayerBest
		raw  []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT player_name, best_by_topic, total_points, updated_at
		 FROM player_best WHERE player_name=$1`, playerName).
		Scan(&best.PlayerName, &raw, &best.TotalPoints, &best.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PlayerBest{}, false, nil
	}
	if err != nil {
		return domain.PlayerBest{}, false, fmt.Errorf("get player best: %w", err)
	}
	if err := json.Unmarshal(raw, &best.BestByTopic); err != nil {
		return domain.PlayerBest{}, false, fmt.Errorf("unmarshal best_by_topic: %w", err)
	}
	return best, true, nil
}

func (s *ScoreStore) UpsertPlayerBest(ctx context.Context, best domain.PlayerBest) error {
	raw, err := json.Marshal(best.BestByTopic)
	if err != nil {
		return fmt.Errorf("marshal best_by_topic: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO player_best (player_name, best_by_topic, total_points, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (player_name) DO UPDATE SET
		   best_by_topic = EXCLUDED.best_by_topic,
		   total_points  = EXCLUDED.total_points,
		   updated_at    = EXCLUDED.updated_at`,
		best.PlayerName, raw, best.TotalPoints, best.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert player best: %w", err)
	}
	return nil
}

func (s *ScoreStore) TopPlayers(ctx context.Context, limit int) ([]domain.PlayerBest, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT player_name, best_by_topic, total_points, updated_at
		 FROM player_best
		 ORDER BY total_points DESC, updated_at ASC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("top players: %w", err)
	}
	defer rows.Close()

	var top []domain.PlayerBest
	for rows.Next() {
		var (
			best domain.PlayerBest
			raw  []byte
		)
		if err := rows.Scan(&best.PlayerName, &raw, &best.TotalPoints, &best.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan player best: %w", err)
		}
		if err := json.Unmarshal(raw, &best.BestByTopic); err != nil {
			return nil, fmt.Errorf("unmarshal best_by_topic: %w", err)
		}
		top = append(top, best)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top players: %w", err)
	}
	return top, nil
}

func (s *ScoreStore) CountRankedAbove(ctx context.Context, ref domain.PlayerBest) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM player_best
		 WHERE total_points > $1 OR (total_points = $1 AND updated_at < $2)`,
		ref.TotalPoints, ref.UpdatedAt).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count ranked above: %w", err)
	}
	return count, nil
}
