package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"quizzalo-service/internal/domain"
)

// QuestionBank loads topic pools from the questions table.
type QuestionBank struct {
	pool *pgxpool.Pool
}

func NewQuestionBank(pool *pgxpool.Pool) *QuestionBank {
	return &QuestionBank{pool: pool}
}

func (b *QuestionBank) LoadPool(ctx context.Context, topic string) ([]domain.Question, error) {
	rows, err := b.pool.Query(ctx,
		`SELECT id, topic, prompt, options, answer FROM questions WHERE topic=$1`, topic)
	if err != nil {
		return nil, fmt.Errorf("load pool: %w", err)
	}
	defer rows.Close()

	var pool []domain.Question
	for rows.Next() {
		var (
			q       domain.Question
			options []byte
			answer  string
		)
		if err := rows.Scan(&q.ID, &q.Topic, &q.Prompt, &options, &answer); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options: %w", err)
		}
		q.Answer = domain.OptionKey(answer)
		if err := q.Validate(); err != nil {
			return nil, err
		}
		pool = append(pool, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load pool: %w", err)
	}
	if len(pool) == 0 {
		return nil, domain.ErrTopicNotFound
	}
	return pool, nil
}
