package domain

import (
	"fmt"
	"regexp"
	"time"
)

// OptionKey identifies one of the four answer choices of a question.
type OptionKey string

const (
	OptionA OptionKey = "A"
	OptionB OptionKey = "B"
	OptionC OptionKey = "C"
	OptionD OptionKey = "D"
)

// Valid reports whether the key is one of A, B, C or D.
func (k OptionKey) Valid() bool {
	switch k {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// Question is a single multiple-choice question from a topic's pool.
type Question struct {
	ID      int64                `json:"id"`
	Topic   string               `json:"topic"`
	Prompt  string               `json:"prompt"`
	Options map[OptionKey]string `json:"options"`
	Answer  OptionKey            `json:"answer"`
}

// Validate ensures the answer key is present among the question's options.
func (q Question) Validate() error {
	if !q.Answer.Valid() {
		return fmt.Errorf("question %d: %w: answer key %q", q.ID, ErrInvalidQuestion, q.Answer)
	}
	if _, ok := q.Options[q.Answer]; !ok {
		return fmt.Errorf("question %d: %w: answer %q has no option", q.ID, ErrInvalidQuestion, q.Answer)
	}
	return nil
}

// RunPhase is the state of a quiz run.
type RunPhase string

const (
	PhaseCountdown RunPhase = "COUNTDOWN"
	PhaseActive    RunPhase = "ACTIVE"
	PhaseFinished  RunPhase = "FINISHED"
	PhaseFailed    RunPhase = "FAILED"
)

// Terminal reports whether the phase accepts no further play.
func (p RunPhase) Terminal() bool {
	return p == PhaseFinished || p == PhaseFailed
}

// QuizScore is one append-only row recorded per finished run.
type QuizScore struct {
	PlayerName      string    `json:"player_name"`
	Topic           string    `json:"topic"`
	Score           int       `json:"score"`
	TotalQuestions  int       `json:"total_questions"`
	TimeRemainingMS int       `json:"time_remaining_ms"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
}

// PlayerBest is the per-player aggregate the leaderboard ranks on.
// TotalPoints is derived: it always equals the sum of BestByTopic at write time.
type PlayerBest struct {
	PlayerName  string         `json:"player_name"`
	BestByTopic map[string]int `json:"best_by_topic"`
	TotalPoints int            `json:"total_points"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// SumBest recomputes the total across all topic bests.
func (p PlayerBest) SumBest() int {
	total := 0
	for _, v := range p.BestByTopic {
		total += v
	}
	return total
}

// RanksAbove reports whether p outranks other under the leaderboard ordering:
// higher total points win, ties go to the earlier updated_at.
func (p PlayerBest) RanksAbove(other PlayerBest) bool {
	if p.TotalPoints != other.TotalPoints {
		return p.TotalPoints > other.TotalPoints
	}
	return p.UpdatedAt.Before(other.UpdatedAt)
}

var playerNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{2,16}$`)

// ValidatePlayerName checks the display-name rules: 2-16 characters,
// letters, digits and underscores only. The name is self-asserted; two
// players choosing the same name share one leaderboard identity.
func ValidatePlayerName(name string) error {
	if !playerNamePattern.MatchString(name) {
		return ErrInvalidPlayerName
	}
	return nil
}
