package app

import (
	"math/rand"

	"quizzalo-service/internal/domain"
)

const (
	// DefaultCountdownSeconds is the pre-game countdown length.
	DefaultCountdownSeconds = 3
	// DefaultRunSeconds is the play clock for one run.
	DefaultRunSeconds = 60
	// DefaultQuestionsPerRun caps how many questions a run draws from the pool.
	DefaultQuestionsPerRun = 10
)

// RunConfig tunes the timers and question count of a run. Zero values fall
// back to the defaults above.
type RunConfig struct {
	CountdownSeconds int
	RunSeconds       int
	QuestionsPerRun  int
}

func (c RunConfig) withDefaults() RunConfig {
	if c.CountdownSeconds <= 0 {
		c.CountdownSeconds = DefaultCountdownSeconds
	}
	if c.RunSeconds <= 0 {
		c.RunSeconds = DefaultRunSeconds
	}
	if c.QuestionsPerRun <= 0 {
		c.QuestionsPerRun = DefaultQuestionsPerRun
	}
	return c
}

// Run holds the state of one play-through: countdown, active clock, answers
// and score. All mutation happens on the single goroutine driving the run, so
// no locking is needed.
type Run struct {
	Topic              string
	Questions          []domain.Question
	CurrentIndex       int
	Answers            map[int]domain.OptionKey
	Score              int
	TimeRemaining      int
	CountdownRemaining int
	Phase              domain.RunPhase
}

// AnswerOutcome reports what SubmitAnswer recorded.
type AnswerOutcome struct {
	Index   int
	Chosen  domain.OptionKey
	Answer  domain.OptionKey
	Correct bool
	Last    bool
}

// NewRun draws the run's questions from the topic pool with a Fisher-Yates
// shuffle and truncates to the configured count; pools smaller than that just
// make a shorter run. A nil rng uses the shared math/rand source.
func NewRun(topic string, pool []domain.Question, cfg RunConfig, rng *rand.Rand) *Run {
	cfg = cfg.withDefaults()

	questions := make([]domain.Question, len(pool))
	copy(questions, pool)
	swap := func(i, j int) { questions[i], questions[j] = questions[j], questions[i] }
	if rng != nil {
		rng.Shuffle(len(questions), swap)
	} else {
		rand.Shuffle(len(questions), swap)
	}
	if len(questions) > cfg.QuestionsPerRun {
		questions = questions[:cfg.QuestionsPerRun]
	}

	return &Run{
		Topic:              topic,
		Questions:          questions,
		Answers:            make(map[int]domain.OptionKey),
		TimeRemaining:      cfg.RunSeconds,
		CountdownRemaining: cfg.CountdownSeconds,
		Phase:              domain.PhaseCountdown,
	}
}

// Tick advances the run by one second. In COUNTDOWN it decrements the
// countdown and flips to ACTIVE at zero. In ACTIVE it decrements the play
// clock; hitting zero with unanswered questions remaining fails the run.
// A run whose every question is answered cannot fail on the clock: it is
// waiting on Advance to finalize.
func (r *Run) Tick() {
	switch r.Phase {
	case domain.PhaseCountdown:
		if r.CountdownRemaining > 0 {
			r.CountdownRemaining--
		}
		if r.CountdownRemaining == 0 {
			r.Phase = domain.PhaseActive
		}
	case domain.PhaseActive:
		if r.TimeRemaining > 0 {
			r.TimeRemaining--
		}
		if r.TimeRemaining == 0 && len(r.Answers) < len(r.Questions) {
			r.Phase = domain.PhaseFailed
		}
	}
}

// SubmitAnswer records the player's choice for the displayed question. It is
// a no-op (ignored, not an error) when the run is not ACTIVE, the option key
// is not A-D, the index is not the current question, or the index already has
// an answer: the first answer for an index is final. Only the current
// question is answerable, so at most one advance is ever pending.
func (r *Run) SubmitAnswer(index int, key domain.OptionKey) (AnswerOutcome, bool) {
	if r.Phase != domain.PhaseActive || !key.Valid() {
		return AnswerOutcome{}, false
	}
	if index != r.CurrentIndex || index >= len(r.Questions) {
		return AnswerOutcome{}, false
	}
	if _, answered := r.Answers[index]; answered {
		return AnswerOutcome{}, false
	}

	question := r.Questions[index]
	correct := key == question.Answer
	r.Answers[index] = key
	if correct {
		r.Score++
	}
	return AnswerOutcome{
		Index:   index,
		Chosen:  key,
		Answer:  question.Answer,
		Correct: correct,
		Last:    len(r.Answers) == len(r.Questions),
	}, true
}

// Advance moves to the next question after the feedback delay, or finalizes
// the run when the last question has been answered. Advancing is only
// meaningful in ACTIVE with the current question answered.
func (r *Run) Advance() {
	if r.Phase != domain.PhaseActive {
		return
	}
	if _, answered := r.Answers[r.CurrentIndex]; !answered {
		return
	}
	if r.CurrentIndex < len(r.Questions)-1 {
		r.CurrentIndex++
		return
	}
	r.Phase = domain.PhaseFinished
}

// Question returns the current question. The second result is false once the
// run has no questions (empty pool) or has ended.
func (r *Run) Question() (domain.Question, bool) {
	if r.CurrentIndex >= len(r.Questions) {
		return domain.Question{}, false
	}
	return r.Questions[r.CurrentIndex], true
}
