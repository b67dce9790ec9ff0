package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"quizzalo-service/internal/app"
	"quizzalo-service/internal/domain"
)

// RunnerConfig tunes the real-time pacing of a run. Tests shrink these to
// keep play-throughs fast.
type RunnerConfig struct {
	TickInterval  time.Duration // one second per tick in production
	FeedbackDelay time.Duration // right/wrong display pause before advancing
}

func (c RunnerConfig) withDefaults() RunnerConfig {
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.FeedbackDelay <= 0 {
		c.FeedbackDelay = 400 * time.Millisecond
	}
	return c
}

// WSHandler hosts one quiz run per websocket connection. The connection's run
// goroutine owns all run state and all writes; the reader goroutine only
// forwards inbound messages, so no mutual exclusion is needed on the run.
type WSHandler struct {
	games     *app.GameService
	submitter *app.ScoreSubmitter
	runner    RunnerConfig
	upgrader  websocket.Upgrader
}

func NewWSHandler(games *app.GameService, submitter *app.ScoreSubmitter, runner RunnerConfig) *WSHandler {
	return &WSHandler{
		games:     games,
		submitter: submitter,
		runner:    runner.withDefaults(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// answerPayload carries a player's choice. Pointer taps and keyboard letters
// both arrive in this shape; the engine makes no distinction.
type answerPayload struct {
	Index  int    `json:"index"`
	Option string `json:"option"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type countdownPayload struct {
	Remaining int `json:"remaining"`
}

type questionPayload struct {
	Index         int                         `json:"index"`
	Total         int                         `json:"total"`
	Prompt        string                      `json:"prompt"`
	Options       map[domain.OptionKey]string `json:"options"`
	TimeRemaining int                         `json:"timeRemaining"`
}

type tickPayload struct {
	TimeRemaining int `json:"timeRemaining"`
}

type answerResultPayload struct {
	Index   int              `json:"index"`
	Chosen  domain.OptionKey `json:"chosen"`
	Answer  domain.OptionKey `json:"answer"`
	Correct bool             `json:"correct"`
	Score   int              `json:"score"`
}

type finishedPayload struct {
	Score         int `json:"score"`
	Total         int `json:"total"`
	TimeRemaining int `json:"timeRemaining"`
}

type failedPayload struct {
	Score    int `json:"score"`
	Answered int `json:"answered"`
	Total    int `json:"total"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and plays quiz runs until the client leaves.
// A "restart" message after a terminal state begins a fresh run (new shuffle,
// countdown again).
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	name := r.URL.Query().Get("name")
	if topic == "" {
		http.Error(w, "missing topic", http.StatusBadRequest)
		return
	}
	if err := domain.ValidatePlayerName(name); err != nil {
		http.Error(w, "name must be 2-16 characters of letters, digits or underscore", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)

	inbound := make(chan inboundMessage)
	go func() {
		defer close(inbound)
		for {
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			select {
			case inbound <- msg:
			case <-done:
				return
			}
		}
	}()

	for {
		run, err := h.games.StartRun(r.Context(), topic)
		if err != nil {
			h.send(conn, "error", errorPayload{Message: err.Error()})
			return
		}
		if !h.playRun(conn, inbound, run, name) {
			return
		}
	}
}

// playRun drives one run to a terminal state and then waits for a restart.
// It returns false once the client is gone.
func (h *WSHandler) playRun(conn *websocket.Conn, inbound <-chan inboundMessage, run *app.Run, playerName string) bool {
	ticker := time.NewTicker(h.runner.TickInterval)
	defer ticker.Stop()

	// The feedback-delay timer is armed per accepted answer; advanceC is nil
	// while no advance is pending so the select ignores it.
	var advance *time.Timer
	var advanceC <-chan time.Time
	defer func() {
		if advance != nil {
			advance.Stop()
		}
	}()

	h.send(conn, "countdown", countdownPayload{Remaining: run.CountdownRemaining})

	for {
		select {
		case <-ticker.C:
			wasCountdown := run.Phase == domain.PhaseCountdown
			run.Tick()
			switch {
			case run.Phase == domain.PhaseCountdown:
				h.send(conn, "countdown", countdownPayload{Remaining: run.CountdownRemaining})
			case run.Phase == domain.PhaseActive && wasCountdown:
				h.sendQuestion(conn, run)
			case run.Phase == domain.PhaseActive:
				h.send(conn, "tick", tickPayload{TimeRemaining: run.TimeRemaining})
			case run.Phase == domain.PhaseFailed:
				ticker.Stop()
				h.send(conn, "failed", failedPayload{
					Score:    run.Score,
					Answered: len(run.Answers),
					Total:    len(run.Questions),
				})
				return h.awaitRestart(conn, inbound)
			}

		case msg, ok := <-inbound:
			if !ok {
				return false
			}
			if msg.Type != "answer" {
				h.send(conn, "error", errorPayload{Message: "unsupported message type"})
				continue
			}
			var payload answerPayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				h.send(conn, "error", errorPayload{Message: "invalid answer payload"})
				continue
			}
			key := domain.OptionKey(strings.ToUpper(strings.TrimSpace(payload.Option)))
			outcome, accepted := run.SubmitAnswer(payload.Index, key)
			if !accepted {
				// Repeat answers and answers outside ACTIVE are ignored, not errors.
				continue
			}
			h.send(conn, "answerResult", answerResultPayload{
				Index:   outcome.Index,
				Chosen:  outcome.Chosen,
				Answer:  outcome.Answer,
				Correct: outcome.Correct,
				Score:   run.Score,
			})
			if advance == nil {
				advance = time.NewTimer(h.runner.FeedbackDelay)
			} else {
				advance.Reset(h.runner.FeedbackDelay)
			}
			advanceC = advance.C

		case <-advanceC:
			advanceC = nil
			run.Advance()
			if run.Phase == domain.PhaseFinished {
				ticker.Stop()
				h.send(conn, "finished", finishedPayload{
					Score:         run.Score,
					Total:         len(run.Questions),
					TimeRemaining: run.TimeRemaining,
				})
				h.submitAsync(playerName, run)
				return h.awaitRestart(conn, inbound)
			}
			h.sendQuestion(conn, run)
		}
	}
}

// awaitRestart blocks on the terminal screen until the client asks for a new
// run or disconnects. Both tickers are already stopped by now.
func (h *WSHandler) awaitRestart(conn *websocket.Conn, inbound <-chan inboundMessage) bool {
	for msg := range inbound {
		if msg.Type == "restart" {
			return true
		}
		h.send(conn, "error", errorPayload{Message: "unsupported message type"})
	}
	return false
}

// submitAsync persists the finished run fire-and-forget: FINISHED is already
// displayed and the submission result is only logged, never awaited.
func (h *WSHandler) submitAsync(playerName string, run *app.Run) {
	var (
		topic     = run.Topic
		score     = run.Score
		remaining = run.TimeRemaining
		total     = h.games.Config().QuestionsPerRun
	)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.submitter.Submit(ctx, playerName, topic, score, remaining, total); err != nil {
			log.Printf("score submission for %s failed: %v", playerName, err)
		}
	}()
}

func (h *WSHandler) sendQuestion(conn *websocket.Conn, run *app.Run) {
	question, ok := run.Question()
	if !ok {
		return
	}
	// The answer key stays server-side; clients only see the options.
	h.send(conn, "question", questionPayload{
		Index:         run.CurrentIndex,
		Total:         len(run.Questions),
		Prompt:        question.Prompt,
		Options:       question.Options,
		TimeRemaining: run.TimeRemaining,
	})
}

func (h *WSHandler) send(conn *websocket.Conn, typ string, payload any) {
	if err := conn.WriteJSON(outboundMessage{Type: typ, Payload: payload}); err != nil {
		log.Printf("ws write error: %v", err)
	}
}
