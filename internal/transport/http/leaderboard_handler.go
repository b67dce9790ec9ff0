package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"quizzalo-service/internal/app"
	"quizzalo-service/internal/domain"
)

// LeaderboardHandler serves the ranking reads as JSON.
type LeaderboardHandler struct {
	service *app.LeaderboardService
}

func NewLeaderboardHandler(service *app.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

type leaderboardResponse struct {
	Top    []domain.PlayerBest `json:"top"`
	Player *domain.PlayerBest  `json:"player,omitempty"`
	Rank   int                 `json:"rank,omitempty"`
}

// ServeTop handles GET /leaderboard. An optional ?player= adds that player's
// record and rank below the top 10, the way the results screen shows "you".
func (h *LeaderboardHandler) ServeTop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	top, err := h.service.Top(r.Context())
	if err != nil {
		writeLeaderboardError(w, err)
		return
	}

	resp := leaderboardResponse{Top: top}
	if resp.Top == nil {
		resp.Top = []domain.PlayerBest{}
	}

	if player := r.URL.Query().Get("player"); player != "" {
		best, rank, err := h.service.PlayerRank(r.Context(), player)
		switch {
		case errors.Is(err, domain.ErrPlayerNotFound):
			// player has no completed run yet; omit the fields
		case err != nil:
			writeLeaderboardError(w, err)
			return
		default:
			resp.Player = &best
			resp.Rank = rank
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeLeaderboardError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrLeaderboardUnavailable) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "leaderboard unavailable",
		})
		return
	}
	log.Printf("leaderboard query failed: %v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "leaderboard query failed",
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}
