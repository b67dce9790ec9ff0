package domain

import "errors"

var (
	// ErrTopicNotFound indicates the topic has no question pool.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrInvalidQuestion indicates a bank row whose answer key does not match its options.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrInvalidPlayerName is returned for names outside 2-16 chars of [A-Za-z0-9_].
	ErrInvalidPlayerName = errors.New("invalid player name")
	// ErrPlayerNotFound indicates no PlayerBest record exists for the name.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrLeaderboardUnavailable indicates no score store is configured or reachable.
	ErrLeaderboardUnavailable = errors.New("leaderboard unavailable")
)
