// Package core holds the domain error model and the constants shared by the
// chat client, its orchestration loop and the development backend.
package core

import "time"

// Conversation limits.
const (
	// MaxHistoryTurns is the number of user/assistant exchanges kept in the
	// rolling history; the history holds at most MaxHistoryTurns*2 entries.
	MaxHistoryTurns = 2

	// FeedbackHistoryTurns is how many history entries are serialized into a
	// negative feedback payload.
	FeedbackHistoryTurns = 4

	// DefaultShownCount is used when the backend omits shown_count.
	DefaultShownCount = 2

	// MaxCommentLength bounds the free-text feedback comment, in runes.
	MaxCommentLength = 1000
)

// Timing defaults.
const (
	DefaultPollInterval    = time.Second
	MaxPollAttempts        = 120
	DefaultStatusInterval  = 7 * time.Second
	DefaultSafetyTimeout   = 45 * time.Second
	DefaultCharDelay       = 15 * time.Millisecond
	DefaultBlockDelay      = 50 * time.Millisecond
	DefaultFadeDelay       = 500 * time.Millisecond
	PlaceholderDotInterval = 500 * time.Millisecond
	DefaultBackendTimeout  = 30 * time.Second
)

// ResultCardMarker identifies answers that carry pre-built result card markup.
const ResultCardMarker = "result-card"

// Feedback ratings as sent on the wire.
const (
	RatingPositive = "👍"
	RatingNegative = "👎"
)
