package models

// SuspicionProfile is the per-account scoring state.
type SuspicionProfile struct {
	Patterns           PatternSet `json:"-"`
	Score              int        `json:"score"`
	IsFlagged          bool       `json:"is_flagged"`
	FlaggedConnections int        `json:"flagged_connections"`
}

// Flagged applies the registry flag rule to a score.
func Flagged(score int) bool {
	return score >= FlagThreshold
}
