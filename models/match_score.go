package models

import "time"

// MatchScore holds per-set points for both sides. Only the latest record per match is kept.
type MatchScore struct {
	ID            int       `json:"id"`
	MatchID       int       `json:"match_id"`
	Player1Scores []int     `json:"player1_scores"`
	Player2Scores []int     `json:"player2_scores"`
	UpdatedAt     time.Time `json:"updated_at"`
}
