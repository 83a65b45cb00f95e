package models

import "time"

// RatingHistoryPoint is a player's rating right after a match. One per (player, match).
type RatingHistoryPoint struct {
	ID           int       `json:"id"`
	PlayerID     int       `json:"player_id"`
	MatchID      int       `json:"match_id"`
	TournamentID *int      `json:"tournament_id,omitempty"`
	RatingBefore int       `json:"rating_before"`
	Rating       int       `json:"rating"`
	RecordedAt   time.Time `json:"recorded_at"`
}
