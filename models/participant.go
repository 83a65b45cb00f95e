package models

import "time"

// Participant is a player (or guest) registered to a tournament. Rating is the
// seeding rating captured at registration and never changes after the bracket is built.
type Participant struct {
	ID           int       `json:"id"`
	TournamentID int       `json:"tournament_id"`
	PlayerID     int       `json:"player_id"`
	Rating       int       `json:"rating"`
	PlayerName   string    `json:"player_name"`
	CreatedAt    time.Time `json:"created_at"`
}
