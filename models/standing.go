package models

import "time"

// EliminatedInGroupsRank is assigned to group-stage players who never reached the playoffs.
const EliminatedInGroupsRank = 999

type Standing struct {
	ID              int       `json:"id" db:"id"`
	TournamentID    int       `json:"tournament_id" db:"tournament_id"`
	PlayerID        int       `json:"player_id" db:"player_id"`
	Rank            int       `json:"rank" db:"rank"`
	Wins            int       `json:"wins" db:"wins"`
	Losses          int       `json:"losses" db:"losses"`
	Points          int       `json:"points" db:"points"`
	PointDifference int       `json:"point_difference" db:"point_difference"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`

	PlayerName string `json:"player_name,omitempty" db:"-"`
}
