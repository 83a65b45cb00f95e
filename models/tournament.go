package models

import "time"

// TournamentStatus соответствует колонке tournaments.status.
type TournamentStatus string

const (
	StatusUpcoming  TournamentStatus = "upcoming"
	StatusOngoing   TournamentStatus = "ongoing"
	StatusCompleted TournamentStatus = "completed"
	StatusCancelled TournamentStatus = "cancelled"
)

type TournamentFormat string

const (
	FormatSingleElimination TournamentFormat = "single-elimination"
	FormatRoundRobin        TournamentFormat = "round-robin"
	FormatGroupStage        TournamentFormat = "group-stage"
)

func (f TournamentFormat) Valid() bool {
	switch f {
	case FormatSingleElimination, FormatRoundRobin, FormatGroupStage:
		return true
	}
	return false
}

// MatchFormat is the number of sets a match is played over ("best of N").
type MatchFormat int

const (
	BestOf3 MatchFormat = 3
	BestOf5 MatchFormat = 5
	BestOf7 MatchFormat = 7

	DefaultMatchFormat = BestOf5
)

// SetsToWin returns how many sets decide a match. Unknown values fall back to best of 5.
func (f MatchFormat) SetsToWin() int {
	if f <= 0 || f%2 == 0 {
		return int(DefaultMatchFormat)/2 + 1
	}
	return int(f)/2 + 1
}

// Tournament представляет турнир.
type Tournament struct {
	ID                     int              `json:"id" db:"id"`
	Name                   string           `json:"name" db:"name"`
	Format                 TournamentFormat `json:"format" db:"format"`
	Status                 TournamentStatus `json:"status" db:"status"`
	MatchFormat            MatchFormat      `json:"match_format" db:"match_format"`
	StartDate              time.Time        `json:"start_date" db:"start_date"`
	EndDate                *time.Time       `json:"end_date,omitempty" db:"end_date"`
	MaxParticipants        int              `json:"max_participants" db:"max_participants"`
	NumGroups              *int             `json:"num_groups,omitempty" db:"num_groups"`
	PlayersPerGroupAdvance *int             `json:"players_per_group_advance,omitempty" db:"players_per_group_advance"`
	CreatedAt              time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time        `json:"updated_at" db:"updated_at"`

	ParticipantCount int `json:"participant_count" db:"-"`
}

// GroupConfig returns the group-stage settings with defaults applied (2 groups, top 2 advance).
func (t *Tournament) GroupConfig() (numGroups, advance int) {
	numGroups, advance = 2, 2
	if t.NumGroups != nil && *t.NumGroups > 0 {
		numGroups = *t.NumGroups
	}
	if t.PlayersPerGroupAdvance != nil && *t.PlayersPerGroupAdvance > 0 {
		advance = *t.PlayersPerGroupAdvance
	}
	return numGroups, advance
}

func (t *Tournament) IsClosed() bool {
	return t.Status == StatusCompleted || t.Status == StatusCancelled
}
