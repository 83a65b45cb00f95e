package models

import "time"

type MatchStatus string

const (
	MatchScheduled  MatchStatus = "scheduled"
	MatchInProgress MatchStatus = "in-progress"
	MatchCompleted  MatchStatus = "completed"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchScheduled, MatchInProgress, MatchCompleted:
		return true
	}
	return false
}

// Slot identifies one side of a match.
type Slot int

const (
	SlotPlayer1 Slot = 1
	SlotPlayer2 Slot = 2
)

func (s Slot) Column() string {
	if s == SlotPlayer2 {
		return "player2_id"
	}
	return "player1_id"
}

type Match struct {
	ID           int         `json:"id"`
	TournamentID int         `json:"tournament_id"`
	Round        string      `json:"round"`
	GroupName    *string     `json:"group_name,omitempty"`
	Player1ID    *int        `json:"player1_id"`
	Player2ID    *int        `json:"player2_id"`
	WinnerID     *int        `json:"winner_id"`
	Status       MatchStatus `json:"status"`
	StartTime    *time.Time  `json:"start_time,omitempty"`
	EndTime      *time.Time  `json:"end_time,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`

	// Заполняются только при чтении для отображения
	Player1Name *string     `json:"player1_name,omitempty"`
	Player2Name *string     `json:"player2_name,omitempty"`
	Score       *MatchScore `json:"score,omitempty"`
}

// IsBye reports whether the match is an auto-completed bye.
func (m *Match) IsBye() bool {
	return m.Player1ID != nil && m.Player2ID == nil && m.Status == MatchCompleted
}

func (m *Match) PlayerIn(slot Slot) *int {
	if slot == SlotPlayer2 {
		return m.Player2ID
	}
	return m.Player1ID
}

// HasPlayer reports whether playerID occupies either slot.
func (m *Match) HasPlayer(playerID int) bool {
	return (m.Player1ID != nil && *m.Player1ID == playerID) ||
		(m.Player2ID != nil && *m.Player2ID == playerID)
}

// LoserID returns the opponent of the winner, nil when undecided or a bye.
func (m *Match) LoserID() *int {
	if m.WinnerID == nil || m.Player1ID == nil || m.Player2ID == nil {
		return nil
	}
	if *m.WinnerID == *m.Player1ID {
		return m.Player2ID
	}
	return m.Player1ID
}
