package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-bracket/models"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() BracketGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

// GenerateBracket creates one match per unordered pair of participants.
func (g *RoundRobinGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	participants := params.Participants
	if len(participants) < 2 {
		return nil, fmt.Errorf("RoundRobinGenerator: %w (found %d)", ErrNotEnoughParticipants, len(participants))
	}
	return roundRobinPairs(participants, RoundRobin, nil), nil
}

func roundRobinPairs(participants []*models.Participant, round string, groupName *string) []*BracketMatch {
	n := len(participants)
	matches := make([]*BracketMatch, 0, n*(n-1)/2)
	order := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			order++
			matches = append(matches, &BracketMatch{
				Round:        round,
				GroupName:    groupName,
				OrderInRound: order,
				Player1ID:    intPtr(participants[i].PlayerID),
				Player2ID:    intPtr(participants[j].PlayerID),
			})
		}
	}
	return matches
}
