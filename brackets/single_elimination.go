// tournament-bracket/brackets/single_elimination.go
package brackets

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/Dosada05/tournament-bracket/models"
)

type SingleEliminationGenerator struct {
	shuffle ShuffleFunc
}

func NewSingleEliminationGenerator(shuffle ShuffleFunc) BracketGenerator {
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	return &SingleEliminationGenerator{shuffle: shuffle}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// GenerateBracket builds the full elimination tree. The top seeds take the byes, the
// rest are paired strongest against weakest. First-round matches are shuffled, so the
// on-screen position carries no seeding. Later rounds are TBD vs TBD placeholders.
func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	participants := params.Participants
	n := len(participants)

	size, err := BracketSize(n)
	if err != nil {
		return nil, err
	}
	rounds, err := RoundsForSize(size)
	if err != nil {
		return nil, err
	}

	setsToWin := models.DefaultMatchFormat.SetsToWin()
	if params.Tournament != nil {
		setsToWin = params.Tournament.MatchFormat.SetsToWin()
	}

	numByes := size - n
	firstRound := make([]*BracketMatch, 0, size/2)

	for i := 0; i < numByes; i++ {
		p1, p2 := ByeScore(setsToWin)
		firstRound = append(firstRound, &BracketMatch{
			Round:         rounds[0],
			Player1ID:     intPtr(participants[i].PlayerID),
			IsBye:         true,
			Player1Scores: p1,
			Player2Scores: p2,
		})
	}

	rest := participants[numByes:]
	for i, j := 0, len(rest)-1; i < j; i, j = i+1, j-1 {
		firstRound = append(firstRound, &BracketMatch{
			Round:     rounds[0],
			Player1ID: intPtr(rest[i].PlayerID),
			Player2ID: intPtr(rest[j].PlayerID),
		})
	}

	if len(firstRound) != size/2 {
		return nil, fmt.Errorf("internal error: built %d first-round matches for bracket size %d", len(firstRound), size)
	}

	g.shuffle(len(firstRound), func(i, j int) {
		firstRound[i], firstRound[j] = firstRound[j], firstRound[i]
	})

	all := make([]*BracketMatch, 0, size-1)
	for i, bm := range firstRound {
		bm.OrderInRound = i + 1
		all = append(all, bm)
	}

	for r := 1; r < len(rounds); r++ {
		count := size >> (r + 1)
		for i := 0; i < count; i++ {
			all = append(all, &BracketMatch{
				Round:        rounds[r],
				OrderInRound: i + 1,
			})
		}
	}

	return all, nil
}
