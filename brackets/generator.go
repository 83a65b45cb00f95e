package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-bracket/models"
)

type GenerateBracketParams struct {
	Tournament *models.Tournament
	// Participants are expected in seeding order, strongest first.
	Participants []*models.Participant
}

// BracketMatch is a match produced by a generator, before it is persisted.
type BracketMatch struct {
	Round        string
	GroupName    *string
	OrderInRound int

	Player1ID *int
	Player2ID *int

	// Bye matches are stored completed with Player1 as winner and a synthetic score.
	IsBye         bool
	Player1Scores []int
	Player2Scores []int
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error)

	GetName() string
}

// ShuffleFunc has the signature of rand.Shuffle.
type ShuffleFunc func(n int, swap func(i, j int))

// NoShuffle keeps the generated order; used where deterministic output is needed.
func NoShuffle(int, func(i, j int)) {}

// GeneratorFor returns the generator of a tournament format. A nil shuffle uses rand.Shuffle.
func GeneratorFor(format models.TournamentFormat, shuffle ShuffleFunc) (BracketGenerator, error) {
	switch format {
	case models.FormatSingleElimination:
		return NewSingleEliminationGenerator(shuffle), nil
	case models.FormatRoundRobin:
		return NewRoundRobinGenerator(), nil
	case models.FormatGroupStage:
		return NewGroupStageGenerator(), nil
	default:
		return nil, fmt.Errorf("unsupported tournament format '%s'", format)
	}
}

func intPtr(v int) *int {
	return &v
}
