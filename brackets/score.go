package brackets

import (
	"errors"

	"github.com/Dosada05/tournament-bracket/models"
)

const (
	PointsPerWin  = 3
	ByeSetPoints  = 11
	MaxSetsPlayed = 7
)

var (
	ErrScoreLengthMismatch = errors.New("both players must have the same number of set scores")
	ErrNegativeSetScore    = errors.New("set scores cannot be negative")
	ErrTooManySets         = errors.New("too many sets submitted")
)

func ValidateScores(player1, player2 []int) error {
	if len(player1) != len(player2) {
		return ErrScoreLengthMismatch
	}
	if len(player1) > MaxSetsPlayed {
		return ErrTooManySets
	}
	for i := range player1 {
		if player1[i] < 0 || player2[i] < 0 {
			return ErrNegativeSetScore
		}
	}
	return nil
}

// SetsWon counts the sets each side took. A set with equal points counts for nobody.
func SetsWon(player1, player2 []int) (int, int) {
	var w1, w2 int
	for i := 0; i < len(player1) && i < len(player2); i++ {
		switch {
		case player1[i] > player2[i]:
			w1++
		case player2[i] > player1[i]:
			w2++
		}
	}
	return w1, w2
}

// WinnerSide reports which slot won the majority of sets; false on an equal count.
func WinnerSide(player1, player2 []int) (models.Slot, bool) {
	w1, w2 := SetsWon(player1, player2)
	switch {
	case w1 > w2:
		return models.SlotPlayer1, true
	case w2 > w1:
		return models.SlotPlayer2, true
	default:
		return 0, false
	}
}

// PointDifference is player1's total set points minus player2's.
func PointDifference(player1, player2 []int) int {
	diff := 0
	for _, p := range player1 {
		diff += p
	}
	for _, p := range player2 {
		diff -= p
	}
	return diff
}

// ByeScore is the synthetic score posted on a bye: setsToWin sets at 11-0.
func ByeScore(setsToWin int) ([]int, []int) {
	p1 := make([]int, setsToWin)
	p2 := make([]int, setsToWin)
	for i := range p1 {
		p1[i] = ByeSetPoints
	}
	return p1, p2
}
