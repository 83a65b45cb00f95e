package brackets

import (
	"errors"
	"fmt"
)

const (
	RoundOf32          = "Round of 32"
	RoundOf16          = "Round of 16"
	RoundQuarterfinals = "Quarterfinals"
	RoundSemifinals    = "Semifinals"
	RoundFinal         = "Final"
	RoundRobin         = "Round Robin"
	RoundGroupStage    = "Group Stage"
)

const (
	MinBracketSize = 4
	MaxBracketSize = 32
)

var (
	ErrNotEnoughParticipants = errors.New("not enough participants to generate a bracket (minimum 2)")
	ErrTooManyParticipants   = fmt.Errorf("too many participants for an elimination bracket (maximum %d)", MaxBracketSize)
)

// eliminationRounds is ordered from the earliest round to the Final.
var eliminationRounds = []string{RoundOf32, RoundOf16, RoundQuarterfinals, RoundSemifinals, RoundFinal}

var roundProgression = map[string]string{
	RoundOf32:          RoundOf16,
	RoundOf16:          RoundQuarterfinals,
	RoundQuarterfinals: RoundSemifinals,
	RoundSemifinals:    RoundFinal,
}

var matchesPerRound = map[string]int{
	RoundOf32:          16,
	RoundOf16:          8,
	RoundQuarterfinals: 4,
	RoundSemifinals:    2,
	RoundFinal:         1,
}

// NextRound returns the round a winner of round advances to. The Final, round-robin
// and group-stage rounds are terminal.
func NextRound(round string) (string, bool) {
	next, ok := roundProgression[round]
	return next, ok
}

func IsEliminationRound(round string) bool {
	_, ok := matchesPerRound[round]
	return ok
}

// MatchesInRound is the nominal number of matches of an elimination round, 0 otherwise.
func MatchesInRound(round string) int {
	return matchesPerRound[round]
}

// EliminationRank is the best rank a player knocked out in round can hold: the range
// minimum shared by every loser of that round (Semifinals -> 3, Quarterfinals -> 5, ...).
func EliminationRank(round string) int {
	n, ok := matchesPerRound[round]
	if !ok {
		return 0
	}
	return n + 1
}

// RoundDepth orders elimination rounds, higher is later. Non-elimination rounds are -1.
func RoundDepth(round string) int {
	for i, r := range eliminationRounds {
		if r == round {
			return i
		}
	}
	return -1
}

// BracketSize is the smallest power of two >= n, never below MinBracketSize.
func BracketSize(n int) (int, error) {
	if n < 2 {
		return 0, ErrNotEnoughParticipants
	}
	if n > MaxBracketSize {
		return 0, ErrTooManyParticipants
	}
	size := MinBracketSize
	for size < n {
		size <<= 1
	}
	return size, nil
}

func FirstRoundForSize(size int) (string, error) {
	for _, r := range eliminationRounds {
		if matchesPerRound[r]*2 == size {
			return r, nil
		}
	}
	return "", fmt.Errorf("unsupported bracket size %d", size)
}

// RoundsForSize lists the rounds of a bracket of the given size, first round to Final.
func RoundsForSize(size int) ([]string, error) {
	first, err := FirstRoundForSize(size)
	if err != nil {
		return nil, err
	}
	rounds := []string{first}
	for r := first; ; {
		next, ok := NextRound(r)
		if !ok {
			break
		}
		rounds = append(rounds, next)
		r = next
	}
	return rounds, nil
}
