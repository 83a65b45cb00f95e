package brackets

import (
	"testing"

	"github.com/Dosada05/tournament-bracket/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ranksOf(rows []*models.Standing) map[int]int {
	out := make(map[int]int, len(rows))
	for _, r := range rows {
		out[r.PlayerID] = r.Rank
	}
	return out
}

func rowFor(t *testing.T, rows []*models.Standing, playerID int) *models.Standing {
	t.Helper()
	for _, r := range rows {
		if r.PlayerID == playerID {
			return r
		}
	}
	require.Failf(t, "missing standing", "player %d", playerID)
	return nil
}

func TestEliminationStandings_FourPlayers(t *testing.T) {
	// A=1, B=2, C=3, D=4
	matches := []*models.Match{
		completed(1, RoundSemifinals, 1, 4, 1),
		completed(2, RoundSemifinals, 2, 3, 2),
		completed(3, RoundFinal, 1, 2, 1),
	}
	rows := EliminationStandings(matches, nil)

	assert.Equal(t, map[int]int{1: 1, 2: 2, 3: 3, 4: 3}, ranksOf(rows))
	assert.Equal(t, 1, rows[0].PlayerID)

	a := rowFor(t, rows, 1)
	assert.Equal(t, 2, a.Wins)
	assert.Equal(t, 0, a.Losses)
	assert.Equal(t, 6, a.Points)

	b := rowFor(t, rows, 2)
	assert.Equal(t, 1, b.Wins)
	assert.Equal(t, 1, b.Losses)
}

func TestEliminationStandings_ByesAreNotWins(t *testing.T) {
	matches := []*models.Match{
		completed(1, RoundQuarterfinals, 1, 0, 1),
		completed(2, RoundQuarterfinals, 2, 0, 2),
		completed(3, RoundQuarterfinals, 3, 6, 3),
		completed(4, RoundQuarterfinals, 4, 5, 5),
		completed(5, RoundSemifinals, 1, 2, 1),
		completed(6, RoundSemifinals, 3, 5, 5),
		completed(7, RoundFinal, 1, 5, 5),
	}
	scores := map[int]*models.MatchScore{
		1: {MatchID: 1, Player1Scores: []int{11, 11, 11}, Player2Scores: []int{0, 0, 0}},
	}
	rows := EliminationStandings(matches, scores)

	assert.Equal(t, map[int]int{5: 1, 1: 2, 2: 3, 3: 3, 4: 5, 6: 5}, ranksOf(rows))
	one := rowFor(t, rows, 1)
	assert.Equal(t, 1, one.Wins)
	assert.Equal(t, 0, one.PointDifference)
	assert.Equal(t, 3, rowFor(t, rows, 5).Wins)
}

func TestEliminationStandings_Unfinished(t *testing.T) {
	matches := []*models.Match{
		completed(1, RoundSemifinals, 1, 4, 1),
		scheduled(2, RoundSemifinals, 2, 3),
		scheduled(3, RoundFinal, 1, 0),
	}
	ranks := ranksOf(EliminationStandings(matches, nil))
	assert.Equal(t, 2, ranks[1])
	assert.Equal(t, 3, ranks[2])
	assert.Equal(t, 3, ranks[3])
	assert.Equal(t, 3, ranks[4])
}

func TestRoundRobinStandings(t *testing.T) {
	t.Run("point difference breaks ties", func(t *testing.T) {
		matches := []*models.Match{
			completed(1, RoundRobin, 1, 2, 1),
			completed(2, RoundRobin, 2, 3, 2),
			completed(3, RoundRobin, 3, 1, 3),
		}
		scores := map[int]*models.MatchScore{
			1: {Player1Scores: []int{11, 11}, Player2Scores: []int{1, 1}},
			2: {Player1Scores: []int{11, 11}, Player2Scores: []int{9, 9}},
			3: {Player1Scores: []int{11, 11}, Player2Scores: []int{5, 5}},
		}
		for id, s := range scores {
			s.MatchID = id
		}
		rows := RoundRobinStandings([]int{1, 2, 3}, matches, scores)
		// 1: +20 -12 = 8; 2: -20 +4 = -16; 3: -4 +12 = 8
		assert.Equal(t, map[int]int{1: 1, 3: 1, 2: 3}, ranksOf(rows))
		assert.Equal(t, 3, rowFor(t, rows, 2).Points)
	})

	t.Run("competition ranking", func(t *testing.T) {
		matches := []*models.Match{
			completed(1, RoundRobin, 1, 2, 1),
			completed(2, RoundRobin, 1, 3, 1),
			completed(3, RoundRobin, 1, 4, 1),
			completed(4, RoundRobin, 2, 3, 2),
			completed(5, RoundRobin, 3, 4, 3),
			completed(6, RoundRobin, 4, 2, 4),
		}
		rows := RoundRobinStandings([]int{1, 2, 3, 4}, matches, nil)
		assert.Equal(t, map[int]int{1: 1, 2: 2, 3: 2, 4: 2}, ranksOf(rows))
		assert.Equal(t, 9, rows[0].Points)
	})

	t.Run("players without matches are listed", func(t *testing.T) {
		rows := RoundRobinStandings([]int{7, 8}, nil, nil)
		assert.Equal(t, map[int]int{7: 1, 8: 1}, ranksOf(rows))
	})
}

func TestGroupStageStandings(t *testing.T) {
	matches := []*models.Match{
		inGroup(completed(1, RoundGroupStage, 1, 5, 1), "Group A"),
		inGroup(completed(2, RoundGroupStage, 2, 6, 2), "Group B"),
		completed(3, RoundSemifinals, 1, 4, 1),
		completed(4, RoundSemifinals, 2, 3, 3),
		completed(5, RoundFinal, 1, 3, 3),
	}
	rows := GroupStageStandings([]int{1, 2, 3, 4, 5, 6}, matches, nil)

	assert.Equal(t, map[int]int{
		3: 1, 1: 2, 2: 3, 4: 3,
		5: models.EliminatedInGroupsRank, 6: models.EliminatedInGroupsRank,
	}, ranksOf(rows))
	assert.Equal(t, 2, rowFor(t, rows, 1).Wins, "group wins count towards the record")
	assert.Equal(t, 3, rows[0].PlayerID)
}

func TestStandingsAreIdempotent(t *testing.T) {
	matches := []*models.Match{
		completed(1, RoundRobin, 1, 2, 2),
		completed(2, RoundRobin, 1, 3, 1),
		completed(3, RoundRobin, 2, 3, 2),
	}
	first := Standings(models.FormatRoundRobin, []int{1, 2, 3}, matches, nil)
	second := Standings(models.FormatRoundRobin, []int{1, 2, 3}, matches, nil)
	assert.Equal(t, first, second)
}
