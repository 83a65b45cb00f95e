package brackets

import (
	"sort"

	"github.com/Dosada05/tournament-bracket/models"
)

type record struct {
	wins, losses, pointDiff int
}

// tally counts wins, losses and set-point difference over decided two-player matches.
// Byes carry a synthetic score and are skipped.
func tally(matches []*models.Match, scores map[int]*models.MatchScore) map[int]*record {
	records := make(map[int]*record)
	get := func(id int) *record {
		r, ok := records[id]
		if !ok {
			r = &record{}
			records[id] = r
		}
		return r
	}

	for _, m := range matches {
		if m.Status != models.MatchCompleted || m.WinnerID == nil {
			continue
		}
		loser := m.LoserID()
		if loser == nil {
			continue
		}
		get(*m.WinnerID).wins++
		get(*loser).losses++

		if s, ok := scores[m.ID]; ok && s != nil {
			diff := PointDifference(s.Player1Scores, s.Player2Scores)
			get(*m.Player1ID).pointDiff += diff
			get(*m.Player2ID).pointDiff -= diff
		}
	}
	return records
}

// eliminationRanks places every player seen in an elimination bracket. The Final
// decides 1 and 2; every other loser gets the range minimum of the round they lost
// in. A player without a decided exit holds the rank of the latest round reached.
func eliminationRanks(matches []*models.Match) map[int]int {
	deepest := make(map[int]string)
	lostIn := make(map[int]string)
	champion := 0

	for _, m := range matches {
		if !IsEliminationRound(m.Round) {
			continue
		}
		for _, p := range []*int{m.Player1ID, m.Player2ID} {
			if p == nil {
				continue
			}
			if cur, ok := deepest[*p]; !ok || RoundDepth(m.Round) > RoundDepth(cur) {
				deepest[*p] = m.Round
			}
		}
		if m.Status != models.MatchCompleted || m.WinnerID == nil {
			continue
		}
		if loser := m.LoserID(); loser != nil {
			lostIn[*loser] = m.Round
		}
		if m.Round == RoundFinal {
			champion = *m.WinnerID
		}
	}

	ranks := make(map[int]int, len(deepest))
	for player, round := range deepest {
		switch {
		case champion != 0 && player == champion:
			ranks[player] = 1
		case lostIn[player] != "":
			ranks[player] = EliminationRank(lostIn[player])
		default:
			ranks[player] = EliminationRank(round)
		}
	}
	return ranks
}

func buildStanding(playerID, rank int, rec *record) *models.Standing {
	s := &models.Standing{PlayerID: playerID, Rank: rank}
	if rec != nil {
		s.Wins = rec.wins
		s.Losses = rec.losses
		s.PointDifference = rec.pointDiff
		s.Points = rec.wins * PointsPerWin
	}
	return s
}

func sortByRank(rows []*models.Standing) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.PointDifference != b.PointDifference {
			return a.PointDifference > b.PointDifference
		}
		return a.PlayerID < b.PlayerID
	})
}

// EliminationStandings ranks a single-elimination tournament. Rows carry no tournament id.
func EliminationStandings(matches []*models.Match, scores map[int]*models.MatchScore) []*models.Standing {
	ranks := eliminationRanks(matches)
	records := tally(matches, scores)

	rows := make([]*models.Standing, 0, len(ranks))
	for player, rank := range ranks {
		rows = append(rows, buildStanding(player, rank, records[player]))
	}
	sortByRank(rows)
	return rows
}

// RoundRobinStandings ranks by points, point difference and wins. Players equal on all
// three share a rank and the next distinct row skips accordingly (1, 2, 2, 4).
func RoundRobinStandings(playerIDs []int, matches []*models.Match, scores map[int]*models.MatchScore) []*models.Standing {
	records := tally(matches, scores)

	rows := make([]*models.Standing, 0, len(playerIDs))
	for _, id := range playerIDs {
		rows = append(rows, buildStanding(id, 0, records[id]))
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.PointDifference != b.PointDifference {
			return a.PointDifference > b.PointDifference
		}
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		return a.PlayerID < b.PlayerID
	})

	for i, row := range rows {
		if i > 0 {
			prev := rows[i-1]
			if prev.Points == row.Points && prev.PointDifference == row.PointDifference && prev.Wins == row.Wins {
				row.Rank = prev.Rank
				continue
			}
		}
		row.Rank = i + 1
	}
	return rows
}

// GroupStageStandings ranks playoff players by the elimination rule applied to playoff
// matches only; everyone else is EliminatedInGroupsRank. Records span all matches.
func GroupStageStandings(playerIDs []int, matches []*models.Match, scores map[int]*models.MatchScore) []*models.Standing {
	playoffs := make([]*models.Match, 0)
	for _, m := range matches {
		if IsEliminationRound(m.Round) {
			playoffs = append(playoffs, m)
		}
	}
	ranks := eliminationRanks(playoffs)
	records := tally(matches, scores)

	rows := make([]*models.Standing, 0, len(playerIDs))
	for _, id := range playerIDs {
		rank, ok := ranks[id]
		if !ok {
			rank = models.EliminatedInGroupsRank
		}
		rows = append(rows, buildStanding(id, rank, records[id]))
	}
	sortByRank(rows)
	return rows
}

// Standings dispatches on the tournament format.
func Standings(format models.TournamentFormat, playerIDs []int, matches []*models.Match, scores map[int]*models.MatchScore) []*models.Standing {
	switch format {
	case models.FormatRoundRobin:
		return RoundRobinStandings(playerIDs, matches, scores)
	case models.FormatGroupStage:
		return GroupStageStandings(playerIDs, matches, scores)
	default:
		return EliminationStandings(matches, scores)
	}
}
