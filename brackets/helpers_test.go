package brackets

import (
	"time"

	"github.com/Dosada05/tournament-bracket/models"
)

// seededParticipants returns participants with player ids 1..n in the given rating order.
func seededParticipants(ratings ...int) []*models.Participant {
	out := make([]*models.Participant, len(ratings))
	for i, r := range ratings {
		out[i] = &models.Participant{ID: 100 + i, TournamentID: 1, PlayerID: i + 1, Rating: r}
	}
	return out
}

func completed(id int, round string, p1, p2, winner int) *models.Match {
	m := &models.Match{ID: id, TournamentID: 1, Round: round, Status: models.MatchCompleted}
	if p1 != 0 {
		m.Player1ID = intPtr(p1)
	}
	if p2 != 0 {
		m.Player2ID = intPtr(p2)
	}
	if winner != 0 {
		m.WinnerID = intPtr(winner)
	}
	return m
}

func scheduled(id int, round string, p1, p2 int) *models.Match {
	m := completed(id, round, p1, p2, 0)
	m.Status = models.MatchScheduled
	return m
}

func inGroup(m *models.Match, group string) *models.Match {
	m.GroupName = &group
	return m
}

func at(m *models.Match, ts time.Time) *models.Match {
	m.EndTime = &ts
	return m
}

func reverseShuffle(n int, swap func(i, j int)) {
	for i := 0; i < n/2; i++ {
		swap(i, n-1-i)
	}
}
