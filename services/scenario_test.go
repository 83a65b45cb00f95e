package services

import (
	"context"
	"testing"

	"github.com/Dosada05/tournament-bracket/brackets"
	"github.com/Dosada05/tournament-bracket/models"
	"github.com/stretchr/testify/require"
)

type seededPlayer struct {
	name   string
	rating int
}

// newTournament creates an upcoming tournament with the players registered in order.
func newTournament(t *testing.T, e *engine, format models.TournamentFormat, players ...seededPlayer) (*models.Tournament, []int) {
	t.Helper()
	tournament := e.store.addTournament(format, models.StatusUpcoming)
	ids := make([]int, len(players))
	for i, p := range players {
		ids[i] = e.store.addPlayer(tournament.ID, p.name, p.rating)
	}
	return tournament, ids
}

func fourPlayers() []seededPlayer {
	return []seededPlayer{{"A", 1800}, {"B", 1600}, {"C", 1400}, {"D", 1200}}
}

func ratedPlayers(n int) []seededPlayer {
	out := make([]seededPlayer, n)
	for i := range out {
		out[i] = seededPlayer{name: string(rune('A' + i)), rating: 2000 - 50*i}
	}
	return out
}

func start(t *testing.T, e *engine, tournamentID int) *StatusChangeResult {
	t.Helper()
	res, err := e.tournaments.UpdateStatus(context.Background(), tournamentID, models.StatusOngoing)
	require.NoError(t, err)
	return res
}

func win(t *testing.T, e *engine, matchID, winnerID int) *MatchResult {
	t.Helper()
	res, err := e.matches.RecordWinner(context.Background(), matchID, RecordWinnerInput{WinnerID: &winnerID})
	require.NoError(t, err)
	return res
}

func round(t *testing.T, e *engine, tournamentID int, name string) []*models.Match {
	t.Helper()
	matches := e.store.roundMatches(tournamentID, name)
	require.NotEmpty(t, matches, "round %s", name)
	return matches
}

func final(t *testing.T, e *engine, tournamentID int) *models.Match {
	t.Helper()
	return round(t, e, tournamentID, brackets.RoundFinal)[0]
}

func intp(v int) *int { return &v }
