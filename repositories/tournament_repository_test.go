package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dosada05/tournament-bracket/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tournamentRowColumns = []string{"id", "name", "format", "status", "match_format", "start_date", "end_date",
	"max_participants", "num_groups", "players_per_group_advance", "created_at", "updated_at", "count"}

func TestTournamentRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresTournamentRepository(db)

	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE t.id = $1")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(tournamentRowColumns).
			AddRow(2, "Spring Open", "group-stage", "ongoing", 5, start, nil, 16, 4, 2, start, start, 12))

	tour, err := repo.GetByID(context.Background(), nil, 2)
	require.NoError(t, err)
	assert.Equal(t, models.FormatGroupStage, tour.Format)
	assert.Equal(t, models.StatusOngoing, tour.Status)
	assert.Equal(t, 12, tour.ParticipantCount)
	groups, advance := tour.GroupConfig()
	assert.Equal(t, 4, groups)
	assert.Equal(t, 2, advance)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE t.id = $1")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows(tournamentRowColumns))
	_, err = repo.GetByID(context.Background(), nil, 3)
	assert.ErrorIs(t, err, ErrTournamentNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTournamentRepository_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresTournamentRepository(db)

	mock.ExpectExec("UPDATE tournaments SET status").
		WithArgs("completed", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateStatus(context.Background(), nil, 1, models.StatusCompleted))

	mock.ExpectExec("UPDATE tournaments SET status").
		WithArgs("completed", 2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdateStatus(context.Background(), nil, 2, models.StatusCompleted), ErrTournamentNotFound)

	mock.ExpectExec("UPDATE tournaments SET status").
		WithArgs("paused", 1).
		WillReturnError(&pq.Error{Code: "23514", Constraint: "tournaments_status_check"})
	assert.ErrorIs(t, repo.UpdateStatus(context.Background(), nil, 1, "paused"), ErrTournamentInvalidStatus)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipantRepository_ListByTournament(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY tp.rating DESC, tp.id ASC")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tournament_id", "player_id", "rating", "name", "created_at"}).
			AddRow(1, 1, 10, 1800, "A", now).
			AddRow(2, 1, 11, 1600, "B", now))

	list, err := NewPostgresParticipantRepository(db).ListByTournament(context.Background(), nil, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 10, list[0].PlayerID)
	assert.Equal(t, 1600, list[1].Rating)
	assert.NoError(t, mock.ExpectationsWereMet())
}
