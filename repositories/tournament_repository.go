package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-bracket/models"
)

var (
	ErrTournamentNotFound      = errors.New("tournament not found")
	ErrTournamentInvalidStatus = errors.New("invalid tournament status")
)

type TournamentRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error
	// ListStartable returns upcoming tournaments whose start date is not after now.
	ListStartable(ctx context.Context, now time.Time) ([]*models.Tournament, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentSelect = `
		SELECT t.id, t.name, t.format, t.status, t.match_format, t.start_date, t.end_date,
		       t.max_participants, t.num_groups, t.players_per_group_advance, t.created_at, t.updated_at,
		       (SELECT COUNT(*) FROM tournament_participants tp WHERE tp.tournament_id = t.id)
		FROM tournaments t`

func scanTournament(row rowScanner) (*models.Tournament, error) {
	var t models.Tournament
	var endDate sql.NullTime
	var numGroups, advance sql.NullInt64

	err := row.Scan(&t.ID, &t.Name, &t.Format, &t.Status, &t.MatchFormat, &t.StartDate, &endDate,
		&t.MaxParticipants, &numGroups, &advance, &t.CreatedAt, &t.UpdatedAt, &t.ParticipantCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if endDate.Valid {
		t.EndDate = &endDate.Time
	}
	t.NumGroups = nullIntPtr(numGroups)
	t.PlayersPerGroupAdvance = nullIntPtr(advance)
	return &t, nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	t, err := scanTournament(executorOr(exec, r.db).QueryRowContext(ctx, tournamentSelect+` WHERE t.id = $1`, id))
	if err != nil && !errors.Is(err, ErrTournamentNotFound) {
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, err)
	}
	return t, err
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $1, updated_at = NOW() WHERE id = $2`
	result, err := executorOr(exec, r.db).ExecContext(ctx, query, status, id)
	if err != nil {
		return constraintError(err, map[string]error{
			"tournaments_status_check": ErrTournamentInvalidStatus,
		})
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) ListStartable(ctx context.Context, now time.Time) ([]*models.Tournament, error) {
	query := tournamentSelect + ` WHERE t.status = $1 AND t.start_date <= $2 ORDER BY t.start_date ASC, t.id ASC`
	rows, err := r.db.QueryContext(ctx, query, models.StatusUpcoming, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list startable tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, scanErr := scanTournament(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament: %w", scanErr)
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tournaments: %w", err)
	}
	return tournaments, nil
}
