package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-bracket/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchTournamentInvalid = errors.New("match tournament conflict or invalid")
	ErrMatchPlayerInvalid     = errors.New("match player conflict or invalid")
	ErrMatchStatusInvalid     = errors.New("match status invalid")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	// LockByID reads a match with a row lock held until the surrounding transaction ends.
	LockByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	// ListByTournament returns every match of a tournament in creation order.
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error)
	// ListByRound returns one round in creation order; the position in the slice is the
	// match's index within its round.
	ListByRound(ctx context.Context, exec SQLExecutor, tournamentID int, round string) ([]*models.Match, error)
	CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	CountByRounds(ctx context.Context, exec SQLExecutor, tournamentID int, rounds []string) (int, error)
	UpdateResult(ctx context.Context, exec SQLExecutor, match *models.Match) error
	// AssignSlot writes a player into one slot and clears the winner. With resetStatus
	// the match goes back to scheduled; otherwise only a completed match is reopened.
	AssignSlot(ctx context.Context, exec SQLExecutor, matchID int, slot models.Slot, playerID int, resetStatus bool) error
	// ResetSlot empties one slot, clears winner and end time, and reschedules the match.
	ResetSlot(ctx context.Context, exec SQLExecutor, matchID int, slot models.Slot) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
	// ListWithDetails joins player names and the live score for display.
	ListWithDetails(ctx context.Context, tournamentID int) ([]*models.Match, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, tournament_id, round, group_name, player1_id, player2_id, winner_id,
		       status, start_time, end_time, created_at, updated_at`

func (r *postgresMatchRepository) scanMatch(row rowScanner) (*models.Match, error) {
	var m models.Match
	var groupName sql.NullString
	var p1, p2, winner sql.NullInt64
	var start, end sql.NullTime

	err := row.Scan(&m.ID, &m.TournamentID, &m.Round, &groupName, &p1, &p2, &winner,
		&m.Status, &start, &end, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	if groupName.Valid {
		m.GroupName = &groupName.String
	}
	m.Player1ID = nullIntPtr(p1)
	m.Player2ID = nullIntPtr(p2)
	m.WinnerID = nullIntPtr(winner)
	if start.Valid {
		m.StartTime = &start.Time
	}
	if end.Valid {
		m.EndTime = &end.Time
	}
	return &m, nil
}

func nullIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	return constraintError(err, map[string]error{
		"matches_tournament_id_fkey": ErrMatchTournamentInvalid,
		"matches_player1_id_fkey":    ErrMatchPlayerInvalid,
		"matches_player2_id_fkey":    ErrMatchPlayerInvalid,
		"matches_winner_id_fkey":     ErrMatchPlayerInvalid,
		"matches_status_check":       ErrMatchStatusInvalid,
	})
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches
			(tournament_id, round, group_name, player1_id, player2_id, winner_id, status, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := executorOr(exec, r.db).QueryRowContext(ctx, query,
		match.TournamentID,
		match.Round,
		match.GroupName,
		match.Player1ID,
		match.Player2ID,
		match.WinnerID,
		match.Status,
		match.StartTime,
		match.EndTime,
	).Scan(&match.ID, &match.CreatedAt, &match.UpdatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	m, err := r.scanMatch(executorOr(exec, r.db).QueryRowContext(ctx, query, id))
	if err != nil && !errors.Is(err, ErrMatchNotFound) {
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return m, err
}

func (r *postgresMatchRepository) LockByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1 FOR UPDATE`
	m, err := r.scanMatch(executorOr(exec, r.db).QueryRowContext(ctx, query, id))
	if err != nil && !errors.Is(err, ErrMatchNotFound) {
		return nil, fmt.Errorf("failed to lock match %d: %w", id, err)
	}
	return m, err
}

func (r *postgresMatchRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := executorOr(exec, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := r.scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match rows: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1 ORDER BY id ASC`
	matches, err := r.list(ctx, exec, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) ListByRound(ctx context.Context, exec SQLExecutor, tournamentID int, round string) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1 AND round = $2 ORDER BY id ASC`
	matches, err := r.list(ctx, exec, query, tournamentID, round)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s matches for tournament %d: %w", round, tournamentID, err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	var count int
	err := executorOr(exec, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM matches WHERE tournament_id = $1`, tournamentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count matches for tournament %d: %w", tournamentID, err)
	}
	return count, nil
}

func (r *postgresMatchRepository) CountByRounds(ctx context.Context, exec SQLExecutor, tournamentID int, rounds []string) (int, error) {
	var count int
	err := executorOr(exec, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM matches WHERE tournament_id = $1 AND round = ANY($2)`, tournamentID, pq.Array(rounds),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count matches by round for tournament %d: %w", tournamentID, err)
	}
	return count, nil
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		UPDATE matches
		SET winner_id = $1, status = $2, start_time = $3, end_time = $4, updated_at = $5
		WHERE id = $6`
	match.UpdatedAt = time.Now()
	result, err := executorOr(exec, r.db).ExecContext(ctx, query,
		match.WinnerID, match.Status, match.StartTime, match.EndTime, match.UpdatedAt, match.ID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) AssignSlot(ctx context.Context, exec SQLExecutor, matchID int, slot models.Slot, playerID int, resetStatus bool) error {
	statusExpr := `'scheduled'`
	endExpr := `NULL`
	if !resetStatus {
		statusExpr = `CASE WHEN status = 'completed' THEN 'scheduled' ELSE status END`
		endExpr = `CASE WHEN status = 'completed' THEN NULL ELSE end_time END`
	}
	query := fmt.Sprintf(`
		UPDATE matches
		SET %s = $1, winner_id = NULL, status = %s, end_time = %s, updated_at = NOW()
		WHERE id = $2`, slot.Column(), statusExpr, endExpr)

	result, err := executorOr(exec, r.db).ExecContext(ctx, query, playerID, matchID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) ResetSlot(ctx context.Context, exec SQLExecutor, matchID int, slot models.Slot) error {
	query := fmt.Sprintf(`
		UPDATE matches
		SET %s = NULL, winner_id = NULL, status = 'scheduled', end_time = NULL, updated_at = NOW()
		WHERE id = $1`, slot.Column())

	result, err := executorOr(exec, r.db).ExecContext(ctx, query, matchID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	_, err := executorOr(exec, r.db).ExecContext(ctx, `DELETE FROM matches WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to delete matches for tournament %d: %w", tournamentID, err)
	}
	return nil
}

func (r *postgresMatchRepository) ListWithDetails(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	query := `
		SELECT m.id, m.tournament_id, m.round, m.group_name, m.player1_id, m.player2_id, m.winner_id,
		       m.status, m.start_time, m.end_time, m.created_at, m.updated_at,
		       p1.name, p2.name, s.id, s.player1_scores, s.player2_scores, s.updated_at
		FROM matches m
		LEFT JOIN players p1 ON p1.id = m.player1_id
		LEFT JOIN players p2 ON p2.id = m.player2_id
		LEFT JOIN match_scores s ON s.match_id = m.id
		WHERE m.tournament_id = $1
		ORDER BY m.id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list match details for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var (
			m                  models.Match
			groupName          sql.NullString
			p1, p2, winner     sql.NullInt64
			start, end         sql.NullTime
			p1Name, p2Name     sql.NullString
			scoreID            sql.NullInt64
			p1Scores, p2Scores pq.Int64Array
			scoreUpdated       sql.NullTime
		)
		if err := rows.Scan(&m.ID, &m.TournamentID, &m.Round, &groupName, &p1, &p2, &winner,
			&m.Status, &start, &end, &m.CreatedAt, &m.UpdatedAt,
			&p1Name, &p2Name, &scoreID, &p1Scores, &p2Scores, &scoreUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan match detail row: %w", err)
		}

		if groupName.Valid {
			m.GroupName = &groupName.String
		}
		m.Player1ID, m.Player2ID, m.WinnerID = nullIntPtr(p1), nullIntPtr(p2), nullIntPtr(winner)
		if start.Valid {
			m.StartTime = &start.Time
		}
		if end.Valid {
			m.EndTime = &end.Time
		}
		if p1Name.Valid {
			m.Player1Name = &p1Name.String
		}
		if p2Name.Valid {
			m.Player2Name = &p2Name.String
		}
		if scoreID.Valid {
			m.Score = &models.MatchScore{
				ID:            int(scoreID.Int64),
				MatchID:       m.ID,
				Player1Scores: toInts(p1Scores),
				Player2Scores: toInts(p2Scores),
				UpdatedAt:     scoreUpdated.Time,
			}
		}
		matches = append(matches, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match detail rows: %w", err)
	}
	return matches, nil
}

func toInts(a pq.Int64Array) []int {
	out := make([]int, len(a))
	for i, v := range a {
		out[i] = int(v)
	}
	return out
}

func toInt64s(a []int) pq.Int64Array {
	out := make(pq.Int64Array, len(a))
	for i, v := range a {
		out[i] = int64(v)
	}
	return out
}
