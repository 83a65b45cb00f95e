package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-bracket/models"
)

var (
	ErrRatingPointInvalid  = errors.New("rating history references a missing player or match")
	ErrRatingPointNotFound = errors.New("rating history point not found")
)

// RatingRepository stores exactly one history point per (player, match) and the net
// rating change each tournament has applied to its players.
type RatingRepository interface {
	Upsert(ctx context.Context, exec SQLExecutor, point *models.RatingHistoryPoint) error
	GetPoint(ctx context.Context, exec SQLExecutor, playerID, matchID int) (*models.RatingHistoryPoint, error)
	// DeleteByTournament removes every point recorded for the tournament's matches.
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
	ListByPlayer(ctx context.Context, playerID int) ([]*models.RatingHistoryPoint, error)

	// TournamentDeltas returns the applied change keyed by player id.
	TournamentDeltas(ctx context.Context, exec SQLExecutor, tournamentID int) (map[int]int, error)
	ReplaceTournamentDeltas(ctx context.Context, exec SQLExecutor, tournamentID int, deltas map[int]int) error
	AddTournamentDelta(ctx context.Context, exec SQLExecutor, tournamentID, playerID, delta int) error
}

type postgresRatingRepository struct {
	db *sql.DB
}

func NewPostgresRatingRepository(db *sql.DB) RatingRepository {
	return &postgresRatingRepository{db: db}
}

func (r *postgresRatingRepository) Upsert(ctx context.Context, exec SQLExecutor, point *models.RatingHistoryPoint) error {
	query := `
		INSERT INTO player_rating_history (player_id, match_id, tournament_id, rating_before, rating, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (player_id, match_id) DO UPDATE
		SET tournament_id = EXCLUDED.tournament_id,
		    rating_before = EXCLUDED.rating_before,
		    rating = EXCLUDED.rating,
		    recorded_at = EXCLUDED.recorded_at
		RETURNING id`

	err := executorOr(exec, r.db).QueryRowContext(ctx, query,
		point.PlayerID, point.MatchID, point.TournamentID, point.RatingBefore, point.Rating, point.RecordedAt,
	).Scan(&point.ID)

	return constraintError(err, map[string]error{
		"player_rating_history_player_id_fkey": ErrRatingPointInvalid,
		"player_rating_history_match_id_fkey":  ErrRatingPointInvalid,
	})
}

func (r *postgresRatingRepository) GetPoint(ctx context.Context, exec SQLExecutor, playerID, matchID int) (*models.RatingHistoryPoint, error) {
	query := `
		SELECT id, player_id, match_id, tournament_id, rating_before, rating, recorded_at
		FROM player_rating_history
		WHERE player_id = $1 AND match_id = $2`

	p, err := scanRatingPoint(executorOr(exec, r.db).QueryRowContext(ctx, query, playerID, matchID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRatingPointNotFound
		}
		return nil, fmt.Errorf("failed to get rating point of player %d for match %d: %w", playerID, matchID, err)
	}
	return p, nil
}

func (r *postgresRatingRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	query := `
		DELETE FROM player_rating_history
		WHERE tournament_id = $1
		   OR match_id IN (SELECT id FROM matches WHERE tournament_id = $1)`
	if _, err := executorOr(exec, r.db).ExecContext(ctx, query, tournamentID); err != nil {
		return fmt.Errorf("failed to delete rating history for tournament %d: %w", tournamentID, err)
	}
	return nil
}

func (r *postgresRatingRepository) ListByPlayer(ctx context.Context, playerID int) ([]*models.RatingHistoryPoint, error) {
	query := `
		SELECT id, player_id, match_id, tournament_id, rating_before, rating, recorded_at
		FROM player_rating_history
		WHERE player_id = $1
		ORDER BY recorded_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rating history for player %d: %w", playerID, err)
	}
	defer rows.Close()

	points := make([]*models.RatingHistoryPoint, 0)
	for rows.Next() {
		p, err := scanRatingPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating history point: %w", err)
		}
		points = append(points, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rating history: %w", err)
	}
	return points, nil
}

func scanRatingPoint(row rowScanner) (*models.RatingHistoryPoint, error) {
	var p models.RatingHistoryPoint
	var tournamentID sql.NullInt64
	if err := row.Scan(&p.ID, &p.PlayerID, &p.MatchID, &tournamentID, &p.RatingBefore, &p.Rating, &p.RecordedAt); err != nil {
		return nil, err
	}
	p.TournamentID = nullIntPtr(tournamentID)
	return &p, nil
}

func (r *postgresRatingRepository) TournamentDeltas(ctx context.Context, exec SQLExecutor, tournamentID int) (map[int]int, error) {
	rows, err := executorOr(exec, r.db).QueryContext(ctx,
		`SELECT player_id, delta FROM tournament_rating_deltas WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating deltas for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	deltas := make(map[int]int)
	for rows.Next() {
		var playerID, delta int
		if err := rows.Scan(&playerID, &delta); err != nil {
			return nil, fmt.Errorf("failed to scan rating delta: %w", err)
		}
		deltas[playerID] = delta
	}
	return deltas, rows.Err()
}

func (r *postgresRatingRepository) ReplaceTournamentDeltas(ctx context.Context, exec SQLExecutor, tournamentID int, deltas map[int]int) error {
	ex := executorOr(exec, r.db)
	if _, err := ex.ExecContext(ctx, `DELETE FROM tournament_rating_deltas WHERE tournament_id = $1`, tournamentID); err != nil {
		return fmt.Errorf("failed to clear rating deltas for tournament %d: %w", tournamentID, err)
	}
	for playerID, delta := range deltas {
		if err := r.AddTournamentDelta(ctx, ex, tournamentID, playerID, delta); err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresRatingRepository) AddTournamentDelta(ctx context.Context, exec SQLExecutor, tournamentID, playerID, delta int) error {
	query := `
		INSERT INTO tournament_rating_deltas (tournament_id, player_id, delta)
		VALUES ($1, $2, $3)
		ON CONFLICT (tournament_id, player_id) DO UPDATE
		SET delta = tournament_rating_deltas.delta + EXCLUDED.delta`
	if _, err := executorOr(exec, r.db).ExecContext(ctx, query, tournamentID, playerID, delta); err != nil {
		return fmt.Errorf("failed to store rating delta of player %d in tournament %d: %w", playerID, tournamentID, err)
	}
	return nil
}
