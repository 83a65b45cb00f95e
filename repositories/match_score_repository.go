package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-bracket/models"
	"github.com/lib/pq"
)

var (
	ErrMatchScoreNotFound     = errors.New("match score not found")
	ErrMatchScoreMatchInvalid = errors.New("match score references a missing match")
)

// MatchScoreRepository keeps at most one live score per match; a new score overwrites.
type MatchScoreRepository interface {
	Upsert(ctx context.Context, exec SQLExecutor, score *models.MatchScore) error
	GetByMatchID(ctx context.Context, exec SQLExecutor, matchID int) (*models.MatchScore, error)
	// ListByTournament returns scores keyed by match id.
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (map[int]*models.MatchScore, error)
	DeleteByMatchID(ctx context.Context, exec SQLExecutor, matchID int) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresMatchScoreRepository struct {
	db *sql.DB
}

func NewPostgresMatchScoreRepository(db *sql.DB) MatchScoreRepository {
	return &postgresMatchScoreRepository{db: db}
}

func (r *postgresMatchScoreRepository) Upsert(ctx context.Context, exec SQLExecutor, score *models.MatchScore) error {
	query := `
		INSERT INTO match_scores (match_id, player1_scores, player2_scores, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (match_id) DO UPDATE
		SET player1_scores = EXCLUDED.player1_scores,
		    player2_scores = EXCLUDED.player2_scores,
		    updated_at = NOW()
		RETURNING id, updated_at`

	err := executorOr(exec, r.db).QueryRowContext(ctx, query,
		score.MatchID, toInt64s(score.Player1Scores), toInt64s(score.Player2Scores),
	).Scan(&score.ID, &score.UpdatedAt)

	return constraintError(err, map[string]error{
		"match_scores_match_id_fkey": ErrMatchScoreMatchInvalid,
	})
}

func scanMatchScore(row rowScanner) (*models.MatchScore, error) {
	var s models.MatchScore
	var p1, p2 pq.Int64Array
	if err := row.Scan(&s.ID, &s.MatchID, &p1, &p2, &s.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchScoreNotFound
		}
		return nil, err
	}
	s.Player1Scores = toInts(p1)
	s.Player2Scores = toInts(p2)
	return &s, nil
}

func (r *postgresMatchScoreRepository) GetByMatchID(ctx context.Context, exec SQLExecutor, matchID int) (*models.MatchScore, error) {
	query := `SELECT id, match_id, player1_scores, player2_scores, updated_at FROM match_scores WHERE match_id = $1`
	return scanMatchScore(executorOr(exec, r.db).QueryRowContext(ctx, query, matchID))
}

func (r *postgresMatchScoreRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (map[int]*models.MatchScore, error) {
	query := `
		SELECT s.id, s.match_id, s.player1_scores, s.player2_scores, s.updated_at
		FROM match_scores s
		JOIN matches m ON m.id = s.match_id
		WHERE m.tournament_id = $1`

	rows, err := executorOr(exec, r.db).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	scores := make(map[int]*models.MatchScore)
	for rows.Next() {
		s, scanErr := scanMatchScore(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match score: %w", scanErr)
		}
		scores[s.MatchID] = s
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match scores: %w", err)
	}
	return scores, nil
}

func (r *postgresMatchScoreRepository) DeleteByMatchID(ctx context.Context, exec SQLExecutor, matchID int) error {
	if _, err := executorOr(exec, r.db).ExecContext(ctx, `DELETE FROM match_scores WHERE match_id = $1`, matchID); err != nil {
		return fmt.Errorf("failed to delete score of match %d: %w", matchID, err)
	}
	return nil
}

func (r *postgresMatchScoreRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	query := `DELETE FROM match_scores WHERE match_id IN (SELECT id FROM matches WHERE tournament_id = $1)`
	if _, err := executorOr(exec, r.db).ExecContext(ctx, query, tournamentID); err != nil {
		return fmt.Errorf("failed to delete scores for tournament %d: %w", tournamentID, err)
	}
	return nil
}
