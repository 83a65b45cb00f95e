package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-bracket/models"
	"github.com/lib/pq"
)

var ErrPlayerNotFound = errors.New("player not found")

type PlayerRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Player, error)
	// GetRatings returns current ratings keyed by player id; unknown ids are absent.
	GetRatings(ctx context.Context, exec SQLExecutor, ids []int) (map[int]int, error)
	UpdateRating(ctx context.Context, exec SQLExecutor, id int, rating int) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Player, error) {
	query := `SELECT id, name, rating, is_guest, created_at FROM players WHERE id = $1`

	var p models.Player
	err := executorOr(exec, r.db).QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Rating, &p.IsGuest, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player %d: %w", id, err)
	}
	return &p, nil
}

func (r *postgresPlayerRepository) GetRatings(ctx context.Context, exec SQLExecutor, ids []int) (map[int]int, error) {
	ratings := make(map[int]int, len(ids))
	if len(ids) == 0 {
		return ratings, nil
	}

	rows, err := executorOr(exec, r.db).QueryContext(ctx,
		`SELECT id, rating FROM players WHERE id = ANY($1)`, toInt64s(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to load player ratings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, rating int
		if err := rows.Scan(&id, &rating); err != nil {
			return nil, fmt.Errorf("failed to scan player rating: %w", err)
		}
		ratings[id] = rating
	}
	return ratings, rows.Err()
}

func (r *postgresPlayerRepository) UpdateRating(ctx context.Context, exec SQLExecutor, id int, rating int) error {
	result, err := executorOr(exec, r.db).ExecContext(ctx, `UPDATE players SET rating = $1 WHERE id = $2`, rating, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23514" {
			return fmt.Errorf("rating %d rejected for player %d: %w", rating, id, err)
		}
		return fmt.Errorf("failed to update rating of player %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}
