package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/tournament-bracket/models"
)

var (
	ErrStandingPlayerInvalid     = errors.New("standing player conflict or invalid")
	ErrStandingTournamentInvalid = errors.New("standing tournament conflict or invalid")
)

// StandingRepository only supports whole-tournament replacement: delete, then batch create.
type StandingRepository interface {
	BatchCreate(ctx context.Context, exec SQLExecutor, standings []*models.Standing) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Standing, error)
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresStandingRepository struct {
	db *sql.DB // Main DB connection, used if exec is nil
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) BatchCreate(ctx context.Context, exec SQLExecutor, standings []*models.Standing) error {
	if len(standings) == 0 {
		return nil
	}

	const cols = 7
	var qb strings.Builder
	qb.WriteString(`
		INSERT INTO tournament_standings
		    (tournament_id, player_id, rank, wins, losses, points, point_difference)
		VALUES `)
	args := make([]interface{}, 0, len(standings)*cols)
	for i, s := range standings {
		if i > 0 {
			qb.WriteString(", ")
		}
		base := i * cols
		fmt.Fprintf(&qb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7)
		args = append(args, s.TournamentID, s.PlayerID, s.Rank, s.Wins, s.Losses, s.Points, s.PointDifference)
	}
	qb.WriteString(" RETURNING id, updated_at")

	rows, err := executorOr(exec, r.db).QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return constraintError(err, map[string]error{
			"tournament_standings_player_id_fkey":              ErrStandingPlayerInvalid,
			"tournament_standings_tournament_id_fkey":          ErrStandingTournamentInvalid,
			"tournament_standings_tournament_id_player_id_key": ErrStandingPlayerInvalid,
		})
	}
	defer rows.Close()

	for i := 0; rows.Next(); i++ {
		if i >= len(standings) {
			break
		}
		if err := rows.Scan(&standings[i].ID, &standings[i].UpdatedAt); err != nil {
			return fmt.Errorf("BatchCreate failed to scan standing id: %w", err)
		}
	}
	return rows.Err()
}

func (r *postgresStandingRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Standing, error) {
	query := `
		SELECT ts.id, ts.tournament_id, ts.player_id, ts.rank, ts.wins, ts.losses, ts.points,
		       ts.point_difference, ts.updated_at, COALESCE(p.name, '')
		FROM tournament_standings ts
		LEFT JOIN players p ON p.id = ts.player_id
		WHERE ts.tournament_id = $1
		ORDER BY ts.rank ASC, ts.points DESC, ts.point_difference DESC, ts.player_id ASC`

	rows, err := executorOr(exec, r.db).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	standings := make([]*models.Standing, 0)
	for rows.Next() {
		var s models.Standing
		if err := rows.Scan(&s.ID, &s.TournamentID, &s.PlayerID, &s.Rank, &s.Wins, &s.Losses,
			&s.Points, &s.PointDifference, &s.UpdatedAt, &s.PlayerName); err != nil {
			return nil, fmt.Errorf("failed to scan standing: %w", err)
		}
		standings = append(standings, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating standings: %w", err)
	}
	return standings, nil
}

func (r *postgresStandingRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	_, err := executorOr(exec, r.db).ExecContext(ctx, `DELETE FROM tournament_standings WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to delete standings for tournament %d: %w", tournamentID, err)
	}
	return nil
}
