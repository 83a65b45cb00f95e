package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// advisoryLockNamespace is the first key of the two-key advisory lock; the tournament
// id is the second, so bracket locks never collide with other lock users.
const advisoryLockNamespace int32 = 7301

type TxFunc func(ctx context.Context, exec SQLExecutor) error

type Transactor interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

// TournamentLocker serializes bracket generation per tournament across every server
// instance sharing the database.
type TournamentLocker interface {
	// WithTournamentLock runs fn inside a transaction holding the tournament's advisory
	// lock. When another session holds it, fn is not run and acquired is false.
	WithTournamentLock(ctx context.Context, tournamentID int, fn TxFunc) (acquired bool, err error)
}

type PostgresTransactor struct {
	db *sql.DB
}

func NewPostgresTransactor(db *sql.DB) *PostgresTransactor {
	return &PostgresTransactor{db: db}
}

func (t *PostgresTransactor) WithinTx(ctx context.Context, fn TxFunc) (err error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	return fn(ctx, tx)
}

func (t *PostgresTransactor) WithTournamentLock(ctx context.Context, tournamentID int, fn TxFunc) (bool, error) {
	acquired := false
	err := t.WithinTx(ctx, func(ctx context.Context, exec SQLExecutor) error {
		if err := exec.QueryRowContext(ctx,
			`SELECT pg_try_advisory_xact_lock($1, $2)`, advisoryLockNamespace, tournamentID,
		).Scan(&acquired); err != nil {
			return fmt.Errorf("failed to acquire advisory lock for tournament %d: %w", tournamentID, err)
		}
		if !acquired {
			return nil
		}
		return fn(ctx, exec)
	})
	if err != nil {
		return acquired, err
	}
	return acquired, nil
}
