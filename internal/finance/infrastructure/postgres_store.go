package infrastructure

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	financeErrors "github.com/sebuszqo/FinanceTracker/internal/finance/errors"
)

type txKey struct{}

// querier is the subset of *sql.DB and *sql.Tx the repositories need.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// PostgresStore is the database/sql implementation of domain.TxManager.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// WithinTx runs fn inside a database transaction. A nested call joins the
// transaction that is already open on ctx.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return financeErrors.NewStorageError("begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			safeRollback(tx)
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		safeRollback(tx)
		return err
	}

	if err := tx.Commit(); err != nil {
		return financeErrors.NewStorageError("commit transaction", err)
	}
	return nil
}

func safeRollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		log.Error().Err(err).Msg("transaction rollback failed")
	}
}

// conn returns the transaction on ctx, or the pool when there is none.
func conn(ctx context.Context, db *sql.DB) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// isUUID accepts only the hyphenated form, since Postgres rejects some of
// the other encodings uuid.Parse understands.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}
