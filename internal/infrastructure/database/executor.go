package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/baajur/payments-gateway/internal/domain"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repositories resolve it from the context so the same code runs standalone
// or inside a scoped transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// QuerierFromContext returns the scoped transaction carried by ctx, or
// fallback when none is in flight.
func QuerierFromContext(ctx context.Context, fallback Querier) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return fallback
}

// TxExecutor isolates blocking storage calls from request handlers. Every
// call is admitted through a bounded pool so the database connection pool is
// never oversubscribed; InTransaction additionally wraps the closure in a
// single atomic storage transaction.
type TxExecutor interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Executor struct {
	db     *sql.DB
	slots  chan struct{}
	logger zerolog.Logger
}

func NewExecutor(dm *DBManager, workers int, logger zerolog.Logger) *Executor {
	if workers <= 0 {
		workers = 16
	}
	return &Executor{
		db:     dm.Db,
		slots:  make(chan struct{}, workers),
		logger: logger.With().Str("component", "db_executor").Logger(),
	}
}

func (e *Executor) acquire(ctx context.Context) error {
	select {
	case e.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for storage worker: %w", ctx.Err())
	}
}

func (e *Executor) release() {
	<-e.slots
}

// Do runs fn with plain database access, outside any scoped transaction.
func (e *Executor) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := e.acquire(ctx); err != nil {
		return err
	}
	defer e.release()

	return fn(ctx)
}

// InTransaction runs fn inside one storage transaction. The transaction is
// handed to repositories through the context; fn returning an error rolls
// everything back, so callers observe all-or-nothing semantics.
func (e *Executor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := e.acquire(ctx); err != nil {
		return err
	}
	defer e.release()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		e.logger.Error().Err(err).Msg("Failed to begin transaction")
		return fmt.Errorf("begin: %w", domain.ErrStorageUnavailable)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			e.logger.Error().Err(rbErr).Msg("Rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		e.logger.Error().Err(err).Msg("Commit failed")
		return fmt.Errorf("commit: %w", domain.ErrStorageUnavailable)
	}
	return nil
}
