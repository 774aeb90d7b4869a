package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"ammCore/internal/ledger"
)

// Options tunes connection and conflict retries.
type Options struct {
	ConnectRetries  int
	ConflictRetries int
	RetryBaseDelay  time.Duration
}

// Store is a ledger.Store on Postgres. Atomic units take a transaction
// scoped advisory lock on the pool and row locks on every balance and mint
// they touch, so units on different pools only wait for each other when
// they share an account.
type Store struct {
	pool   *pgxpool.Pool
	opts   Options
	logger *zap.Logger
}

func NewStore(ctx context.Context, dsn string, opts Options, logger *zap.Logger) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	err = withRetry(ctx, opts.ConnectRetries, opts.RetryBaseDelay, always, func(ctx context.Context) error {
		err := pool.Ping(ctx)
		if err != nil {
			logger.Warn("postgres ping failed", zap.Error(err))
		}
		return err
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool, opts: opts, logger: logger}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) Atomic(ctx context.Context, poolAddr common.Address, fn func(ledger.Tx) error) error {
	return withRetry(ctx, s.opts.ConflictRetries, s.opts.RetryBaseDelay, isTxConflict, func(ctx context.Context) error {
		err := s.atomic(ctx, poolAddr, fn)
		if isTxConflict(err) {
			s.logger.Debug("retrying conflicted unit", zap.String("pool", poolAddr.Hex()), zap.Error(err))
		}
		return err
	})
}

func (s *Store) atomic(ctx context.Context, poolAddr common.Address, fn func(ledger.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, poolAddr.Hex()); err != nil {
		return fmt.Errorf("lock pool: %w", err)
	}
	if err := fn(ledger.NewTx(&state{tx: tx})); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) View(ctx context.Context, fn func(ledger.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly, IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)
	return fn(ledger.NewTx(&state{tx: tx, readOnly: true}))
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
