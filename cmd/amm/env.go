package main

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammCore/internal/amm"
	"ammCore/internal/config"
	"ammCore/internal/identity"
	"ammCore/internal/ledger"
	"ammCore/internal/storage"
	"ammCore/internal/storage/bolt"
	"ammCore/internal/storage/postgres"
)

// env is everything a command needs once config is loaded.
type env struct {
	logger  *zap.Logger
	store   ledger.Store
	service *amm.Service
	key     *ecdsa.PrivateKey
}

func openEnv(ctx context.Context, cfg config.Config, needKey bool) (*env, error) {
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	var key *ecdsa.PrivateKey
	if needKey {
		if err := cfg.RequireKey(); err != nil {
			return nil, err
		}
		key, err = identity.ParsePrivateKey(cfg.Key)
		if err != nil {
			return nil, err
		}
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var journal storage.Journal
	if cfg.Journal != "" {
		journal = storage.NewJsonlJournal(cfg.Journal)
	}

	service := amm.NewService(amm.Config{Journal: journal}, store, logger)
	return &env{logger: logger, store: store, service: service, key: key}, nil
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (ledger.Store, error) {
	switch cfg.Store {
	case config.StorePostgres:
		logger.Debug("open store", zap.String("store", cfg.Store), zap.String("pg_dsn", redactDSN(cfg.PGDSN)))
		store, err := postgres.NewStore(ctx, cfg.PGDSN, postgres.Options{
			ConnectRetries:  cfg.PGConnectRetries,
			ConflictRetries: cfg.PGConflictRetries,
			RetryBaseDelay:  cfg.RetryBackoff,
		}, logger)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	default:
		logger.Debug("open store", zap.String("store", cfg.Store), zap.String("path", cfg.BoltPath))
		if dir := filepath.Dir(cfg.BoltPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		store, err := bolt.Open(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.logger.Warn("close store", zap.Error(err))
	}
	_ = e.logger.Sync()
}

func (e *env) address() common.Address {
	return crypto.PubkeyToAddress(e.key.PublicKey)
}

func (e *env) sign(digest common.Hash) (identity.Caller, error) {
	return identity.Sign(e.key, digest)
}

func printJSON(cmd *cobra.Command, value interface{}) error {
	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
