package postgres

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger_balances (
	owner TEXT NOT NULL,
	asset TEXT NOT NULL,
	amount NUMERIC(20, 0) NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (owner, asset)
);

CREATE TABLE IF NOT EXISTS ledger_mints (
	address TEXT PRIMARY KEY,
	authority TEXT NOT NULL,
	decimals SMALLINT NOT NULL,
	supply NUMERIC(20, 0) NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS ledger_controllers (
	holder TEXT PRIMARY KEY,
	controller TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS amm_pools (
	address TEXT PRIMARY KEY,
	token_x TEXT NOT NULL,
	token_y TEXT NOT NULL,
	seed NUMERIC(20, 0) NOT NULL,
	fee_bps INTEGER NOT NULL,
	locked BOOLEAN NOT NULL,
	lp_decimals SMALLINT NOT NULL,
	lp_mint TEXT NOT NULL,
	vault_x TEXT NOT NULL,
	vault_y TEXT NOT NULL,
	authority TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS pool_window_metrics (
	pool_address TEXT NOT NULL,
	window_size_seconds BIGINT NOT NULL,
	window_start_ts TIMESTAMPTZ NOT NULL,
	window_end_ts TIMESTAMPTZ NOT NULL,
	swap_count BIGINT NOT NULL,
	deposit_count BIGINT NOT NULL,
	withdraw_count BIGINT NOT NULL,
	volume_x NUMERIC NOT NULL,
	volume_y NUMERIC NOT NULL,
	fee_x NUMERIC NOT NULL,
	fee_y NUMERIC NOT NULL,
	fee_rate_x NUMERIC,
	fee_rate_y NUMERIC,
	reserve_x NUMERIC NOT NULL,
	reserve_y NUMERIC NOT NULL,
	apr NUMERIC,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (pool_address, window_size_seconds, window_start_ts)
);

CREATE TABLE IF NOT EXISTS aggregate_state (
	name TEXT PRIMARY KEY,
	last_processed_ts BIGINT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate creates the ledger and pool tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
