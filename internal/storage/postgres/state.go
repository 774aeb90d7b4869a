package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"

	"ammCore/internal/ledger"
	"ammCore/internal/model"
)

// state adapts one pgx transaction to ledger.State. Amounts travel as
// decimal text so the full uint64 range fits NUMERIC(20, 0).
type state struct {
	tx       pgx.Tx
	readOnly bool
}

func (s *state) lockClause() string {
	if s.readOnly {
		return ""
	}
	return " FOR UPDATE"
}

func parseAmount(text string) (uint64, error) {
	v, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", text, err)
	}
	return v, nil
}

func formatAmount(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func (s *state) Balance(ctx context.Context, account model.Account) (uint64, error) {
	if !s.readOnly {
		// A row must exist before it can be locked.
		_, err := s.tx.Exec(ctx, `
			INSERT INTO ledger_balances (owner, asset, amount) VALUES ($1, $2, 0)
			ON CONFLICT (owner, asset) DO NOTHING
		`, account.Owner.Hex(), account.Asset.Hex())
		if err != nil {
			return 0, fmt.Errorf("reserve balance row: %w", err)
		}
	}

	var text string
	row := s.tx.QueryRow(ctx, `SELECT amount::text FROM ledger_balances WHERE owner=$1 AND asset=$2`+s.lockClause(),
		account.Owner.Hex(), account.Asset.Hex())
	if err := row.Scan(&text); err != nil {
		if isNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return parseAmount(text)
}

func (s *state) SetBalance(ctx context.Context, account model.Account, amount uint64) error {
	if s.readOnly {
		return ledger.ErrReadOnly
	}
	_, err := s.tx.Exec(ctx, `
		INSERT INTO ledger_balances (owner, asset, amount, updated_at) VALUES ($1, $2, $3::numeric, now())
		ON CONFLICT (owner, asset) DO UPDATE SET amount = EXCLUDED.amount, updated_at = now()
	`, account.Owner.Hex(), account.Asset.Hex(), formatAmount(amount))
	if err != nil {
		return fmt.Errorf("write balance: %w", err)
	}
	return nil
}

func (s *state) Mint(ctx context.Context, address common.Address) (model.Mint, bool, error) {
	var (
		authority string
		decimals  int16
		supply    string
	)
	row := s.tx.QueryRow(ctx, `SELECT authority, decimals, supply::text FROM ledger_mints WHERE address=$1`+s.lockClause(), address.Hex())
	if err := row.Scan(&authority, &decimals, &supply); err != nil {
		if isNoRows(err) {
			return model.Mint{}, false, nil
		}
		return model.Mint{}, false, fmt.Errorf("read mint: %w", err)
	}
	total, err := parseAmount(supply)
	if err != nil {
		return model.Mint{}, false, err
	}
	return model.Mint{
		Address:   address,
		Authority: common.HexToAddress(authority),
		Decimals:  uint8(decimals),
		Supply:    total,
	}, true, nil
}

func (s *state) PutMint(ctx context.Context, mint model.Mint) error {
	if s.readOnly {
		return ledger.ErrReadOnly
	}
	_, err := s.tx.Exec(ctx, `
		INSERT INTO ledger_mints (address, authority, decimals, supply, updated_at) VALUES ($1, $2, $3, $4::numeric, now())
		ON CONFLICT (address) DO UPDATE
		SET authority = EXCLUDED.authority, decimals = EXCLUDED.decimals, supply = EXCLUDED.supply, updated_at = now()
	`, mint.Address.Hex(), mint.Authority.Hex(), int16(mint.Decimals), formatAmount(mint.Supply))
	if err != nil {
		return fmt.Errorf("write mint: %w", err)
	}
	return nil
}

func (s *state) Controller(ctx context.Context, holder common.Address) (common.Address, bool, error) {
	var controller string
	row := s.tx.QueryRow(ctx, `SELECT controller FROM ledger_controllers WHERE holder=$1`, holder.Hex())
	if err := row.Scan(&controller); err != nil {
		if isNoRows(err) {
			return common.Address{}, false, nil
		}
		return common.Address{}, false, fmt.Errorf("read controller: %w", err)
	}
	return common.HexToAddress(controller), true, nil
}

func (s *state) PutController(ctx context.Context, holder, controller common.Address) error {
	if s.readOnly {
		return ledger.ErrReadOnly
	}
	_, err := s.tx.Exec(ctx, `
		INSERT INTO ledger_controllers (holder, controller) VALUES ($1, $2)
		ON CONFLICT (holder) DO UPDATE SET controller = EXCLUDED.controller
	`, holder.Hex(), controller.Hex())
	if err != nil {
		return fmt.Errorf("write controller: %w", err)
	}
	return nil
}

func (s *state) Pool(ctx context.Context, address common.Address) (model.Pool, bool, error) {
	var (
		tokenX, tokenY, lpMint, vaultX, vaultY, authority string
		seed                                              string
		feeBps                                            int32
		locked                                            bool
		lpDecimals                                        int16
		createdAt                                         time.Time
	)
	row := s.tx.QueryRow(ctx, `
		SELECT token_x, token_y, seed::text, fee_bps, locked, lp_decimals, lp_mint, vault_x, vault_y, authority, created_at
		FROM amm_pools WHERE address=$1`+s.lockClause(), address.Hex())
	err := row.Scan(&tokenX, &tokenY, &seed, &feeBps, &locked, &lpDecimals, &lpMint, &vaultX, &vaultY, &authority, &createdAt)
	if err != nil {
		if isNoRows(err) {
			return model.Pool{}, false, nil
		}
		return model.Pool{}, false, fmt.Errorf("read pool: %w", err)
	}
	seedValue, err := parseAmount(seed)
	if err != nil {
		return model.Pool{}, false, err
	}
	return model.Pool{
		Address:    address,
		TokenX:     common.HexToAddress(tokenX),
		TokenY:     common.HexToAddress(tokenY),
		Seed:       seedValue,
		FeeBps:     uint16(feeBps),
		Locked:     locked,
		LPDecimals: uint8(lpDecimals),
		LPMint:     common.HexToAddress(lpMint),
		VaultX:     common.HexToAddress(vaultX),
		VaultY:     common.HexToAddress(vaultY),
		Authority:  common.HexToAddress(authority),
		CreatedAt:  createdAt.UTC(),
	}, true, nil
}

func (s *state) PutPool(ctx context.Context, pool model.Pool) error {
	if s.readOnly {
		return ledger.ErrReadOnly
	}
	_, err := s.tx.Exec(ctx, `
		INSERT INTO amm_pools (
			address, token_x, token_y, seed, fee_bps, locked, lp_decimals, lp_mint, vault_x, vault_y, authority, created_at, updated_at
		) VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9, $10, $11, $12, now())
		ON CONFLICT (address) DO UPDATE SET
			fee_bps = EXCLUDED.fee_bps,
			locked = EXCLUDED.locked,
			lp_mint = EXCLUDED.lp_mint,
			vault_x = EXCLUDED.vault_x,
			vault_y = EXCLUDED.vault_y,
			authority = EXCLUDED.authority,
			updated_at = now()
	`,
		pool.Address.Hex(),
		pool.TokenX.Hex(),
		pool.TokenY.Hex(),
		formatAmount(pool.Seed),
		int32(pool.FeeBps),
		pool.Locked,
		int16(pool.LPDecimals),
		pool.LPMint.Hex(),
		pool.VaultX.Hex(),
		pool.VaultY.Hex(),
		pool.Authority.Hex(),
		pool.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("write pool: %w", err)
	}
	return nil
}
