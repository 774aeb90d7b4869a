package amm

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"ammCore/internal/identity"
	"ammCore/internal/ledger"
	"ammCore/internal/model"
)

func assertUnlocked(pool model.Pool) error {
	if pool.Locked {
		return fmt.Errorf("%w: %s", ErrPoolLocked, pool.Address.Hex())
	}
	return nil
}

// assertCallerBoundIdentity checks that the custody handles stored on the
// pool are the ones derived from its token pair and seed.
func assertCallerBoundIdentity(pool model.Pool, deriver identity.Deriver) error {
	want := identity.DeriveCustody(deriver, pool.TokenX, pool.TokenY, pool.Seed)
	switch {
	case pool.Address != want.Config:
		return fmt.Errorf("%w: pool %s, derived %s", ErrAddressMismatch, pool.Address.Hex(), want.Config.Hex())
	case pool.LPMint != want.LPMint:
		return fmt.Errorf("%w: lp mint %s, derived %s", ErrAddressMismatch, pool.LPMint.Hex(), want.LPMint.Hex())
	case pool.VaultX != want.VaultX:
		return fmt.Errorf("%w: vault x %s, derived %s", ErrAddressMismatch, pool.VaultX.Hex(), want.VaultX.Hex())
	case pool.VaultY != want.VaultY:
		return fmt.Errorf("%w: vault y %s, derived %s", ErrAddressMismatch, pool.VaultY.Hex(), want.VaultY.Hex())
	}
	return nil
}

func readReserves(ctx context.Context, tx ledger.Tx, pool model.Pool) (model.Reserves, error) {
	x, err := tx.BalanceOf(ctx, pool.VaultAccountX())
	if err != nil {
		return model.Reserves{}, err
	}
	y, err := tx.BalanceOf(ctx, pool.VaultAccountY())
	if err != nil {
		return model.Reserves{}, err
	}
	supply, err := tx.Supply(ctx, pool.LPMint)
	if err != nil {
		return model.Reserves{}, err
	}
	return model.Reserves{X: x, Y: y, LPSupply: supply}, nil
}

// loadPool reads a pool and checks its custody handles.
func (s *Service) loadPool(ctx context.Context, tx ledger.Tx, address common.Address) (model.Pool, error) {
	pool, err := tx.GetPool(ctx, address)
	if err != nil {
		return model.Pool{}, err
	}
	if err := assertCallerBoundIdentity(pool, s.deriver); err != nil {
		return model.Pool{}, err
	}
	return pool, nil
}
