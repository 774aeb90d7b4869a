package amm

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"ammCore/internal/curve"
	"ammCore/internal/identity"
	"ammCore/internal/ledger"
	"ammCore/internal/model"
)

// Initialize creates the pool for (TokenX, TokenY, Seed): it registers the
// LP mint under the pool's authority, binds both vaults to the pool and
// stores the pool record. It returns the pool address.
func (s *Service) Initialize(ctx context.Context, req InitializeRequest) (common.Address, error) {
	now := s.clock.Now()
	if err := s.verify(req.Caller, req.Digest()); err != nil {
		s.rejected(model.OpInitialize, req, err)
		return common.Address{}, err
	}
	if req.FeeBps > curve.BpsDenominator {
		err := fmt.Errorf("%w: %d", ErrInvalidFee, req.FeeBps)
		s.rejected(model.OpInitialize, req, err)
		return common.Address{}, err
	}
	if bytes.Compare(req.TokenX.Bytes(), req.TokenY.Bytes()) >= 0 {
		err := fmt.Errorf("%w: %s, %s", ErrInvalidTokenPair, req.TokenX.Hex(), req.TokenY.Hex())
		s.rejected(model.OpInitialize, req, err)
		return common.Address{}, err
	}

	custody := identity.DeriveCustody(s.deriver, req.TokenX, req.TokenY, req.Seed)
	pool := model.Pool{
		Address:    custody.Config,
		TokenX:     req.TokenX,
		TokenY:     req.TokenY,
		Seed:       req.Seed,
		FeeBps:     req.FeeBps,
		LPDecimals: curve.LPDecimals,
		LPMint:     custody.LPMint,
		VaultX:     custody.VaultX,
		VaultY:     custody.VaultY,
		Authority:  req.Caller.Address,
		CreatedAt:  now.UTC(),
	}

	err := s.store.Atomic(ctx, pool.Address, func(tx ledger.Tx) error {
		_, err := tx.GetPool(ctx, pool.Address)
		if err == nil {
			return fmt.Errorf("%w: %s", ErrPoolExists, pool.Address.Hex())
		}
		if !errors.Is(err, ErrPoolNotFound) {
			return err
		}
		if _, err := tx.GetMint(ctx, pool.TokenX); err != nil {
			return fmt.Errorf("token x: %w", err)
		}
		if _, err := tx.GetMint(ctx, pool.TokenY); err != nil {
			return fmt.Errorf("token y: %w", err)
		}
		if err := tx.CreateMint(ctx, pool.LPMint, pool.Address, pool.LPDecimals); err != nil {
			return fmt.Errorf("create lp mint: %w", err)
		}
		if err := tx.BindCustody(ctx, pool.VaultX, pool.Address); err != nil {
			return fmt.Errorf("bind vault x: %w", err)
		}
		if err := tx.BindCustody(ctx, pool.VaultY, pool.Address); err != nil {
			return fmt.Errorf("bind vault y: %w", err)
		}
		return tx.PutPool(ctx, pool)
	})
	if err != nil {
		s.rejected(model.OpInitialize, req, err)
		return common.Address{}, err
	}

	s.logger.Info("initialize",
		zap.String("pool", pool.Address.Hex()),
		zap.String("token_x", pool.TokenX.Hex()),
		zap.String("token_y", pool.TokenY.Hex()),
		zap.Uint64("seed", pool.Seed),
		zap.Uint16("fee_bps", pool.FeeBps),
	)
	s.record(model.Receipt{Op: model.OpInitialize, Pool: pool.Address, Caller: pool.Authority, Timestamp: now.Unix()})
	return pool.Address, nil
}
