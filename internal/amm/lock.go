package amm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ammCore/internal/ledger"
	"ammCore/internal/model"
)

// SetLocked freezes or unfreezes a pool. Only the pool authority may do so.
func (s *Service) SetLocked(ctx context.Context, req LockRequest) (model.Pool, error) {
	now := s.clock.Now()
	op := req.Op()
	if err := s.verify(req.Caller, req.Digest()); err != nil {
		s.rejected(op, req, err)
		return model.Pool{}, err
	}

	var pool model.Pool
	err := s.store.Atomic(ctx, req.Pool, func(tx ledger.Tx) error {
		var err error
		pool, err = s.loadPool(ctx, tx, req.Pool)
		if err != nil {
			return err
		}
		if pool.Authority != req.Caller.Address {
			return fmt.Errorf("%w: %s is not the authority of %s", ErrUnauthorized, req.Caller.Address.Hex(), pool.Address.Hex())
		}
		pool.Locked = req.Locked
		return tx.PutPool(ctx, pool)
	})
	if err != nil {
		s.rejected(op, req, err)
		return model.Pool{}, err
	}

	s.logger.Info(op, zap.String("pool", pool.Address.Hex()), zap.Bool("locked", pool.Locked))
	s.record(model.Receipt{Op: op, Pool: pool.Address, Caller: req.Caller.Address, Timestamp: now.Unix()})
	return pool, nil
}
