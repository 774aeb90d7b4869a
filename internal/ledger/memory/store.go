// Package memory is an in-process ledger.Store used by tests and dry runs.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"ammCore/internal/ledger"
	"ammCore/internal/model"
)

var ErrClosed = errors.New("memory store is closed")

// Store keeps ledger state in maps. Atomic units hold the store lock for
// their whole duration and stage writes until fn succeeds.
type Store struct {
	mu          sync.RWMutex
	closed      bool
	balances    map[model.Account]uint64
	mints       map[common.Address]model.Mint
	controllers map[common.Address]common.Address
	pools       map[common.Address]model.Pool
}

func NewStore() *Store {
	return &Store{
		balances:    make(map[model.Account]uint64),
		mints:       make(map[common.Address]model.Mint),
		controllers: make(map[common.Address]common.Address),
		pools:       make(map[common.Address]model.Pool),
	}
}

func (s *Store) Atomic(ctx context.Context, _ common.Address, fn func(ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	st := newStaged(s, false)
	if err := fn(ledger.NewTx(st)); err != nil {
		return err
	}
	st.commit()
	return nil
}

func (s *Store) View(ctx context.Context, fn func(ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return fn(ledger.NewTx(newStaged(s, true)))
}

func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// staged buffers writes over the committed maps.
type staged struct {
	base        *Store
	readOnly    bool
	balances    map[model.Account]uint64
	mints       map[common.Address]model.Mint
	controllers map[common.Address]common.Address
	pools       map[common.Address]model.Pool
}

func newStaged(base *Store, readOnly bool) *staged {
	return &staged{
		base:        base,
		readOnly:    readOnly,
		balances:    make(map[model.Account]uint64),
		mints:       make(map[common.Address]model.Mint),
		controllers: make(map[common.Address]common.Address),
		pools:       make(map[common.Address]model.Pool),
	}
}

func (s *staged) commit() {
	for k, v := range s.balances {
		s.base.balances[k] = v
	}
	for k, v := range s.mints {
		s.base.mints[k] = v
	}
	for k, v := range s.controllers {
		s.base.controllers[k] = v
	}
	for k, v := range s.pools {
		s.base.pools[k] = v
	}
}

func (s *staged) Balance(_ context.Context, account model.Account) (uint64, error) {
	if v, ok := s.balances[account]; ok {
		return v, nil
	}
	return s.base.balances[account], nil
}

func (s *staged) SetBalance(_ context.Context, account model.Account, amount uint64) error {
	if s.readOnly {
		return ledger.ErrReadOnly
	}
	s.balances[account] = amount
	return nil
}

func (s *staged) Mint(_ context.Context, address common.Address) (model.Mint, bool, error) {
	if v, ok := s.mints[address]; ok {
		return v, true, nil
	}
	v, ok := s.base.mints[address]
	return v, ok, nil
}

func (s *staged) PutMint(_ context.Context, mint model.Mint) error {
	if s.readOnly {
		return ledger.ErrReadOnly
	}
	s.mints[mint.Address] = mint
	return nil
}

func (s *staged) Controller(_ context.Context, holder common.Address) (common.Address, bool, error) {
	if v, ok := s.controllers[holder]; ok {
		return v, true, nil
	}
	v, ok := s.base.controllers[holder]
	return v, ok, nil
}

func (s *staged) PutController(_ context.Context, holder, controller common.Address) error {
	if s.readOnly {
		return ledger.ErrReadOnly
	}
	s.controllers[holder] = controller
	return nil
}

func (s *staged) Pool(_ context.Context, address common.Address) (model.Pool, bool, error) {
	if v, ok := s.pools[address]; ok {
		return v, true, nil
	}
	v, ok := s.base.pools[address]
	return v, ok, nil
}

func (s *staged) PutPool(_ context.Context, pool model.Pool) error {
	if s.readOnly {
		return ledger.ErrReadOnly
	}
	s.pools[pool.Address] = pool
	return nil
}
