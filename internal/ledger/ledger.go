// Package ledger defines the token ledger the pool core issues effects to.
//
// A Store runs a function inside one atomic unit: every balance, supply and
// pool write made through the Tx either commits together or not at all, and
// concurrent units touching the same pool are serialized.
package ledger

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"ammCore/internal/model"
)

// Store hands out transactional views of ledger state.
type Store interface {
	// Atomic runs fn with exclusive access to pool. Effects commit only if fn
	// returns nil.
	Atomic(ctx context.Context, pool common.Address, fn func(Tx) error) error
	// View runs fn against a consistent snapshot; writes are discarded.
	View(ctx context.Context, fn func(Tx) error) error
	Close() error
}

// Tx is the set of ledger capabilities available inside one atomic unit.
type Tx interface {
	BalanceOf(ctx context.Context, account model.Account) (uint64, error)
	Supply(ctx context.Context, mint common.Address) (uint64, error)
	GetMint(ctx context.Context, mint common.Address) (model.Mint, error)

	CreateMint(ctx context.Context, mint, authority common.Address, decimals uint8) error
	BindCustody(ctx context.Context, holder, controller common.Address) error

	Transfer(ctx context.Context, from, to model.Account, amount uint64, authorizedBy common.Address) error
	Mint(ctx context.Context, mint, to common.Address, amount uint64, authorizedBy common.Address) error
	Burn(ctx context.Context, mint, from common.Address, amount uint64, authorizedBy common.Address) error

	GetPool(ctx context.Context, address common.Address) (model.Pool, error)
	PutPool(ctx context.Context, pool model.Pool) error
}

// State is the raw storage a backend exposes for one atomic unit. Rules are
// enforced by the Tx returned from NewTx, not by State implementations.
type State interface {
	Balance(ctx context.Context, account model.Account) (uint64, error)
	SetBalance(ctx context.Context, account model.Account, amount uint64) error

	Mint(ctx context.Context, address common.Address) (model.Mint, bool, error)
	PutMint(ctx context.Context, mint model.Mint) error

	Controller(ctx context.Context, holder common.Address) (common.Address, bool, error)
	PutController(ctx context.Context, holder, controller common.Address) error

	Pool(ctx context.Context, address common.Address) (model.Pool, bool, error)
	PutPool(ctx context.Context, pool model.Pool) error
}
