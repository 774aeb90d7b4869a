package ledger

import (
	"context"
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"

	"ammCore/internal/model"
)

type ruledTx struct {
	state State
}

// NewTx wraps raw backend state with the ledger's authorization and balance
// rules.
func NewTx(state State) Tx {
	return &ruledTx{state: state}
}

func fail(reason error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %w: %s", ErrLedger, reason, fmt.Sprintf(format, args...))
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrLedger, err)
}

func (t *ruledTx) BalanceOf(ctx context.Context, account model.Account) (uint64, error) {
	bal, err := t.state.Balance(ctx, account)
	return bal, wrap(err)
}

func (t *ruledTx) Supply(ctx context.Context, mint common.Address) (uint64, error) {
	m, err := t.GetMint(ctx, mint)
	if err != nil {
		return 0, err
	}
	return m.Supply, nil
}

func (t *ruledTx) GetMint(ctx context.Context, mint common.Address) (model.Mint, error) {
	m, ok, err := t.state.Mint(ctx, mint)
	if err != nil {
		return model.Mint{}, wrap(err)
	}
	if !ok {
		return model.Mint{}, fail(ErrUnknownMint, "%s", mint.Hex())
	}
	return m, nil
}

func (t *ruledTx) CreateMint(ctx context.Context, mint, authority common.Address, decimals uint8) error {
	_, ok, err := t.state.Mint(ctx, mint)
	if err != nil {
		return wrap(err)
	}
	if ok {
		return fail(ErrMintExists, "%s", mint.Hex())
	}
	return wrap(t.state.PutMint(ctx, model.Mint{Address: mint, Authority: authority, Decimals: decimals}))
}

func (t *ruledTx) BindCustody(ctx context.Context, holder, controller common.Address) error {
	_, ok, err := t.state.Controller(ctx, holder)
	if err != nil {
		return wrap(err)
	}
	if ok {
		return fail(ErrCustodyBound, "%s", holder.Hex())
	}
	return wrap(t.state.PutController(ctx, holder, controller))
}

// controllerOf returns who may debit holder's accounts.
func (t *ruledTx) controllerOf(ctx context.Context, holder common.Address) (common.Address, error) {
	controller, ok, err := t.state.Controller(ctx, holder)
	if err != nil {
		return common.Address{}, wrap(err)
	}
	if !ok {
		return holder, nil
	}
	return controller, nil
}

func (t *ruledTx) authorizeDebit(ctx context.Context, holder, authorizedBy common.Address) error {
	controller, err := t.controllerOf(ctx, holder)
	if err != nil {
		return err
	}
	if controller != authorizedBy {
		return fail(ErrUnauthorized, "%s may not debit %s", authorizedBy.Hex(), holder.Hex())
	}
	return nil
}

func (t *ruledTx) debit(ctx context.Context, account model.Account, amount uint64) error {
	bal, err := t.state.Balance(ctx, account)
	if err != nil {
		return wrap(err)
	}
	if bal < amount {
		return fail(ErrInsufficientBalance, "%s has %d, needs %d", account, bal, amount)
	}
	return wrap(t.state.SetBalance(ctx, account, bal-amount))
}

func (t *ruledTx) credit(ctx context.Context, account model.Account, amount uint64) error {
	bal, err := t.state.Balance(ctx, account)
	if err != nil {
		return wrap(err)
	}
	if bal > math.MaxUint64-amount {
		return fail(ErrSupplyOverflow, "%s", account)
	}
	return wrap(t.state.SetBalance(ctx, account, bal+amount))
}

func (t *ruledTx) Transfer(ctx context.Context, from, to model.Account, amount uint64, authorizedBy common.Address) error {
	if from.Asset != to.Asset {
		return fail(ErrAssetMismatch, "%s -> %s", from, to)
	}
	if err := t.authorizeDebit(ctx, from.Owner, authorizedBy); err != nil {
		return err
	}
	if amount == 0 || from == to {
		return nil
	}
	if err := t.debit(ctx, from, amount); err != nil {
		return err
	}
	return t.credit(ctx, to, amount)
}

func (t *ruledTx) Mint(ctx context.Context, mint, to common.Address, amount uint64, authorizedBy common.Address) error {
	m, err := t.GetMint(ctx, mint)
	if err != nil {
		return err
	}
	if m.Authority != authorizedBy {
		return fail(ErrUnauthorized, "%s is not the authority of mint %s", authorizedBy.Hex(), mint.Hex())
	}
	if m.Supply > math.MaxUint64-amount {
		return fail(ErrSupplyOverflow, "mint %s", mint.Hex())
	}
	if err := t.credit(ctx, model.Account{Owner: to, Asset: mint}, amount); err != nil {
		return err
	}
	m.Supply += amount
	return wrap(t.state.PutMint(ctx, m))
}

func (t *ruledTx) Burn(ctx context.Context, mint, from common.Address, amount uint64, authorizedBy common.Address) error {
	m, err := t.GetMint(ctx, mint)
	if err != nil {
		return err
	}
	if err := t.authorizeDebit(ctx, from, authorizedBy); err != nil {
		return err
	}
	if err := t.debit(ctx, model.Account{Owner: from, Asset: mint}, amount); err != nil {
		return err
	}
	m.Supply -= amount
	return wrap(t.state.PutMint(ctx, m))
}

func (t *ruledTx) GetPool(ctx context.Context, address common.Address) (model.Pool, error) {
	pool, ok, err := t.state.Pool(ctx, address)
	if err != nil {
		return model.Pool{}, wrap(err)
	}
	if !ok {
		return model.Pool{}, fmt.Errorf("%w: %s", ErrPoolNotFound, address.Hex())
	}
	return pool, nil
}

func (t *ruledTx) PutPool(ctx context.Context, pool model.Pool) error {
	return wrap(t.state.PutPool(ctx, pool))
}
