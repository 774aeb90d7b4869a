// Package ledgertest is a conformance suite run against every ledger.Store.
package ledgertest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"ammCore/internal/ledger"
	"ammCore/internal/model"
)

var (
	issuer  = common.HexToAddress("0x1000000000000000000000000000000000000001")
	alice   = common.HexToAddress("0x2000000000000000000000000000000000000002")
	bob     = common.HexToAddress("0x3000000000000000000000000000000000000003")
	vault   = common.HexToAddress("0x4000000000000000000000000000000000000004")
	poolKey = common.HexToAddress("0x5000000000000000000000000000000000000005")
	asset   = common.HexToAddress("0x6000000000000000000000000000000000000006")
	other   = common.HexToAddress("0x7000000000000000000000000000000000000007")
)

var errAbort = errors.New("abort")

// Factory returns a fresh, empty store.
type Factory func(t *testing.T) ledger.Store

// Run executes the conformance suite.
func Run(t *testing.T, newStore Factory) {
	t.Run("MintAndTransfer", func(t *testing.T) { testMintAndTransfer(t, newStore(t)) })
	t.Run("Authorization", func(t *testing.T) { testAuthorization(t, newStore(t)) })
	t.Run("InsufficientBalance", func(t *testing.T) { testInsufficientBalance(t, newStore(t)) })
	t.Run("Rollback", func(t *testing.T) { testRollback(t, newStore(t)) })
	t.Run("Custody", func(t *testing.T) { testCustody(t, newStore(t)) })
	t.Run("Burn", func(t *testing.T) { testBurn(t, newStore(t)) })
	t.Run("Pools", func(t *testing.T) { testPools(t, newStore(t)) })
	t.Run("ViewIsReadOnly", func(t *testing.T) { testView(t, newStore(t)) })
	t.Run("SerializedUnits", func(t *testing.T) { testSerialized(t, newStore(t)) })
}

func seed(t *testing.T, store ledger.Store, holder common.Address, amount uint64) {
	t.Helper()
	err := store.Atomic(context.Background(), poolKey, func(tx ledger.Tx) error {
		if _, err := tx.GetMint(context.Background(), asset); err != nil {
			if err := tx.CreateMint(context.Background(), asset, issuer, 6); err != nil {
				return err
			}
		}
		return tx.Mint(context.Background(), asset, holder, amount, issuer)
	})
	require.NoError(t, err)
}

func balance(t *testing.T, store ledger.Store, account model.Account) uint64 {
	t.Helper()
	var bal uint64
	err := store.View(context.Background(), func(tx ledger.Tx) error {
		var err error
		bal, err = tx.BalanceOf(context.Background(), account)
		return err
	})
	require.NoError(t, err)
	return bal
}

func supply(t *testing.T, store ledger.Store, mint common.Address) uint64 {
	t.Helper()
	var s uint64
	err := store.View(context.Background(), func(tx ledger.Tx) error {
		var err error
		s, err = tx.Supply(context.Background(), mint)
		return err
	})
	require.NoError(t, err)
	return s
}

func acct(owner common.Address) model.Account {
	return model.Account{Owner: owner, Asset: asset}
}

func testMintAndTransfer(t *testing.T, store ledger.Store) {
	ctx := context.Background()
	seed(t, store, alice, 1000)
	require.Equal(t, uint64(1000), supply(t, store, asset))

	err := store.Atomic(ctx, poolKey, func(tx ledger.Tx) error {
		return tx.Transfer(ctx, acct(alice), acct(bob), 400, alice)
	})
	require.NoError(t, err)
	require.Equal(t, uint64(600), balance(t, store, acct(alice)))
	require.Equal(t, uint64(400), balance(t, store, acct(bob)))

	err = store.Atomic(ctx, poolKey, func(tx ledger.Tx) error {
		return tx.CreateMint(ctx, asset, issuer, 6)
	})
	require.ErrorIs(t, err, ledger.ErrMintExists)
}

func testAuthorization(t *testing.T, store ledger.Store) {
	ctx := context.Background()
	seed(t, store, alice, 1000)

	err := store.Atomic(ctx, poolKey, func(tx ledger.Tx) error {
		return tx.Transfer(ctx, acct(alice), acct(bob), 1, bob)
	})
	require.ErrorIs(t, err, ledger.ErrLedger)
	require.ErrorIs(t, err, ledger.ErrUnauthorized)

	err = store.Atomic(ctx, poolKey, func(tx ledger.Tx) error {
		return tx.Mint(ctx, asset, bob, 1, bob)
	})
	require.ErrorIs(t, err, ledger.ErrUnauthorized)

	err = store.Atomic(ctx, poolKey, func(tx ledger.Tx) error {
		return tx.Transfer(ctx, acct(alice), model.Account{Owner: bob, Asset: other}, 1, alice)
	})
	require.ErrorIs(t, err, ledger.ErrAssetMismatch)

	err = store.Atomic(ctx, poolKey, func(tx ledger.Tx) error {
		return tx.Mint(ctx, other, bob, 1, issuer)
	})
	require.ErrorIs(t, err, ledger.ErrUnknownMint)
}

func testInsufficientBalance(t *testing.T, store ledger.Store) {
	ctx := context.Background()
	seed(t, store, alice, 10)

	err := store.Atomic(ctx, poolKey, func(tx ledger.Tx) error {
		return tx.Transfer(ctx, acct(alice), acct(bob), 11, alice)
	})
	require.ErrorIs(t, err, ledger.ErrLedger)
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)
	require.Equal(t, uint64(10), balance(t, store, acct(alice)))
}

func testRollback(t *testing.T, store ledger.Store) {
	ctx := context.Background()
	seed(t, store, alice, 100)

	err := store.Atomic(ctx, poolKey, func(tx ledger.Tx) error {
		if err := tx.Transfer(ctx, acct(alice), acct(bob), 50, alice); err != nil {
			return err
		}
		if err := tx.Mint(ctx, asset, bob, 7, issuer); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)
	require.Equal(t, uint64(100), balance(t, store, acct(alice)))
	require.Equal(t, uint64(0), balance(t, store, acct(bob)))
	require.Equal(t, uint64(100), supply(t, store, asset))

	// a failing effect after a successful one leaves nothing applied
	err = store.Atomic(ctx, poolKey, func(tx ledger.Tx) error {
		if err := tx.Transfer(ctx, acct(alice), acct(bob), 60, alice); err != nil {
			return err
		}
		return tx.Transfer(ctx, acct(alice), acct(bob), 60, alice)
	})
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)
	require.Equal(t, uint64(100), balance(t, store, acct(alice)))
	require.Equal(t, uint64(0), balance(t, store, acct(bob)))
}

func testCustody(t *testing.T, store ledger.Store) {
	ctx := context.Background()
	seed(t, store, alice, 100)

	err := store.Atomic(ctx, poolKey, func(tx ledger.Tx) error {
		if err := tx.BindCustody(ctx, vault, poolKey); err != nil {
			return err
		}
		return tx.Transfer(ctx, acct(alice), acct(vault), 100, alice)
	})
	require.NoError(t, err)

	err = store.Atomic(ctx, poolKey, func(tx ledger.Tx) error {
		return tx.Transfer(ctx, acct(vault), acct(bob), 1, vault)
	})
	require.ErrorIs(t, err, ledger.ErrUnauthorized)

	err = store.Atomic(ctx, poolKey, func(tx ledger.Tx) error {
		return tx.Transfer(ctx, acct(vault), acct(bob), 30, poolKey)
	})
	require.NoError(t, err)
	require.Equal(t, uint64(70), balance(t, store, acct(vault)))
	require.Equal(t, uint64(30), balance(t, store, acct(bob)))

	err = store.Atomic(ctx, poolKey, func(tx ledger.Tx) error {
		return tx.BindCustody(ctx, vault, bob)
	})
	require.ErrorIs(t, err, ledger.ErrCustodyBound)
}

func testBurn(t *testing.T, store ledger.Store) {
	ctx := context.Background()
	seed(t, store, alice, 100)

	err := store.Atomic(ctx, poolKey, func(tx ledger.Tx) error {
		return tx.Burn(ctx, asset, alice, 40, bob)
	})
	require.ErrorIs(t, err, ledger.ErrUnauthorized)

	err = store.Atomic(ctx, poolKey, func(tx ledger.Tx) error {
		return tx.Burn(ctx, asset, alice, 40, alice)
	})
	require.NoError(t, err)
	require.Equal(t, uint64(60), balance(t, store, acct(alice)))
	require.Equal(t, uint64(60), supply(t, store, asset))

	err = store.Atomic(ctx, poolKey, func(tx ledger.Tx) error {
		return tx.Burn(ctx, asset, alice, 61, alice)
	})
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)
}

func testPools(t *testing.T, store ledger.Store) {
	ctx := context.Background()
	pool := model.Pool{
		Address:    poolKey,
		TokenX:     asset,
		TokenY:     other,
		Seed:       42,
		FeeBps:     30,
		LPDecimals: 6,
		LPMint:     bob,
		VaultX:     vault,
		VaultY:     alice,
		Authority:  issuer,
		CreatedAt:  time.Unix(1700000000, 0).UTC(),
	}

	err := store.View(ctx, func(tx ledger.Tx) error {
		_, err := tx.GetPool(ctx, poolKey)
		return err
	})
	require.ErrorIs(t, err, ledger.ErrPoolNotFound)

	require.NoError(t, store.Atomic(ctx, poolKey, func(tx ledger.Tx) error {
		return tx.PutPool(ctx, pool)
	}))

	pool.Locked = true
	require.NoError(t, store.Atomic(ctx, poolKey, func(tx ledger.Tx) error {
		return tx.PutPool(ctx, pool)
	}))

	var got model.Pool
	require.NoError(t, store.View(ctx, func(tx ledger.Tx) error {
		var err error
		got, err = tx.GetPool(ctx, poolKey)
		return err
	}))
	require.Equal(t, pool.Address, got.Address)
	require.Equal(t, pool.Seed, got.Seed)
	require.Equal(t, pool.FeeBps, got.FeeBps)
	require.True(t, got.Locked)
	require.Equal(t, pool.VaultX, got.VaultX)
	require.True(t, pool.CreatedAt.Equal(got.CreatedAt))
}

func testView(t *testing.T, store ledger.Store) {
	ctx := context.Background()
	seed(t, store, alice, 100)

	_ = store.View(ctx, func(tx ledger.Tx) error {
		return tx.Transfer(ctx, acct(alice), acct(bob), 10, alice)
	})
	require.Equal(t, uint64(100), balance(t, store, acct(alice)))
	require.Equal(t, uint64(0), balance(t, store, acct(bob)))
}

func testSerialized(t *testing.T, store ledger.Store) {
	ctx := context.Background()
	const workers = 8
	const perWorker = 5
	seed(t, store, alice, workers*perWorker)

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				errs <- store.Atomic(ctx, poolKey, func(tx ledger.Tx) error {
					return tx.Transfer(ctx, acct(alice), acct(bob), 1, alice)
				})
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, uint64(0), balance(t, store, acct(alice)))
	require.Equal(t, uint64(workers*perWorker), balance(t, store, acct(bob)))
}
