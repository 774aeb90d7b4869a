package amm

import (
	"context"
	"crypto/ecdsa"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"ammCore/internal/identity"
	"ammCore/internal/ledger"
	"ammCore/internal/ledger/memory"
	"ammCore/internal/model"
	"ammCore/internal/storage"
)

var (
	issuer = common.HexToAddress("0x00000000000000000000000000000000000000ff")
	tokenX = common.HexToAddress("0x1000000000000000000000000000000000000000")
	tokenY = common.HexToAddress("0x2000000000000000000000000000000000000000")
	now    = time.Unix(1_700_000_000, 0)
)

type harness struct {
	t       *testing.T
	ctx     context.Context
	store   *memory.Store
	service *Service
	admin   *ecdsa.PrivateKey
	user    *ecdsa.PrivateKey
}

func newHarness(t *testing.T, journal storage.Journal) *harness {
	t.Helper()
	store := memory.NewStore()
	t.Cleanup(func() { _ = store.Close() })

	admin, err := crypto.GenerateKey()
	require.NoError(t, err)
	user, err := crypto.GenerateKey()
	require.NoError(t, err)

	h := &harness{
		t:     t,
		ctx:   context.Background(),
		store: store,
		service: NewService(Config{
			Clock:   FixedClock{T: now},
			Journal: journal,
		}, store, nil),
		admin: admin,
		user:  user,
	}

	err = store.Atomic(h.ctx, issuer, func(tx ledger.Tx) error {
		for _, token := range []common.Address{tokenX, tokenY} {
			if err := tx.CreateMint(h.ctx, token, issuer, 6); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	return h
}

func (h *harness) addr(key *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PublicKey)
}

func (h *harness) sign(key *ecdsa.PrivateKey, digest common.Hash) identity.Caller {
	h.t.Helper()
	caller, err := identity.Sign(key, digest)
	require.NoError(h.t, err)
	return caller
}

func (h *harness) fund(key *ecdsa.PrivateKey, x, y uint64) {
	h.t.Helper()
	owner := h.addr(key)
	err := h.store.Atomic(h.ctx, issuer, func(tx ledger.Tx) error {
		if err := tx.Mint(h.ctx, tokenX, owner, x, issuer); err != nil {
			return err
		}
		return tx.Mint(h.ctx, tokenY, owner, y, issuer)
	})
	require.NoError(h.t, err)
}

func (h *harness) balance(owner, asset common.Address) uint64 {
	h.t.Helper()
	var bal uint64
	err := h.store.View(h.ctx, func(tx ledger.Tx) error {
		var err error
		bal, err = tx.BalanceOf(h.ctx, model.Account{Owner: owner, Asset: asset})
		return err
	})
	require.NoError(h.t, err)
	return bal
}

func (h *harness) initialize(seed uint64, feeBps uint16) common.Address {
	h.t.Helper()
	pool, err := h.service.Initialize(h.ctx, h.initializeReq(tokenX, tokenY, seed, feeBps))
	require.NoError(h.t, err)
	return pool
}

func (h *harness) initializeReq(x, y common.Address, seed uint64, feeBps uint16) InitializeRequest {
	req := InitializeRequest{TokenX: x, TokenY: y, Seed: seed, FeeBps: feeBps}
	req.Caller = h.sign(h.admin, req.Digest())
	return req
}

func (h *harness) deposit(key *ecdsa.PrivateKey, pool common.Address, lp, maxX, maxY uint64, expiration int64) (model.Receipt, error) {
	req := DepositRequest{Pool: pool, LPAmount: lp, MaxX: maxX, MaxY: maxY, Expiration: expiration}
	req.Caller = h.sign(key, req.Digest())
	return h.service.Deposit(h.ctx, req)
}

func (h *harness) withdraw(key *ecdsa.PrivateKey, pool common.Address, lp, minX, minY uint64) (model.Receipt, error) {
	req := WithdrawRequest{Pool: pool, LPAmount: lp, MinX: minX, MinY: minY}
	req.Caller = h.sign(key, req.Digest())
	return h.service.Withdraw(h.ctx, req)
}

func (h *harness) swap(key *ecdsa.PrivateKey, pool common.Address, isX bool, amountIn, minOut uint64) (model.Receipt, error) {
	req := SwapRequest{Pool: pool, IsX: isX, AmountIn: amountIn, MinOut: minOut}
	req.Caller = h.sign(key, req.Digest())
	return h.service.Swap(h.ctx, req)
}

func (h *harness) setLocked(key *ecdsa.PrivateKey, pool common.Address, locked bool) (model.Pool, error) {
	req := LockRequest{Pool: pool, Locked: locked}
	req.Caller = h.sign(key, req.Digest())
	return h.service.SetLocked(h.ctx, req)
}

// seededPool creates a 30 bps pool whose first deposit leaves reserves at
// (x, y) with lp supply lp, all held by the admin.
func (h *harness) seededPool(x, y, lp uint64) common.Address {
	h.t.Helper()
	pool := h.initialize(1, 30)
	h.fund(h.admin, x, y)
	_, err := h.deposit(h.admin, pool, lp, x, y, now.Unix())
	require.NoError(h.t, err)
	return pool
}

type snapshot struct {
	reserves model.Reserves
	userX    uint64
	userY    uint64
	userLP   uint64
}

func (h *harness) snapshot(pool common.Address, key *ecdsa.PrivateKey) snapshot {
	h.t.Helper()
	p, reserves, err := h.service.PoolInfo(h.ctx, pool)
	require.NoError(h.t, err)
	owner := h.addr(key)
	return snapshot{
		reserves: reserves,
		userX:    h.balance(owner, tokenX),
		userY:    h.balance(owner, tokenY),
		userLP:   h.balance(owner, p.LPMint),
	}
}
