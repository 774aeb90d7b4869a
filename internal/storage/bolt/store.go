// Package bolt is a ledger.Store backed by an embedded bbolt file.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.etcd.io/bbolt"

	"ammCore/internal/ledger"
	"ammCore/internal/model"
)

var (
	bucketBalances    = []byte("balances")
	bucketMints       = []byte("mints")
	bucketControllers = []byte("controllers")
	bucketPools       = []byte("pools")
	bucketState       = []byte("state")
)

var ErrDBClosed = errors.New("bolt store is closed")

// Store keeps every ledger record in one bbolt file. bbolt allows a single
// writer, so Atomic units are serialized across all pools.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the database at path and ensures its buckets exist.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketBalances, bucketMints, bucketControllers, bucketPools, bucketState} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Atomic(ctx context.Context, _ common.Address, fn func(ledger.Tx) error) error {
	if s.db == nil {
		return ErrDBClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(ledger.NewTx(&state{tx: tx}))
	})
}

func (s *Store) View(ctx context.Context, fn func(ledger.Tx) error) error {
	if s.db == nil {
		return ErrDBClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		return fn(ledger.NewTx(&state{tx: tx}))
	})
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Pools lists every stored pool.
func (s *Store) Pools(ctx context.Context) ([]model.Pool, error) {
	if s.db == nil {
		return nil, ErrDBClosed
	}
	var pools []model.Pool
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketPools).ForEach(func(_, value []byte) error {
			var pool model.Pool
			if err := json.Unmarshal(value, &pool); err != nil {
				return fmt.Errorf("decode pool: %w", err)
			}
			pools = append(pools, pool)
			return nil
		})
	})
	return pools, err
}

// LoadState returns the progress timestamp saved under name.
func (s *Store) LoadState(_ context.Context, name string) (uint64, bool, error) {
	if s.db == nil {
		return 0, false, ErrDBClosed
	}
	var (
		ts uint64
		ok bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		value := tx.Bucket(bucketState).Get([]byte(name))
		if len(value) != 8 {
			return nil
		}
		ts, ok = binary.BigEndian.Uint64(value), true
		return nil
	})
	return ts, ok, err
}

// SaveState records a progress timestamp under name.
func (s *Store) SaveState(_ context.Context, name string, ts uint64) error {
	if s.db == nil {
		return ErrDBClosed
	}
	if name == "" {
		return fmt.Errorf("state name required")
	}
	value := make([]byte, 8)
	binary.BigEndian.PutUint64(value, ts)
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketState).Put([]byte(name), value)
	})
}

// state adapts one bbolt transaction to ledger.State.
type state struct {
	tx *bbolt.Tx
}

func balanceKey(account model.Account) []byte {
	key := make([]byte, 0, 2*common.AddressLength)
	key = append(key, account.Owner.Bytes()...)
	return append(key, account.Asset.Bytes()...)
}

func (s *state) writable() error {
	if !s.tx.Writable() {
		return ledger.ErrReadOnly
	}
	return nil
}

func (s *state) Balance(_ context.Context, account model.Account) (uint64, error) {
	value := s.tx.Bucket(bucketBalances).Get(balanceKey(account))
	if value == nil {
		return 0, nil
	}
	if len(value) != 8 {
		return 0, fmt.Errorf("corrupt balance for %s", account)
	}
	return binary.BigEndian.Uint64(value), nil
}

func (s *state) SetBalance(_ context.Context, account model.Account, amount uint64) error {
	if err := s.writable(); err != nil {
		return err
	}
	bucket := s.tx.Bucket(bucketBalances)
	if amount == 0 {
		return bucket.Delete(balanceKey(account))
	}
	value := make([]byte, 8)
	binary.BigEndian.PutUint64(value, amount)
	return bucket.Put(balanceKey(account), value)
}

func (s *state) Mint(_ context.Context, address common.Address) (model.Mint, bool, error) {
	var mint model.Mint
	ok, err := getJSON(s.tx.Bucket(bucketMints), address.Bytes(), &mint)
	return mint, ok, err
}

func (s *state) PutMint(_ context.Context, mint model.Mint) error {
	if err := s.writable(); err != nil {
		return err
	}
	return putJSON(s.tx.Bucket(bucketMints), mint.Address.Bytes(), mint)
}

func (s *state) Controller(_ context.Context, holder common.Address) (common.Address, bool, error) {
	value := s.tx.Bucket(bucketControllers).Get(holder.Bytes())
	if value == nil {
		return common.Address{}, false, nil
	}
	return common.BytesToAddress(value), true, nil
}

func (s *state) PutController(_ context.Context, holder, controller common.Address) error {
	if err := s.writable(); err != nil {
		return err
	}
	return s.tx.Bucket(bucketControllers).Put(holder.Bytes(), controller.Bytes())
}

func (s *state) Pool(_ context.Context, address common.Address) (model.Pool, bool, error) {
	var pool model.Pool
	ok, err := getJSON(s.tx.Bucket(bucketPools), address.Bytes(), &pool)
	return pool, ok, err
}

func (s *state) PutPool(_ context.Context, pool model.Pool) error {
	if err := s.writable(); err != nil {
		return err
	}
	return putJSON(s.tx.Bucket(bucketPools), pool.Address.Bytes(), pool)
}

func getJSON(bucket *bbolt.Bucket, key []byte, out interface{}) (bool, error) {
	value := bucket.Get(key)
	if value == nil {
		return false, nil
	}
	if err := json.Unmarshal(value, out); err != nil {
		return false, fmt.Errorf("decode record: %w", err)
	}
	return true, nil
}

func putJSON(bucket *bbolt.Bucket, key []byte, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return bucket.Put(key, data)
}
