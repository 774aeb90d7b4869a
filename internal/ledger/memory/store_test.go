package memory

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"ammCore/internal/ledger"
	"ammCore/internal/ledger/ledgertest"
)

func TestMemoryStore(t *testing.T) {
	ledgertest.Run(t, func(t *testing.T) ledger.Store {
		return NewStore()
	})
}

func TestClosedStore(t *testing.T) {
	s := NewStore()
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	err := s.Atomic(context.Background(), common.Address{}, func(ledger.Tx) error { return nil })
	if err != ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
