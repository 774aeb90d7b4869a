package storage

import (
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"ammCore/internal/model"
)

func TestJsonlJournalAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.jsonl")
	journal := NewJsonlJournal(path)

	pool := common.HexToAddress("0x01")
	first := model.Receipt{Op: model.OpDeposit, Pool: pool, LPAmount: 10, AmountX: 1, AmountY: 2, Timestamp: 100}
	second := model.Receipt{Op: model.OpSwap, Pool: pool, IsX: true, AmountIn: 5, AmountOut: 3, Timestamp: 101}

	if err := journal.PutReceipts([]model.Receipt{first}); err != nil {
		t.Fatalf("put first: %v", err)
	}
	if err := journal.PutReceipts(nil); err != nil {
		t.Fatalf("put empty: %v", err)
	}
	if err := journal.PutReceipts([]model.Receipt{second}); err != nil {
		t.Fatalf("put second: %v", err)
	}

	receipts, err := ReadReceipts(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(receipts) != 2 {
		t.Fatalf("expected 2 receipts, got %d", len(receipts))
	}
	if receipts[0].Op != model.OpDeposit || receipts[0].LPAmount != 10 {
		t.Fatalf("unexpected first receipt: %+v", receipts[0])
	}
	if receipts[1].Op != model.OpSwap || receipts[1].AmountOut != 3 || !receipts[1].IsX {
		t.Fatalf("unexpected second receipt: %+v", receipts[1])
	}
}

func TestReadReceiptsMissingFile(t *testing.T) {
	receipts, err := ReadReceipts(filepath.Join(t.TempDir(), "absent.jsonl"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(receipts) != 0 {
		t.Fatalf("expected no receipts, got %d", len(receipts))
	}
}
