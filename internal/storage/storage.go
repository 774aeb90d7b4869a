package storage

import "ammCore/internal/model"

// Journal is a sink for receipts of committed pool operations.
type Journal interface {
	PutReceipts(receipts []model.Receipt) error
}
