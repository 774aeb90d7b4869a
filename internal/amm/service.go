// Package amm orchestrates pool operations: it validates caller requests,
// prices them with the curve package and applies the resulting transfers,
// mints and burns through a ledger.Store in a single atomic unit.
package amm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"ammCore/internal/identity"
	"ammCore/internal/ledger"
	"ammCore/internal/model"
	"ammCore/internal/storage"
)

// Config wires the service's collaborators. Nil fields get defaults.
type Config struct {
	Deriver  identity.Deriver
	Verifier identity.Verifier
	Clock    Clock
	Journal  storage.Journal
}

// Service exposes initialize, deposit, withdraw and swap. It holds no pool
// state between calls; reserves are read from the store every time.
type Service struct {
	store    ledger.Store
	deriver  identity.Deriver
	verifier identity.Verifier
	clock    Clock
	journal  storage.Journal
	logger   *zap.Logger
}

func NewService(cfg Config, store ledger.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Deriver == nil {
		cfg.Deriver = identity.NewKeccakDeriver()
	}
	if cfg.Verifier == nil {
		cfg.Verifier = identity.SignatureVerifier{}
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}

	return &Service{
		store:    store,
		deriver:  cfg.Deriver,
		verifier: cfg.Verifier,
		clock:    cfg.Clock,
		journal:  cfg.Journal,
		logger:   logger,
	}
}

func (s *Service) verify(caller identity.Caller, digest common.Hash) error {
	if !s.verifier.VerifySigner(caller, digest) {
		return fmt.Errorf("%w: %s", ErrUnauthorized, caller.Address.Hex())
	}
	return nil
}

// record appends a committed receipt to the journal. The operation has
// already committed, so journal failures are only logged.
func (s *Service) record(receipt model.Receipt) {
	if s.journal == nil {
		return
	}
	if err := s.journal.PutReceipts([]model.Receipt{receipt}); err != nil {
		s.logger.Warn("journal receipt", zap.Error(err), zap.String("op", receipt.Op), zap.String("pool", receipt.Pool.Hex()))
	}
}

func (s *Service) rejected(op string, req interface{}, err error) {
	s.logger.Debug("operation rejected", zap.String("op", op), zap.Any("request", req), zap.Error(err))
}
