package wallet

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/adhamj/settleup/internal/ledger"
	"github.com/adhamj/settleup/pkg/money"
)

// ErrZeroAdjustment rejects adjustments that would change nothing.
var ErrZeroAdjustment = errors.New("adjustment amount must be nonzero")

// Store is the persistence boundary for the wallet service.
type Store interface {
	// GetBalance returns the user's wallet balance, creating an empty
	// wallet on first access.
	GetBalance(ctx context.Context, userID int64) (money.Cents, error)

	// ApplyAdjust atomically updates the wallet balance and appends the
	// WalletAdjust entry to the transaction log. A negative adjustment
	// that would take the balance below zero fails with
	// ledger.ErrInsufficientWalletBalance and changes nothing.
	ApplyAdjust(ctx context.Context, adj *ledger.WalletAdjust) (*ledger.WalletAdjust, error)
}

// Service handles wallet business logic
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a new wallet service
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// GetBalance returns the user's current wallet balance
func (s *Service) GetBalance(ctx context.Context, userID int64) (money.Cents, error) {
	return s.store.GetBalance(ctx, userID)
}

// Adjust applies a signed adjustment to the user's wallet and records it
// as a WalletAdjust log entry. Group balances are never touched.
func (s *Service) Adjust(ctx context.Context, userID int64, amount money.Cents, note string) (*ledger.WalletAdjust, error) {
	if amount == 0 {
		return nil, ErrZeroAdjustment
	}
	if amount > money.MaxAmount || amount < -money.MaxAmount {
		return nil, ledger.ErrInvalidAmount
	}

	adj := &ledger.WalletAdjust{
		UID:       uuid.NewString(),
		UserID:    userID,
		Amount:    amount,
		Note:      note,
		CreatedAt: s.now(),
	}

	created, err := s.store.ApplyAdjust(ctx, adj)
	if err != nil {
		return nil, err
	}

	slog.Info("wallet adjusted",
		"user_id", userID,
		"amount", amount.String(),
	)

	return created, nil
}
