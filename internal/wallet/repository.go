package wallet

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/adhamj/settleup/internal/ledger"
	"github.com/adhamj/settleup/pkg/money"
)

// Ensure Repository implements the service's store boundary
var _ Store = (*Repository)(nil)

// Repository handles wallet data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new wallet repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetBalance returns the user's wallet balance, creating an empty wallet
// row on first access.
func (r *Repository) GetBalance(ctx context.Context, userID int64) (money.Cents, error) {
	var balance int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO wallets (user_id, balance) VALUES ($1, 0)
		 ON CONFLICT (user_id) DO UPDATE SET balance = wallets.balance
		 RETURNING balance`,
		userID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("failed to get wallet balance: %w", err)
	}
	return money.Cents(balance), nil
}

// ApplyAdjust updates the wallet balance and appends the WalletAdjust log
// entry in one database transaction. The balance check and update happen
// in a single statement, so a concurrent spend cannot slip between them.
func (r *Repository) ApplyAdjust(ctx context.Context, adj *ledger.WalletAdjust) (*ledger.WalletAdjust, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO wallets (user_id, balance) VALUES ($1, 0)
		 ON CONFLICT (user_id) DO NOTHING`,
		adj.UserID); err != nil {
		return nil, fmt.Errorf("failed to ensure wallet: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE wallets SET balance = balance + $2
		 WHERE user_id = $1 AND balance + $2 >= 0`,
		adj.UserID, int64(adj.Amount))
	if err != nil {
		return nil, fmt.Errorf("failed to adjust wallet: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check wallet adjustment: %w", err)
	}
	if n == 0 {
		return nil, ledger.ErrInsufficientWalletBalance
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO transactions (uid, type, amount, user_id, note, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		adj.UID, string(ledger.KindWalletAdjust), int64(adj.Amount),
		adj.UserID, adj.Note, adj.CreatedAt,
	).Scan(&adj.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert wallet adjustment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit wallet adjustment: %w", err)
	}

	return adj, nil
}
