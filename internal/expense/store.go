package expense

import (
	"context"
	"time"

	"github.com/adhamj/settleup/internal/ledger"
	"github.com/adhamj/settleup/pkg/money"
)

// Store is the persistence boundary the expense service depends on.
// The Postgres repository implements it; tests use an in-memory fake.
type Store interface {
	// GroupMembers returns the users currently in the group keyed by ID
	// with their usernames, or an empty map if the group does not exist.
	GroupMembers(ctx context.Context, groupID int64) (map[int64]string, error)

	// RecentExpenses returns expenses in the group created at or after
	// the given instant, for duplicate detection.
	RecentExpenses(ctx context.Context, groupID int64, since time.Time) ([]*ledger.Expense, error)

	// AppendExpense atomically appends the expense to the log, applies
	// the balance deltas, and, when walletDeduct is positive, deducts
	// that amount from walletUserID's wallet. Either everything commits
	// or nothing does. Returns ledger.ErrInsufficientWalletBalance when
	// the wallet cannot cover the deduction.
	AppendExpense(ctx context.Context, e *ledger.Expense, deltas ledger.Balances, walletUserID int64, walletDeduct money.Cents) (*ledger.Expense, error)

	// GetExpense retrieves a single expense with its shares.
	// Returns nil when not found.
	GetExpense(ctx context.Context, id int64) (*ledger.Expense, error)

	// ListExpensesByGroup returns a page of the group's expenses, newest
	// first, along with the total count.
	ListExpensesByGroup(ctx context.Context, groupID int64, limit, offset int) ([]*ledger.Expense, int, error)
}
