package settlement

import (
	"context"
	"time"

	"github.com/adhamj/settleup/internal/ledger"
)

// Member is the minimal member info the settlement service needs.
type Member struct {
	UserID   int64
	Username string
}

// Store is the persistence boundary for the settlement service.
type Store interface {
	// GroupMemberList returns the group's members in join order, or an
	// empty slice if the group does not exist.
	GroupMemberList(ctx context.Context, groupID int64) ([]Member, error)

	// RecentPayments returns the group's payments created at or after
	// the given instant, for duplicate detection.
	RecentPayments(ctx context.Context, groupID int64, since time.Time) ([]*ledger.Payment, error)

	// AppendPayment atomically appends the payment to the log and
	// applies the balance deltas.
	AppendPayment(ctx context.Context, p *ledger.Payment, deltas ledger.Balances) (*ledger.Payment, error)

	// GroupTransactions returns the group's full transaction log in
	// submission order.
	GroupTransactions(ctx context.Context, groupID int64) ([]ledger.Transaction, error)

	// GroupBalances returns the materialized balance cache for a group.
	GroupBalances(ctx context.Context, groupID int64) (ledger.Balances, error)

	// BalanceWriteoffs returns the balances discarded by member removal,
	// keyed by the removed user. Removal is the one sanctioned
	// non-conservation event; keeping the written-off amounts lets a
	// replay still be reconciled exactly.
	BalanceWriteoffs(ctx context.Context, groupID int64) (ledger.Balances, error)
}
