package expense

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adhamj/settleup/internal/expense/split"
	"github.com/adhamj/settleup/internal/ledger"
	"github.com/adhamj/settleup/pkg/money"
)

// fakeStore is an in-memory Store for service tests. It mimics the
// repository's all-or-nothing append: a failed wallet deduction leaves
// the log and balances untouched.
type fakeStore struct {
	members  map[int64]string
	expenses []*ledger.Expense
	balances ledger.Balances
	wallets  map[int64]money.Cents
	nextID   int64
}

func newFakeStore(memberIDs ...int64) *fakeStore {
	members := make(map[int64]string, len(memberIDs))
	for _, id := range memberIDs {
		members[id] = fmt.Sprintf("user%d", id)
	}
	return &fakeStore{
		members:  members,
		balances: make(ledger.Balances),
		wallets:  make(map[int64]money.Cents),
		nextID:   1,
	}
}

func (f *fakeStore) GroupMembers(ctx context.Context, groupID int64) (map[int64]string, error) {
	return f.members, nil
}

func (f *fakeStore) RecentExpenses(ctx context.Context, groupID int64, since time.Time) ([]*ledger.Expense, error) {
	var out []*ledger.Expense
	for _, e := range f.expenses {
		if !e.CreatedAt.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) AppendExpense(ctx context.Context, e *ledger.Expense, deltas ledger.Balances, walletUserID int64, walletDeduct money.Cents) (*ledger.Expense, error) {
	if walletDeduct > 0 && f.wallets[walletUserID] < walletDeduct {
		return nil, ledger.ErrInsufficientWalletBalance
	}
	if walletDeduct > 0 {
		f.wallets[walletUserID] -= walletDeduct
	}
	created := *e
	created.ID = f.nextID
	f.nextID++
	f.expenses = append(f.expenses, &created)
	f.balances.Apply(deltas)
	return &created, nil
}

func (f *fakeStore) GetExpense(ctx context.Context, id int64) (*ledger.Expense, error) {
	for _, e := range f.expenses {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListExpensesByGroup(ctx context.Context, groupID int64, limit, offset int) ([]*ledger.Expense, int, error) {
	total := len(f.expenses)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return f.expenses[offset:end], total, nil
}

// fakeNotifier records expense notifications handed to it.
type fakeNotifier struct {
	recipients []int64
	payers     []string
	shares     []money.Cents
}

func (f *fakeNotifier) NotifyExpenseAdded(ctx context.Context, recipientID int64, payerName string, share money.Cents, expenseID int64) error {
	f.recipients = append(f.recipients, recipientID)
	f.payers = append(f.payers, payerName)
	f.shares = append(f.shares, share)
	return nil
}

func newTestService(store *fakeStore, at time.Time) (*Service, *fakeNotifier) {
	notifier := &fakeNotifier{}
	s := NewService(store, split.NewFactory(), notifier)
	s.now = func() time.Time { return at }
	return s, notifier
}

func evenRequest(amount money.Cents, paidBy int64, userIDs ...int64) *CreateExpenseRequest {
	parts := make([]*SplitParticipant, len(userIDs))
	for i, id := range userIDs {
		parts[i] = &SplitParticipant{UserID: id}
	}
	return &CreateExpenseRequest{
		GroupID:      1,
		Amount:       amount,
		PaidBy:       paidBy,
		SplitType:    "EVEN",
		Participants: parts,
	}
}

func TestCreateExpense(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("even split with payer participating", func(t *testing.T) {
		store := newFakeStore(1, 2, 3)
		store.wallets[1] = 50000
		svc, notifier := newTestService(store, now)

		created, err := svc.CreateExpense(ctx, 1, evenRequest(30000, 1, 1, 2, 3))
		require.NoError(t, err)
		assert.NotEmpty(t, created.UID)
		require.Len(t, created.Shares, 3)

		assert.Equal(t, money.Cents(20000), store.balances[1])
		assert.Equal(t, money.Cents(-10000), store.balances[2])
		assert.Equal(t, money.Cents(-10000), store.balances[3])
		assert.Equal(t, money.Cents(0), store.balances.Sum())

		// The payer's own 100.00 share came out of their wallet.
		assert.Equal(t, money.Cents(40000), store.wallets[1])

		// Everyone but the payer is told their share.
		assert.ElementsMatch(t, []int64{2, 3}, notifier.recipients)
		assert.Equal(t, []string{"user1", "user1"}, notifier.payers)
		assert.Equal(t, []money.Cents{10000, 10000}, notifier.shares)
	})

	t.Run("recorder is not the payer so no wallet deduction", func(t *testing.T) {
		store := newFakeStore(1, 2, 3)
		svc, _ := newTestService(store, now)

		_, err := svc.CreateExpense(ctx, 2, evenRequest(30000, 1, 1, 2, 3))
		require.NoError(t, err)
		assert.Equal(t, money.Cents(0), store.wallets[1])
		assert.Equal(t, money.Cents(0), store.wallets[2])
	})

	t.Run("payer not participating keeps wallet untouched", func(t *testing.T) {
		store := newFakeStore(1, 2, 3)
		svc, _ := newTestService(store, now)

		_, err := svc.CreateExpense(ctx, 1, evenRequest(10000, 1, 2, 3))
		require.NoError(t, err)
		assert.Equal(t, money.Cents(10000), store.balances[1])
		assert.Equal(t, money.Cents(0), store.wallets[1])
	})

	t.Run("insufficient wallet aborts everything", func(t *testing.T) {
		store := newFakeStore(1, 2, 3)
		store.wallets[1] = 9999
		svc, notifier := newTestService(store, now)

		_, err := svc.CreateExpense(ctx, 1, evenRequest(30000, 1, 1, 2, 3))
		assert.ErrorIs(t, err, ledger.ErrInsufficientWalletBalance)

		assert.Empty(t, store.expenses, "no log entry on failure")
		assert.Empty(t, store.balances, "no balance change on failure")
		assert.Equal(t, money.Cents(9999), store.wallets[1])
		assert.Empty(t, notifier.recipients, "no notifications on failure")
	})

	t.Run("duplicate within window", func(t *testing.T) {
		store := newFakeStore(1, 2, 3)
		store.wallets[1] = 50000
		svc, _ := newTestService(store, now)

		req := evenRequest(30000, 1, 1, 2, 3)
		_, err := svc.CreateExpense(ctx, 1, req)
		require.NoError(t, err)

		svc.now = func() time.Time { return now.Add(2 * time.Minute) }
		_, err = svc.CreateExpense(ctx, 1, req)
		assert.ErrorIs(t, err, ledger.ErrDuplicateTransaction)

		// Reordered participants still count as the same expense.
		reordered := evenRequest(30000, 1, 3, 1, 2)
		_, err = svc.CreateExpense(ctx, 1, reordered)
		assert.ErrorIs(t, err, ledger.ErrDuplicateTransaction)

		svc.now = func() time.Time { return now.Add(ledger.ExpenseDupWindow + time.Second) }
		_, err = svc.CreateExpense(ctx, 1, req)
		assert.NoError(t, err)
	})

	t.Run("unknown group", func(t *testing.T) {
		svc, _ := newTestService(newFakeStore(), now)
		_, err := svc.CreateExpense(ctx, 1, evenRequest(100, 1, 1))
		assert.ErrorIs(t, err, ErrGroupNotFound)
	})

	t.Run("recorder not in group", func(t *testing.T) {
		svc, _ := newTestService(newFakeStore(1, 2), now)
		_, err := svc.CreateExpense(ctx, 99, evenRequest(100, 1, 1, 2))
		assert.ErrorIs(t, err, ledger.ErrMemberNotInGroup)
	})

	t.Run("payer outside group", func(t *testing.T) {
		svc, _ := newTestService(newFakeStore(1, 2), now)
		_, err := svc.CreateExpense(ctx, 1, evenRequest(100, 99, 1, 2))
		assert.ErrorIs(t, err, ledger.ErrUnknownMember)
	})

	t.Run("unknown split type", func(t *testing.T) {
		svc, _ := newTestService(newFakeStore(1, 2), now)
		req := evenRequest(100, 1, 1, 2)
		req.SplitType = "WEIGHTED"
		_, err := svc.CreateExpense(ctx, 1, req)
		assert.Error(t, err)
	})
}

func TestGetExpenseByID(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(1, 2)
	svc, _ := newTestService(store, time.Now())

	created, err := svc.CreateExpense(ctx, 1, evenRequest(100, 1, 2))
	require.NoError(t, err)

	got, err := svc.GetExpenseByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.UID, got.UID)

	_, err = svc.GetExpenseByID(ctx, 999)
	assert.ErrorIs(t, err, ErrExpenseNotFound)
}

func TestListExpensesByGroupID(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(1, 2)
	svc, _ := newTestService(store, time.Now())

	amounts := []money.Cents{100, 200, 300}
	for i, amount := range amounts {
		svc.now = func() time.Time { return time.Now().Add(time.Duration(i) * ledger.ExpenseDupWindow) }
		_, err := svc.CreateExpense(ctx, 1, evenRequest(amount, 1, 2))
		require.NoError(t, err)
	}

	page, total, err := svc.ListExpensesByGroupID(ctx, 1, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, page, 2)

	page, _, err = svc.ListExpensesByGroupID(ctx, 1, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}
