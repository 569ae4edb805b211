package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adhamj/settleup/internal/ledger"
	"github.com/adhamj/settleup/pkg/money"
)

// fakeStore is an in-memory Store for service tests.
type fakeStore struct {
	members   []Member
	txs       []ledger.Transaction
	balances  ledger.Balances
	writeoffs ledger.Balances
	nextID    int64
}

func newFakeStore(members ...Member) *fakeStore {
	return &fakeStore{
		members:   members,
		balances:  make(ledger.Balances),
		writeoffs: make(ledger.Balances),
		nextID:    1,
	}
}

func (f *fakeStore) GroupMemberList(ctx context.Context, groupID int64) ([]Member, error) {
	return f.members, nil
}

func (f *fakeStore) RecentPayments(ctx context.Context, groupID int64, since time.Time) ([]*ledger.Payment, error) {
	var out []*ledger.Payment
	for _, tx := range f.txs {
		if p, ok := tx.(*ledger.Payment); ok && !p.CreatedAt.Before(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) AppendPayment(ctx context.Context, p *ledger.Payment, deltas ledger.Balances) (*ledger.Payment, error) {
	created := *p
	created.ID = f.nextID
	f.nextID++
	f.txs = append(f.txs, &created)
	f.balances.Apply(deltas)
	return &created, nil
}

func (f *fakeStore) GroupTransactions(ctx context.Context, groupID int64) ([]ledger.Transaction, error) {
	return f.txs, nil
}

func (f *fakeStore) GroupBalances(ctx context.Context, groupID int64) (ledger.Balances, error) {
	return f.balances.Clone(), nil
}

func (f *fakeStore) BalanceWriteoffs(ctx context.Context, groupID int64) (ledger.Balances, error) {
	return f.writeoffs.Clone(), nil
}

func (f *fakeStore) addExpense(paidBy int64, amount money.Cents, shares ...ledger.Share) {
	e := &ledger.Expense{ID: f.nextID, GroupID: 1, PaidBy: paidBy, Amount: amount, Shares: shares}
	f.nextID++
	f.txs = append(f.txs, e)
	f.balances.Apply(ledger.ExpenseDeltas(e))
}

// fakeNotifier records payment notifications handed to it.
type fakeNotifier struct {
	recipients []int64
	payers     []string
	amounts    []money.Cents
}

func (f *fakeNotifier) NotifyPaymentRecorded(ctx context.Context, recipientID int64, payerName string, amount money.Cents, paymentID int64) error {
	f.recipients = append(f.recipients, recipientID)
	f.payers = append(f.payers, payerName)
	f.amounts = append(f.amounts, amount)
	return nil
}

func newTestService(store *fakeStore, at time.Time) (*Service, *fakeNotifier) {
	notifier := &fakeNotifier{}
	s := NewService(store, notifier)
	s.now = func() time.Time { return at }
	return s, notifier
}

func threeMembers() []Member {
	return []Member{{UserID: 1, Username: "adham"}, {UserID: 2, Username: "sara"}, {UserID: 3, Username: "omar"}}
}

func TestRecordPayment(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	req := &RecordPaymentRequest{GroupID: 1, From: 2, To: 1, Amount: 5000, Method: "cash"}

	t.Run("success", func(t *testing.T) {
		store := newFakeStore(threeMembers()...)
		svc, notifier := newTestService(store, now)

		p, err := svc.RecordPayment(ctx, 2, req)
		require.NoError(t, err)
		assert.NotEmpty(t, p.UID)
		assert.Equal(t, ledger.MethodCash, p.Method)
		// Sara handed Adham 50.00 with nothing owed, so the group now
		// owes her that much and Adham the inverse.
		assert.Equal(t, money.Cents(-5000), store.balances[1])
		assert.Equal(t, money.Cents(5000), store.balances[2])

		// The payee is told who paid them.
		require.Len(t, notifier.recipients, 1)
		assert.Equal(t, int64(1), notifier.recipients[0])
		assert.Equal(t, "sara", notifier.payers[0])
		assert.Equal(t, money.Cents(5000), notifier.amounts[0])
	})

	t.Run("invalid method", func(t *testing.T) {
		store := newFakeStore(threeMembers()...)
		svc, _ := newTestService(store, now)

		bad := *req
		bad.Method = "cheque"
		_, err := svc.RecordPayment(ctx, 2, &bad)
		assert.ErrorIs(t, err, ErrInvalidMethod)
	})

	t.Run("self payment", func(t *testing.T) {
		store := newFakeStore(threeMembers()...)
		svc, _ := newTestService(store, now)

		bad := *req
		bad.To = bad.From
		_, err := svc.RecordPayment(ctx, 2, &bad)
		assert.ErrorIs(t, err, ledger.ErrSelfPayment)
	})

	t.Run("caller not in group", func(t *testing.T) {
		store := newFakeStore(threeMembers()...)
		svc, _ := newTestService(store, now)

		_, err := svc.RecordPayment(ctx, 99, req)
		assert.ErrorIs(t, err, ledger.ErrMemberNotInGroup)
	})

	t.Run("unknown group", func(t *testing.T) {
		svc, _ := newTestService(newFakeStore(), now)
		_, err := svc.RecordPayment(ctx, 2, req)
		assert.ErrorIs(t, err, ErrGroupNotFound)
	})

	t.Run("duplicate within window", func(t *testing.T) {
		store := newFakeStore(threeMembers()...)
		svc, _ := newTestService(store, now)

		_, err := svc.RecordPayment(ctx, 2, req)
		require.NoError(t, err)

		svc.now = func() time.Time { return now.Add(time.Minute) }
		_, err = svc.RecordPayment(ctx, 2, req)
		assert.ErrorIs(t, err, ledger.ErrDuplicateTransaction)

		// Past the window the same payment is legitimate again.
		svc.now = func() time.Time { return now.Add(ledger.PaymentDupWindow + time.Second) }
		_, err = svc.RecordPayment(ctx, 2, req)
		assert.NoError(t, err)
	})
}

func TestSettlementsFor(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(threeMembers()...)

	// User 1 pays 300.00 split evenly across all three.
	store.addExpense(1, 30000,
		ledger.Share{UserID: 1, Amount: 10000},
		ledger.Share{UserID: 2, Amount: 10000},
		ledger.Share{UserID: 3, Amount: 10000},
	)

	svc, _ := newTestService(store, time.Now())

	views, totals, err := svc.SettlementsFor(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, money.Cents(10000), views[2].ToReceive)
	assert.Equal(t, money.Cents(0), views[2].ToPay)
	assert.Equal(t, money.Cents(10000), views[3].ToReceive)
	assert.Equal(t, money.Cents(20000), totals.ToReceive)
	assert.Equal(t, money.Cents(0), totals.ToPay)

	// From user 2's side the same pair shows as a debt.
	views, totals, err = svc.SettlementsFor(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(10000), views[1].ToPay)
	assert.Equal(t, money.Cents(0), views[3].ToReceive)
	assert.Equal(t, money.Cents(0), views[3].ToPay)
	assert.Equal(t, money.Cents(10000), totals.ToPay)

	_, _, err = svc.SettlementsFor(ctx, 99, 1)
	assert.ErrorIs(t, err, ledger.ErrMemberNotInGroup)
}

func TestProposeSettlements(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(threeMembers()...)
	store.addExpense(1, 30000,
		ledger.Share{UserID: 1, Amount: 10000},
		ledger.Share{UserID: 2, Amount: 10000},
		ledger.Share{UserID: 3, Amount: 10000},
	)
	svc, _ := newTestService(store, time.Now())

	opts, err := svc.ProposeSettlements(ctx, 1, 1, 2)
	require.NoError(t, err)
	require.Len(t, opts, 1)
	assert.Equal(t, "Receive 100.00 from sara", opts[0].Description)

	opts, err = svc.ProposeSettlements(ctx, 2, 1, 1)
	require.NoError(t, err)
	require.Len(t, opts, 1)
	assert.Equal(t, "Pay 100.00 to adham", opts[0].Description)

	_, err = svc.ProposeSettlements(ctx, 1, 1, 99)
	assert.ErrorIs(t, err, ErrCounterpartyNotFound)

	_, err = svc.ProposeSettlements(ctx, 1, 1, 1)
	assert.ErrorIs(t, err, ErrCounterpartyNotFound)
}

// Paying the exact amount a settlement option proposes clears the pair:
// the cached balances, the replayed log, and the views all agree on zero.
func TestRecordedSettlementClearsPair(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store := newFakeStore(threeMembers()...)
	store.addExpense(1, 30000,
		ledger.Share{UserID: 1, Amount: 10000},
		ledger.Share{UserID: 2, Amount: 10000},
		ledger.Share{UserID: 3, Amount: 10000},
	)
	svc, _ := newTestService(store, now)

	opts, err := svc.ProposeSettlements(ctx, 2, 1, 1)
	require.NoError(t, err)
	require.Len(t, opts, 1)
	require.Equal(t, "Pay 100.00 to adham", opts[0].Description)

	_, err = svc.RecordPayment(ctx, 2, &RecordPaymentRequest{
		GroupID: 1,
		From:    2,
		To:      1,
		Amount:  opts[0].Amount,
		Method:  "cash",
	})
	require.NoError(t, err)

	// Sara's debt to Adham is gone in both directions of the view.
	views, totals, err := svc.SettlementsFor(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(0), views[1].ToPay)
	assert.Equal(t, money.Cents(0), views[1].ToReceive)
	assert.Equal(t, money.Cents(0), totals.ToPay)

	views, _, err = svc.SettlementsFor(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(0), views[2].ToReceive)

	// The cached balances moved the same way the replayed log did.
	assert.Equal(t, money.Cents(10000), store.balances[1])
	assert.Equal(t, money.Cents(0), store.balances[2])
	assert.Equal(t, money.Cents(-10000), store.balances[3])
	assert.NoError(t, svc.VerifyGroup(ctx, 1))
}

func TestVerifyGroup(t *testing.T) {
	ctx := context.Background()

	t.Run("consistent group", func(t *testing.T) {
		store := newFakeStore(threeMembers()...)
		store.addExpense(1, 30000,
			ledger.Share{UserID: 1, Amount: 10000},
			ledger.Share{UserID: 2, Amount: 10000},
			ledger.Share{UserID: 3, Amount: 10000},
		)
		svc, _ := newTestService(store, time.Now())
		assert.NoError(t, svc.VerifyGroup(ctx, 1))
	})

	t.Run("drifted cache", func(t *testing.T) {
		store := newFakeStore(threeMembers()...)
		store.addExpense(1, 30000,
			ledger.Share{UserID: 1, Amount: 10000},
			ledger.Share{UserID: 2, Amount: 10000},
			ledger.Share{UserID: 3, Amount: 10000},
		)
		store.balances[2] += 7
		svc, _ := newTestService(store, time.Now())
		assert.ErrorIs(t, svc.VerifyGroup(ctx, 1), ledger.ErrInconsistentLedger)
	})

	t.Run("writeoffs bridge removed members", func(t *testing.T) {
		store := newFakeStore(threeMembers()...)
		store.addExpense(1, 30000,
			ledger.Share{UserID: 1, Amount: 10000},
			ledger.Share{UserID: 2, Amount: 10000},
			ledger.Share{UserID: 3, Amount: 10000},
		)
		// Member 3 removed with a -100.00 balance: the cache row is gone
		// but the written-off amount is retained, so the replay still
		// reconciles exactly.
		store.writeoffs[3] = store.balances[3]
		delete(store.balances, 3)

		svc, _ := newTestService(store, time.Now())
		assert.NoError(t, svc.VerifyGroup(ctx, 1))

		// Discarding the balance without recording the writeoff is the
		// corruption the check exists to catch.
		store.writeoffs = ledger.Balances{}
		assert.ErrorIs(t, svc.VerifyGroup(ctx, 1), ledger.ErrInconsistentLedger)
	})
}
