package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adhamj/settleup/pkg/money"
)

func sampleLog() []Transaction {
	return []Transaction{
		&Expense{GroupID: 1, PaidBy: 1, Amount: 30000, Shares: []Share{
			{UserID: 1, Amount: 10000}, {UserID: 2, Amount: 10000}, {UserID: 3, Amount: 10000},
		}},
		&Payment{GroupID: 1, From: 2, To: 1, Amount: 10000},
		&Expense{GroupID: 1, PaidBy: 3, Amount: 6000, Shares: []Share{
			{UserID: 1, Amount: 3000}, {UserID: 2, Amount: 3000},
		}},
	}
}

func TestReplay(t *testing.T) {
	balances := Replay(sampleLog())

	// User 1: +20000 from own expense, -10000 payment received, -3000 share.
	assert.Equal(t, money.Cents(7000), balances[1])
	// User 2: -10000 share, +10000 payment made, -3000 share.
	assert.Equal(t, money.Cents(-3000), balances[2])
	// User 3: -10000 share, +6000 from own expense (not a participant).
	assert.Equal(t, money.Cents(-4000), balances[3])
	assert.Equal(t, money.Cents(0), balances.Sum())
}

func TestReplayEmptyLog(t *testing.T) {
	assert.Empty(t, Replay(nil))
}

func TestReconcile(t *testing.T) {
	txs := sampleLog()
	good := Replay(txs)
	require.NoError(t, Reconcile(good, txs))

	t.Run("drifted balance", func(t *testing.T) {
		bad := good.Clone()
		bad[2] += 1
		err := Reconcile(bad, txs)
		assert.ErrorIs(t, err, ErrInconsistentLedger)
	})

	t.Run("phantom member in cache", func(t *testing.T) {
		bad := good.Clone()
		bad[99] = 500
		err := Reconcile(bad, txs)
		assert.ErrorIs(t, err, ErrInconsistentLedger)
	})

	t.Run("missing member in cache", func(t *testing.T) {
		bad := good.Clone()
		delete(bad, 3)
		err := Reconcile(bad, txs)
		assert.ErrorIs(t, err, ErrInconsistentLedger)
	})

	t.Run("zero balance member may be absent", func(t *testing.T) {
		// A replayed zero equals a missing cache entry.
		txs := []Transaction{
			&Expense{GroupID: 1, PaidBy: 1, Amount: 500, Shares: []Share{{UserID: 1, Amount: 500}}},
		}
		require.NoError(t, Reconcile(Balances{}, txs))
	})
}

func TestPairBalance(t *testing.T) {
	txs := sampleLog()

	// Between 1 and 2: 1 paid 2's 10000 share, 2 paid back 10000,
	// then 3 covered both. Net zero between this pair.
	assert.Equal(t, money.Cents(0), PairBalance(txs, 1, 2))
	assert.Equal(t, money.Cents(0), PairBalance(txs, 2, 1))

	// Between 1 and 3: 1 covered 3's 10000 share, 3 covered 1's 3000.
	assert.Equal(t, money.Cents(7000), PairBalance(txs, 1, 3))
	assert.Equal(t, money.Cents(-7000), PairBalance(txs, 3, 1))

	// Unrelated user.
	assert.Equal(t, money.Cents(0), PairBalance(txs, 1, 99))
}

// A member's replayed balance is the sum of their pairwise balances.
func TestReplayMatchesPairBalances(t *testing.T) {
	txs := sampleLog()
	balances := Replay(txs)
	users := []int64{1, 2, 3}
	for _, u := range users {
		var sum money.Cents
		for _, v := range users {
			if u == v {
				continue
			}
			sum += PairBalance(txs, u, v)
		}
		assert.Equal(t, balances[u], sum, "user %d", u)
	}
}

func TestPairBalanceIsAntisymmetric(t *testing.T) {
	txs := sampleLog()
	users := []int64{1, 2, 3}
	for _, a := range users {
		for _, b := range users {
			if a == b {
				continue
			}
			assert.Equal(t, PairBalance(txs, a, b), -PairBalance(txs, b, a))
		}
	}
}
