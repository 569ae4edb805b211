package ledger

import (
	"fmt"

	"github.com/adhamj/settleup/pkg/money"
)

// Replay recomputes group balances from empty state by applying every
// transaction in log order. The hot path never does this; it exists so the
// materialized cache can be verified and rebuilt.
func Replay(txs []Transaction) Balances {
	balances := make(Balances)
	for _, tx := range txs {
		balances.Apply(Deltas(tx))
	}
	return balances
}

// Reconcile verifies that the materialized balance cache matches a replay
// of the transaction log. A mismatch is an internal consistency error, not
// a user-input failure, and callers must treat it as a hard abort.
func Reconcile(cached Balances, txs []Transaction) error {
	replayed := Replay(txs)
	for id, want := range replayed {
		if cached[id] != want {
			return fmt.Errorf("%w: member %d has %s, replay gives %s",
				ErrInconsistentLedger, id, cached[id], want)
		}
	}
	for id, got := range cached {
		if replayed[id] != got {
			return fmt.Errorf("%w: member %d has %s, replay gives %s",
				ErrInconsistentLedger, id, got, replayed[id])
		}
	}
	return nil
}

// PairBalance computes the net amount the counterparty owes the current
// user, accumulated strictly from transactions directly linking the two:
// expenses where one paid and the other consumed a share, and direct
// payments between them. Positive means the counterparty owes the current
// user; negative means the current user owes the counterparty.
func PairBalance(txs []Transaction, currentUserID, counterpartyID int64) money.Cents {
	var balance money.Cents
	for _, tx := range txs {
		switch t := tx.(type) {
		case *Expense:
			switch t.PaidBy {
			case currentUserID:
				for _, s := range t.Shares {
					if s.UserID == counterpartyID {
						balance += s.Amount
					}
				}
			case counterpartyID:
				for _, s := range t.Shares {
					if s.UserID == currentUserID {
						balance -= s.Amount
					}
				}
			}
		case *Payment:
			if t.From == currentUserID && t.To == counterpartyID {
				balance += t.Amount
			} else if t.From == counterpartyID && t.To == currentUserID {
				balance -= t.Amount
			}
		}
	}
	return balance
}
