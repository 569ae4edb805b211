// Package ledger implements the balance arithmetic behind the expense
// tracker: per-member signed balances, the update rules for expenses and
// payments, and the replay check that keeps the materialized cache honest.
//
// The transaction log is the source of truth; balances are a derived
// projection maintained incrementally and reproducible by replaying the
// log from empty state. Within a group the balances of all members always
// sum to zero after any committed transaction. The one documented
// exception is member removal, which discards the removed member's
// balance outright.
package ledger

import (
	"errors"

	"github.com/adhamj/settleup/pkg/money"
)

// Validation failure kinds. All are detected before any mutation and are
// recoverable by the caller; only ErrInconsistentLedger signals internal
// corruption rather than bad input.
var (
	ErrInvalidAmount             = errors.New("amount must be positive and within bounds")
	ErrNoParticipants            = errors.New("at least one participant is required")
	ErrUnknownMember             = errors.New("member not found in group")
	ErrSelfPayment               = errors.New("payment sender and receiver must differ")
	ErrDuplicateTransaction      = errors.New("near-identical transaction submitted recently")
	ErrInsufficientWalletBalance = errors.New("insufficient wallet balance for own share")
	ErrMemberNotInGroup          = errors.New("user is not a member of this group")
	ErrShareMismatch             = errors.New("participant shares do not sum to the expense amount")
	ErrInconsistentLedger        = errors.New("ledger replay does not match materialized balances")
)

// Balances maps member user IDs to their signed group balance.
// Positive means the group owes the member; negative means the member owes
// the group.
type Balances map[int64]money.Cents

// Sum returns the total of all balances. Zero for any consistent group.
func (b Balances) Sum() money.Cents {
	var total money.Cents
	for _, v := range b {
		total += v
	}
	return total
}

// Apply adds the given deltas in place.
func (b Balances) Apply(deltas Balances) {
	for id, d := range deltas {
		b[id] += d
	}
}

// Clone returns a copy of the balance map.
func (b Balances) Clone() Balances {
	out := make(Balances, len(b))
	for id, v := range b {
		out[id] = v
	}
	return out
}

// ValidateExpense checks an expense against the group member set before
// any mutation happens. members holds the user IDs currently in the group.
func ValidateExpense(members map[int64]bool, paidBy int64, amount money.Cents, shares []Share) error {
	if amount <= 0 || amount > money.MaxAmount {
		return ErrInvalidAmount
	}
	if len(shares) == 0 {
		return ErrNoParticipants
	}
	if !members[paidBy] {
		return ErrUnknownMember
	}
	var sum money.Cents
	for _, s := range shares {
		if s.Amount < 0 {
			return ErrInvalidAmount
		}
		if !members[s.UserID] {
			return ErrUnknownMember
		}
		sum += s.Amount
	}
	if sum != amount {
		return ErrShareMismatch
	}
	return nil
}

// ValidatePayment checks a payment against the group member set.
func ValidatePayment(members map[int64]bool, from, to int64, amount money.Cents) error {
	if amount <= 0 || amount > money.MaxAmount {
		return ErrInvalidAmount
	}
	if from == to {
		return ErrSelfPayment
	}
	if !members[from] || !members[to] {
		return ErrUnknownMember
	}
	return nil
}

// ExpenseDeltas computes the balance changes caused by an expense.
// The payer is credited the amount minus their own consumed share (the
// full amount when they are not a participant); every other participant
// is debited their share. The deltas always sum to zero.
func ExpenseDeltas(e *Expense) Balances {
	deltas := make(Balances, len(e.Shares)+1)
	deltas[e.PaidBy] += e.Amount - e.OwnShare()
	for _, s := range e.Shares {
		if s.UserID == e.PaidBy {
			continue
		}
		deltas[s.UserID] -= s.Amount
	}
	return deltas
}

// PaymentDeltas computes the balance changes caused by a direct payment:
// the sender's debt shrinks (or credit grows), the receiver's balance
// moves the opposite way by the same amount.
func PaymentDeltas(p *Payment) Balances {
	return Balances{
		p.From: p.Amount,
		p.To:   -p.Amount,
	}
}

// Deltas returns the group balance changes for any transaction variant.
// WalletAdjust entries touch only the personal wallet, never group
// balances, so they contribute nothing here.
func Deltas(tx Transaction) Balances {
	switch t := tx.(type) {
	case *Expense:
		return ExpenseDeltas(t)
	case *Payment:
		return PaymentDeltas(t)
	default:
		return Balances{}
	}
}
