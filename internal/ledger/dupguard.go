package ledger

import "time"

// Double-submission windows. These are heuristic: two genuinely identical
// expenses seconds apart will be rejected as duplicates. That false
// positive is an accepted tradeoff of the guard, which exists to absorb
// double-taps, not to provide idempotency keys.
const (
	ExpenseDupWindow = 5 * time.Minute
	PaymentDupWindow = 2 * time.Minute
)

// IsDuplicateExpense reports whether the candidate matches a recent log
// entry in the same group: same amount, same payer, and the same
// participant set regardless of order, created within the window of now.
func IsDuplicateExpense(candidate *Expense, recent []*Expense, now time.Time, window time.Duration) bool {
	for _, e := range recent {
		if e.GroupID != candidate.GroupID ||
			e.Amount != candidate.Amount ||
			e.PaidBy != candidate.PaidBy {
			continue
		}
		if now.Sub(e.CreatedAt) > window {
			continue
		}
		if sameParticipantSet(e.Shares, candidate.Shares) {
			return true
		}
	}
	return false
}

// IsDuplicatePayment reports whether the candidate matches a recent
// payment in the same group with the same amount, sender, receiver and
// method within the window of now.
func IsDuplicatePayment(candidate *Payment, recent []*Payment, now time.Time, window time.Duration) bool {
	for _, p := range recent {
		if p.GroupID != candidate.GroupID ||
			p.Amount != candidate.Amount ||
			p.From != candidate.From ||
			p.To != candidate.To ||
			p.Method != candidate.Method {
			continue
		}
		if now.Sub(p.CreatedAt) <= window {
			return true
		}
	}
	return false
}

func sameParticipantSet(a, b []Share) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[int64]bool, len(a))
	for _, s := range a {
		set[s.UserID] = true
	}
	for _, s := range b {
		if !set[s.UserID] {
			return false
		}
	}
	return true
}
