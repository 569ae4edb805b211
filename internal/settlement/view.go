package settlement

import (
	"fmt"

	"github.com/adhamj/settleup/pkg/money"
)

// View is the per-counterparty settlement summary relative to the current
// user. ToReceive and ToPay are surfaced as two independent non-negative
// facts ("X owes you" / "you owe X") even though both derive from the same
// signed pairwise balance; the signed balance stays the authority and the
// pair is a presentation-layer decomposition, so at most one of the two is
// ever nonzero.
type View struct {
	CounterpartyID int64       `json:"counterparty_id"`
	ToReceive      money.Cents `json:"to_receive"`
	ToPay          money.Cents `json:"to_pay"`
}

// Totals is the group-level aggregate across all counterparties, used to
// gate whether settlement actions are available at all.
type Totals struct {
	ToReceive money.Cents `json:"to_receive"`
	ToPay     money.Cents `json:"to_pay"`
}

// Decompose splits a signed pairwise balance into the non-negative
// to-receive / to-pay pair: max(balance, 0) and max(-balance, 0).
func Decompose(balance money.Cents) (toReceive, toPay money.Cents) {
	if balance > 0 {
		return balance, 0
	}
	return 0, -balance
}

// Option is one concrete settlement action proposed to the user.
type Option struct {
	Description string      `json:"description"`
	Amount      money.Cents `json:"amount"`
}

// ProposeOptions derives settlement actions from a counterparty view:
// receive the full amount owed, pay the full amount due, or nothing when
// the pair is settled. Resolution is strictly pairwise; group-wide
// transfer minimization is a deliberate non-feature, matching how
// settlements behave today.
func ProposeOptions(v View, counterpartyName string) []Option {
	var options []Option
	if v.ToReceive > 0 {
		options = append(options, Option{
			Description: fmt.Sprintf("Receive %s from %s", v.ToReceive, counterpartyName),
			Amount:      v.ToReceive,
		})
	}
	if v.ToPay > 0 {
		options = append(options, Option{
			Description: fmt.Sprintf("Pay %s to %s", v.ToPay, counterpartyName),
			Amount:      v.ToPay,
		})
	}
	return options
}
