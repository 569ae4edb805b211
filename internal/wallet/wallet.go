// Package wallet tracks the current user's personal spendable balance,
// independent of any group ledger. Its guard is what keeps a payer who is
// also a participant from going below zero when their own share is
// deducted.
package wallet

import (
	"github.com/adhamj/settleup/internal/ledger"
	"github.com/adhamj/settleup/pkg/money"
)

// CanDeduct reports whether the wallet can cover the deduction.
func CanDeduct(balance, amount money.Cents) bool {
	return amount >= 0 && balance >= amount
}

// Deduct returns the wallet balance after the deduction, or
// ledger.ErrInsufficientWalletBalance when the wallet cannot cover it.
// Callers must apply the result and the associated ledger update together
// or not at all.
func Deduct(balance, amount money.Cents) (money.Cents, error) {
	if !CanDeduct(balance, amount) {
		return balance, ledger.ErrInsufficientWalletBalance
	}
	return balance - amount, nil
}
