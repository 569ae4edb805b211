package ledger

import (
	"time"

	"github.com/adhamj/settleup/pkg/money"
)

// Kind identifies a transaction variant.
type Kind string

const (
	KindExpense      Kind = "EXPENSE"
	KindPayment      Kind = "PAYMENT"
	KindWalletAdjust Kind = "WALLET_ADJUST"
)

// PaymentMethod is how a payment was made.
type PaymentMethod string

const (
	MethodCash   PaymentMethod = "cash"
	MethodOnline PaymentMethod = "online"
)

// Share is one participant's portion of an expense.
type Share struct {
	UserID int64       `json:"user_id"`
	Amount money.Cents `json:"amount"`
}

// Transaction is the sealed sum type over the append-only log entries.
// Each variant carries exactly the fields it needs; rows are created once
// and never mutated, except for the removal annotation.
type Transaction interface {
	Kind() Kind
	isTransaction()
}

// Expense records one member paying an amount consumed by a set of participants.
type Expense struct {
	ID         int64       `json:"id"`
	UID        string      `json:"uid"`
	GroupID    int64       `json:"group_id"`
	PaidBy     int64       `json:"paid_by"`
	Amount     money.Cents `json:"amount"`
	Shares     []Share     `json:"shares"`
	Note       string      `json:"note,omitempty"`
	Place      string      `json:"place,omitempty"`
	Annotation string      `json:"annotation,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Payment records a direct settlement transfer between two members.
type Payment struct {
	ID         int64         `json:"id"`
	UID        string        `json:"uid"`
	GroupID    int64         `json:"group_id"`
	From       int64         `json:"from"`
	To         int64         `json:"to"`
	Amount     money.Cents   `json:"amount"`
	Method     PaymentMethod `json:"method"`
	Note       string        `json:"note,omitempty"`
	Annotation string        `json:"annotation,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// WalletAdjust changes the current user's personal wallet balance.
// It never touches any group balance.
type WalletAdjust struct {
	ID        int64       `json:"id"`
	UID       string      `json:"uid"`
	UserID    int64       `json:"user_id"`
	Amount    money.Cents `json:"amount"` // signed
	Note      string      `json:"note,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

func (e *Expense) Kind() Kind      { return KindExpense }
func (p *Payment) Kind() Kind      { return KindPayment }
func (w *WalletAdjust) Kind() Kind { return KindWalletAdjust }

func (e *Expense) isTransaction()      {}
func (p *Payment) isTransaction()      {}
func (w *WalletAdjust) isTransaction() {}

// OwnShare returns the payer's own share of an expense, or zero when the
// payer is not among the participants.
func (e *Expense) OwnShare() money.Cents {
	for _, s := range e.Shares {
		if s.UserID == e.PaidBy {
			return s.Amount
		}
	}
	return 0
}

// HasParticipant reports whether the user consumes a share of the expense.
func (e *Expense) HasParticipant(userID int64) bool {
	for _, s := range e.Shares {
		if s.UserID == userID {
			return true
		}
	}
	return false
}
