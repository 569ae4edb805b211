package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/adhamj/settleup/internal/ledger"
	"github.com/adhamj/settleup/pkg/money"
)

// Common errors
var (
	ErrGroupNotFound        = errors.New("group not found")
	ErrCounterpartyNotFound = errors.New("counterparty not found in group")
	ErrInvalidMethod        = errors.New("payment method must be cash or online")
)

// Notifier tells a member that a payment was recorded against them.
type Notifier interface {
	NotifyPaymentRecorded(ctx context.Context, recipientID int64, payerName string, amount money.Cents, paymentID int64) error
}

// Service derives settlement views from the transaction log and records
// direct payments between members.
type Service struct {
	store    Store
	notifier Notifier
	now      func() time.Time
}

// NewService creates a new settlement service
func NewService(store Store, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier, now: time.Now}
}

// RecordPayment validates and appends a direct payment between two group
// members. Validation happens entirely before the append; the append is a
// single transaction.
func (s *Service) RecordPayment(ctx context.Context, currentUserID int64, req *RecordPaymentRequest) (*ledger.Payment, error) {
	method := ledger.PaymentMethod(req.Method)
	if method != ledger.MethodCash && method != ledger.MethodOnline {
		return nil, ErrInvalidMethod
	}

	memberList, err := s.store.GroupMemberList(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}
	if len(memberList) == 0 {
		return nil, ErrGroupNotFound
	}
	members := memberSet(memberList)
	if !members[currentUserID] {
		return nil, ledger.ErrMemberNotInGroup
	}

	if err := ledger.ValidatePayment(members, req.From, req.To, req.Amount); err != nil {
		return nil, err
	}

	now := s.now()
	candidate := &ledger.Payment{
		UID:       uuid.NewString(),
		GroupID:   req.GroupID,
		From:      req.From,
		To:        req.To,
		Amount:    req.Amount,
		Method:    method,
		Note:      req.Note,
		CreatedAt: now,
	}

	recent, err := s.store.RecentPayments(ctx, req.GroupID, now.Add(-ledger.PaymentDupWindow))
	if err != nil {
		return nil, err
	}
	if ledger.IsDuplicatePayment(candidate, recent, now, ledger.PaymentDupWindow) {
		return nil, ledger.ErrDuplicateTransaction
	}

	created, err := s.store.AppendPayment(ctx, candidate, ledger.PaymentDeltas(candidate))
	if err != nil {
		return nil, err
	}

	slog.Info("payment recorded",
		"group_id", created.GroupID,
		"payment_id", created.ID,
		"from", created.From,
		"to", created.To,
		"amount", created.Amount.String(),
		"method", string(created.Method),
	)

	if s.notifier != nil {
		var payerName string
		for _, m := range memberList {
			if m.UserID == created.From {
				payerName = m.Username
				break
			}
		}
		if err := s.notifier.NotifyPaymentRecorded(ctx, created.To, payerName, created.Amount, created.ID); err != nil {
			slog.Warn("failed to notify payee", "payment_id", created.ID, "user_id", created.To, "error", err)
		}
	}

	return created, nil
}

// SettlementsFor computes the per-counterparty settlement views for the
// current user across the whole group, plus the aggregate totals.
func (s *Service) SettlementsFor(ctx context.Context, currentUserID, groupID int64) (map[int64]View, Totals, error) {
	memberList, err := s.store.GroupMemberList(ctx, groupID)
	if err != nil {
		return nil, Totals{}, err
	}
	if len(memberList) == 0 {
		return nil, Totals{}, ErrGroupNotFound
	}
	if !memberSet(memberList)[currentUserID] {
		return nil, Totals{}, ledger.ErrMemberNotInGroup
	}

	txs, err := s.store.GroupTransactions(ctx, groupID)
	if err != nil {
		return nil, Totals{}, err
	}

	views := make(map[int64]View, len(memberList)-1)
	var totals Totals
	for _, m := range memberList {
		if m.UserID == currentUserID {
			continue
		}
		balance := ledger.PairBalance(txs, currentUserID, m.UserID)
		toReceive, toPay := Decompose(balance)
		views[m.UserID] = View{CounterpartyID: m.UserID, ToReceive: toReceive, ToPay: toPay}
		totals.ToReceive += toReceive
		totals.ToPay += toPay
	}

	return views, totals, nil
}

// ProposeSettlements derives concrete settlement actions for one
// counterparty from the current user's view of that pair.
func (s *Service) ProposeSettlements(ctx context.Context, currentUserID, groupID, counterpartyID int64) ([]Option, error) {
	memberList, err := s.store.GroupMemberList(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(memberList) == 0 {
		return nil, ErrGroupNotFound
	}
	if !memberSet(memberList)[currentUserID] {
		return nil, ledger.ErrMemberNotInGroup
	}

	var counterparty *Member
	for i := range memberList {
		if memberList[i].UserID == counterpartyID {
			counterparty = &memberList[i]
			break
		}
	}
	if counterparty == nil || counterpartyID == currentUserID {
		return nil, ErrCounterpartyNotFound
	}

	txs, err := s.store.GroupTransactions(ctx, groupID)
	if err != nil {
		return nil, err
	}

	balance := ledger.PairBalance(txs, currentUserID, counterpartyID)
	toReceive, toPay := Decompose(balance)
	view := View{CounterpartyID: counterpartyID, ToReceive: toReceive, ToPay: toPay}

	return ProposeOptions(view, counterparty.Username), nil
}

// VerifyGroup replays the group's transaction log and checks it against
// the materialized balance cache plus any balances written off by member
// removal, and that the effective balances net to zero. Any mismatch is
// reported as ledger.ErrInconsistentLedger and must be treated as a hard
// abort, not a user-input failure.
func (s *Service) VerifyGroup(ctx context.Context, groupID int64) error {
	txs, err := s.store.GroupTransactions(ctx, groupID)
	if err != nil {
		return err
	}
	cached, err := s.store.GroupBalances(ctx, groupID)
	if err != nil {
		return err
	}
	writeoffs, err := s.store.BalanceWriteoffs(ctx, groupID)
	if err != nil {
		return err
	}
	effective := cached.Clone()
	effective.Apply(writeoffs)
	if err := ledger.Reconcile(effective, txs); err != nil {
		return err
	}
	if sum := effective.Sum(); sum != 0 {
		return fmt.Errorf("%w: balances sum to %s", ledger.ErrInconsistentLedger, sum)
	}
	return nil
}

func memberSet(members []Member) map[int64]bool {
	set := make(map[int64]bool, len(members))
	for _, m := range members {
		set[m.UserID] = true
	}
	return set
}
