package expense

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/adhamj/settleup/internal/expense/split"
	"github.com/adhamj/settleup/internal/ledger"
	"github.com/adhamj/settleup/pkg/money"
)

// Common errors
var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrExpenseNotFound = errors.New("expense not found")
)

// Notifier tells participants their share of a newly added expense.
type Notifier interface {
	NotifyExpenseAdded(ctx context.Context, recipientID int64, payerName string, share money.Cents, expenseID int64) error
}

// Service handles expense business logic: validation, split calculation,
// duplicate detection, and the atomic ledger append.
type Service struct {
	store        Store
	splitFactory *split.Factory
	notifier     Notifier
	now          func() time.Time
}

// NewService creates a new expense service with dependencies injected
func NewService(store Store, splitFactory *split.Factory, notifier Notifier) *Service {
	return &Service{
		store:        store,
		splitFactory: splitFactory,
		notifier:     notifier,
		now:          time.Now,
	}
}

// CreateExpense validates the request, computes shares with the selected
// strategy, runs the duplicate and wallet guards, and appends the expense.
// All failures are detected before any mutation; the append itself is a
// single transaction, so the ledger is never left partially updated.
func (s *Service) CreateExpense(ctx context.Context, currentUserID int64, req *CreateExpenseRequest) (*ledger.Expense, error) {
	strategy, err := s.splitFactory.CreateFromString(req.SplitType)
	if err != nil {
		return nil, err
	}

	members, err := s.store.GroupMembers(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, ErrGroupNotFound
	}
	if _, ok := members[currentUserID]; !ok {
		return nil, ledger.ErrMemberNotInGroup
	}
	memberSet := make(map[int64]bool, len(members))
	for id := range members {
		memberSet[id] = true
	}

	inputs := make([]split.SplitInput, len(req.Participants))
	for i, p := range req.Participants {
		inputs[i] = p.ToSplitInput()
	}

	outputs, err := strategy.Calculate(req.Amount, inputs)
	if err != nil {
		return nil, err
	}

	shares := make([]ledger.Share, len(outputs))
	for i, o := range outputs {
		shares[i] = ledger.Share{UserID: o.UserID, Amount: o.Share}
	}

	if err := ledger.ValidateExpense(memberSet, req.PaidBy, req.Amount, shares); err != nil {
		return nil, err
	}

	now := s.now()
	candidate := &ledger.Expense{
		UID:       uuid.NewString(),
		GroupID:   req.GroupID,
		PaidBy:    req.PaidBy,
		Amount:    req.Amount,
		Shares:    shares,
		Note:      req.Note,
		Place:     req.Place,
		CreatedAt: now,
	}

	recent, err := s.store.RecentExpenses(ctx, req.GroupID, now.Add(-ledger.ExpenseDupWindow))
	if err != nil {
		return nil, err
	}
	if ledger.IsDuplicateExpense(candidate, recent, now, ledger.ExpenseDupWindow) {
		return nil, ledger.ErrDuplicateTransaction
	}

	// Wallet guard: when the current user both pays and consumes a share,
	// their own share comes out of their personal wallet in the same
	// transaction as the ledger append.
	var walletDeduct money.Cents
	if req.PaidBy == currentUserID {
		walletDeduct = candidate.OwnShare()
	}

	created, err := s.store.AppendExpense(ctx, candidate, ledger.ExpenseDeltas(candidate), currentUserID, walletDeduct)
	if err != nil {
		return nil, err
	}

	slog.Info("expense created",
		"group_id", created.GroupID,
		"expense_id", created.ID,
		"paid_by", created.PaidBy,
		"amount", created.Amount.String(),
		"participants", len(created.Shares),
	)

	if s.notifier != nil {
		payerName := members[created.PaidBy]
		for _, share := range created.Shares {
			if share.UserID == created.PaidBy {
				continue
			}
			if err := s.notifier.NotifyExpenseAdded(ctx, share.UserID, payerName, share.Amount, created.ID); err != nil {
				slog.Warn("failed to notify participant", "expense_id", created.ID, "user_id", share.UserID, "error", err)
			}
		}
	}

	return created, nil
}

// GetExpenseByID retrieves an expense with its shares
func (s *Service) GetExpenseByID(ctx context.Context, id int64) (*ledger.Expense, error) {
	e, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrExpenseNotFound
	}
	return e, nil
}

// ListExpensesByGroupID retrieves expenses for a group, newest first
func (s *Service) ListExpensesByGroupID(ctx context.Context, groupID int64, page, perPage int) ([]*ledger.Expense, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.store.ListExpensesByGroup(ctx, groupID, perPage, offset)
}
