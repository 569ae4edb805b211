package expense

import (
	"time"

	"github.com/adhamj/settleup/internal/expense/split"
	"github.com/adhamj/settleup/internal/ledger"
	"github.com/adhamj/settleup/pkg/money"
)

// SplitParticipant is one participant entry in a create request
type SplitParticipant struct {
	UserID     int64        `json:"user_id"`
	Percentage *float64     `json:"percentage,omitempty"` // For PERCENTAGE split
	Amount     *money.Cents `json:"amount,omitempty"`     // For EXACT split
}

// ToSplitInput converts to the split package's input type
func (p *SplitParticipant) ToSplitInput() split.SplitInput {
	return split.SplitInput{
		UserID:     p.UserID,
		Percentage: p.Percentage,
		Amount:     p.Amount,
	}
}

// CreateExpenseRequest represents the request to create an expense.
// Amounts are decimal strings ("12.34") parsed to integer cents.
type CreateExpenseRequest struct {
	GroupID      int64               `json:"group_id"`
	Amount       money.Cents         `json:"amount"`
	PaidBy       int64               `json:"paid_by"`
	SplitType    string              `json:"split_type"` // EVEN, PERCENTAGE, EXACT
	Participants []*SplitParticipant `json:"participants"`
	Note         string              `json:"note,omitempty"`
	Place        string              `json:"place,omitempty"`
}

// ShareResponse represents one participant's share of an expense
type ShareResponse struct {
	UserID int64  `json:"user_id"`
	Share  string `json:"share"`
}

// ExpenseResponse represents the response for an expense
type ExpenseResponse struct {
	ID         int64           `json:"id"`
	UID        string          `json:"uid"`
	GroupID    int64           `json:"group_id"`
	PaidBy     int64           `json:"paid_by"`
	Amount     string          `json:"amount"`
	SplitType  string          `json:"split_type,omitempty"`
	Shares     []ShareResponse `json:"shares"`
	Note       string          `json:"note,omitempty"`
	Place      string          `json:"place,omitempty"`
	Annotation string          `json:"annotation,omitempty"`
	CreatedAt  string          `json:"created_at"`
}

// ToResponse converts a ledger.Expense to an ExpenseResponse DTO
func ToResponse(e *ledger.Expense) *ExpenseResponse {
	shares := make([]ShareResponse, len(e.Shares))
	for i, s := range e.Shares {
		shares[i] = ShareResponse{UserID: s.UserID, Share: s.Amount.String()}
	}
	return &ExpenseResponse{
		ID:         e.ID,
		UID:        e.UID,
		GroupID:    e.GroupID,
		PaidBy:     e.PaidBy,
		Amount:     e.Amount.String(),
		Shares:     shares,
		Note:       e.Note,
		Place:      e.Place,
		Annotation: e.Annotation,
		CreatedAt:  e.CreatedAt.UTC().Format(time.RFC3339),
	}
}
