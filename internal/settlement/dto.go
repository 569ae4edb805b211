package settlement

import (
	"time"

	"github.com/adhamj/settleup/internal/ledger"
	"github.com/adhamj/settleup/pkg/money"
)

// RecordPaymentRequest represents the request to record a direct payment
type RecordPaymentRequest struct {
	GroupID int64       `json:"group_id"`
	From    int64       `json:"from"`
	To      int64       `json:"to"`
	Amount  money.Cents `json:"amount"`
	Method  string      `json:"method"` // cash or online
	Note    string      `json:"note,omitempty"`
}

// PaymentResponse represents the response for a recorded payment
type PaymentResponse struct {
	ID        int64  `json:"id"`
	UID       string `json:"uid"`
	GroupID   int64  `json:"group_id"`
	From      int64  `json:"from"`
	To        int64  `json:"to"`
	Amount    string `json:"amount"`
	Method    string `json:"method"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ToPaymentResponse converts a ledger.Payment to its response DTO
func ToPaymentResponse(p *ledger.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:        p.ID,
		UID:       p.UID,
		GroupID:   p.GroupID,
		From:      p.From,
		To:        p.To,
		Amount:    p.Amount.String(),
		Method:    string(p.Method),
		Note:      p.Note,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ViewResponse represents one counterparty's settlement summary
type ViewResponse struct {
	CounterpartyID int64  `json:"counterparty_id"`
	ToReceive      string `json:"to_receive"`
	ToPay          string `json:"to_pay"`
}

// SettlementsResponse is the full group settlement summary for the caller
type SettlementsResponse struct {
	GroupID        int64                    `json:"group_id"`
	Counterparties map[string]*ViewResponse `json:"counterparties"`
	TotalToReceive string                   `json:"total_to_receive"`
	TotalToPay     string                   `json:"total_to_pay"`
}

// OptionResponse represents one proposed settlement action
type OptionResponse struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
}
