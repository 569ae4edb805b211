package wallet

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/adhamj/settleup/internal/ledger"
	"github.com/adhamj/settleup/pkg/middleware"
	"github.com/adhamj/settleup/pkg/money"
	"github.com/adhamj/settleup/pkg/response"
)

// AdjustRequest represents the request to adjust the wallet balance
type AdjustRequest struct {
	Amount money.Cents `json:"amount"` // signed decimal string
	Note   string      `json:"note,omitempty"`
}

// BalanceResponse represents the wallet balance
type BalanceResponse struct {
	Balance string `json:"balance"`
}

// AdjustResponse represents a recorded wallet adjustment
type AdjustResponse struct {
	ID        int64  `json:"id"`
	UID       string `json:"uid"`
	Amount    string `json:"amount"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"created_at"`
}

// Handler handles HTTP requests for wallet operations
type Handler struct {
	service *Service
}

// NewHandler creates a new wallet handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for wallet endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.GetBalance)
	r.Post("/adjust", h.Adjust)

	return r
}

// GetBalance handles GET /wallet
// @Summary      Get wallet balance
// @Description  Get the authenticated user's personal wallet balance
// @Tags         wallet
// @Produce      json
// @Success      200 {object} response.APIResponse{data=BalanceResponse}
// @Router       /wallet [get]
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	balance, err := h.service.GetBalance(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "Failed to get wallet balance")
		return
	}

	response.JSON(w, http.StatusOK, &BalanceResponse{Balance: balance.String()})
}

// Adjust handles POST /wallet/adjust
// @Summary      Adjust wallet balance
// @Description  Apply a signed adjustment to the authenticated user's wallet
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request body AdjustRequest true "Adjustment request"
// @Success      201 {object} response.APIResponse{data=AdjustResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /wallet/adjust [post]
func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req AdjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	adj, err := h.service.Adjust(r.Context(), userID, req.Amount, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInsufficientWalletBalance):
			response.Error(w, http.StatusUnprocessableEntity, "INSUFFICIENT_WALLET_BALANCE", err.Error())
		case errors.Is(err, ErrZeroAdjustment), errors.Is(err, ledger.ErrInvalidAmount):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Failed to adjust wallet")
		}
		return
	}

	response.JSON(w, http.StatusCreated, &AdjustResponse{
		ID:        adj.ID,
		UID:       adj.UID,
		Amount:    adj.Amount.String(),
		Note:      adj.Note,
		CreatedAt: adj.CreatedAt.UTC().Format(time.RFC3339),
	})
}
