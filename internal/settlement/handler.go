package settlement

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/adhamj/settleup/internal/ledger"
	"github.com/adhamj/settleup/pkg/middleware"
	"github.com/adhamj/settleup/pkg/response"
)

// Handler handles HTTP requests for settlement operations
type Handler struct {
	service *Service
}

// NewHandler creates a new settlement handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for settlement endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/payments", h.RecordPayment)
	r.Get("/group/{groupId}", h.GetSettlements)
	r.Get("/group/{groupId}/options/{counterpartyId}", h.ProposeSettlements)
	r.Get("/group/{groupId}/verify", h.Verify)

	return r
}

// RecordPayment handles POST /settlements/payments
// @Summary      Record a direct payment
// @Description  Record a cash or online payment from one member to another
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        request body RecordPaymentRequest true "Payment request"
// @Success      201 {object} response.APIResponse{data=PaymentResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /settlements/payments [post]
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	currentUserID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	created, err := h.service.RecordPayment(r.Context(), currentUserID, &req)
	if err != nil {
		writeSettlementError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, ToPaymentResponse(created))
}

// GetSettlements handles GET /settlements/group/{groupId}
// @Summary      Get settlement summary for a group
// @Description  Per-counterparty to-receive/to-pay amounts relative to the caller, plus group totals
// @Tags         settlements
// @Produce      json
// @Param        groupId path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=SettlementsResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /settlements/group/{groupId} [get]
func (h *Handler) GetSettlements(w http.ResponseWriter, r *http.Request) {
	currentUserID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	groupID, err := strconv.ParseInt(chi.URLParam(r, "groupId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	views, totals, err := h.service.SettlementsFor(r.Context(), currentUserID, groupID)
	if err != nil {
		writeSettlementError(w, err)
		return
	}

	resp := &SettlementsResponse{
		GroupID:        groupID,
		Counterparties: make(map[string]*ViewResponse, len(views)),
		TotalToReceive: totals.ToReceive.String(),
		TotalToPay:     totals.ToPay.String(),
	}
	for id, v := range views {
		resp.Counterparties[strconv.FormatInt(id, 10)] = &ViewResponse{
			CounterpartyID: v.CounterpartyID,
			ToReceive:      v.ToReceive.String(),
			ToPay:          v.ToPay.String(),
		}
	}

	response.JSON(w, http.StatusOK, resp)
}

// ProposeSettlements handles GET /settlements/group/{groupId}/options/{counterpartyId}
// @Summary      Propose settlement actions for one counterparty
// @Description  Concrete pay/receive actions that would clear the pairwise debt
// @Tags         settlements
// @Produce      json
// @Param        groupId path int true "Group ID"
// @Param        counterpartyId path int true "Counterparty user ID"
// @Success      200 {object} response.APIResponse{data=[]OptionResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /settlements/group/{groupId}/options/{counterpartyId} [get]
func (h *Handler) ProposeSettlements(w http.ResponseWriter, r *http.Request) {
	currentUserID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	groupID, err := strconv.ParseInt(chi.URLParam(r, "groupId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}
	counterpartyID, err := strconv.ParseInt(chi.URLParam(r, "counterpartyId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid counterparty ID")
		return
	}

	options, err := h.service.ProposeSettlements(r.Context(), currentUserID, groupID, counterpartyID)
	if err != nil {
		writeSettlementError(w, err)
		return
	}

	resp := make([]*OptionResponse, len(options))
	for i, o := range options {
		resp[i] = &OptionResponse{Description: o.Description, Amount: o.Amount.String()}
	}

	response.JSON(w, http.StatusOK, resp)
}

// Verify handles GET /settlements/group/{groupId}/verify
// @Summary      Verify ledger consistency for a group
// @Description  Replays the transaction log and checks it against the materialized balances
// @Tags         settlements
// @Produce      json
// @Param        groupId path int true "Group ID"
// @Success      200 {object} response.APIResponse
// @Failure      500 {object} response.APIResponse
// @Router       /settlements/group/{groupId}/verify [get]
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	groupID, err := strconv.ParseInt(chi.URLParam(r, "groupId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	if err := h.service.VerifyGroup(r.Context(), groupID); err != nil {
		if errors.Is(err, ledger.ErrInconsistentLedger) {
			response.Error(w, http.StatusInternalServerError, "LEDGER_INCONSISTENT", err.Error())
			return
		}
		response.InternalError(w, "Failed to verify ledger")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"status": "consistent"})
}

// writeSettlementError maps service failures to HTTP responses
func writeSettlementError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrGroupNotFound), errors.Is(err, ErrCounterpartyNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ledger.ErrDuplicateTransaction):
		response.Error(w, http.StatusConflict, "DUPLICATE_TRANSACTION", err.Error())
	case errors.Is(err, ledger.ErrMemberNotInGroup):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ledger.ErrSelfPayment),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrUnknownMember),
		errors.Is(err, ErrInvalidMethod):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, "Failed to process settlement request")
	}
}
