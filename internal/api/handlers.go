/**
 * @description
 * This file contains the HTTP handlers for the reconciliation service's
 * internal API. Handlers parse incoming requests, call the application
 * service, and write the HTTP response. The API is consumed by the bot and
 * by admin tooling, never by end users directly.
 *
 * @dependencies
 * - internal/app, internal/domain, internal/store: Service logic, models,
 *   and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mykolasolodukha/vilnyypay-bot/internal/app"
	"github.com/mykolasolodukha/vilnyypay-bot/internal/domain"
	"github.com/mykolasolodukha/vilnyypay-bot/internal/store"
)

// Handlers holds the application service that handlers will use.
type Handlers struct {
	service *app.Service
	logger  *slog.Logger
}

// NewHandlers creates a new instance of Handlers.
func NewHandlers(service *app.Service, logger *slog.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

type createGroupPaymentRequest struct {
	GroupID int64      `json:"group_id"`
	Amount  int64      `json:"amount"`
	Comment string     `json:"comment"`
	DueDate *time.Time `json:"due_date,omitempty"`
}

type groupPaymentResponse struct {
	GroupPaymentID string `json:"group_payment_id"`
	Issued         int    `json:"issued"`
	Skipped        int    `json:"skipped"`
	Failed         int    `json:"failed"`
}

type paycheckResponse struct {
	PaycheckID     string  `json:"paycheck_id"`
	ForUserID      int64   `json:"for_user_id"`
	ToAccountID    string  `json:"to_account_id"`
	Amount         int64   `json:"amount"`
	CurrencySymbol string  `json:"currency_symbol"`
	Comment        string  `json:"comment"`
	IsPaid         bool    `json:"is_paid"`
	GroupPaymentID *string `json:"group_payment_id,omitempty"`
}

// CreateGroupPaymentHandler creates a group payment and immediately fans it
// out to the group's members.
func (h *Handlers) CreateGroupPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req createGroupPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.GroupID == 0 {
		h.writeError(w, http.StatusBadRequest, "group_id is required")
		return
	}
	if req.Amount <= 0 {
		h.writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	gp := &domain.GroupPayment{
		GroupID: req.GroupID,
		Amount:  req.Amount,
		Comment: req.Comment,
	}
	if req.DueDate != nil {
		gp.DueDate = *req.DueDate
	}

	result, err := h.service.CreateGroupPayment(r.Context(), gp)
	if err != nil {
		if errors.Is(err, store.ErrGroupNotFound) {
			h.writeError(w, http.StatusNotFound, "Group not found")
			return
		}
		h.logger.Error("failed to create group payment", "group_id", req.GroupID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Could not create group payment")
		return
	}

	h.writeJSON(w, http.StatusCreated, groupPaymentResponse{
		GroupPaymentID: gp.ID.String(),
		Issued:         result.Issued,
		Skipped:        result.Skipped,
		Failed:         result.Failed,
	})
}

// SendGroupPaymentHandler re-runs the fan-out for an existing group payment.
// Members who already hold a paycheck are skipped.
func (h *Handlers) SendGroupPaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid group payment ID format")
		return
	}

	result, err := h.service.SendGroupPayment(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrGroupPaymentNotFound) {
			h.writeError(w, http.StatusNotFound, "Group payment not found")
			return
		}
		h.logger.Error("failed to send group payment", "group_payment_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Could not send group payment")
		return
	}

	h.writeJSON(w, http.StatusOK, groupPaymentResponse{
		GroupPaymentID: id.String(),
		Issued:         result.Issued,
		Skipped:        result.Skipped,
		Failed:         result.Failed,
	})
}

// GetPaycheckHandler returns one paycheck by its identifier.
func (h *Handlers) GetPaycheckHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid paycheck ID format")
		return
	}

	paycheck, err := h.service.GetPaycheck(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrPaycheckNotFound) {
			h.writeError(w, http.StatusNotFound, "Paycheck not found")
			return
		}
		h.logger.Error("failed to load paycheck", "paycheck_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Could not load paycheck")
		return
	}

	resp := paycheckResponse{
		PaycheckID:     paycheck.ID.String(),
		ForUserID:      paycheck.ForUserID,
		ToAccountID:    paycheck.ToAccountID,
		Amount:         paycheck.Amount,
		CurrencySymbol: paycheck.CurrencySymbol,
		Comment:        paycheck.Comment,
		IsPaid:         paycheck.IsPaid,
	}
	if paycheck.GroupPaymentID != nil {
		gpID := paycheck.GroupPaymentID.String()
		resp.GroupPaymentID = &gpID
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
