package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/goalfund/goalfund/internal/auth"
	"github.com/goalfund/goalfund/internal/handler/dto"
	"github.com/goalfund/goalfund/internal/model"
	"github.com/goalfund/goalfund/internal/service"
)

// TransactionHandler handles HTTP requests for transactions.
type TransactionHandler struct {
	errorResponder
	svc *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(svc *service.TransactionService, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{errorResponder: errorResponder{logger: logger}, svc: svc}
}

// List handles GET /api/transactions?limit=N.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.handleServiceError(w, r, model.NewValidationError("limit", "must be an integer"))
			return
		}
		limit = n
	}

	txns, err := h.svc.List(r.Context(), auth.UserIDFromContext(r.Context()), limit)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.Transactions(txns))
}

// ListForGoal handles GET /api/goals/{id}/transactions.
func (h *TransactionHandler) ListForGoal(w http.ResponseWriter, r *http.Request) {
	goalID, err := pathID(r, "id")
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	txns, err := h.svc.ListForGoal(r.Context(), auth.UserIDFromContext(r.Context()), goalID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.Transactions(txns))
}

// Create handles POST /api/transactions.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	txn, _, err := h.svc.Post(r.Context(), auth.UserIDFromContext(r.Context()), in)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, txn)
}

// NotificationHandler handles HTTP requests for notifications.
type NotificationHandler struct {
	errorResponder
	svc *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(svc *service.NotificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{errorResponder: errorResponder{logger: logger}, svc: svc}
}

// List handles GET /api/notifications?unread=true.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))

	notes, err := h.svc.List(r.Context(), auth.UserIDFromContext(r.Context()), unreadOnly)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.Notifications(notes))
}

// MarkRead handles PATCH /api/notifications/{id}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	note, err := h.svc.MarkRead(r.Context(), auth.UserIDFromContext(r.Context()), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// InsightHandler handles HTTP requests for insights.
type InsightHandler struct {
	errorResponder
	svc *service.InsightService
}

// NewInsightHandler creates a new InsightHandler.
func NewInsightHandler(svc *service.InsightService, logger *slog.Logger) *InsightHandler {
	return &InsightHandler{errorResponder: errorResponder{logger: logger}, svc: svc}
}

// List handles GET /api/insights.
func (h *InsightHandler) List(w http.ResponseWriter, r *http.Request) {
	insights, err := h.svc.List(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.Insights(insights))
}

// ListForGoal handles GET /api/goals/{id}/insights.
func (h *InsightHandler) ListForGoal(w http.ResponseWriter, r *http.Request) {
	goalID, err := pathID(r, "id")
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	insights, err := h.svc.ListForGoal(r.Context(), auth.UserIDFromContext(r.Context()), goalID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.Insights(insights))
}

// Generate handles POST /api/goals/{id}/insights.
func (h *InsightHandler) Generate(w http.ResponseWriter, r *http.Request) {
	goalID, err := pathID(r, "id")
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	insight, err := h.svc.Generate(r.Context(), auth.UserIDFromContext(r.Context()), goalID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, insight)
}

// MarkRead handles PATCH /api/insights/{id}/read.
func (h *InsightHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	insight, err := h.svc.MarkRead(r.Context(), auth.UserIDFromContext(r.Context()), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, insight)
}
