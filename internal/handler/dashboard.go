package handler

import (
	"log/slog"
	"net/http"

	"github.com/goalfund/goalfund/internal/auth"
	"github.com/goalfund/goalfund/internal/dashboard"
	"github.com/goalfund/goalfund/internal/handler/dto"
)

// DashboardHandler serves the dashboard and financial tips.
type DashboardHandler struct {
	errorResponder
	svc *dashboard.Service
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(svc *dashboard.Service, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{errorResponder: errorResponder{logger: logger}, svc: svc}
}

// Dashboard handles GET /api/dashboard.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Build(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToDashboardResponse(d))
}

// FinancialTips handles GET /api/financial-tips.
func (h *DashboardHandler) FinancialTips(w http.ResponseWriter, r *http.Request) {
	tips, err := h.svc.FinancialTips(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToTipsResponse(tips))
}
