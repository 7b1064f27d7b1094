package handler

import (
	"log/slog"
	"net/http"

	"github.com/goalfund/goalfund/internal/auth"
	"github.com/goalfund/goalfund/internal/handler/dto"
	"github.com/goalfund/goalfund/internal/service"
)

// GoalHandler handles HTTP requests for goal operations.
type GoalHandler struct {
	errorResponder
	svc *service.GoalService
}

// NewGoalHandler creates a new GoalHandler.
func NewGoalHandler(svc *service.GoalService, logger *slog.Logger) *GoalHandler {
	return &GoalHandler{errorResponder: errorResponder{logger: logger}, svc: svc}
}

// List handles GET /api/goals.
func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	goals, err := h.svc.List(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToGoalResponses(goals))
}

// Create handles POST /api/goals.
func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateGoalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	goal, err := h.svc.Create(r.Context(), auth.UserIDFromContext(r.Context()), in)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.ToGoalResponse(goal))
}

// Get handles GET /api/goals/{id}.
func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	goal, err := h.svc.Get(r.Context(), auth.UserIDFromContext(r.Context()), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToGoalResponse(goal))
}

// Update handles PATCH /api/goals/{id}.
func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	var req dto.UpdateGoalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	patch, err := req.ToPatch()
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	goal, err := h.svc.Update(r.Context(), auth.UserIDFromContext(r.Context()), id, patch)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToGoalResponse(goal))
}

// Delete handles DELETE /api/goals/{id}.
func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if err := h.svc.Delete(r.Context(), auth.UserIDFromContext(r.Context()), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "goal deleted"})
}
