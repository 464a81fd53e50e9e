package membership

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/brandforge/backoffice/internal/shared"
)

// Handler serves the staff-group registry endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a membership handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

type assignRequest struct {
	StaffID int64 `json:"staff_id" validate:"required,gt=0"`
	GroupID int64 `json:"group_id" validate:"required,gt=0"`
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	caller, _ := shared.CallerFromContext(r.Context())
	var req assignRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	edge, err := h.service.Assign(r.Context(), req.StaffID, req.GroupID, caller.StaffID)
	if err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, edge)
}

func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteError(w, h.logger, shared.InvalidField("id", "id must be an integer"))
		return
	}
	edge, err := h.service.Revoke(r.Context(), id)
	if err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, edge)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, _ := shared.CallerFromContext(r.Context())
	qs := r.URL.Query()
	edges, total, err := h.service.List(r.Context(), qs.Get("sort"), qs.Get("range"), qs.Get("filter"), caller.StaffID)
	if err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	if edges == nil {
		edges = []Edge{}
	}
	shared.WriteJSON(w, http.StatusOK, shared.ListResponse{Data: edges, TotalCount: total})
}

func (h *Handler) ListByStaff(w http.ResponseWriter, r *http.Request) {
	staffID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteError(w, h.logger, shared.InvalidField("id", "id must be an integer"))
		return
	}
	edges, err := h.service.ListByStaff(r.Context(), staffID)
	if err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	if edges == nil {
		edges = []Edge{}
	}
	shared.WriteJSON(w, http.StatusOK, shared.ListResponse{Data: edges, TotalCount: len(edges)})
}

func (h *Handler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteError(w, h.logger, shared.InvalidField("id", "id must be an integer"))
		return
	}
	edges, err := h.service.ListByGroup(r.Context(), groupID)
	if err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	if edges == nil {
		edges = []Edge{}
	}
	shared.WriteJSON(w, http.StatusOK, shared.ListResponse{Data: edges, TotalCount: len(edges)})
}
