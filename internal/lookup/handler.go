package lookup

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/brandforge/backoffice/internal/shared"
)

// Handler serves the CRUD endpoints for one lookup entity.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a lookup handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// Resource returns the permission resource name guarding these endpoints.
func (h *Handler) Resource() string {
	return h.service.Def().Resource
}

type upsertRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=1000"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, _ := shared.CallerFromContext(r.Context())
	qs := r.URL.Query()
	items, total, err := h.service.List(r.Context(), qs.Get("sort"), qs.Get("range"), qs.Get("filter"), caller.StaffID)
	if err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	if items == nil {
		items = []Item{}
	}
	shared.WriteJSON(w, http.StatusOK, shared.ListResponse{Data: items, TotalCount: total})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, _ := shared.CallerFromContext(r.Context())
	var req upsertRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	item, err := h.service.Create(r.Context(), req.Name, req.Description, caller.StaffID)
	if err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, item)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	caller, _ := shared.CallerFromContext(r.Context())
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	var req upsertRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	item, err := h.service.Update(r.Context(), id, req.Name, req.Description, caller.StaffID)
	if err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, _ := shared.CallerFromContext(r.Context())
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	item, err := h.service.Delete(r.Context(), id, caller.StaffID)
	if err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteError(w, h.logger, shared.InvalidField("id", "id must be an integer"))
		return 0, false
	}
	return id, true
}
