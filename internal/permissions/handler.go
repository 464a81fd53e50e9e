package permissions

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/brandforge/backoffice/internal/shared"
)

// Handler serves the read-only catalog endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a catalog handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	perms, total, err := h.service.List(r.Context(), qs.Get("sort"), qs.Get("range"), qs.Get("filter"))
	if err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	if perms == nil {
		perms = []Permission{}
	}
	shared.WriteJSON(w, http.StatusOK, shared.ListResponse{Data: perms, TotalCount: total})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteError(w, h.logger, shared.InvalidField("id", "id must be an integer"))
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, p)
}
