package grants

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/brandforge/backoffice/internal/shared"
)

// Handler serves the grant assignment endpoints for one subject kind; the
// router mounts it once under /staff-permissions and once under
// /group-permissions.
type Handler struct {
	logger  *slog.Logger
	service *Service
	kind    SubjectKind
}

// NewHandler constructs a grant handler bound to a subject kind.
func NewHandler(logger *slog.Logger, service *Service, kind SubjectKind) *Handler {
	return &Handler{logger: logger, service: service, kind: kind}
}

type assignRequest struct {
	SubjectID    int64   `json:"subject_id" validate:"required,gt=0"`
	PermissionID int64   `json:"permission_id" validate:"required,gt=0"`
	IsAllowedAll bool    `json:"is_allowed_all"`
	AllowIDs     []int64 `json:"allow_ids" validate:"omitempty,dive,gt=0"`
}

type assignManyRequest struct {
	SubjectID     int64   `json:"subject_id" validate:"required,gt=0"`
	PermissionIDs []int64 `json:"permission_ids" validate:"required,min=1,dive,gt=0"`
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
	grant, err := h.service.Assign(r.Context(), h.kind, AssignInput{
		SubjectID:    req.SubjectID,
		PermissionID: req.PermissionID,
		IsAllowedAll: req.IsAllowedAll,
		AllowIDs:     req.AllowIDs,
	}, caller.StaffID)
	if err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, grant)
}

func (h *Handler) AssignMany(w http.ResponseWriter, r *http.Request) {
	caller, _ := shared.CallerFromContext(r.Context())
	var req assignManyRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	grants, err := h.service.AssignMany(r.Context(), h.kind, req.SubjectID, req.PermissionIDs, caller.StaffID)
	if err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	if grants == nil {
		grants = []Grant{}
	}
	shared.WriteJSON(w, http.StatusOK, grants)
}

func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	caller, _ := shared.CallerFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteError(w, h.logger, shared.InvalidField("id", "id must be an integer"))
		return
	}
	grant, err := h.service.Revoke(r.Context(), h.kind, id, caller.StaffID)
	if err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, grant)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, _ := shared.CallerFromContext(r.Context())
	qs := r.URL.Query()
	grants, total, err := h.service.List(r.Context(), h.kind, qs.Get("sort"), qs.Get("range"), qs.Get("filter"), caller.StaffID)
	if err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	if grants == nil {
		grants = []Grant{}
	}
	shared.WriteJSON(w, http.StatusOK, shared.ListResponse{Data: grants, TotalCount: total})
}

func (h *Handler) ListBySubject(w http.ResponseWriter, r *http.Request) {
	subjectID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteError(w, h.logger, shared.InvalidField("id", "id must be an integer"))
		return
	}
	grants, err := h.service.ListBySubject(r.Context(), h.kind, subjectID)
	if err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	if grants == nil {
		grants = []Grant{}
	}
	shared.WriteJSON(w, http.StatusOK, shared.ListResponse{Data: grants, TotalCount: len(grants)})
}
