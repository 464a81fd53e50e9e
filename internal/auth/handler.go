package auth

import (
	"log/slog"
	"net/http"

	"github.com/brandforge/backoffice/internal/shared"
)

// Handler serves the authentication endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs an auth handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, session)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		shared.WriteError(w, h.logger, shared.Unauthenticated("authentication required"))
		return
	}
	if err := h.service.Logout(r.Context(), claims); err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.CallerFromContext(r.Context())
	if !ok {
		shared.WriteError(w, h.logger, shared.Unauthenticated("authentication required"))
		return
	}
	account, err := h.service.Identity(r.Context(), caller.StaffID)
	if err != nil {
		shared.WriteError(w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, account)
}
