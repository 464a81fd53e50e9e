package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/brandforge/backoffice/internal/access"
	"github.com/brandforge/backoffice/internal/auth"
	"github.com/brandforge/backoffice/internal/grants"
	"github.com/brandforge/backoffice/internal/lookup"
	"github.com/brandforge/backoffice/internal/membership"
	"github.com/brandforge/backoffice/internal/observability"
	"github.com/brandforge/backoffice/internal/permissions"
	"github.com/brandforge/backoffice/internal/staff"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger   *slog.Logger
	Config   *Config
	Verifier *auth.Verifier
	Guard    *access.Guard
	Metrics  *observability.Metrics

	AuthHandler        *auth.Handler
	StaffHandler       *staff.Handler
	PositionsHandler   *lookup.Handler
	DepartmentsHandler *lookup.Handler
	GroupsHandler      *lookup.Handler
	PermissionsHandler *permissions.Handler
	MembershipHandler  *membership.Handler
	StaffGrantsHandler *grants.Handler
	GroupGrantsHandler *grants.Handler
	AdsHandlers        map[string]*lookup.Handler
}

// NewRouter constructs the chi router with the platform defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	if params.Metrics != nil {
		r.Use(params.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	loginLimit := httprate.LimitByIP(params.Config.LoginRateLimit, params.Config.LoginRateWindow)
	r.With(loginLimit).Post("/auth/login", params.AuthHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(params.Verifier.Middleware)

		r.Post("/auth/logout", params.AuthHandler.Logout)
		r.Get("/auth/me", params.AuthHandler.Me)

		guard := params.Guard

		mountCRUD(r, "/staff", guard, permissions.ResourceStaff, crudHandlers{
			List:   params.StaffHandler.List,
			Get:    params.StaffHandler.Get,
			Create: params.StaffHandler.Create,
			Update: params.StaffHandler.Update,
			Delete: params.StaffHandler.Delete,
		})
		mountLookup(r, "/staff-positions", guard, params.PositionsHandler)
		mountLookup(r, "/staff-departments", guard, params.DepartmentsHandler)
		mountLookup(r, "/groups", guard, params.GroupsHandler)

		r.Route("/permissions", func(r chi.Router) {
			r.With(guard.Require(permissions.ResourcePermission, permissions.ActionRead)).
				Get("/", params.PermissionsHandler.List)
			r.With(guard.Require(permissions.ResourcePermission, permissions.ActionRead)).
				Get("/{id}", params.PermissionsHandler.Get)
		})

		r.Route("/staff-groups", func(r chi.Router) {
			res := permissions.ResourceStaffGroup
			r.With(guard.Require(res, permissions.ActionRead)).Get("/", params.MembershipHandler.List)
			r.With(guard.Require(res, permissions.ActionAssign)).Post("/", params.MembershipHandler.Assign)
			r.With(guard.Require(res, permissions.ActionDelete)).Delete("/{id}", params.MembershipHandler.Revoke)
			r.With(guard.Require(res, permissions.ActionRead)).Get("/staff/{id}", params.MembershipHandler.ListByStaff)
			r.With(guard.Require(res, permissions.ActionRead)).Get("/group/{id}", params.MembershipHandler.ListByGroup)
		})

		mountGrants(r, "/staff-permissions", guard, permissions.ResourceStaffPermission, params.StaffGrantsHandler)
		mountGrants(r, "/group-permissions", guard, permissions.ResourceGroupPermission, params.GroupGrantsHandler)

		for path, handler := range params.AdsHandlers {
			mountLookup(r, path, guard, handler)
		}
	})

	return r
}

type crudHandlers struct {
	List   http.HandlerFunc
	Get    http.HandlerFunc
	Create http.HandlerFunc
	Update http.HandlerFunc
	Delete http.HandlerFunc
}

func mountCRUD(r chi.Router, path string, guard *access.Guard, resource string, h crudHandlers) {
	r.Route(path, func(r chi.Router) {
		r.With(guard.Require(resource, permissions.ActionRead)).Get("/", h.List)
		r.With(guard.Require(resource, permissions.ActionRead)).Get("/{id}", h.Get)
		r.With(guard.Require(resource, permissions.ActionCreate)).Post("/", h.Create)
		r.With(guard.Require(resource, permissions.ActionEdit)).Put("/{id}", h.Update)
		r.With(guard.Require(resource, permissions.ActionDelete)).Delete("/{id}", h.Delete)
	})
}

func mountLookup(r chi.Router, path string, guard *access.Guard, h *lookup.Handler) {
	mountCRUD(r, path, guard, h.Resource(), crudHandlers{
		List:   h.List,
		Get:    h.Get,
		Create: h.Create,
		Update: h.Update,
		Delete: h.Delete,
	})
}

func mountGrants(r chi.Router, path string, guard *access.Guard, resource string, h *grants.Handler) {
	r.Route(path, func(r chi.Router) {
		r.With(guard.Require(resource, permissions.ActionRead)).Get("/", h.List)
		r.With(guard.Require(resource, permissions.ActionRead)).Get("/subject/{id}", h.ListBySubject)
		r.With(guard.Require(resource, permissions.ActionAssign)).Post("/", h.Assign)
		r.With(guard.Require(resource, permissions.ActionAssign)).Post("/bulk", h.AssignMany)
		r.With(guard.Require(resource, permissions.ActionDelete)).Delete("/{id}", h.Revoke)
	})
}
