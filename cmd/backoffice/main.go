package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/brandforge/backoffice/internal/access"
	"github.com/brandforge/backoffice/internal/app"
	"github.com/brandforge/backoffice/internal/auth"
	"github.com/brandforge/backoffice/internal/grants"
	"github.com/brandforge/backoffice/internal/lookup"
	"github.com/brandforge/backoffice/internal/membership"
	"github.com/brandforge/backoffice/internal/observability"
	"github.com/brandforge/backoffice/internal/permissions"
	"github.com/brandforge/backoffice/internal/platform/db"
	"github.com/brandforge/backoffice/internal/staff"
)

func newLookup(logger *slog.Logger, pool *pgxpool.Pool, def lookup.Def) (*lookup.Service, *lookup.Handler) {
	service := lookup.NewService(def, lookup.NewRepository(pool, def.Table))
	return service, lookup.NewHandler(logger, service)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if cfg.MigrateOnStart {
		if err := db.Migrate(cfg.PGDSN); err != nil {
			logger.Error("run migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	positionsService, positionsHandler := newLookup(logger, pool, lookup.Def{
		Table: "staff_positions", Entity: "staff position", EntityPlural: "staff positions",
		Resource: permissions.ResourceStaffPosition,
	})
	departmentsService, departmentsHandler := newLookup(logger, pool, lookup.Def{
		Table: "staff_departments", Entity: "staff department", EntityPlural: "staff departments",
		Resource: permissions.ResourceStaffDepartment,
	})
	groupsService, groupsHandler := newLookup(logger, pool, lookup.Def{
		Table: "groups", Entity: "group", EntityPlural: "groups",
		Resource: permissions.ResourceGroup,
	})

	adsDefs := lookup.AdsDefs()
	adsHandlers := make(map[string]*lookup.Handler, len(adsDefs))
	adsServices := make(map[string]*lookup.Service, len(adsDefs))
	for path, def := range adsDefs {
		service, handler := newLookup(logger, pool, def)
		adsHandlers[path] = handler
		adsServices[def.Resource] = service
	}

	staffService := staff.NewService(staff.NewRepository(pool), positionsService, departmentsService)
	staffHandler := staff.NewHandler(logger, staffService)

	permissionsService := permissions.NewService(permissions.NewRepository(pool))
	permissionsHandler := permissions.NewHandler(logger, permissionsService)

	membershipService := membership.NewService(membership.NewRepository(pool), staffService, groupsService)
	membershipHandler := membership.NewHandler(logger, membershipService)

	registry := grants.NewValidatorRegistry(logger)
	registry.Register(permissions.ResourceStaff, staffService)
	registry.Register(permissions.ResourceStaffPosition, positionsService)
	registry.Register(permissions.ResourceStaffDepartment, departmentsService)
	registry.Register(permissions.ResourceGroup, groupsService)
	for resource, service := range adsServices {
		registry.Register(resource, service)
	}

	grantRepo := grants.NewRepository(pool)
	grantService := grants.NewService(logger, grantRepo, permissionsService,
		staffService, groupsService, registry, grants.DefaultCascadePolicy())
	staffGrantsHandler := grants.NewHandler(logger, grantService, grants.SubjectStaff)
	groupGrantsHandler := grants.NewHandler(logger, grantService, grants.SubjectGroup)

	accessService := access.NewService(grantRepo)
	guard := access.NewGuard(logger, accessService)

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	denylist := auth.NewDenylist(redisClient)
	authService := auth.NewService(staffService, issuer, denylist)
	authHandler := auth.NewHandler(logger, authService)
	verifier := auth.NewVerifier(logger, issuer, denylist)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Verifier:           verifier,
		Guard:              guard,
		Metrics:            metrics,
		AuthHandler:        authHandler,
		StaffHandler:       staffHandler,
		PositionsHandler:   positionsHandler,
		DepartmentsHandler: departmentsHandler,
		GroupsHandler:      groupsHandler,
		PermissionsHandler: permissionsHandler,
		MembershipHandler:  membershipHandler,
		StaffGrantsHandler: staffGrantsHandler,
		GroupGrantsHandler: groupGrantsHandler,
		AdsHandlers:        adsHandlers,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
