package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	corecontrollers "github.com/helioshr/helios/modules/core/presentation/controllers"
	corepersistence "github.com/helioshr/helios/modules/core/infrastructure/persistence"
	coreservices "github.com/helioshr/helios/modules/core/services"
	orgcontrollers "github.com/helioshr/helios/modules/org/presentation/controllers"
	orgpersistence "github.com/helioshr/helios/modules/org/infrastructure/persistence"
	orgservices "github.com/helioshr/helios/modules/org/services"
	"github.com/helioshr/helios/pkg/accesscontrol"
	"github.com/helioshr/helios/pkg/configuration"
	"github.com/helioshr/helios/pkg/eventbus"
	"github.com/helioshr/helios/pkg/middleware"
)

// Server wires configuration, storage, the access engine and the HTTP
// surface together.
type Server struct {
	cfg    *configuration.Configuration
	logger *logrus.Logger
	pool   *pgxpool.Pool
	router *mux.Router
}

func New(ctx context.Context, cfg *configuration.Configuration) (*Server, error) {
	logger := cfg.Logger()

	pool, err := pgxpool.New(ctx, cfg.Database.ConnectionString())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create database pool")
	}

	matrix, err := loadMatrix(cfg, logger)
	if err != nil {
		return nil, err
	}

	grantRepo := corepersistence.NewPermissionGrantRepository()
	engine, err := accesscontrol.NewEngine(accesscontrol.Config{
		Matrix:    matrix,
		Grants:    grantRepo,
		Hierarchy: orgpersistence.NewDepartmentHierarchySource(),
		Logger:    logger.WithField("component", "accesscontrol"),
	})
	if err != nil {
		return nil, err
	}

	publisher := eventbus.NewEventPublisher(logger)

	scopeRepo := corepersistence.NewUserScopeRepository()
	scopeService := coreservices.NewScopeService(scopeRepo, engine, publisher)
	permissionService := coreservices.NewPermissionService(grantRepo, matrix, engine, publisher)

	branchRepo := orgpersistence.NewBranchRepository()
	departmentService := orgservices.NewDepartmentService(
		orgpersistence.NewDepartmentRepository(),
		orgpersistence.NewDepartmentNodeSource(),
		branchRepo,
		engine,
		publisher,
	)
	employeeService := orgservices.NewEmployeeService(
		orgpersistence.NewEmployeeRepository(),
		orgpersistence.NewEmployeeNodeSource(),
		branchRepo,
		engine,
		publisher,
	)
	unitService := orgservices.NewOrgUnitService(
		orgpersistence.NewBusinessGroupRepository(),
		orgpersistence.NewCompanyRepository(),
		branchRepo,
		engine,
		publisher,
	)

	router := mux.NewRouter()
	router.Use(
		middleware.RequestLogger(logger),
		middleware.WithPool(pool),
		middleware.Authenticate(headerPrincipalResolver(scopeRepo)),
	)
	orgcontrollers.NewOrgAPIController(departmentService, employeeService, unitService).Register(router)
	corecontrollers.NewAccessAPIController(scopeService, permissionService).Register(router)

	if cfg.Prometheus.Enabled {
		// Metrics bypass authentication; the path is not routed publicly.
		metricsRouter := mux.NewRouter()
		metricsRouter.Handle(cfg.Prometheus.Path, promhttp.Handler())
		metricsRouter.PathPrefix("/").Handler(router)
		return &Server{cfg: cfg, logger: logger, pool: pool, router: metricsRouter}, nil
	}

	return &Server{cfg: cfg, logger: logger, pool: pool, router: router}, nil
}

// loadMatrix prefers the configured roles file and falls back to the stock
// matrix when the file is absent.
func loadMatrix(cfg *configuration.Configuration, logger *logrus.Logger) (accesscontrol.Matrix, error) {
	if _, err := os.Stat(cfg.Access.RolesPath); err != nil {
		logger.WithField("path", cfg.Access.RolesPath).Warn("role matrix file not found, using defaults")
		return accesscontrol.DefaultMatrix(), nil
	}
	matrix, err := accesscontrol.LoadMatrix(cfg.Access.RolesPath)
	if err != nil {
		return accesscontrol.Matrix{}, err
	}
	logger.WithField("tiers", matrix.TierNames()).Info("role matrix loaded")
	return matrix, nil
}

func (s *Server) Pool() *pgxpool.Pool { return s.pool }

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.ServerAddress,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("address", s.cfg.ServerAddress).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.pool.Close()
		s.logger.Info("server stopped")
		return nil
	}
}
