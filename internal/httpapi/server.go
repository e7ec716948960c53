package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/authz"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/consumer"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/repository"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/service"
)

// Server is the REST surface of the monitoring core. The caller is
// identified by the X-User-Id header, resolved against the user repository;
// token verification belongs to the auth service in front of this API.
type Server struct {
	router *Router
	http   *http.Server
	logger *zap.Logger

	gate      *authz.Gate
	usersRepo repository.UsersRepository

	alerts   *service.AlertService
	roles    *service.RoleService
	users    *service.UserService
	mines    *service.MineService
	reports  *service.ReportService
	readings *consumer.CacheManager
}

// NewServer wires the handlers onto a router.
func NewServer(
	addr string,
	gate *authz.Gate,
	usersRepo repository.UsersRepository,
	alerts *service.AlertService,
	roles *service.RoleService,
	users *service.UserService,
	mines *service.MineService,
	reports *service.ReportService,
	readings *consumer.CacheManager,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:    NewRouter(logger),
		logger:    logger,
		gate:      gate,
		usersRepo: usersRepo,
		alerts:    alerts,
		roles:     roles,
		users:     users,
		mines:     mines,
		reports:   reports,
		readings:  readings,
	}

	s.registerRoutes()

	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // report export can be slow
	}
	return s
}

func (s *Server) registerRoutes() {
	s.router.Handle("/api/v1/mines", s.handleMines)
	s.router.Handle("/api/v1/mines/", s.handleMineByID)
	s.router.Handle("/api/v1/sectors/", s.handleSectorByID)
	s.router.Handle("/api/v1/sensors/", s.handleSensorByID)

	s.router.Handle("/api/v1/alerts", s.handleAlerts)
	s.router.Handle("/api/v1/alerts/", s.handleAlertByID)

	s.router.Handle("/api/v1/roles", s.handleRoles)
	s.router.Handle("/api/v1/roles/", s.handleRoleByID)
	s.router.Handle("/api/v1/users", s.handleUsers)
	s.router.Handle("/api/v1/users/", s.handleUserByID)

	s.router.Handle("/api/v1/reports/mine-status", s.handleMineStatusReport)

	s.router.Handle("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// Start serves until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// caller resolves the acting user from the X-User-Id header. A missing
// header or an unknown id writes 401 and returns false.
func (s *Server) caller(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing X-User-Id header", Code: "unauthenticated"})
		return nil, false
	}

	user, err := s.usersRepo.GetUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unknown user", Code: "unauthenticated"})
		return nil, false
	}
	return user, true
}

// requireGlobal writes 403 and returns false unless the user holds the
// global permission.
func (s *Server) requireGlobal(w http.ResponseWriter, user *domain.User, permission domain.GlobalPermission) bool {
	if !s.gate.Authorize(user, string(permission), authz.Global()) {
		writeDenied(w)
		return false
	}
	return true
}

// requireSector writes 403 and returns false unless the user holds the
// sector permission in the given sector, directly or implied by a global
// grant.
func (s *Server) requireSector(w http.ResponseWriter, user *domain.User, permission domain.SectorPermission, mineID, sectorID string) bool {
	if !s.gate.Authorize(user, string(permission), authz.Sector(mineID, sectorID)) {
		writeDenied(w)
		return false
	}
	return true
}
