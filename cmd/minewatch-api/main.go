package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/authz"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/config"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/consumer"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/database"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/httpapi"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/logger"
	rediscommon "github.com/Udenis123/Minining-monitoring-System-sub000/internal/redis"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/repository"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "minewatch-api")
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	redisClient := rediscommon.NewRedisClient(&cfg.Redis)
	if err := rediscommon.Ping(context.Background(), redisClient); err != nil {
		log.Fatal("Failed to ping redis", zap.Error(err))
	}
	defer rediscommon.Close(redisClient)

	minesRepo := repository.NewPostgresMinesRepository(db, log)
	alertsRepo := repository.NewPostgresAlertsRepository(db, log)
	rolesRepo := repository.NewPostgresRolesRepository(db, log)
	usersRepo := repository.NewPostgresUsersRepository(db, log)

	// The permission model bootstraps from the persisted roles; every later
	// role mutation goes through RoleService, which keeps it in sync.
	roles, err := rolesRepo.ListRoles(context.Background())
	if err != nil {
		log.Fatal("Failed to load roles", zap.Error(err))
	}
	model := authz.NewPermissionModel(roles)
	gate := authz.NewGate(model, usersRepo, log)

	cacheManager := consumer.NewCacheManager(cfg, redisClient, log)

	alertService := service.NewAlertService(alertsRepo, log)
	roleService := service.NewRoleService(rolesRepo, usersRepo, model, log)
	userService := service.NewUserService(usersRepo, gate, log)
	mineService := service.NewMineService(minesRepo, alertsRepo, cacheManager, log)
	reportService := service.NewReportService(minesRepo, alertsRepo, cacheManager, log)

	server := httpapi.NewServer(
		cfg.HTTP.Addr,
		gate,
		usersRepo,
		alertService,
		roleService,
		userService,
		mineService,
		reportService,
		cacheManager,
		log,
	)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErrChan:
		log.Fatal("Server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down cleanly", zap.Error(err))
	}

	log.Info("API service stopped")
}
