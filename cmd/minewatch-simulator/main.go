package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/config"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/database"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/logger"
	mqttcommon "github.com/Udenis123/Minining-monitoring-System-sub000/internal/mqtt"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/repository"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/simulator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "minewatch-simulator")
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	// Keep the client id distinct from the monitor's when both use defaults;
	// the broker drops the older session on a clash.
	if os.Getenv("MQTT_CLIENT_ID") == "" {
		cfg.MQTT.ClientID += "-sim"
	}
	mqttClient, err := mqttcommon.NewClient(&cfg.MQTT)
	if err != nil {
		log.Fatal("Failed to connect to MQTT broker", zap.Error(err))
	}
	defer mqttClient.Disconnect()

	minesRepo := repository.NewPostgresMinesRepository(db, log)
	sim := simulator.New(cfg, mqttClient, minesRepo, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	if err := sim.Run(ctx); err != nil {
		log.Fatal("Simulator error", zap.Error(err))
	}
}
