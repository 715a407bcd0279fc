package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"garden-monitor/internal/alerting"
	"garden-monitor/internal/api"
	"garden-monitor/internal/bus"
	"garden-monitor/internal/config"
	"garden-monitor/internal/db"
	"garden-monitor/internal/ingest"
	"garden-monitor/internal/logging"
	"garden-monitor/internal/monitor"
	"garden-monitor/internal/notify"
	"garden-monitor/internal/thresholds"
	"garden-monitor/internal/toast"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	// Connect to the readings store
	dbConn, err := db.New(cfg.DB.DSN)
	if err != nil {
		logger.Errorf("Failed to connect to database: %v", err)
		log.Fatalf("Database connection failed: %v", err)
	}
	defer dbConn.Close()

	eventBus := bus.New()
	rules := thresholds.NewStore(dbConn, eventBus, logger)
	readState := alerting.NewReadStateStore(dbConn, eventBus, logger)
	settings := notify.NewSettingsStore(dbConn, logger)

	hub := api.NewHub(logger)
	toasts := toast.NewManager(toast.Duration, hub.PushToast)

	// Notification worker pool
	dispatcher := notify.New(cfg, settings, logger)
	var wg sync.WaitGroup
	dispatcher.Start(&wg)

	// Evaluation loop
	mon := monitor.New(dbConn, rules, toasts, dispatcher, eventBus, logger,
		cfg.Monitor.PollInterval, cfg.Monitor.FetchLimit)
	handle := mon.Start()

	// Forward bus events to websocket clients
	ctx, cancel := context.WithCancel(context.Background())
	hub.Forward(ctx, eventBus, &wg)

	// Optional Kafka reading ingest
	var consumer *ingest.Consumer
	if cfg.IngestEnabled() {
		consumer = ingest.NewConsumer(cfg, dbConn, logger)
		consumer.Start(ctx, &wg)
	}

	// Start API server
	handler := api.NewHandler(logger, mon, rules, readState, toasts, settings, dbConn, hub)
	router := api.NewRouter(handler, logger, cfg)
	go func() {
		logger.Infof("API started on %s", cfg.API.Port)
		if err := router.Run(cfg.API.Port); err != nil {
			logger.Errorf("API run failed: %v", err)
		}
	}()

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logger.Infof("Shutting down...")

	handle.Stop()
	cancel()
	if consumer != nil {
		consumer.Close()
	}
	dispatcher.Stop()
	toasts.Stop()
	wg.Wait()
	logger.Infof("Service stopped")
}
