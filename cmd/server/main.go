package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fadedwholesale/wholesale-service/internal/application/bus"
	"github.com/fadedwholesale/wholesale-service/internal/application/commands"
	"github.com/fadedwholesale/wholesale-service/internal/application/use_cases"
	"github.com/fadedwholesale/wholesale-service/internal/config"
	"github.com/fadedwholesale/wholesale-service/internal/domain/event"
	"github.com/fadedwholesale/wholesale-service/internal/infrastructure/http/handlers"
	"github.com/fadedwholesale/wholesale-service/internal/infrastructure/http/server"
	"github.com/fadedwholesale/wholesale-service/internal/infrastructure/monitoring"
	"github.com/fadedwholesale/wholesale-service/internal/infrastructure/persistence/postgres"
	"github.com/fadedwholesale/wholesale-service/internal/infrastructure/persistence/redis"
	"github.com/fadedwholesale/wholesale-service/internal/infrastructure/scheduler"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/clock"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/generator"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/logger"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/serializer"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to configuration file")
	flag.Parse()

	log := logger.NewLogger()
	log.Info("Starting Wholesale Service")

	cfg, configErr := config.LoadConfig(*configPath)
	if configErr != nil {
		log.Fatal("Failed to load configuration", "error", configErr)
	}

	db, dbErr := postgres.NewConnection(cfg.Database)
	if dbErr != nil {
		log.Fatal("Failed to connect to database", "error", dbErr)
	}
	defer db.Close()

	if migrationErr := postgres.RunMigrations(cfg.Database, log); migrationErr != nil {
		log.Fatal("Failed to run migrations", "error", migrationErr)
	}

	redisConn, err := redis.NewConnection(cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", "error", err)
	}
	defer redisConn.Close()

	redisClient := monitoring.InstrumentRedisClient(redisConn.GetClient())

	dbMetricsCollector := monitoring.NewDBMetricsCollector(db.GetDB())
	dbMetricsCollector.StartCollecting(context.Background(), 30*time.Second)

	catalogRepo := postgres.NewCatalogRepository(db)
	presetRepo := postgres.NewPresetRepository(db)
	orderRepo := postgres.NewOrderRepository(db)
	applicationRepo := postgres.NewApplicationRepository(db)
	activityRepo := postgres.NewActivityLogRepository(db)

	cartStore := redis.NewCartStore(redisClient, log)
	stockFilter := redis.NewStockFilter(redisClient, 100000, 0.01)
	syncChannel := redis.NewSyncChannel(
		redisClient,
		cfg.Sync.ChannelKey,
		time.Duration(cfg.Sync.PollIntervalSeconds)*time.Second,
		log,
	)

	gen := generator.NewCodeGenerator()
	clk := clock.NewRealClock()
	originID := gen.GenerateOriginID()

	catalogScheduler := scheduler.NewCatalogScheduler(
		catalogRepo,
		stockFilter,
		clk,
		log,
		time.Duration(cfg.Sync.CatalogRefreshSeconds)*time.Second,
	)

	var cartUseCase *use_cases.CartUseCase

	syncBus := bus.NewBus(syncChannel, log, clk, bus.Options{
		OriginID:          originID,
		HeartbeatInterval: time.Duration(cfg.Sync.HeartbeatIntervalSeconds) * time.Second,
		ReconcileInterval: time.Duration(cfg.Sync.ReconcileIntervalSeconds) * time.Second,
		StaleCheck: func() bool {
			return catalogScheduler.Stale() || cartUseCase.HasDirtySessions()
		},
		Observer: monitoring.NewSyncMetrics(),
	})

	cartUseCase = use_cases.NewCartUseCase(cartStore, catalogRepo, stockFilter, syncBus, cfg.PricingPolicy(), log)
	checkoutUseCase := use_cases.NewCheckoutUseCase(cartUseCase, orderRepo, stockFilter, syncBus, gen, log)

	applyPresetHandler := commands.NewApplyPresetHandler(presetRepo, cartUseCase, log)
	submitApplicationHandler := commands.NewSubmitApplicationHandler(applicationRepo, syncBus, gen, log)

	activityRecorder := use_cases.NewActivityRecorder(activityRepo, serializer.NewSerializer(4, nil), log)
	activityRecorder.Register(syncBus)

	// Remote cart events invalidate the local session copy so the next read
	// reloads the shared record.
	invalidate := func(e event.Event, meta event.Metadata) {
		if !meta.Remote {
			return
		}
		var payload struct {
			UserID string `json:"user_id"`
		}
		if err := json.Unmarshal(e.Payload, &payload); err != nil || payload.UserID == "" {
			return
		}
		cartUseCase.InvalidateSession(payload.UserID)
	}
	syncBus.Subscribe(event.TypeCartUpdated, invalidate)
	syncBus.Subscribe(event.TypeCartCleared, invalidate)
	syncBus.Subscribe(event.TypeCheckoutCompleted, invalidate)

	httpServer := server.NewServer(cfg, server.Handlers{
		Health:      handlers.NewHealthHandler(db.GetDB(), redisConn.GetClient(), log),
		Cart:        handlers.NewCartHandler(cartUseCase, applyPresetHandler, log),
		Checkout:    handlers.NewCheckoutHandler(checkoutUseCase, log),
		Catalog:     handlers.NewCatalogHandler(catalogRepo, presetRepo, log),
		Application: handlers.NewApplicationHandler(submitApplicationHandler, log),
		Admin: handlers.NewAdminHandler(
			catalogRepo,
			presetRepo,
			applicationRepo,
			activityRepo,
			stockFilter,
			syncBus,
			log,
		),
	}, log)

	serverCtx, serverStopCtx := context.WithCancel(context.Background())

	if err := syncBus.Start(serverCtx); err != nil {
		log.Fatal("Failed to start sync bus", "error", err)
	}

	go catalogScheduler.Start(serverCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigChan
		shutdownCtx, shutdownCancel := context.WithTimeout(serverCtx, 30*time.Second)
		defer shutdownCancel()

		log.Info("Shutting down server...")
		catalogScheduler.Stop()
		if err := syncBus.Close(); err != nil {
			log.Error("Sync bus shutdown error", "error", err)
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown error", "error", err)
		}

		serverStopCtx()
	}()

	log.Info("Server starting", "address", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("Server failed", "error", err)
	}

	<-serverCtx.Done()
	log.Info("Server stopped")
}
