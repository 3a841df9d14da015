package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quickcart/config"
	"quickcart/internal/api"
	"quickcart/internal/broker"
	"quickcart/internal/receipt"
	"quickcart/internal/redisclient"
	"quickcart/internal/service"
	"quickcart/internal/store"
	"quickcart/internal/util"
	"quickcart/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting quickcart",
		zap.String("env", cfg.Server.Env),
		zap.String("store_driver", cfg.Store.Driver))

	tp, err := util.InitTracer("quickcart", cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	backend, err := openBackend(cfg)
	if err != nil {
		logger.Fatal("Failed to open state backend", zap.Error(err))
	}
	st := store.NewStore(backend, nil)
	defer st.Close()
	logger.Info("State backend ready", zap.String("driver", cfg.Store.Driver))

	opts := service.Options{
		Latency: cfg.Business.SimulatedLatency,
		Pricing: cfg.Business.Pricing,
	}

	ctx := context.Background()

	var publisher service.EventPublisher = broker.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer)
		logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	} else {
		logger.Info("No Kafka brokers configured, order events are not published")
	}

	archive, err := receipt.NewArchive(ctx, cfg.Receipt)
	if err != nil {
		logger.Fatal("Failed to initialize receipt archive", zap.Error(err))
	}

	sessionService := service.NewSessionService(st, opts)
	catalogService := service.NewCatalogService(st, opts)
	orderService := service.NewOrderService(st, publisher, opts)

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		if err := sessionService.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			logger.Fatal("Failed to ensure admin account", zap.Error(err))
		}
		logger.Info("Admin account ensured", zap.String("email", cfg.Admin.Email))
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var receiptWorker *worker.ReceiptWorker
	if len(cfg.Kafka.Brokers) > 0 {
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
		receiptWorker = worker.NewReceiptWorker(consumer, archive, cfg.Business.Pricing)
		go func() {
			if err := receiptWorker.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Receipt worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(st, sessionService, catalogService, orderService, archive)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if receiptWorker != nil {
		_ = receiptWorker.Stop()
	}

	logger.Info("Server exited")
}

func openBackend(cfg *config.Config) (store.Backend, error) {
	switch cfg.Store.Driver {
	case "", "memory":
		return store.NewMemoryBackend(), nil
	case "sqlite":
		return store.OpenSQLite(cfg.Store.SQLitePath)
	case "postgres":
		return store.OpenPostgres(cfg.Store.DatabaseURL)
	case "redis":
		client, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		return store.NewRedisBackend(client, cfg.Store.RedisKey), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
