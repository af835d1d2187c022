package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/comichut/supportdesk/internal/application"
	"github.com/comichut/supportdesk/internal/clients/storefront"
	"github.com/comichut/supportdesk/internal/config"
	"github.com/comichut/supportdesk/internal/handlers"
	"github.com/comichut/supportdesk/internal/kafka"
	"github.com/comichut/supportdesk/internal/observability"
	"github.com/comichut/supportdesk/internal/outbox"
	"github.com/comichut/supportdesk/internal/repository/postgres"
	"github.com/comichut/supportdesk/internal/router"
	"github.com/comichut/supportdesk/internal/server"
	"github.com/comichut/supportdesk/internal/tx"
	"github.com/comichut/supportdesk/internal/ws"
)

func main() {
	cfg := config.Load()

	// Observability
	observability.InitLogger(cfg.ServiceName)
	log := observability.Log

	if cfg.TracingEnabled {
		tp, err := observability.InitTracer(cfg.ServiceName, cfg.JaegerURL)
		if err != nil {
			log.Fatal("failed to initialize tracer", zap.Error(err))
		}
		defer tp.Shutdown(context.Background())
	}

	ctx, cancel := setupSignalHandler(log)
	defer cancel()

	instanceID := getOrGenerateInstanceID(cfg.InstanceID)

	// Storage
	db := initPostgres(ctx, cfg.PostgresDSN, log)
	defer db.Close()

	redisClient := initRedis(ctx, cfg.RedisAddr, log)
	defer redisClient.Close()

	repo := &postgres.Repository{DB: db}
	txManager := &tx.Manager{DB: db}

	// Room fan-out
	reg := ws.NewRegistry()
	rtr := router.New(redisClient, instanceID)
	bus := ws.NewBus(reg, rtr)
	rtr.Subscribe(ctx, bus.DeliverRemote)

	// Application
	storeClient := storefront.New(cfg.StorefrontURL)
	svc := application.New(repo, txManager, storeClient, bus, cfg.OutboxTopic)

	wsHandler := ws.NewHandler(reg, bus, svc, ws.AuthConfig{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
	}, cfg.ServiceName)

	// Outbox publishing
	producer := kafka.NewProducer(cfg.KafkaBrokers)
	defer producer.Close()
	publisher := outbox.NewPublisher(outbox.NewRepository(db), producer, cfg.ServiceName)
	go publisher.Start(ctx)

	// Servers
	obsSrv := initObservabilityServer(cfg, db, redisClient)
	mainSrv := server.New(cfg.HTTPAddr, initMainRouter(cfg, svc, wsHandler))

	startServers(cfg, obsSrv, mainSrv, log)

	<-ctx.Done()
	performGracefulShutdown(obsSrv, mainSrv, reg, log)
}

func setupSignalHandler(log *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received signal, initiating shutdown", zap.String("signal", sig.String()))
		cancel()
	}()
	return ctx, cancel
}

func getOrGenerateInstanceID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func initPostgres(ctx context.Context, dsn string, log *zap.Logger) *sql.DB {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal("failed to open postgres", zap.Error(err))
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}

	repo := &postgres.Repository{DB: db}
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal("failed to ensure schema", zap.Error(err))
	}
	return db
}

func initRedis(ctx context.Context, addr string, log *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	return client
}

func initObservabilityServer(cfg *config.Config, db *sql.DB, redisClient *redis.Client) *http.Server {
	mux := chi.NewRouter()
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Get("/health/live", observability.HealthLiveHandler)
	mux.Get("/health/ready", observability.HealthReadyHandler(
		func(ctx context.Context) error { return db.PingContext(ctx) },
		func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	))
	return &http.Server{Addr: cfg.ObsHTTPAddr, Handler: mux}
}

func initMainRouter(cfg *config.Config, svc *application.Service, wsHandler *ws.Handler) http.Handler {
	chat := handlers.NewChatHandler(svc, cfg.ServiceName)
	upload := handlers.NewUploadHandler(cfg.UploadDir, cfg.UploadBaseURL)
	return handlers.NewRouter(handlers.RouterConfig{
		ServiceName:  cfg.ServiceName,
		RateLimitRPM: cfg.RateLimitRPM,
		JWTSecret:    cfg.JWTSecret,
		JWTIssuer:    cfg.JWTIssuer,
		JWTAudience:  cfg.JWTAudience,
		UploadDir:    cfg.UploadDir,
	}, chat, upload, wsHandler)
}

func startServers(cfg *config.Config, obsSrv *http.Server, mainSrv *server.Server, log *zap.Logger) {
	go func() {
		log.Info("starting observability server", zap.String("addr", cfg.ObsHTTPAddr))
		if err := obsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("observability server error", zap.Error(err))
		}
	}()
	go func() {
		log.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
		if err := mainSrv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server error", zap.Error(err))
		}
	}()
}

func performGracefulShutdown(obsSrv *http.Server, mainSrv *server.Server, reg *ws.Registry, log *zap.Logger) {
	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	reg.CloseAll()
	if err := mainSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown error", zap.Error(err))
	}
	if err := obsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("observability server shutdown error", zap.Error(err))
	}
	log.Info("shutdown complete")
}
