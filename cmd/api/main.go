package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/shopforge/commerce/pkg/auth"
	"github.com/shopforge/commerce/pkg/config"
	"github.com/shopforge/commerce/pkg/idempotency"
	"github.com/shopforge/commerce/pkg/logging"
	"github.com/shopforge/commerce/pkg/outbox"
	"github.com/shopforge/commerce/pkg/shutdown"
	"github.com/shopforge/commerce/pkg/tracing"

	catalogapp "github.com/shopforge/commerce/internal/catalog/application"
	cataloghttp "github.com/shopforge/commerce/internal/catalog/infrastructure/http"
	catalogpg "github.com/shopforge/commerce/internal/catalog/infrastructure/postgres"
	couponapp "github.com/shopforge/commerce/internal/coupon/application"
	couponhttp "github.com/shopforge/commerce/internal/coupon/infrastructure/http"
	couponpg "github.com/shopforge/commerce/internal/coupon/infrastructure/postgres"
	"github.com/shopforge/commerce/internal/notifier"
	orderapp "github.com/shopforge/commerce/internal/order/application"
	orderhttp "github.com/shopforge/commerce/internal/order/infrastructure/http"
	orderkafka "github.com/shopforge/commerce/internal/order/infrastructure/kafka"
	orderpg "github.com/shopforge/commerce/internal/order/infrastructure/postgres"
	reportapp "github.com/shopforge/commerce/internal/report/application"
	reporthttp "github.com/shopforge/commerce/internal/report/infrastructure/http"
	reportpg "github.com/shopforge/commerce/internal/report/infrastructure/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info").Error("config load failed", "err", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, "commerce-api", cfg.OTLPURL, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	pool, err := pgxpool.New(ctx, cfg.PGURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Kafka producer feeding the outbox relay.
	writer := orderkafka.NewWriter([]string{cfg.KafkaAddr})
	defer writer.Close()

	// Repositories.
	productRepo := catalogpg.NewRepository(log, pool)
	categoryRepo := catalogpg.NewCategoryRepository(log, pool)
	couponRepo := couponpg.NewRepository(log, pool)
	orderRepo := orderpg.NewRepository(log, pool)
	outboxStore := orderpg.NewOutboxStore(log, pool)
	reportRepo := reportpg.NewRepository(log, pool)

	// Stock notifier hub, shared by the pipeline and the ws endpoint.
	hub := notifier.NewHub(log)
	defer hub.Close()

	// Services.
	catalogSvc := catalogapp.NewService(log, productRepo, categoryRepo)
	couponSvc := couponapp.NewService(log, couponRepo)
	orderSvc := orderapp.NewService(log, orderRepo, productRepo, couponRepo, hub)
	reportSvc := reportapp.NewService(log, reportRepo)

	// Outbox relay.
	dispatch := outbox.NewDispatcher(log, writer, cfg.OutboxTopic)
	relay := outbox.NewRelay(log, outboxStore, dispatch, "commerce-api-relay")

	// Handlers.
	catalogHandler := cataloghttp.NewHandler(log, catalogSvc)
	couponHandler := couponhttp.NewHandler(log, couponSvc)
	orderHandler := orderhttp.NewHandler(log, orderSvc)
	reportHandler := reporthttp.NewHandler(log, reportSvc)
	wsHandler := notifier.NewHandler(log, hub)

	authn := auth.NewMiddleware(cfg.JWTSecret)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(authn.Authenticate)
		r.Mount("/categories", catalogHandler.CategoryRoutes())
		r.Mount("/products", catalogHandler.ProductRoutes())
		r.Mount("/coupons", couponHandler.Routes())
		r.Mount("/reports", reportHandler.Routes())

		orders := orderHandler.Routes()
		if cfg.RedisAddr != "" {
			rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
			idem := idempotency.NewStore(rdb, 24*time.Hour)
			r.With(idempotency.Middleware(log, idem)).Mount("/orders", orders)
		} else {
			r.Mount("/orders", orders)
		}
	})
	r.Get("/ws", wsHandler.ServeWS)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := relay.Run(ctx); err != nil {
			log.Error("relay stopped with error", "err", err)
		}
	}()

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("commerce-api shutdown complete")
}
