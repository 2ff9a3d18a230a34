package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kimiashop/orderflow/internal/catalog"
	"github.com/kimiashop/orderflow/internal/checkout"
	"github.com/kimiashop/orderflow/internal/config"
	"github.com/kimiashop/orderflow/internal/delivery"
	"github.com/kimiashop/orderflow/internal/httpx"
	kafkax "github.com/kimiashop/orderflow/internal/kafka"
	"github.com/kimiashop/orderflow/internal/logx"
	"github.com/kimiashop/orderflow/internal/orders"
	"github.com/kimiashop/orderflow/internal/postgres"
	"github.com/kimiashop/orderflow/internal/redisx"
	"github.com/kimiashop/orderflow/internal/sms"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logx.New(cfg.ServiceName)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
			log.Fatal().Err(err).Msg("migrate")
		}
	}

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Cart calculation cache backend
	var cache checkout.Cache
	switch cfg.CartCacheBackend {
	case "redis":
		cache = checkout.NewRedisCache(rdb, cfg.CartCacheTTL)
	default:
		mem := checkout.NewMemoryCache(cfg.CartCacheTTL)
		mem.StartSweeper(ctx, cfg.CartSweepEvery)
		cache = mem
	}

	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024, log)
	pCreated.Start(ctx)
	pDispatched := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderDispatched, 1024, log)
	pDispatched.Start(ctx)

	orderRepo := &orders.Repo{DB: db}
	catalogRepo := &catalog.Repo{DB: db}
	smsClient := sms.NewClient(cfg.SMSBaseURL, cfg.SMSAPIKey, cfg.SMSSender)
	deliverySvc := delivery.NewService(&delivery.Repo{DB: db}, smsClient, log)

	router := httpx.NewRouter()
	(&httpx.CheckoutHandler{
		Catalog:  catalogRepo,
		Cache:    cache,
		Repo:     orderRepo,
		Producer: pCreated,
		Redis:    rdb,
		Rates:    checkout.DefaultRates(),
		Service:  cfg.ServiceName,
		Log:      log,
	}).Register(router)
	(&httpx.OrdersHandler{
		Repo:     orderRepo,
		Delivery: deliverySvc,
		Producer: pDispatched,
		Redis:    rdb,
		Service:  cfg.ServiceName,
		Log:      log,
	}).Register(router)
	(&httpx.DeliveryHandler{
		Repo:     orderRepo,
		Delivery: deliverySvc,
		Redis:    rdb,
		Log:      log,
	}).Register(router)
	(&httpx.CatalogHandler{Repo: catalogRepo}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	pCreated.Close()
	pDispatched.Close()
	pCreated.WaitClosed()
	pDispatched.WaitClosed()
	cancel()
}
