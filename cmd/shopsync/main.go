package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kimiashop/orderflow/internal/catalog"
	"github.com/kimiashop/orderflow/internal/config"
	kafkax "github.com/kimiashop/orderflow/internal/kafka"
	"github.com/kimiashop/orderflow/internal/logx"
	"github.com/kimiashop/orderflow/internal/orders"
	"github.com/kimiashop/orderflow/internal/postgres"
	"github.com/kimiashop/orderflow/internal/redisx"
	"github.com/kimiashop/orderflow/internal/shopsync"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	serviceName := cfg.ServiceName + "-shopsync"
	log := logx.New(serviceName)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicShopSynced, 1024, log)
	prod.Start(ctx)

	svc := &shopsync.Service{
		Projector:   &catalog.Repo{DB: db},
		Dedup:       &shopsync.RedisDeduper{Client: rdb, Service: "shopsync"},
		Producer:    prod,
		ServiceName: serviceName,
		Log:         log,
	}

	group := getenv("SHOPSYNC_GROUP", "shopsync-svc")
	workers := mustAtoi(os.Getenv("SHOPSYNC_WORKERS"), 8)
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrderCreated, workers, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("group", group).Int("workers", workers).Msg("shopsync consumer started")
		return cons.Start(gctx, svc.HandleOrderCreated)
	})
	g.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sig:
			log.Info().Msg("shutting down consumer")
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("consumer exit")
	}
	prod.Close()
	prod.WaitClosed()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
