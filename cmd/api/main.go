package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/suntan-superman/rydeiq-backend/internal/api/rest"
	"github.com/suntan-superman/rydeiq-backend/internal/infrastructure/cache"
	"github.com/suntan-superman/rydeiq-backend/internal/infrastructure/config"
	"github.com/suntan-superman/rydeiq-backend/internal/infrastructure/database"
	"github.com/suntan-superman/rydeiq-backend/internal/infrastructure/events"
	"github.com/suntan-superman/rydeiq-backend/internal/infrastructure/maps"
	"github.com/suntan-superman/rydeiq-backend/internal/infrastructure/payment"
	"github.com/suntan-superman/rydeiq-backend/internal/infrastructure/repository"
	"github.com/suntan-superman/rydeiq-backend/internal/infrastructure/telemetry"
	"github.com/suntan-superman/rydeiq-backend/internal/service/bidding"
	"github.com/suntan-superman/rydeiq-backend/internal/service/fare"
)

func main() {
	var migrate = flag.Bool("migrate", false, "Apply database schema and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}

	logger := telemetry.SetupLogger(cfg.LogLevel)
	zlog, err := telemetry.SetupZapLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, &cfg.Database, zlog)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer pool.Close()

	if *migrate {
		if err := database.Migrate(ctx, pool); err != nil {
			log.Fatalf("applying schema: %v", err)
		}
		logger.Info("schema applied")
		return
	}

	rideRepo := repository.NewRideRepository(pool)
	bidRepo := repository.NewBidRepository(pool)

	// Snapshot fan-out: in-process hub plus Redis cache and the Kafka
	// lifecycle topic when configured.
	hub := events.NewHub(logger)
	defer hub.Close()
	sinks := []events.Sink{}

	if cfg.Redis.URL != "" {
		snapCache, err := cache.NewSnapshotCache(&cfg.Redis, zlog)
		if err != nil {
			log.Fatalf("initializing snapshot cache: %v", err)
		}
		defer snapCache.Close()
		sinks = append(sinks, events.NewCacheSink(snapCache, zlog))
	}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink := events.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, zlog)
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
	}
	notifier := events.NewFanout(hub, sinks...)

	var distance fare.DistanceProvider
	if cfg.Maps.Enabled && cfg.Maps.APIKey != "" {
		distance, err = maps.NewRouteProvider(cfg.Maps.APIKey)
		if err != nil {
			log.Fatalf("initializing route provider: %v", err)
		}
	}

	rates := fare.DefaultRateTable()
	rates.Currency = cfg.Fare.Currency
	rates.BaseFare = cfg.Fare.BaseFare
	rates.PerKm = cfg.Fare.PerKm
	rates.PerMinute = cfg.Fare.PerMinute
	rates.MinimumFare = cfg.Fare.MinimumFare
	estimator := fare.NewEstimator(rates, distance)

	var payments bidding.PaymentProcessor
	if cfg.Payments.Enabled {
		processor, err := payment.NewStripeProcessor(cfg.Payments.StripeKey, zlog)
		if err != nil {
			log.Fatalf("initializing payments: %v", err)
		}
		payments = processor
	}

	policy := bidding.WindowPolicy{
		Window:     cfg.Bidding.Window,
		AutoExtend: cfg.Bidding.AutoExtend,
		Extension:  cfg.Bidding.Extension,
		MaxExtends: cfg.Bidding.MaxExtends,
	}

	svc := bidding.NewService(
		rideRepo, bidRepo, estimator, notifier,
		payments, nil, prometheusMetrics{}, policy, logger,
	)
	defer svc.Close()

	server := rest.NewServer(cfg, svc, logger)
	logger.Info("starting api server",
		"version", cfg.Version,
		"environment", cfg.Environment,
		"currency", cfg.Fare.Currency)

	if err := server.Start(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
	logger.Info("shutdown complete")
}
