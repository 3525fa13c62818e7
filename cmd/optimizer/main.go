package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/gosight/gosight/optimizer/internal/api"
	"github.com/gosight/gosight/optimizer/internal/config"
	"github.com/gosight/gosight/optimizer/internal/consumer"
	"github.com/gosight/gosight/optimizer/internal/fixes"
	"github.com/gosight/gosight/optimizer/internal/identity"
	"github.com/gosight/gosight/optimizer/internal/impact"
	"github.com/gosight/gosight/optimizer/internal/insights"
	"github.com/gosight/gosight/optimizer/internal/learning"
	"github.com/gosight/gosight/optimizer/internal/processor"
	"github.com/gosight/gosight/optimizer/internal/producer"
	"github.com/gosight/gosight/optimizer/internal/session"
	"github.com/gosight/gosight/optimizer/internal/storage"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load config
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/optimizer.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("Failed to load config")
	}

	log.Info().
		Strs("kafka_brokers", cfg.Kafka.Brokers).
		Str("clickhouse_addr", cfg.ClickHouse.Addr).
		Str("redis_addr", cfg.Redis.Addr).
		Bool("remote_classifier", cfg.Classifier.Enabled).
		Dur("analysis_interval", cfg.Analysis.Interval).
		Int("window_size", cfg.Analysis.WindowSize).
		Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ClickHouse is optional; without it insights and cycles are only published
	var (
		insightWriter insights.InsightWriter
		cycleWriter   processor.CycleWriter
	)
	if cfg.ClickHouse.Addr != "" {
		ch, err := storage.NewClickHouse(cfg.ClickHouse)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to ClickHouse")
		}
		defer ch.Close()
		insightWriter, cycleWriter = ch, ch
		log.Info().Msg("Connected to ClickHouse")
	}

	kafkaProducer := producer.NewKafkaProducer(cfg.Kafka)
	defer kafkaProducer.Close()
	log.Info().
		Bool("alerts", kafkaProducer.Enabled(producer.TopicAlerts)).
		Bool("fixes", kafkaProducer.Enabled(producer.TopicFixes)).
		Msg("Kafka producer topics")

	// Identity classification. The cache only bounds remote calls.
	var (
		remote identity.Classifier
		cache  *identity.Cache
	)
	if cfg.Classifier.Enabled {
		cache = identity.NewCache(cfg.Classifier.CacheTTL, time.Now)
		remote = identity.NewRemoteClassifier(identity.RemoteConfig{
			APIKey:  cfg.Classifier.APIKey,
			Model:   cfg.Classifier.Model,
			BaseURL: cfg.Classifier.BaseURL,
		})
		log.Info().Str("model", cfg.Classifier.Model).Msg("Remote classifier enabled")
	}
	classifier := identity.NewService(remote, cache, cfg.Classifier.Timeout)

	// Element index for advisory validation of fix selectors
	var index fixes.ElementIndex
	if cfg.Postgres.DSN != "" {
		pg, err := fixes.NewPostgresIndex(ctx, cfg.Postgres.DSN, cfg.Postgres.ProjectID)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to element index, selector validation disabled")
		} else {
			defer pg.Close()
			index = pg
			log.Info().Msg("Connected to element index")
		}
	}
	mapper := fixes.NewMapper(fixes.DefaultRules, index)

	// Learning records survive restarts when Redis is available
	var store learning.Store = learning.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("Failed to connect to Redis, learning records kept in memory")
			rdb.Close()
		} else {
			defer rdb.Close()
			store = learning.NewRedisStore(rdb, "")
			log.Info().Msg("Connected to Redis")
		}
	}

	loop := learning.NewLoop(classifier, mapper, store,
		learning.WithGate(learning.Gate{
			Cooldown:       cfg.Learning.Cooldown,
			EventThreshold: cfg.Learning.EventThreshold,
			AnomalyWindow:  cfg.Learning.AnomalyWindow,
		}),
		learning.WithAutoApply(learning.AutoApply{
			RecordConfidence:   cfg.Learning.AutoApplyRecordConfidence,
			IdentityConfidence: cfg.Learning.AutoApplyIdentityConfidence,
		}),
		learning.WithHistory(learning.NewHistory(cfg.Learning.HistorySize)),
		learning.WithSink(processor.NewCycleSink(cycleWriter, kafkaProducer)),
	)

	insightProcessor := insights.NewProcessor(insightWriter, kafkaProducer, cfg.Batch.Size, cfg.Batch.FlushInterval)
	defer insightProcessor.Stop()

	optimizer := processor.NewOptimizer(
		session.NewAggregator(cfg.Analysis.WindowSize),
		loop,
		insightProcessor,
		processor.Options{
			Business:      impact.BusinessConfig(cfg.Business),
			MinEvents:     cfg.Analysis.MinEvents,
			AnomalyWindow: cfg.Learning.AnomalyWindow,
		},
	)

	kafkaConsumer, err := consumer.NewKafkaConsumer(cfg.Kafka, optimizer)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Kafka consumer")
	}

	handler := api.NewHandler(loop, nil).WithStats(func() interface{} {
		return map[string]interface{}{
			"consumer": kafkaConsumer.Stats(),
			"topics": map[string]bool{
				producer.TopicAlerts: kafkaProducer.Enabled(producer.TopicAlerts),
				producer.TopicFixes:  kafkaProducer.Enabled(producer.TopicFixes),
			},
		}
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return kafkaConsumer.Start(gctx)
	})
	g.Go(func() error {
		log.Info().Int("port", cfg.Server.HTTPPort).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	if cache != nil {
		g.Go(func() error {
			cache.Run(gctx, cfg.Classifier.SweepInterval)
			return nil
		})
	}
	g.Go(func() error {
		optimizer.Run(gctx, cfg.Analysis.Interval)
		return nil
	})

	log.Info().Msg("Optimizer started")

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Optimizer stopped with error")
	}

	log.Info().Msg("Shutting down...")
	if err := kafkaConsumer.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close Kafka consumer")
	}
	stats := kafkaConsumer.Stats()
	log.Info().
		Uint64("processed", stats.Processed).
		Uint64("rejected", stats.Rejected).
		Uint64("failed", stats.Failed).
		Msg("Kafka consumer totals")

	log.Info().Msg("Shutdown complete")
}
