package main

import (
	"context"
	"log/slog"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"github.com/couchcryptid/quake-match/internal/adapter/cache"
	kafkaadapter "github.com/couchcryptid/quake-match/internal/adapter/kafka"
	"github.com/couchcryptid/quake-match/internal/adapter/mapbox"
	"github.com/couchcryptid/quake-match/internal/adapter/postgres"
	"github.com/couchcryptid/quake-match/internal/config"
	"github.com/couchcryptid/quake-match/internal/domain"
	"github.com/couchcryptid/quake-match/internal/observability"
	"github.com/couchcryptid/quake-match/internal/pipeline"
)

const pushTimeout = 5 * time.Second

func run(ctx context.Context, opts options) int {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return pipeline.StartupExitCode(err)
	}

	// Also installed as the slog default, so library logs share the format.
	logger := sharedobs.NewLogger(cfg.Log.Level, cfg.Log.Format)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	defer func() {
		pushCtx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()
		if err := metrics.Push(pushCtx, cfg.PushgatewayURL); err != nil {
			logger.Warn("metrics push failed", "error", err)
		}
	}()

	geocoder, closeGeocoder := newGeocoder(cfg, clock, metrics, logger)
	defer closeGeocoder()

	var announcer pipeline.Announcer
	if len(cfg.Kafka.Brokers) > 0 {
		writer := kafkaadapter.NewWriter(cfg.Kafka, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		announcer = writer
		logger.Info("match announcements enabled", "topic", cfg.Kafka.Topic)
	}

	normalizer := pipeline.NewNormalizer(domain.NewPolicy(cfg.IgnoreSources, cfg.URLTemplate), geocoder, logger)
	p := pipeline.New(normalizer, openSession(cfg, clock, logger), clock, announcer, logger, metrics, cfg.StatementTimeout)

	res := p.Process(ctx, opts.notification)
	logger.Info("notification processed",
		"outcome", res.Outcome.String(),
		"event_id", res.EventID,
		"match_status", string(res.Match.Status),
		"detection_id", res.Match.DetectionID,
	)
	return res.Outcome.ExitCode(opts.strict)
}

// openSession connects to Postgres only once a notification has been accepted.
func openSession(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger) pipeline.SessionOpener {
	return func(ctx context.Context) (pipeline.Session, error) {
		store, err := postgres.Open(ctx, cfg.DB.DSN(), clock, logger)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := store.AutoMigrate(ctx, false); err != nil {
				_ = store.Close()
				return nil, err
			}
		}
		return store, nil
	}
}

// newGeocoder returns nil when geocoding is disabled; regions then stay empty.
func newGeocoder(cfg *config.Config, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) (domain.Geocoder, func()) {
	if !cfg.Mapbox.Enabled {
		logger.Info("mapbox geocoding disabled")
		return nil, func() {}
	}

	var store cache.Store
	switch cfg.Cache.Backend {
	case "redis":
		store = cache.NewRedisStore(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
	default:
		store = cache.NewMemoryStore(cfg.Cache.Size, clock)
	}

	client := mapbox.NewClient(cfg.Mapbox.Token, cfg.Mapbox.Timeout, metrics, logger)
	logger.Info("mapbox geocoding enabled", "cache", cfg.Cache.Backend, "timeout", cfg.Mapbox.Timeout)

	return mapbox.NewCachedGeocoder(client, store, cfg.Cache.TTL, metrics, logger), func() {
		if err := store.Close(); err != nil {
			logger.Error("geocode cache close error", "error", err)
		}
	}
}
