package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pulseboard/pulseboard/internal/config"
	"github.com/pulseboard/pulseboard/internal/dashboard"
	"github.com/pulseboard/pulseboard/internal/database"
	"github.com/pulseboard/pulseboard/internal/notify"
	"github.com/pulseboard/pulseboard/internal/preferences"
)

// openPreferences connects the configured preferences backend. The returned
// func releases its connections.
func openPreferences(ctx context.Context, cfg config.PrefsConfig, log zerolog.Logger) (preferences.Repository, func(), error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		repo, err := preferences.NewSQLiteRepository(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("sqlite preferences store opened")
		return repo, func() { _ = db.Close() }, nil

	case config.BackendPostgres:
		pool, err := database.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		repo := preferences.NewPostgresRepository(pool)
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info().
			Str("host", cfg.Postgres.Host).
			Int("port", cfg.Postgres.Port).
			Str("database", cfg.Postgres.Database).
			Msg("database connected")
		return repo, pool.Close, nil

	case config.BackendRedis:
		repo, err := preferences.NewRedisRepository(ctx, preferences.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("redis preferences store connected")
		return repo, func() { _ = repo.Close() }, nil

	case config.BackendMemory, "":
		log.Warn().Msg("preferences are kept in memory and lost on restart")
		return preferences.NewInMemoryRepository(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown preferences backend %q", cfg.Backend)
	}
}

func preferencesPersister(repo preferences.Repository, store *dashboard.Store, log zerolog.Logger) *preferences.Persister {
	return preferences.NewPersister(preferences.PersisterConfig{
		Repository: repo,
		Store:      store,
		Logger:     log,
	})
}

// buildNotifiers returns the alert notifiers enabled by cfg. Optional
// notifiers that fail to start are logged and skipped.
func buildNotifiers(ctx context.Context, cfg config.Config, log zerolog.Logger) ([]notify.Notifier, func()) {
	notifiers := []notify.Notifier{notify.NewLogNotifier(log)}
	closers := []func(){}

	if cfg.Telegram.Enabled() {
		tg, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			log.Error().Err(err).Msg("telegram notifier disabled")
		} else {
			notifiers = append(notifiers, tg)
			log.Info().Int64("chat_id", cfg.Telegram.ChatID).Msg("telegram notifier enabled")
		}
	}

	if cfg.PubSub.Enabled() && cfg.PubSub.AlertTopic != "" {
		ps, err := notify.NewPubSubNotifier(ctx, cfg.PubSub.ProjectID, cfg.PubSub.AlertTopic)
		if err != nil {
			log.Error().Err(err).Msg("pubsub notifier disabled")
		} else {
			notifiers = append(notifiers, ps)
			closers = append(closers, func() { _ = ps.Close() })
			log.Info().Str("topic", cfg.PubSub.AlertTopic).Msg("pubsub alert notifier enabled")
		}
	}

	return notifiers, func() {
		for _, c := range closers {
			c()
		}
	}
}
