package cmd

import (
	"context"
	"errors"
	"fmt"

	"ticketing-sync/core/broker"
	"ticketing-sync/core/config"
	"ticketing-sync/core/database"
	"ticketing-sync/core/httpclient"
	"ticketing-sync/core/lock"
	"ticketing-sync/core/logger"
	coreredis "ticketing-sync/core/redis"
	"ticketing-sync/core/storage"
	"ticketing-sync/feature/ticketing/providers"
	"ticketing-sync/feature/ticketing/providers/factory"
	"ticketing-sync/feature/ticketing/snapshot"
	"ticketing-sync/feature/ticketing/store"
	"ticketing-sync/feature/ticketing/synchronizer"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// application holds the wired components shared by the commands.
type application struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
	sync   *synchronizer.Synchronizer

	closers []func() error
}

// loadConfigAndLogger is the first step of every command.
func loadConfigAndLogger() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(l)

	return cfg, l, nil
}

// openStore connects to the ledger database.
func openStore(cfg *config.Config, l *zap.Logger) (*store.Store, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	l.Info("Connected to database", zap.String("driver", db.Dialector.Name()))
	return store.New(db, l), nil
}

// bootstrap wires the synchronizer and its optional collaborators.
func bootstrap(ctx context.Context) (*application, error) {
	cfg, l, err := loadConfigAndLogger()
	if err != nil {
		return nil, err
	}

	app := &application{cfg: cfg, logger: l}

	st, err := openStore(cfg, l)
	if err != nil {
		return nil, err
	}
	app.store = st
	if sqlDB, err := st.DB().DB(); err == nil {
		app.closers = append(app.closers, sqlDB.Close)
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = coreredis.New(ctx, cfg.Redis)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.closers = append(app.closers, rdb.Close)
	}

	locker, err := lock.New(cfg.Sync.LockBackend, st.DB(), rdb, lock.RedisConfig{TTL: cfg.Redis.LockTTL()})
	if err != nil {
		app.Close()
		return nil, err
	}

	var archiver snapshot.Archiver = snapshot.Nop{}
	if cfg.Storage.Enabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			app.Close()
			return nil, err
		}
		if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
			app.Close()
			return nil, err
		}
		archiver = snapshot.NewStorageArchiver(client, cfg.Storage.Bucket, cfg.Sync.SnapshotPrefix, cfg.Sync.SnapshotRetention, l)
		l.Info("Snapshot archiving enabled", zap.String("bucket", cfg.Storage.Bucket))
	}

	publisher, err := broker.New(cfg.Broker)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.closers = append(app.closers, publisher.Close)

	builder := factory.New(httpclient.New(cfg.Sync.HTTPTimeout()), l)
	clients := providers.NewClientCache(cfg.Sync.ClientCacheTTL(), builder.Build)

	app.sync = synchronizer.New(cfg.Sync, synchronizer.Deps{
		Store:     st,
		Locker:    locker,
		Clients:   clients,
		Archiver:  archiver,
		Publisher: publisher,
		Logger:    l,
	})

	return app, nil
}

// Close releases connections in reverse order of opening.
func (a *application) Close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("Failed to release resources", zap.Error(err))
	}
	_ = a.logger.Sync()
}
