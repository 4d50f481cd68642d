// Package bootstrap wires the dashboard services from configuration. The HTTP
// server and the command line tool share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	appcatalog "github.com/Fiarr4ikDev/DiplomForXenon/internal/application/catalog"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/application/dashboard"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/application/form"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/application/importer"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/application/notify"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/application/session"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/application/settings"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/catalog"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/apiclient"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/cache"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/config"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/event"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/persistence"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/storage"
)

// Container holds the wired services
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	DB        *persistence.Database
	Store     *persistence.LocalStore
	Client    *apiclient.Client
	Queries   *cache.QueryClient
	Bus       *event.InMemoryEventBus
	Notifier  *notify.Notifier
	Session   *session.Manager
	Settings  *settings.Service
	Pages     *appcatalog.Pages
	Importer  *importer.Service
	Dashboard *dashboard.Dashboard

	// Sink is nil when neither S3 nor a local export directory is configured
	Sink storage.ExportSink

	// Relay is nil unless Redis is enabled
	Relay *cache.RedisInvalidationRelay
}

// New builds the services. The stored session is restored before returning.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: log}

	db, err := persistence.NewDatabase(&cfg.Storage)
	if err != nil {
		return nil, err
	}
	c.DB = db
	c.Store = persistence.NewLocalStore(db.DB)

	c.Notifier = notify.NewNotifier(
		notify.WithTTL(cfg.Notify.MutationTTL, cfg.Notify.SettingsTTL),
		notify.WithLogger(log),
	)
	validator := form.NewValidator()

	c.Session = session.NewManager(c.Store, nil,
		session.WithNotifier(c.Notifier),
		session.WithLogger(log),
		session.WithValidator(validator),
	)
	client, err := apiclient.New(cfg.API.BaseURL,
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithRetryConfig(apiclient.RetryConfig{
			MaxRetries: cfg.API.MaxRetries,
			RetryDelay: cfg.API.RetryDelay,
			MaxDelay:   10 * cfg.API.RetryDelay,
			Multiplier: 2,
		}),
		apiclient.WithTokenSource(c.Session),
		apiclient.WithLogger(log),
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}
	c.Client = client
	c.Session.SetAuth(client.Auth())
	if _, err := c.Session.Restore(ctx); err != nil {
		log.Warn("Failed to restore session", zap.Error(err))
	}

	c.Settings = settings.NewService(c.Store,
		settings.WithNotifier(c.Notifier),
		settings.WithLogger(log),
		settings.WithValidator(validator),
	)

	c.Queries = cache.NewQueryClient(
		cache.WithRetry(cfg.Cache.RetryCount, cfg.Cache.RetryDelay),
		cache.WithLogger(log),
	)
	c.Bus = event.NewInMemoryEventBus(log)
	c.Bus.Subscribe(cache.NewInvalidationHandler(c.Queries), catalog.EventTypeCollectionChanged)

	if cfg.Redis.Enabled {
		relay, err := cache.NewRedisInvalidationRelay(cache.RedisConfig{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, c.Bus, cache.WithRelayChannel(cfg.Redis.Channel), cache.WithRelayLogger(log))
		if err != nil {
			log.Warn("Redis invalidation relay disabled", zap.Error(err))
		} else {
			c.Relay = relay
			c.Bus.Subscribe(relay, catalog.EventTypeCollectionChanged)
		}
	}

	c.Pages = appcatalog.NewPages(client, appcatalog.Deps{
		Queries:   c.Queries,
		Publisher: c.Bus,
		Notifier:  c.Notifier,
		Validator: validator,
		Logger:    log,
	})
	c.Importer = importer.NewService(importer.Schemas(importer.Backend{
		Parts:      client.Parts(),
		Categories: client.Categories(),
		Suppliers:  client.Suppliers(),
		Inventory:  client.Inventory(),
	}),
		importer.WithPublisher(c.Bus),
		importer.WithNotifier(c.Notifier),
		importer.WithLogger(log),
	)
	c.Dashboard = dashboard.New(c.Queries, client.Metrics(), c.Settings, dashboard.WithLogger(log))

	sink, err := newSink(ctx, cfg, log)
	if err != nil {
		log.Warn("Export storage disabled", zap.Error(err))
	}
	c.Sink = sink

	return c, nil
}

func newSink(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.ExportSink, error) {
	if cfg.Export.S3Enabled {
		s3, err := storage.NewS3ExportSink(&cfg.Export, storage.WithLogger(log))
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := s3.EnsureBucket(ctx); err != nil {
			log.Warn("Export bucket check failed", zap.String("bucket", s3.Bucket()), zap.Error(err))
		}
		return s3, nil
	}
	if cfg.Export.LocalDir != "" {
		local, err := storage.NewLocalExportSink(cfg.Export.LocalDir)
		if err != nil {
			return nil, err
		}
		return local, nil
	}
	return nil, nil
}

// Close releases the services in reverse order of creation
func (c *Container) Close() error {
	var errs []error
	if c.Dashboard != nil {
		c.Dashboard.Close()
	}
	if c.Relay != nil {
		errs = append(errs, c.Relay.Close())
	}
	if c.Queries != nil {
		c.Queries.Close()
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
