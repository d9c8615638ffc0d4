// Package advileads собирает сервис: база, кэш, брокер, наблюдатели
// триала, крон истечения и HTTP API.
package advileads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/streadway/amqp"

	"github.com/advileads/advileads/internal/cache"
	"github.com/advileads/advileads/internal/config"
	"github.com/advileads/advileads/internal/http/handlers/health"
	"github.com/advileads/advileads/internal/http/middlewarectx"
	"github.com/advileads/advileads/internal/lib/jwt"
	"github.com/advileads/advileads/internal/lib/sl"
	"github.com/advileads/advileads/internal/migrations"
	"github.com/advileads/advileads/internal/notification"
	"github.com/advileads/advileads/internal/rabbitmq"
	"github.com/advileads/advileads/internal/services/billing"
	"github.com/advileads/advileads/internal/services/expiry"
	"github.com/advileads/advileads/internal/services/forumfeed"
	"github.com/advileads/advileads/internal/services/trialwatch"
	"github.com/advileads/advileads/internal/storage/repository"
	"github.com/advileads/advileads/internal/trial"
)

const shutdownTimeout = 15 * time.Second

// Бэкенды хранилища уведомлений.
const (
	BackendRedis  = "redis"
	BackendFile   = "file"
	BackendMemory = "memory"
)

type App struct {
	server  *http.Server
	logger  *slog.Logger
	db      *repository.Storage
	cache   *cache.Cache
	watcher *trialwatch.Watcher
	sweeper *expiry.Sweeper
	feed    *forumfeed.Feed

	amqpConn    *amqp.Connection
	consumeCh   *amqp.Channel
	publishCh   *amqp.Channel
	consumeDone <-chan struct{}
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	const op = "advileads.New"

	app := &App{logger: logger}
	defer func() {
		if err != nil {
			app.close()
		}
	}()

	app.db, err = repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(app.db.DB, cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = repository.CheckDatabaseReady(app.db); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	loc, err := cfg.Trial.Location()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	policy := trial.NewPolicy(trial.Options{
		DurationDays:     cfg.Trial.DurationDays,
		WarningDays:      cfg.Trial.WarningDays,
		ExpiringSoonDays: cfg.Trial.ExpiringSoonDays,
		Location:         loc,
	}, nil)

	factory, err := storageFactory(cfg.Notifications, app.cache)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	registry := notification.NewRegistry(factory, cfg.Notifications.KeyPrefix,
		cfg.Notifications.MaxRetained, logger, policy.Now)

	users := cache.NewUsers(app.db, app.cache, cfg.RedisConnection.UserTTL, logger)

	var publisher trialwatch.EventPublisher
	if !cfg.RabbitMQ.Disabled {
		if err = app.connectBroker(ctx, cfg.RabbitMQ); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		publisher = rabbitmq.NewPublisher(app.publishCh)
		app.feed = forumfeed.New(registry, logger)
	} else {
		logger.Warn("rabbitmq disabled, forum feed and marketing events are off")
	}

	var watchOpts []trialwatch.Option
	if !cfg.Expiry.Disabled {
		watchOpts = append(watchOpts, trialwatch.WithExpirySweep())
	}
	app.watcher = trialwatch.New(users, registry, publisher, policy, cfg.Trial.CheckInterval, logger, watchOpts...)

	if !cfg.Expiry.Disabled {
		app.sweeper, err = expiry.New(users, registry, policy, cfg.Expiry.Schedule, logger)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	router := NewRouter(logger, Routes{
		Tokens:        jwt.NewJWTMaker(cfg.JWTToken.JWTSecretKey, time.Hour),
		Users:         users,
		Sessions:      app.watcher,
		Notifications: registry,
		Policy:        policy,
		Billing:       billing.New(users, registry, cfg.Stripe.WebhookSecret, logger),
		Limiter:       middlewarectx.NewRateLimiter(cfg.HTTPServer.RateLimit, cfg.HTTPServer.RateBurst),
		Health:        app.healthChecks(),
	})

	app.server = &http.Server{
		Addr:         cfg.HTTPServer.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.TimeoutHTTP,
		WriteTimeout: cfg.HTTPServer.TimeoutHTTP,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}
	return app, nil
}

func storageFactory(cfg config.Notifications, redisCache *cache.Cache) (notification.StorageFactory, error) {
	switch cfg.Backend {
	case BackendRedis, "":
		return redisCache.NotificationFactory(), nil
	case BackendFile:
		return notification.FileFactory(cfg.FileDir), nil
	case BackendMemory:
		return notification.MemoryFactory(), nil
	default:
		return nil, fmt.Errorf("unknown notifications backend %q", cfg.Backend)
	}
}

func (a *App) connectBroker(ctx context.Context, cfg config.RabbitMQ) error {
	const op = "advileads.connectBroker"
	var err error

	a.amqpConn, err = rabbitmq.Connect(ctx, cfg.URL, cfg.MaxRetries, cfg.RetryDelay)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	a.consumeCh, err = rabbitmq.SetupChannel(a.amqpConn, rabbitmq.DefaultTopology())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	// публикация идет по отдельному каналу
	a.publishCh, err = a.amqpConn.Channel()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (a *App) healthChecks() map[string]health.Check {
	checks := map[string]health.Check{
		"postgres": func(ctx context.Context) error { return a.db.DB.PingContext(ctx) },
		"redis":    func(ctx context.Context) error { return a.cache.Db.Ping(ctx).Err() },
	}
	if a.amqpConn != nil {
		checks["rabbitmq"] = func(context.Context) error {
			if a.amqpConn.IsClosed() {
				return amqp.ErrClosed
			}
			return nil
		}
	}
	return checks
}

func (a *App) Run(ctx context.Context) error {
	const op = "advileads.Run"

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	if a.sweeper != nil {
		if err := a.sweeper.Start(runCtx); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if a.feed != nil {
		done, err := rabbitmq.ConsumerMessage(runCtx, a.consumeCh, rabbitmq.QueueForumNotifications, a.logger, a.feed.Handle)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		a.consumeDone = done
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.logger.Info("shutting down HTTP server gracefully")
	if err := a.server.Shutdown(timeoutCtx); err != nil {
		runErr = errors.Join(runErr, err)
	}
	stop()
	a.watcher.Shutdown()
	if a.sweeper != nil {
		a.sweeper.Stop(timeoutCtx)
	}
	if a.consumeDone != nil {
		select {
		case <-a.consumeDone:
		case <-timeoutCtx.Done():
			a.logger.Warn("forum consumer did not stop in time")
		}
	}
	a.close()
	return runErr
}

// close освобождает внешние соединения; безопасен для частично собранного App.
func (a *App) close() {
	if a.publishCh != nil {
		_ = a.publishCh.Close()
	}
	if a.consumeCh != nil {
		_ = a.consumeCh.Close()
	}
	if a.amqpConn != nil {
		if err := a.amqpConn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			a.logger.Warn("failed to close rabbitmq connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to close redis", sl.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close database", sl.Err(err))
		}
	}
}
