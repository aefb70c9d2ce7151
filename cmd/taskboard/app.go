package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"github.com/taskboard/taskboard-api/internal/api"
	"github.com/taskboard/taskboard-api/internal/api/handler"
	"github.com/taskboard/taskboard-api/internal/core/ports"
	"github.com/taskboard/taskboard-api/internal/core/service"
	mongodb "github.com/taskboard/taskboard-api/internal/infrastructure/db/mongo"
	redisdb "github.com/taskboard/taskboard-api/internal/infrastructure/db/redis"
	"github.com/taskboard/taskboard-api/internal/infrastructure/queue"
	"github.com/taskboard/taskboard-api/internal/infrastructure/realtime"
	"github.com/taskboard/taskboard-api/internal/pkg/config"
	"github.com/taskboard/taskboard-api/pkg/logger"
)

// app owns every long-lived resource of the serve command.
type app struct {
	cfg *config.Config
	log zerolog.Logger

	mongo       *mongo.Client
	redis       *goredis.Client
	hub         *realtime.Hub
	dispatcher  *queue.Dispatcher
	broadcaster *redisdb.Broadcaster
	server      *echo.Echo
}

// newApp connects to the store (and Redis for the redis backend) and wires
// the services. It fails when a dependency is unreachable.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, log: logger.Component("app")}

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return nil, err
	}
	a.mongo = client

	if err := ensureIndexes(ctx, db); err != nil {
		a.close(ctx)
		return nil, err
	}

	checks := map[string]handler.Check{
		"mongodb": func(ctx context.Context) error { return mongodb.Ping(ctx, db) },
	}

	a.hub = realtime.NewHub(cfg.Realtime.SubscriberBuffer, logger.Component("realtime"))

	var (
		backend ports.EventPublisher = a.hub
		cache   service.RegistrationCache
	)
	if cfg.Realtime.Backend == config.BackendRedis {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			Password: cfg.Redis.Password,
		})
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		a.redis = rdb
		a.broadcaster = redisdb.NewBroadcaster(rdb, cfg.Realtime.Channel, logger.Component("broadcast"))
		backend = a.broadcaster
		cache = redisdb.NewRegistrationCache(rdb)
		checks["redis"] = func(ctx context.Context) error { return redisdb.Ping(ctx, rdb) }
	}

	a.dispatcher = queue.NewDispatcher(backend, logger.Component("dispatcher"))

	tasks := service.NewTaskService(mongodb.NewTaskRepository(db), a.dispatcher, logger.Component("tasks"))
	users := service.NewUserRegistry(mongodb.NewUserRepository(db), cache, logger.Component("users"))

	a.server = api.NewRouter(api.Dependencies{
		Tasks:       tasks,
		Users:       users,
		Realtime:    a.hub,
		Checks:      checks,
		CORSOrigins: cfg.CORSOrigins(),
		Log:         logger.Component("http"),
	})

	return a, nil
}

// run serves until ctx is cancelled or a component fails, then shuts down.
// The dispatcher outlives the HTTP server so requests still draining during
// Shutdown can broadcast their events.
func (a *app) run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	dispatchCtx, stopDispatch := context.WithCancel(context.WithoutCancel(ctx))
	defer stopDispatch()
	dispatched := make(chan struct{})

	g.Go(func() error {
		defer close(dispatched)
		return a.dispatcher.Run(dispatchCtx)
	})

	if a.broadcaster != nil {
		g.Go(func() error {
			return a.broadcaster.Relay(gctx, a.hub)
		})
	}

	g.Go(func() error {
		addr := ":" + a.cfg.Port
		a.log.Info().Str("addr", addr).Str("broadcast", a.cfg.Realtime.Backend).Msg("http server listening")
		if err := a.server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.ShutdownTimeout)
		defer cancel()

		err := a.server.Shutdown(shutdownCtx)

		stopDispatch()
		<-dispatched
		a.hub.Close()

		if err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func (a *app) close(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("redis close")
		}
	}
	if a.mongo != nil {
		if err := a.mongo.Disconnect(ctx); err != nil {
			a.log.Warn().Err(err).Msg("mongo disconnect")
		}
	}
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := mongodb.NewTaskRepository(db).EnsureIndexes(ctx); err != nil {
		return err
	}
	return mongodb.NewUserRepository(db).EnsureIndexes(ctx)
}
