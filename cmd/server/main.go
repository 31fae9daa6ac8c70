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

	"github.com/nats-io/nats.go"
	"github.com/symph-co/shorturl/config"
	appmodel "github.com/symph-co/shorturl/internal/app/model"
	apprepository "github.com/symph-co/shorturl/internal/app/repository"
	appserver "github.com/symph-co/shorturl/internal/app/server"
	appservice "github.com/symph-co/shorturl/internal/app/service"
	"github.com/symph-co/shorturl/internal/infra/logger"
	infraNATS "github.com/symph-co/shorturl/internal/infra/nats"
	infraPostgres "github.com/symph-co/shorturl/internal/infra/postgres"
	infraPrometheus "github.com/symph-co/shorturl/internal/infra/prometheus"
	infraRedis "github.com/symph-co/shorturl/internal/infra/redis"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Must(logger.Config{
		Development: cfg.App.Development(),
		Level:       cfg.App.LogLevel,
		Service:     "shorturl",
	})
	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", zap.Error(err))
		_ = logger.Sync(log)
		os.Exit(1)
	}
	_ = logger.Sync(log)
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Configuration loaded",
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.App.Port),
		zap.String("short_url_base", cfg.App.ShortURLBase),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Int("redis_port", cfg.Redis.Port),
		zap.Bool("nats_enabled", cfg.NATS.Enabled),
	)

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres, log)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("access underlying sql db: %w", err)
	}
	defer sqlDB.Close()

	if err := infraPostgres.AutoMigrate(ctx, gormDB, &appmodel.Link{}, &appmodel.LinkEvent{}); err != nil {
		return err
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info("Connected to Postgres")

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	log.Info("Connected to Redis")

	store := apprepository.NewLinkStore(gormDB)
	links := apprepository.NewCachedLinkRepository(apprepository.CachedLinkDeps{
		Store:  store,
		Cache:  infraRedis.NewCache(redisClient),
		TTL:    cfg.App.CacheTTL,
		Logger: log,
	})

	var events appservice.EventPublisher
	if cfg.NATS.Enabled {
		natsConn, js, err := infraNATS.Connect(cfg.NATS)
		if err != nil {
			return err
		}
		defer drain(log, natsConn)

		if err := infraNATS.EnsureStream(js, appservice.LinkStreamConfig()); err != nil {
			return err
		}

		consumer := appservice.NewLinkEventConsumer(js, log, apprepository.NewLinkEventRepository(gormDB))
		if err := consumer.Start(ctx); err != nil {
			return err
		}
		events = appservice.NewLinkEventPublisher(js)
		log.Info("Link events enabled", zap.String("url", infraNATS.URL(cfg.NATS)))
	} else {
		log.Info("NATS disabled, link events are not published")
	}

	linkService := appservice.NewLinkService(appservice.Deps{
		Links:  links,
		Events: events,
		Slugs:  appservice.NewSlugGenerator(appservice.DefaultSlugGuardSize),
		Config: appservice.Config{
			ShortURLBase: cfg.App.ShortURLBase,
			DefaultPage:  cfg.App.PaginationPage,
			DefaultLimit: cfg.App.PaginationLimit,
		},
		Logger: log.Named("link_service"),
	})

	reporter := appservice.NewExpiryReporter(log, store, cfg.App.ExpiryScanInterval)
	reporter.Start()
	defer reporter.Stop()

	if cfg.Prometheus.Enabled {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server", zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	}

	server := appserver.New(appserver.Dependencies{
		Logger:   log,
		Postgres: pool,
		Redis:    redisClient,
		Links:    linkService,
	})

	listenErr := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.App.Port)
		log.Info("HTTP server listening", zap.String("addr", addr))
		listenErr <- server.Listen(addr)
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("fiber server exited: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to shut down HTTP server cleanly", zap.Error(err))
	}
	return nil
}

func drain(log *zap.Logger, conn *nats.Conn) {
	if err := conn.Drain(); err != nil {
		log.Warn("Failed to drain NATS connection", zap.Error(err))
	}
}
