package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"                   // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // request logging and panic recovery
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-sessions/internal/config" // Internal config loader
	"github.com/iliyamo/cinema-sessions/internal/handler"
	"github.com/iliyamo/cinema-sessions/internal/middleware"
	"github.com/iliyamo/cinema-sessions/internal/queue"
	"github.com/iliyamo/cinema-sessions/internal/router" // Internal router setup
	"github.com/iliyamo/cinema-sessions/internal/service"
)

func main() {
	cfg, err := config.Load() // Load environment config
	log := config.NewLogger(cfg)
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis is optional unless it stores the snapshot.
	var rdb *redis.Client
	if c, err := config.NewRedisClient(config.LoadRedisConfig()); err != nil {
		if cfg.StoreDriver == "redis" {
			log.WithError(err).Fatal("redis store selected but redis is unavailable")
		}
		log.WithError(err).Warn("redis unavailable; booking rate limit disabled")
	} else {
		rdb = c
		defer func() { _ = rdb.Close() }()
	}

	cinema, err := service.Open(ctx, cfg, rdb, log)
	if err != nil {
		log.WithError(err).Fatal("could not open cinema state")
	}
	defer func() {
		if err := cinema.Close(); err != nil {
			log.WithError(err).Warn("close store")
		}
	}()

	if cfg.EventsEnabled {
		go func() {
			if err := queue.StartEventConsumer(ctx, cfg.RabbitURL, cfg.EventLogPath, log); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("event consumer stopped")
			}
		}()
	}
	if !cfg.AuthEnabled() {
		log.Warn("JWT_SECRET or ADMIN_PASSWORD_HASH unset; operator routes are disabled")
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.WithField("method", v.Method).WithField("uri", v.URI).WithField("status", v.Status).Info("request")
			return nil
		},
	}))

	h := handler.NewCinemaHandler(cinema, log)
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log)
	jwtSecret := ""
	if cfg.AuthEnabled() {
		jwtSecret = cfg.JWTSecret
	}
	router.RegisterRoutes(e) // Register application routes
	router.RegisterPublic(e, h, limiter)
	router.RegisterAdmin(e, handler.NewAuthHandler(cfg), h, jwtSecret)

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.WithField("addr", addr).WithField("env", cfg.Env).WithField("store", cfg.StoreDriver).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server failed")
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown")
	}
	if err := cinema.Save(shutdownCtx); err != nil {
		log.WithError(err).Error("final snapshot failed")
	}
	log.Info("stopped")
}
