package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-sessions/internal/cli"
	"github.com/iliyamo/cinema-sessions/internal/config"
	"github.com/iliyamo/cinema-sessions/internal/service"
)

func main() {
	cfg, err := config.Load()
	log := config.NewLogger(cfg)
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if os.Getenv("LOG_LEVEL") == "" {
		log.SetLevel(logrus.WarnLevel)
	}
	// The CLI saves once per command.
	cfg.Autosave = false
	cfg.EventsEnabled = false

	opts, err := service.RegistryOptions(cfg)
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	app := &cli.App{
		Registry: opts,
		Open: func(ctx context.Context) (*service.Cinema, error) {
			if cfg.StoreDriver != "redis" {
				return service.Open(ctx, cfg, nil, log)
			}
			rdb, err := config.NewRedisClient(config.LoadRedisConfig())
			if err != nil {
				return nil, err
			}
			c, err := service.Open(ctx, cfg, rdb, log)
			if err != nil {
				_ = rdb.Close()
				return nil, err
			}
			// The redis store leaves the client open; the command owns it.
			c.AddCloser(rdb)
			return c, nil
		},
	}

	if err := cli.NewRootCmd(app).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, service.ErrInvalidInput) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
