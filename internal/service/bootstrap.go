package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-sessions/internal/config"
	"github.com/iliyamo/cinema-sessions/internal/model"
	"github.com/iliyamo/cinema-sessions/internal/persistence"
	"github.com/iliyamo/cinema-sessions/internal/repository"
)

// RegistryOptions turns the seat grid and conflict scope settings into
// registry options.
func RegistryOptions(cfg config.Config) ([]repository.Option, error) {
	scope, err := repository.ParseConflictScope(cfg.ConflictScope)
	if err != nil {
		return nil, err
	}
	return []repository.Option{
		repository.WithSeatGrid(cfg.SeatRows, cfg.SeatCols),
		repository.WithConflictScope(scope),
	}, nil
}

// Open builds a Cinema from configuration and restores its state. rdb may
// be nil unless the redis driver is selected. A corrupt snapshot fails the
// call unless cfg.AllowEmptyOnCorrupt is set.
func Open(ctx context.Context, cfg config.Config, rdb *redis.Client, log logrus.FieldLogger) (*Cinema, error) {
	opts, err := RegistryOptions(cfg)
	if err != nil {
		return nil, err
	}
	store, err := persistence.Open(ctx, cfg, rdb, log)
	if err != nil {
		return nil, err
	}

	var pub Publisher = NopPublisher{}
	if cfg.EventsEnabled {
		pub = NewAMQPPublisher(cfg.RabbitURL, log)
	}

	c := New(store, Options{
		Registry:  opts,
		Autosave:  cfg.Autosave,
		Publisher: pub,
		Logger:    log.WithField("store", cfg.StoreDriver),
	})
	if err := c.Restore(ctx); err != nil {
		if !errors.Is(err, model.ErrCorruptData) || !cfg.AllowEmptyOnCorrupt {
			_ = store.Close()
			return nil, fmt.Errorf("restore: %w", err)
		}
		log.WithError(err).Warn("snapshot is corrupt; starting empty")
	}
	return c, nil
}
