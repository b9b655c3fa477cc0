package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-sessions/internal/config"
	"github.com/iliyamo/cinema-sessions/internal/database"
	"github.com/iliyamo/cinema-sessions/internal/repository"
)

// ErrNoSnapshot is returned by Load when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

// Store saves and restores snapshots. Load fails with ErrNoSnapshot on
// empty storage and with model.ErrCorruptData on unreadable content.
type Store interface {
	Save(ctx context.Context, s *Snapshot) error
	Load(ctx context.Context, opts ...repository.Option) (*Snapshot, error)
	Close() error
}

// Open builds the Store selected by cfg.StoreDriver. rdb is only needed for
// the redis driver.
func Open(ctx context.Context, cfg config.Config, rdb *redis.Client, log logrus.FieldLogger) (Store, error) {
	switch strings.ToLower(cfg.StoreDriver) {
	case "", "file":
		return NewFileStore(cfg.DataFile), nil
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		if rdb == nil {
			return nil, errors.New("redis store selected but redis is unavailable")
		}
		return NewRedisStore(rdb, cfg.SnapshotKey), nil
	case "badger":
		return NewBadgerStore(cfg.BadgerDir, log)
	case "mysql":
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate mysql: %w", err)
		}
		return NewMySQLStore(db), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// MemoryStore keeps the encoded document in memory.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Save(_ context.Context, s *Snapshot) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Load(_ context.Context, opts ...repository.Option) (*Snapshot, error) {
	m.mu.Lock()
	data := m.data
	m.mu.Unlock()
	if data == nil {
		return nil, ErrNoSnapshot
	}
	return Decode(data, opts...)
}

// Bytes returns the last saved document.
func (m *MemoryStore) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}

func (m *MemoryStore) Close() error { return nil }
