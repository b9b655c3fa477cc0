package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-sessions/internal/repository"
)

var badgerSnapshotKey = []byte("snapshot")

// BadgerStore keeps the document in an embedded Badger database. An empty
// dir opens an in-memory database.
type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(dir string, log logrus.FieldLogger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	if log != nil {
		opts = opts.WithLogger(log)
	} else {
		opts = opts.WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (b *BadgerStore) Save(_ context.Context, s *Snapshot) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerSnapshotKey, data)
	})
}

func (b *BadgerStore) Load(_ context.Context, opts ...repository.Option) (*Snapshot, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerSnapshotKey)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("read badger snapshot: %w", err)
	}
	return Decode(data, opts...)
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}
