package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v3"
)

// BadgerStore keeps calendar lists in an embedded Badger database.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a store in dir. An empty dir opens an in-memory store.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", dir, err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Put(ctx context.Context, list *List) error {
	value, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode calendar list: %w", err)
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(Key(list.Email)), value)
	}); err != nil {
		return fmt.Errorf("failed to store calendar list for %s: %w", list.Email, err)
	}
	return nil
}

func (s *BadgerStore) Get(ctx context.Context, email string) (*List, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(Key(email)))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar list for %s: %w", email, err)
	}

	var list List
	if err := json.Unmarshal(value, &list); err != nil {
		return nil, fmt.Errorf("failed to decode calendar list for %s: %w", email, err)
	}
	return &list, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// badgerLogger routes badger's internal logging to slog.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (badgerLogger) Warningf(format string, args ...any) {
	slog.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (badgerLogger) Infof(format string, args ...any) {
	slog.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (badgerLogger) Debugf(format string, args ...any) {}
