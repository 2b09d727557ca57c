package calendar

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeo009/lookback-Backend/internal/events"
)

type listerFunc func(ctx context.Context, accessToken string) ([]Entry, error)

func (f listerFunc) ListCalendars(ctx context.Context, accessToken string) ([]Entry, error) {
	return f(ctx, accessToken)
}

type memStore struct {
	mu    sync.Mutex
	lists map[string]*List
	err   error
}

func newMemStore() *memStore { return &memStore{lists: map[string]*List{}} }

func (s *memStore) Put(ctx context.Context, list *List) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.lists[list.Email] = list
	return nil
}

func (s *memStore) Get(ctx context.Context, email string) (*List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.lists[email]
	if !ok {
		return nil, ErrNotFound
	}
	return list, nil
}

func (s *memStore) Close() error { return nil }

type recordedEvent struct {
	eventType, subject string
	data               any
}

type recordingSender struct {
	events []recordedEvent
	err    error
}

func (r *recordingSender) SendEvent(ctx context.Context, eventType, subject string, data any) error {
	r.events = append(r.events, recordedEvent{eventType, subject, data})
	return r.err
}

func TestPersister_Persist(t *testing.T) {
	store := newMemStore()
	sender := &recordingSender{}
	lister := listerFunc(func(ctx context.Context, accessToken string) ([]Entry, error) {
		assert.Equal(t, "tok", accessToken)
		return []Entry{{ID: "a@x.com", Summary: "A", Primary: true}}, nil
	})

	p := NewPersister(lister, store, sender)
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	require.NoError(t, p.Persist(context.Background(), "tok", "a@x.com"))

	got, err := store.Get(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, fixed, got.FetchedAt)
	assert.Len(t, got.Items, 1)

	require.Len(t, sender.events, 1)
	assert.Equal(t, events.CalendarListStoredType, sender.events[0].eventType)
	assert.Equal(t, "a@x.com", sender.events[0].subject)
	assert.Equal(t, 1, sender.events[0].data.(events.CalendarListStored).Calendars)
}

func TestPersister_EmptyListStoredAsEmptyArray(t *testing.T) {
	store := newMemStore()
	p := NewPersister(listerFunc(func(ctx context.Context, accessToken string) ([]Entry, error) {
		return nil, nil
	}), store, nil)

	require.NoError(t, p.Persist(context.Background(), "tok", "a@x.com"))
	got, _ := store.Get(context.Background(), "a@x.com")
	assert.NotNil(t, got.Items)
}

func TestPersister_Failures(t *testing.T) {
	t.Run("lister error", func(t *testing.T) {
		store := newMemStore()
		p := NewPersister(listerFunc(func(ctx context.Context, accessToken string) ([]Entry, error) {
			return nil, errors.New("calendar api down")
		}), store, nil)

		assert.ErrorContains(t, p.Persist(context.Background(), "tok", "a@x.com"), "calendar api down")
		assert.Empty(t, store.lists)
	})

	t.Run("store error", func(t *testing.T) {
		store := newMemStore()
		store.err = errors.New("disk full")
		sender := &recordingSender{}
		p := NewPersister(listerFunc(func(ctx context.Context, accessToken string) ([]Entry, error) {
			return []Entry{}, nil
		}), store, sender)

		assert.ErrorContains(t, p.Persist(context.Background(), "tok", "a@x.com"), "disk full")
		assert.Empty(t, sender.events)
	})

	t.Run("event error is not fatal", func(t *testing.T) {
		p := NewPersister(listerFunc(func(ctx context.Context, accessToken string) ([]Entry, error) {
			return []Entry{}, nil
		}), newMemStore(), &recordingSender{err: errors.New("queue down")})

		assert.NoError(t, p.Persist(context.Background(), "tok", "a@x.com"))
	})
}
