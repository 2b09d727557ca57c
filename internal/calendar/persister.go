package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gyeo009/lookback-Backend/internal/events"
)

// EventSender publishes domain events. Implemented by *events.Emitter.
type EventSender interface {
	SendEvent(ctx context.Context, eventType, subject string, data any) error
}

// Persister reads a user's calendar list from Google and writes it to the store.
type Persister struct {
	lister Lister
	store  Store
	events EventSender
	now    func() time.Time
}

// NewPersister creates a Persister. events may be nil.
func NewPersister(lister Lister, store Store, sender EventSender) *Persister {
	return &Persister{
		lister: lister,
		store:  store,
		events: sender,
		now:    time.Now,
	}
}

// Persist stores the current calendar list for email, replacing any earlier one.
func (p *Persister) Persist(ctx context.Context, accessToken, email string) error {
	entries, err := p.lister.ListCalendars(ctx, accessToken)
	if err != nil {
		return err
	}

	list := &List{
		Email:     email,
		FetchedAt: p.now().UTC(),
		Items:     entries,
	}
	if list.Items == nil {
		list.Items = []Entry{}
	}

	if err := p.store.Put(ctx, list); err != nil {
		return fmt.Errorf("failed to persist calendar list: %w", err)
	}

	slog.InfoContext(ctx, "Calendar list stored", "calendars", len(list.Items))

	if p.events != nil {
		data := events.CalendarListStored{Email: email, Calendars: len(list.Items), FetchedAt: list.FetchedAt}
		if err := p.events.SendEvent(ctx, events.CalendarListStoredType, email, data); err != nil {
			slog.WarnContext(ctx, "Failed to emit calendar list event", "err", err)
		}
	}

	return nil
}
