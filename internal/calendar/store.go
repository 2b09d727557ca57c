// Package calendar persists a user's Google calendar list into a key-value store.
package calendar

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Store.Get when no list is stored for an email.
var ErrNotFound = errors.New("calendar list not found")

// Entry is one calendar from the user's calendar list.
type Entry struct {
	ID              string `json:"id"`
	Summary         string `json:"summary"`
	Description     string `json:"description,omitempty"`
	TimeZone        string `json:"time_zone,omitempty"`
	Primary         bool   `json:"primary"`
	AccessRole      string `json:"access_role,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
}

// List is the stored value.
type List struct {
	Email     string    `json:"email"`
	FetchedAt time.Time `json:"fetched_at"`
	Items     []Entry   `json:"items"`
}

// Store is the calendar key-value store. Put overwrites any earlier list.
type Store interface {
	Put(ctx context.Context, list *List) error
	Get(ctx context.Context, email string) (*List, error)
	Close() error
}

// Key returns the store key for an email.
func Key(email string) string {
	return "calendar_list/" + email
}
