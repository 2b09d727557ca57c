package calendar

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Lister reads the calendar list of the owner of an access token.
type Lister interface {
	ListCalendars(ctx context.Context, accessToken string) ([]Entry, error)
}

// GoogleLister calls calendarList.list on the Google Calendar API.
type GoogleLister struct {
	base     *http.Client
	endpoint string
}

// NewGoogleLister creates a lister. endpoint overrides the API base URL and may be empty.
func NewGoogleLister(base *http.Client, endpoint string) *GoogleLister {
	if base == nil {
		base = http.DefaultClient
	}
	return &GoogleLister{base: base, endpoint: endpoint}
}

func (l *GoogleLister) ListCalendars(ctx context.Context, accessToken string) ([]Entry, error) {
	client := &http.Client{
		Timeout: l.base.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}),
			Base:   l.base.Transport,
		},
	}

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if l.endpoint != "" {
		opts = append(opts, option.WithEndpoint(l.endpoint))
	}

	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	var entries []Entry
	err = svc.CalendarList.List().Pages(ctx, func(page *gcal.CalendarList) error {
		for _, item := range page.Items {
			entries = append(entries, Entry{
				ID:              item.Id,
				Summary:         item.Summary,
				Description:     item.Description,
				TimeZone:        item.TimeZone,
				Primary:         item.Primary,
				AccessRole:      item.AccessRole,
				BackgroundColor: item.BackgroundColor,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	return entries, nil
}
