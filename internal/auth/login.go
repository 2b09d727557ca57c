package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gyeo009/lookback-Backend/internal/db"
	"github.com/gyeo009/lookback-Backend/internal/events"
	"github.com/gyeo009/lookback-Backend/internal/google"
	"github.com/gyeo009/lookback-Backend/internal/logging"
	"github.com/gyeo009/lookback-Backend/internal/metrics"
	"github.com/gyeo009/lookback-Backend/internal/validation"
)

// TokenExchanger trades an authorization code for an access token.
type TokenExchanger interface {
	Exchange(ctx context.Context, code string) (*google.TokenInfo, error)
}

// ProfileFetcher reads the profile of the owner of an access token.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, accessToken string) (*google.UserProfile, error)
}

// CalendarPersister stores, or queues the storing of, a user's calendar list.
type CalendarPersister interface {
	Persist(ctx context.Context, accessToken, email string) error
}

// UserRepository is implemented by *Accounts.
type UserRepository interface {
	GetOrCreate(ctx context.Context, email, name, googleID string) (*db.User, bool, error)
}

// EventSender is implemented by *events.Emitter.
type EventSender interface {
	SendEvent(ctx context.Context, eventType, subject string, data any) error
}

// Result is a successful login.
type Result struct {
	IsNewUser bool
	Email     string
	Name      string
	Picture   string
}

// Service runs the login flow.
type Service struct {
	tokens        TokenExchanger
	profiles      ProfileFetcher
	calendar      CalendarPersister
	calendarAsync bool
	users         UserRepository
	events        EventSender
}

// ServiceConfig wires a Service.
type ServiceConfig struct {
	Tokens   TokenExchanger
	Profiles ProfileFetcher
	Calendar CalendarPersister
	// CalendarAsync means Calendar only queues work, so its errors never fail a login.
	CalendarAsync bool
	Users         UserRepository
	Events        EventSender // optional
}

// NewService creates a login Service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		tokens:        cfg.Tokens,
		profiles:      cfg.Profiles,
		calendar:      cfg.Calendar,
		calendarAsync: cfg.CalendarAsync,
		users:         cfg.Users,
		events:        cfg.Events,
	}
}

// Login exchanges code, fetches the profile, persists the calendar list and
// gets or creates the user. Failures are returned as *Error.
func (s *Service) Login(ctx context.Context, code string) (*Result, error) {
	token, err := s.tokens.Exchange(ctx, code)
	if err != nil {
		return nil, classify(err)
	}

	profile, err := s.profiles.FetchProfile(ctx, token.AccessToken)
	if err != nil {
		return nil, classify(err)
	}
	if err := validation.Email(profile.Email); err != nil {
		return nil, &Error{Kind: KindInternal, Err: fmt.Errorf("unusable Google profile: %w", err)}
	}
	ctx = logging.WithUserEmail(ctx, profile.Email)

	if err := s.calendar.Persist(ctx, token.AccessToken, profile.Email); err != nil {
		if !s.calendarAsync {
			return nil, &Error{Kind: KindInternal, Err: fmt.Errorf("failed to store calendar list: %w", err)}
		}
		slog.WarnContext(ctx, "Calendar list not queued", "err", err)
	}

	user, created, err := s.users.GetOrCreate(ctx, profile.Email, profile.Name, profile.ID)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Err: err}
	}

	if created {
		metrics.UsersCreated.Inc()
		s.emitUserCreated(ctx, user)
	}

	return &Result{
		IsNewUser: created,
		Email:     user.Email,
		Name:      user.FullName,
		Picture:   profile.Picture,
	}, nil
}

func (s *Service) emitUserCreated(ctx context.Context, user *db.User) {
	if s.events == nil {
		return
	}
	data := events.UserCreated{
		UserID:   user.ID,
		Email:    user.Email,
		Name:     user.FullName,
		GoogleID: user.GoogleID,
	}
	if err := s.events.SendEvent(ctx, events.UserCreatedType, user.Email, data); err != nil {
		slog.WarnContext(ctx, "Failed to emit user created event", "err", err)
	}
}
