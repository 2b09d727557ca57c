package auth

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeo009/lookback-Backend/internal/db"
	"github.com/gyeo009/lookback-Backend/internal/events"
	"github.com/gyeo009/lookback-Backend/internal/google"
	"github.com/gyeo009/lookback-Backend/internal/testutils"
)

type fakeTokens struct {
	tokens map[string]string
	err    error
}

func (f *fakeTokens) Exchange(ctx context.Context, code string) (*google.TokenInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	tok, ok := f.tokens[code]
	if !ok {
		return nil, &google.Error{Op: "token exchange", StatusCode: 400, Err: errors.New(`oauth2: "invalid_grant"`)}
	}
	return &google.TokenInfo{AccessToken: tok, TokenType: "Bearer"}, nil
}

type fakeProfiles struct {
	profiles map[string]*google.UserProfile
	err      error
}

func (f *fakeProfiles) FetchProfile(ctx context.Context, accessToken string) (*google.UserProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[accessToken]
	if !ok {
		return nil, &google.Error{Op: "userinfo", StatusCode: 401, Err: errors.New("invalid credentials")}
	}
	return p, nil
}

type fakeCalendar struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeCalendar) Persist(ctx context.Context, accessToken, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, accessToken+"|"+email)
	return f.err
}

type fakeEvents struct {
	types []string
}

func (f *fakeEvents) SendEvent(ctx context.Context, eventType, subject string, data any) error {
	f.types = append(f.types, eventType)
	return nil
}

// memUsers is an in-memory users table behind the real Accounts repository.
func memUsers() (*testutils.MockQuerier, *int) {
	rows := map[string]db.User{}
	inserts := 0
	var mu sync.Mutex
	return &testutils.MockQuerier{
		GetUserByEmailFunc: func(ctx context.Context, email string) (db.User, error) {
			mu.Lock()
			defer mu.Unlock()
			u, ok := rows[email]
			if !ok {
				return db.User{}, sql.ErrNoRows
			}
			return u, nil
		},
		CreateUserFunc: func(ctx context.Context, arg db.CreateUserParams) (sql.Result, error) {
			mu.Lock()
			defer mu.Unlock()
			inserts++
			id := int64(len(rows) + 1)
			rows[arg.Email] = db.User{ID: id, Email: arg.Email, FullName: arg.FullName, GoogleID: arg.GoogleID, IsNewUser: arg.IsNewUser}
			return testutils.Result{LastID: id, Affected: 1}, nil
		},
	}, &inserts
}

type loginFixture struct {
	service  *Service
	calendar *fakeCalendar
	events   *fakeEvents
	inserts  *int
}

func newLoginFixture(async bool) *loginFixture {
	querier, inserts := memUsers()
	cal := &fakeCalendar{}
	ev := &fakeEvents{}
	svc := NewService(ServiceConfig{
		Tokens: &fakeTokens{tokens: map[string]string{"abc123": "tok", "def456": "tok2"}},
		Profiles: &fakeProfiles{profiles: map[string]*google.UserProfile{
			"tok":  {Email: "a@x.com", Name: "A", ID: "g1"},
			"tok2": {Email: "a@x.com", Name: "A renamed", ID: "g1", Picture: "https://lh3/p.png"},
		}},
		Calendar:      cal,
		CalendarAsync: async,
		Users:         NewAccounts(querier),
		Events:        ev,
	})
	return &loginFixture{service: svc, calendar: cal, events: ev, inserts: inserts}
}

func TestLogin_FirstLoginCreatesUser(t *testing.T) {
	f := newLoginFixture(true)

	result, err := f.service.Login(context.Background(), "abc123")
	require.NoError(t, err)

	assert.Equal(t, &Result{IsNewUser: true, Email: "a@x.com", Name: "A", Picture: ""}, result)
	assert.Equal(t, []string{"tok|a@x.com"}, f.calendar.calls)
	assert.Equal(t, 1, *f.inserts)
	assert.Equal(t, []string{events.UserCreatedType}, f.events.types)
}

func TestLogin_RepeatLoginReturnsStoredUser(t *testing.T) {
	f := newLoginFixture(true)

	_, err := f.service.Login(context.Background(), "abc123")
	require.NoError(t, err)

	result, err := f.service.Login(context.Background(), "def456")
	require.NoError(t, err)

	assert.False(t, result.IsNewUser)
	assert.Equal(t, "A", result.Name, "stored name is returned, not the new profile name")
	assert.Equal(t, "https://lh3/p.png", result.Picture, "picture comes from the profile")
	assert.Equal(t, 1, *f.inserts)
	assert.Len(t, f.calendar.calls, 2, "calendar list is refreshed on every login")
	assert.Len(t, f.events.types, 1)
}

func TestLogin_UpstreamFailures(t *testing.T) {
	t.Run("rejected code", func(t *testing.T) {
		f := newLoginFixture(true)
		_, err := f.service.Login(context.Background(), "expired")
		require.Error(t, err)
		assert.Equal(t, KindUpstream, KindOf(err))
		assert.Contains(t, err.Error(), "invalid_grant")
		assert.Empty(t, f.calendar.calls)
		assert.Zero(t, *f.inserts)
	})

	t.Run("profile rejected", func(t *testing.T) {
		f := newLoginFixture(true)
		f.service.profiles = &fakeProfiles{}
		_, err := f.service.Login(context.Background(), "abc123")
		assert.Equal(t, KindUpstream, KindOf(err))
		assert.Empty(t, f.calendar.calls)
		assert.Zero(t, *f.inserts)
	})

	t.Run("malformed profile is internal", func(t *testing.T) {
		f := newLoginFixture(true)
		f.service.profiles = &fakeProfiles{err: errors.New("userinfo response has no email")}
		_, err := f.service.Login(context.Background(), "abc123")
		assert.Equal(t, KindInternal, KindOf(err))
	})

	t.Run("invalid profile email is internal", func(t *testing.T) {
		f := newLoginFixture(true)
		f.service.profiles = &fakeProfiles{profiles: map[string]*google.UserProfile{
			"tok": {Email: "not-an-address", ID: "g1"},
		}}
		_, err := f.service.Login(context.Background(), "abc123")
		assert.Equal(t, KindInternal, KindOf(err))
		assert.Contains(t, err.Error(), "unusable Google profile")
		assert.Empty(t, f.calendar.calls)
		assert.Zero(t, *f.inserts)
	})
}

func TestLogin_CalendarFailure(t *testing.T) {
	t.Run("async does not fail the login", func(t *testing.T) {
		f := newLoginFixture(true)
		f.calendar.err = errors.New("calendar sync queue is full")

		result, err := f.service.Login(context.Background(), "abc123")
		require.NoError(t, err)
		assert.True(t, result.IsNewUser)
	})

	t.Run("sync aborts before the user is created", func(t *testing.T) {
		f := newLoginFixture(false)
		f.calendar.err = errors.New("calendar api down")

		_, err := f.service.Login(context.Background(), "abc123")
		require.Error(t, err)
		assert.Equal(t, KindInternal, KindOf(err))
		assert.Contains(t, err.Error(), "calendar api down")
		assert.Zero(t, *f.inserts)
	})
}

func TestLogin_DatabaseFailure(t *testing.T) {
	f := newLoginFixture(true)
	f.service.users = NewAccounts(&testutils.MockQuerier{
		GetUserByEmailFunc: func(ctx context.Context, email string) (db.User, error) {
			return db.User{}, errors.New("connection refused")
		},
	})

	_, err := f.service.Login(context.Background(), "abc123")
	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, KindUpstream, KindOf(&Error{Kind: KindUpstream, Err: errors.New("x")}))
	assert.Equal(t, "upstream", KindUpstream.String())
	assert.Equal(t, "internal", KindInternal.String())
}
