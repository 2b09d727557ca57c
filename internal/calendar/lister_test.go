package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleLister_ListCalendars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/users/me/calendarList"), r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("pageToken") == "" {
			_, _ = w.Write([]byte(`{"items":[{"id":"a@x.com","summary":"A","timeZone":"Asia/Seoul","primary":true,"accessRole":"owner","backgroundColor":"#9fe1e7"}],"nextPageToken":"p2"}`))
			return
		}
		_, _ = w.Write([]byte(`{"items":[{"id":"team@group.calendar.google.com","summary":"Team","description":"shared","accessRole":"writer"}]}`))
	}))
	defer srv.Close()

	entries, err := NewGoogleLister(srv.Client(), srv.URL+"/").ListCalendars(context.Background(), "tok")
	require.NoError(t, err)

	assert.Equal(t, []Entry{
		{ID: "a@x.com", Summary: "A", TimeZone: "Asia/Seoul", Primary: true, AccessRole: "owner", BackgroundColor: "#9fe1e7"},
		{ID: "team@group.calendar.google.com", Summary: "Team", Description: "shared", AccessRole: "writer"},
	}, entries)
}

func TestGoogleLister_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"Request had insufficient authentication scopes."}}`))
	}))
	defer srv.Close()

	_, err := NewGoogleLister(srv.Client(), srv.URL+"/").ListCalendars(context.Background(), "tok")
	assert.ErrorContains(t, err, "insufficient authentication scopes")
}
