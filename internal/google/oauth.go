package google

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

// Scopes requested by the web client. The exchange itself does not send them,
// they are kept here so the frontend and backend agree on one list.
var Scopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/calendar.readonly",
}

// TokenInfo is the result of a successful code exchange.
type TokenInfo struct {
	AccessToken  string
	TokenType    string
	RefreshToken string
	Expiry       time.Time
}

// OAuthConfig holds the OAuth client registration.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Endpoint defaults to Google's endpoint when empty.
	Endpoint oauth2.Endpoint
}

// OAuthClient exchanges authorization codes for access tokens.
type OAuthClient struct {
	config     atomic.Pointer[oauth2.Config]
	httpClient *http.Client
}

// NewOAuthClient creates an OAuthClient. httpClient may be nil.
func NewOAuthClient(cfg OAuthConfig, httpClient *http.Client) *OAuthClient {
	endpoint := cfg.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = googleoauth.Endpoint
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	c := &OAuthClient{httpClient: httpClient}
	c.config.Store(&oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     endpoint,
		Scopes:       Scopes,
	})
	return c
}

// SetClientSecret swaps the client secret used by subsequent exchanges.
func (c *OAuthClient) SetClientSecret(secret string) {
	next := *c.config.Load()
	next.ClientSecret = secret
	c.config.Store(&next)
}

// Exchange trades an authorization code for a token. Every failure is an *Error.
func (c *OAuthClient) Exchange(ctx context.Context, code string) (*TokenInfo, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	tok, err := c.config.Load().Exchange(ctx, code)
	if err != nil {
		gerr := &Error{Op: "token exchange", Err: err}
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			gerr.StatusCode = re.Response.StatusCode
		}
		return nil, gerr
	}

	return &TokenInfo{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.Type(),
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}, nil
}
