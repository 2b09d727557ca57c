package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// UserInfoURL is Google's OAuth2 v2 userinfo endpoint.
const UserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// UserProfile is the subset of the userinfo response the login flow uses.
type UserProfile struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	ID      string `json:"id"`
	Picture string `json:"picture,omitempty"`
}

// ProfileClient fetches the profile of the owner of an access token.
type ProfileClient struct {
	httpClient *http.Client
	url        string
}

// NewProfileClient creates a ProfileClient. An empty url means UserInfoURL.
func NewProfileClient(httpClient *http.Client, url string) *ProfileClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if url == "" {
		url = UserInfoURL
	}
	return &ProfileClient{httpClient: httpClient, url: url}
}

// FetchProfile calls userinfo with the bearer token. Transport failures and
// non-2xx responses are returned as *Error, a malformed body is not.
func (c *ProfileClient) FetchProfile(ctx context.Context, accessToken string) (*UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Op: "userinfo", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = "empty response"
		}
		return nil, &Error{Op: "userinfo", StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}

	var profile UserProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}
	if profile.Email == "" {
		return nil, fmt.Errorf("userinfo response has no email")
	}

	return &profile, nil
}
