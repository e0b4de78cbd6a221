package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultRedirectURL matches the redirect registered for a desktop client.
// Nothing listens on it: the browser shows an error page and the user
// pastes the address bar back into `calagent auth`.
const DefaultRedirectURL = "http://localhost:3000/callback"

// OAuthConfig holds the client credentials of the Google Cloud project.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Validate reports missing client credentials.
func (c OAuthConfig) Validate() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing Google OAuth credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Config returns the oauth2 configuration for the Google endpoint.
func (c OAuthConfig) Config() *oauth2.Config {
	redirect := c.RedirectURL
	if redirect == "" {
		redirect = DefaultRedirectURL
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirect,
		Scopes:       Scopes,
	}
}

// AuthURL returns the consent page address. It asks for offline access and
// forces the consent prompt so Google always hands out a refresh token.
func AuthURL(conf *oauth2.Config, state string) string {
	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExtractCode pulls the authorization code out of what the user pasted:
// either the bare code or the full redirect URL. When the input is a URL and
// wantState is set, the state parameter must match.
func ExtractCode(input, wantState string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("no authorization code given")
	}
	if !strings.Contains(input, "://") {
		return input, nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("failed to parse redirect URL: %w", err)
	}
	q := u.Query()
	if e := q.Get("error"); e != "" {
		return "", fmt.Errorf("authorization denied: %s", e)
	}
	if wantState != "" && q.Get("state") != wantState {
		return "", errors.New("state mismatch in redirect URL")
	}
	code := q.Get("code")
	if code == "" {
		return "", errors.New("redirect URL has no code parameter")
	}
	return code, nil
}

// Exchange trades an authorization code for a token.
func Exchange(ctx context.Context, conf *oauth2.Config, code string) (*oauth2.Token, error) {
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return tok, nil
}

// NewHTTPClient returns a client that authorizes requests with tok and
// refreshes it through conf. Refresh requests and API requests both go
// through base. A nil base uses an HTTP/1.1 transport, which avoids the
// stream resets Google's frontends sometimes send over HTTP/2.
func NewHTTPClient(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token, base http.RoundTripper) *http.Client {
	if base == nil {
		base = &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			ForceAttemptHTTP2: false,
		}
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: base})
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: conf.TokenSource(ctx, tok),
			Base:   base,
		},
	}
}
