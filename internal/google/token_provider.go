package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned when no provider holds a token for the account.
var ErrNoToken = errors.New("no Google OAuth token found; run `calagent auth`")

// DefaultAccount is used when no account name is given.
const DefaultAccount = "default"

// TokenProvider supplies OAuth tokens per account.
type TokenProvider interface {
	GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error)
	HasTokenForAccount(account string) bool
}

// StaticTokenProvider serves one fixed token to every account, typically
// read from GOOGLE_ACCESS_TOKEN and GOOGLE_REFRESH_TOKEN.
type StaticTokenProvider struct {
	token *oauth2.Token
}

// NewStaticTokenProvider returns nil when both values are empty. A refresh
// token without an access token is marked expired so the first request
// refreshes it.
func NewStaticTokenProvider(accessToken, refreshToken string) *StaticTokenProvider {
	if accessToken == "" && refreshToken == "" {
		return nil
	}
	tok := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}
	if accessToken == "" || refreshToken != "" {
		tok.Expiry = time.Unix(1, 0)
	}
	return &StaticTokenProvider{token: tok}
}

func (p *StaticTokenProvider) GetTokenForAccount(_ context.Context, _ string) (*oauth2.Token, error) {
	if p == nil || p.token == nil {
		return nil, ErrNoToken
	}
	tok := *p.token
	return &tok, nil
}

func (p *StaticTokenProvider) HasTokenForAccount(string) bool {
	return p != nil && p.token != nil
}

// FileTokenProvider reads tokens saved by `calagent auth`, one JSON file
// per account.
type FileTokenProvider struct {
	dir string
}

// NewFileTokenProvider stores tokens in dir. An empty dir means
// DefaultTokenDir.
func NewFileTokenProvider(dir string) *FileTokenProvider {
	if dir == "" {
		dir = DefaultTokenDir()
	}
	return &FileTokenProvider{dir: dir}
}

// DefaultTokenDir is <user cache dir>/calagent.
func DefaultTokenDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "calagent")
}

var accountName = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// TokenPath returns the file holding the token of account.
func (p *FileTokenProvider) TokenPath(account string) (string, error) {
	if account == "" {
		account = DefaultAccount
	}
	if !accountName.MatchString(account) {
		return "", fmt.Errorf("invalid account name %q", account)
	}
	return filepath.Join(p.dir, "google-"+account+".token"), nil
}

func (p *FileTokenProvider) GetTokenForAccount(_ context.Context, account string) (*oauth2.Token, error) {
	path, err := p.TokenPath(account)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, ErrNoToken
	}
	return &tok, nil
}

func (p *FileTokenProvider) HasTokenForAccount(account string) bool {
	path, err := p.TokenPath(account)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// SaveToken writes tok for account with owner-only permissions.
func (p *FileTokenProvider) SaveToken(account string, tok *oauth2.Token) error {
	path, err := p.TokenPath(account)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// ChainTokenProvider asks each provider in turn and returns the first token.
// Nil providers are skipped.
type ChainTokenProvider []TokenProvider

func (c ChainTokenProvider) GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error) {
	for _, p := range c {
		if isNil(p) || !p.HasTokenForAccount(account) {
			continue
		}
		tok, err := p.GetTokenForAccount(ctx, account)
		if errors.Is(err, ErrNoToken) {
			continue
		}
		return tok, err
	}
	return nil, ErrNoToken
}

func (c ChainTokenProvider) HasTokenForAccount(account string) bool {
	for _, p := range c {
		if !isNil(p) && p.HasTokenForAccount(account) {
			return true
		}
	}
	return false
}

func isNil(p TokenProvider) bool {
	switch v := p.(type) {
	case nil:
		return true
	case *StaticTokenProvider:
		return v == nil
	case *FileTokenProvider:
		return v == nil
	}
	return false
}
