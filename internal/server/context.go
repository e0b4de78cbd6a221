package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"google.golang.org/api/option"

	"github.com/teemow/calagent/internal/calendar"
	"github.com/teemow/calagent/internal/contacts"
	"github.com/teemow/calagent/internal/google"
	"github.com/teemow/calagent/internal/instrumentation"
	"github.com/teemow/calagent/internal/logging"
	"github.com/teemow/calagent/internal/search"
)

// ErrShutdown is returned by client getters after Shutdown.
var ErrShutdown = errors.New("server context is shut down")

// Config wires a ServerContext.
type Config struct {
	OAuth google.OAuthConfig
	// Tokens supplies the Google token. Nil means no Google access.
	Tokens google.TokenProvider
	// Account selects the cached token; empty means google.DefaultAccount.
	Account      string
	ContactsFile string
	TavilyAPIKey string
	// Location is the user's zone for wall-clock times. Nil means time.Local.
	Location *time.Location

	// Instrumentation may be nil, in which case metrics are no-ops.
	Instrumentation *instrumentation.Provider
	AuditLogger     *instrumentation.AuditLogger
	Logger          *slog.Logger
}

// ServerContext caches backend clients for the lifetime of the process.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    Config
	logger *slog.Logger

	mu             sync.RWMutex
	httpClient     *http.Client
	calendarClient *calendar.Client
	resolver       *contacts.Resolver
	searchClient   *search.Client
	shutdown       bool
}

// NewServerContext creates a context. No network calls happen here.
func NewServerContext(ctx context.Context, cfg Config) (*ServerContext, error) {
	if cfg.Account == "" {
		cfg.Account = google.DefaultAccount
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Context returns the server context. It is cancelled on Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Location returns the zone used for times given without an offset.
func (sc *ServerContext) Location() *time.Location {
	if sc.cfg.Location == nil {
		return time.Local
	}
	return sc.cfg.Location
}

// Metrics returns the metrics recorder. It is nil-safe to use.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	if sc.cfg.Instrumentation == nil {
		return nil
	}
	return sc.cfg.Instrumentation.Metrics()
}

// AuditLogger returns the audit logger, or nil when audit logging is off.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.cfg.AuditLogger
}

// Transport returns the round tripper used for backend HTTP calls.
func (sc *ServerContext) Transport() http.RoundTripper {
	if sc.cfg.Instrumentation == nil {
		return http.DefaultTransport
	}
	return sc.cfg.Instrumentation.HTTPTransport(nil)
}

// googleHTTPClient returns the authorized client, creating it once.
// Callers must hold sc.mu.
func (sc *ServerContext) googleHTTPClient() (*http.Client, error) {
	if sc.httpClient != nil {
		return sc.httpClient, nil
	}
	if sc.cfg.Tokens == nil {
		sc.Metrics().RecordOAuthAuth(sc.ctx, instrumentation.OAuthResultMissing)
		return nil, fmt.Errorf("no Google credentials configured, run `calagent auth`: %w", google.ErrNoToken)
	}
	tok, err := sc.cfg.Tokens.GetTokenForAccount(sc.ctx, sc.cfg.Account)
	if err != nil {
		result := instrumentation.OAuthResultFailure
		if errors.Is(err, google.ErrNoToken) {
			result = instrumentation.OAuthResultMissing
		}
		sc.Metrics().RecordOAuthAuth(sc.ctx, result)
		return nil, fmt.Errorf("Google account %q is not authorized, run `calagent auth`: %w", sc.cfg.Account, err)
	}
	sc.Metrics().RecordOAuthAuth(sc.ctx, instrumentation.OAuthResultSuccess)

	sc.httpClient = google.NewHTTPClient(sc.ctx, sc.cfg.OAuth.Config(), tok, sc.Transport())
	sc.logger.Debug("google client ready",
		logging.Service("google"),
		slog.String("account", sc.cfg.Account),
		slog.String("access_token", logging.SanitizeToken(tok.AccessToken)),
		slog.Bool("refreshable", tok.RefreshToken != ""))
	return sc.httpClient, nil
}

// CalendarClient returns the primary calendar client.
func (sc *ServerContext) CalendarClient() (*calendar.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil, ErrShutdown
	}
	if sc.calendarClient != nil {
		return sc.calendarClient, nil
	}
	hc, err := sc.googleHTTPClient()
	if err != nil {
		return nil, err
	}
	client, err := calendar.NewClient(sc.ctx, calendar.PrimaryCalendar, option.WithHTTPClient(hc))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar client: %w", err)
	}
	sc.calendarClient = client
	return client, nil
}

// SetCalendarClient replaces the calendar client.
func (sc *ServerContext) SetCalendarClient(client *calendar.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.calendarClient = client
}

// ContactResolver returns a resolver over the contacts file and, when a
// Google token is available, the People API. A missing token only narrows
// the lookup to the file.
func (sc *ServerContext) ContactResolver() (*contacts.Resolver, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil, ErrShutdown
	}
	if sc.resolver != nil {
		return sc.resolver, nil
	}

	dir, err := contacts.LoadDirectory(sc.cfg.ContactsFile)
	if err != nil {
		return nil, err
	}

	hc, err := sc.googleHTTPClient()
	if err != nil {
		// Not cached, so a later `calagent auth` brings in the People API.
		sc.logger.Warn("People API unavailable, using contacts file only", logging.Err(err))
		return contacts.NewResolver(dir), nil
	}
	people, err := contacts.NewPeopleClient(sc.ctx, option.WithHTTPClient(hc))
	if err != nil {
		return nil, fmt.Errorf("failed to create People client: %w", err)
	}
	sc.resolver = contacts.NewResolver(dir, people)
	return sc.resolver, nil
}

// SetContactResolver replaces the contact resolver.
func (sc *ServerContext) SetContactResolver(r *contacts.Resolver) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.resolver = r
}

// SearchClient returns the Tavily client.
func (sc *ServerContext) SearchClient() (*search.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil, ErrShutdown
	}
	if sc.searchClient != nil {
		return sc.searchClient, nil
	}
	if sc.cfg.TavilyAPIKey == "" {
		return nil, search.ErrMissingAPIKey
	}
	sc.searchClient = search.NewClient(sc.cfg.TavilyAPIKey,
		search.WithHTTPClient(&http.Client{Transport: sc.Transport(), Timeout: search.DefaultTimeout}))
	return sc.searchClient, nil
}

// SetSearchClient replaces the search client.
func (sc *ServerContext) SetSearchClient(client *search.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.searchClient = client
}

// IsShutdown returns whether the server has been shutdown.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the context and drops cached clients.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}
	sc.shutdown = true
	sc.calendarClient = nil
	sc.resolver = nil
	sc.searchClient = nil
	sc.httpClient = nil
	sc.cancel()
	return nil
}
