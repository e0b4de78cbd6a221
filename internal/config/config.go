package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/teemow/calagent/internal/agent"
	"github.com/teemow/calagent/internal/google"
	"github.com/teemow/calagent/internal/llm"
)

// DefaultEnvFile is read from the working directory when present.
const DefaultEnvFile = ".env"

// Config is the runtime configuration of the CLI.
type Config struct {
	AgentName string

	AnthropicAPIKey    string
	AnthropicModel     string
	AnthropicMaxTokens int

	TavilyAPIKey string

	GoogleOAuth        google.OAuthConfig
	GoogleAccessToken  string
	GoogleRefreshToken string

	ContactsFile string
	HistoryFile  string
	MaxSteps     int

	LogLevel  string
	LogFormat string
}

// Load reads files (DefaultEnvFile when none are given) into the process
// environment without overriding variables that are already set, then
// builds a Config from the environment. Missing files are ignored.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{DefaultEnvFile}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		AgentName:       getEnvOrDefault("AGENT_NAME", agent.DefaultName),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  getEnvOrDefault("ANTHROPIC_MODEL", llm.DefaultModel),
		TavilyAPIKey:    os.Getenv("TAVILY_API_KEY"),
		GoogleOAuth: google.OAuthConfig{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  getEnvOrDefault("GOOGLE_REDIRECT_URL", google.DefaultRedirectURL),
		},
		GoogleAccessToken:  os.Getenv("GOOGLE_ACCESS_TOKEN"),
		GoogleRefreshToken: os.Getenv("GOOGLE_REFRESH_TOKEN"),
		ContactsFile:       os.Getenv("CALAGENT_CONTACTS_FILE"),
		HistoryFile:        getEnvOrDefault("CALAGENT_HISTORY_FILE", DefaultHistoryFile()),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "warn"),
		LogFormat:          getEnvOrDefault("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.AnthropicMaxTokens, err = getEnvIntOrDefault("ANTHROPIC_MAX_TOKENS", llm.DefaultMaxTokens); err != nil {
		return Config{}, err
	}
	if cfg.MaxSteps, err = getEnvIntOrDefault("AGENT_MAX_STEPS", agent.DefaultMaxSteps); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every missing setting the chat command needs.
func (c Config) Validate() error {
	var missing []string
	if c.AnthropicAPIKey == "" {
		missing = append(missing, "ANTHROPIC_API_KEY")
	}
	if c.TavilyAPIKey == "" {
		missing = append(missing, "TAVILY_API_KEY")
	}
	if c.GoogleOAuth.ClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}
	if c.GoogleOAuth.ClientSecret == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.AnthropicMaxTokens <= 0 {
		return fmt.Errorf("ANTHROPIC_MAX_TOKENS must be positive, got %d", c.AnthropicMaxTokens)
	}
	if c.MaxSteps <= 0 {
		return fmt.Errorf("AGENT_MAX_STEPS must be positive, got %d", c.MaxSteps)
	}
	return nil
}

// TokenProvider returns the Google token sources in lookup order: the
// static env tokens, then the cached token files in tokenDir.
func (c Config) TokenProvider(tokenDir string) google.ChainTokenProvider {
	var chain google.ChainTokenProvider
	if c.GoogleAccessToken != "" || c.GoogleRefreshToken != "" {
		chain = append(chain, google.NewStaticTokenProvider(c.GoogleAccessToken, c.GoogleRefreshToken))
	}
	return append(chain, google.NewFileTokenProvider(tokenDir))
}

// DefaultHistoryFile is the readline history location.
func DefaultHistoryFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "calagent", "history")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}
