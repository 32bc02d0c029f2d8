package config

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"penpal/utils"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type ServerConfig struct {
	Port         int    `toml:"port"`
	TemplatesDir string `toml:"templates_dir"`
	AssetsDir    string `toml:"assets_dir"`
	ReloadViews  bool   `toml:"reload_views"`
	CookieSecure bool   `toml:"cookie_secure"`
	SessionHours int    `toml:"session_hours"`
}

// MessagingConfig points at the messaging service (letters, search)
type MessagingConfig struct {
	BaseURL          string `toml:"base_url"`
	TimeoutMS        int    `toml:"timeout_ms"`         // default client timeout
	ComposeTimeoutMS int    `toml:"compose_timeout_ms"` // used by the compose flow
}

// CoreConfig points at the core service that owns profiles
type CoreConfig struct {
	BaseURL   string `toml:"base_url"`
	TimeoutMS int    `toml:"timeout_ms"`
}

type ComposeConfig struct {
	DeliveryDelayHours  int    `toml:"delivery_delay_hours"`
	SearchLimit         int    `toml:"search_limit"`
	InboxLimit          int    `toml:"inbox_limit"`
	RetryDelayMS        int    `toml:"retry_delay_ms"`
	UndoCapacity        int    `toml:"undo_capacity"`
	SessionTTLMinutes   int    `toml:"session_ttl_minutes"`
	DefaultHeading      string `toml:"default_heading"`
	DefaultFooterPrefix string `toml:"default_footer_prefix"`
	DefaultFont         string `toml:"default_font"`
	DefaultFontSize     int    `toml:"default_font_size"`
}

// AuthConfig configures verification of identity-provider session tokens.
// Either JWTSecret (HS256) or PublicKeyFile (RS256 PEM) must be set unless
// Disabled is true, in which case the Dev* identity is used for every request.
type AuthConfig struct {
	Disabled      bool   `toml:"disabled"`
	JWTSecret     string `toml:"jwt_secret"`
	PublicKeyFile string `toml:"public_key_file"`
	Issuer        string `toml:"issuer"`
	CookieName    string `toml:"cookie_name"`
	DevSubject    string `toml:"dev_subject"`
	DevUserID     string `toml:"dev_user_id"`
	DevHandle     string `toml:"dev_handle"`
}

type StorageConfig struct {
	DataDir string `toml:"data_dir"`
}

type RateLimitConfig struct {
	Requests      int `toml:"requests"`
	WindowSeconds int `toml:"window_seconds"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

type I18nConfig struct {
	LocalesDir string `toml:"locales_dir"`
}

type SSLConfig struct {
	Enabled      bool   `toml:"enabled"`
	CertFile     string `toml:"cert_file"`     // Path to fullchain.pem
	KeyFile      string `toml:"key_file"`      // Path to privkey.pem
	Port         int    `toml:"port"`          // HTTPS port (default 443)
	HTTPPort     int    `toml:"http_port"`     // HTTP port for redirect (default 80)
	AutoRedirect bool   `toml:"auto_redirect"` // Redirect HTTP to HTTPS
	Domain       string `toml:"domain"`        // Domain name for HSTS
	HSTSMaxAge   int    `toml:"hsts_max_age"`  // Max age for HSTS in seconds
}

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Messaging MessagingConfig `toml:"messaging"`
	Core      CoreConfig      `toml:"core"`
	Compose   ComposeConfig   `toml:"compose"`
	Auth      AuthConfig      `toml:"auth"`
	Storage   StorageConfig   `toml:"storage"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Log       LogConfig       `toml:"log"`
	I18n      I18nConfig      `toml:"i18n"`
	SSL       SSLConfig       `toml:"ssl"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	var config Config

	config.Server.Port = 3000
	config.Server.TemplatesDir = "./templates"
	config.Server.AssetsDir = "./assets"
	config.Server.SessionHours = 24

	config.Messaging.TimeoutMS = 15000
	config.Messaging.ComposeTimeoutMS = 30000
	config.Core.TimeoutMS = 15000

	config.Compose.DeliveryDelayHours = 12
	config.Compose.SearchLimit = 10
	config.Compose.InboxLimit = 50
	config.Compose.RetryDelayMS = 800
	config.Compose.UndoCapacity = 50
	config.Compose.SessionTTLMinutes = 120
	config.Compose.DefaultHeading = "To a kindred spirit,"
	config.Compose.DefaultFooterPrefix = "Yours,"
	config.Compose.DefaultFont = "handwritten"
	config.Compose.DefaultFontSize = 16

	config.Auth.CookieName = "__session"
	config.Auth.DevSubject = "dev_user"
	config.Auth.DevHandle = "QuietOtter"

	config.Storage.DataDir = "./data"

	config.RateLimit.Requests = 100
	config.RateLimit.WindowSeconds = 60

	config.Log.Level = "info"
	config.Log.Format = "console"

	config.I18n.LocalesDir = "./locales"

	// Default SSL configuration
	config.SSL.Port = 443
	config.SSL.HTTPPort = 80
	config.SSL.HSTSMaxAge = 31536000 // 1 year
	config.SSL.AutoRedirect = true

	return &config
}

// LoadConfig reads the TOML file at filepath (a missing file keeps the
// defaults), then a .env file next to the working directory, then the
// process environment.
func LoadConfig(filepath string) (*Config, error) {
	config := Default()

	if filepath != "" {
		if _, err := toml.DecodeFile(filepath, config); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath, err)
		}
	}

	// Values already present in the environment win over .env
	if err := loadDotEnv(".env"); err != nil {
		utils.Log.Warn("Ignoring .env: %v", err)
	}
	config.applyEnv(os.LookupEnv)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Validate SSL configuration if enabled
	if config.SSL.Enabled {
		if err := config.ValidateSSL(); err != nil {
			return nil, fmt.Errorf("SSL configuration error: %w", err)
		}
	}

	return config, nil
}

// loadDotEnv loads path into the environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	first := func(keys ...string) (string, bool) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v), true
			}
		}
		return "", false
	}

	if v, ok := first("MESSAGING_API_BASE_URL", "NEXT_PUBLIC_MESSAGING_API_BASE_URL"); ok {
		c.Messaging.BaseURL = v
	}
	if v, ok := first("CORE_API_BASE_URL", "NEXT_PUBLIC_CORE_API_BASE_URL"); ok {
		c.Core.BaseURL = v
	}
	if v, ok := first("PENPAL_JWT_SECRET"); ok {
		c.Auth.JWTSecret = v
	}
	if v, ok := first("PENPAL_JWT_PUBLIC_KEY_FILE"); ok {
		c.Auth.PublicKeyFile = v
	}
	if v, ok := first("PENPAL_LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := first("PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// Validate checks the settings the server cannot start without
func (c *Config) Validate() error {
	if c.Messaging.BaseURL == "" {
		return fmt.Errorf("messaging base URL is not set (MESSAGING_API_BASE_URL)")
	}
	if err := validateBaseURL(c.Messaging.BaseURL); err != nil {
		return fmt.Errorf("invalid messaging base URL %q: %w", c.Messaging.BaseURL, err)
	}
	if c.Core.BaseURL == "" {
		c.Core.BaseURL = c.Messaging.BaseURL
	} else if err := validateBaseURL(c.Core.BaseURL); err != nil {
		return fmt.Errorf("invalid core base URL %q: %w", c.Core.BaseURL, err)
	}
	if !c.Auth.Disabled && c.Auth.JWTSecret == "" && c.Auth.PublicKeyFile == "" {
		return fmt.Errorf("auth requires jwt_secret or public_key_file (or disabled = true)")
	}
	if c.Compose.DefaultFontSize < 8 || c.Compose.DefaultFontSize > 96 {
		return fmt.Errorf("default font size %d is outside 8-96", c.Compose.DefaultFontSize)
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("rate limit requests and window must be positive")
	}
	return nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// MessagingTimeout is the default timeout of the messaging client
func (c *Config) MessagingTimeout() time.Duration {
	return time.Duration(c.Messaging.TimeoutMS) * time.Millisecond
}

// ComposeTimeout is the messaging timeout used by the compose flow
func (c *Config) ComposeTimeout() time.Duration {
	return time.Duration(c.Messaging.ComposeTimeoutMS) * time.Millisecond
}

func (c *Config) CoreTimeout() time.Duration {
	return time.Duration(c.Core.TimeoutMS) * time.Millisecond
}

func (c *Config) DeliveryDelay() time.Duration {
	return time.Duration(c.Compose.DeliveryDelayHours) * time.Hour
}

func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Compose.RetryDelayMS) * time.Millisecond
}

func (c *Config) ComposeSessionTTL() time.Duration {
	return time.Duration(c.Compose.SessionTTLMinutes) * time.Minute
}

func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}

// ValidateSSL checks if the SSL configuration is valid
func (c *Config) ValidateSSL() error {
	if !c.SSL.Enabled {
		return nil
	}

	if c.SSL.CertFile == "" {
		return fmt.Errorf("SSL certificate file path is required")
	}

	if c.SSL.KeyFile == "" {
		return fmt.Errorf("SSL key file path is required")
	}

	// Try loading the certificates to verify they're valid
	_, err := tls.LoadX509KeyPair(c.SSL.CertFile, c.SSL.KeyFile)
	if err != nil {
		return fmt.Errorf("failed to load SSL certificates: %w", err)
	}

	return nil
}

// GetSecurityHeaders returns a map of security headers based on the configuration
func (c *Config) GetSecurityHeaders() map[string]string {
	headers := make(map[string]string)

	if c.SSL.Enabled {
		if c.SSL.Domain != "" {
			headers["Strict-Transport-Security"] = fmt.Sprintf("max-age=%d; includeSubDomains", c.SSL.HSTSMaxAge)
		}

		headers["X-Content-Type-Options"] = "nosniff"
		headers["X-Frame-Options"] = "SAMEORIGIN"
		headers["X-XSS-Protection"] = "1; mode=block"
		headers["Referrer-Policy"] = "strict-origin-when-cross-origin"
	}

	return headers
}
