package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Tracking TrackingConfig
	Pricing  PricingConfig
	Geo      GeoConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode is kept explicit for managed-Postgres posture.
	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
}

// TrackingConfig groups the tracking-session and ingestion knobs.
//
// DuplicateWindow is the single duplicate-suppression cooldown; it is not
// split per event type and must not be hybridized with other values.
type TrackingConfig struct {
	// SessionSecret signs tracking-session tokens (HS256).
	SessionSecret string

	// SessionCookie is the cookie name carrying the session token.
	SessionCookie string

	// SessionTTL bounds token validity. The mirrored DB row lives
	// DBExpiryBuffer longer to tolerate clock skew between the signature
	// check and the row check.
	SessionTTL     time.Duration
	DBExpiryBuffer time.Duration

	// DuplicateWindow is the cooldown for re-counting the same
	// (ip, campaign, event type) triple.
	DuplicateWindow time.Duration

	// BlacklistMaxAge is how long a session stays blacklisted before the
	// cleanup sweep re-activates it.
	BlacklistMaxAge time.Duration
}

type PricingConfig struct {
	// RatesPath points at the versioned rate-table JSON file.
	RatesPath string
}

type GeoConfig struct {
	// PrimaryURL and FallbackURL are templates with a %s for the IP.
	// Defaults target ip-api.com and ipinfo.io.
	PrimaryURL  string
	FallbackURL string
	Timeout     time.Duration
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	c.Auth.AccessTokenTTL = mustDuration("JWT_ACCESS_TTL")

	c.Tracking.SessionSecret = os.Getenv("TRACKING_SESSION_SECRET")
	c.Tracking.SessionCookie = strings.TrimSpace(os.Getenv("TRACKING_SESSION_COOKIE"))
	c.Tracking.SessionTTL = mustDuration("TRACKING_SESSION_TTL")
	c.Tracking.DBExpiryBuffer = mustDuration("TRACKING_DB_EXPIRY_BUFFER")
	c.Tracking.DuplicateWindow = mustDuration("TRACKING_DUPLICATE_WINDOW")
	c.Tracking.BlacklistMaxAge = mustDuration("TRACKING_BLACKLIST_MAX_AGE")

	c.Pricing.RatesPath = strings.TrimSpace(os.Getenv("PRICING_RATES_PATH"))

	c.Geo.PrimaryURL = strings.TrimSpace(os.Getenv("GEO_PRIMARY_URL"))
	c.Geo.FallbackURL = strings.TrimSpace(os.Getenv("GEO_FALLBACK_URL"))
	c.Geo.Timeout = mustDuration("GEO_TIMEOUT")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}

	if c.Tracking.SessionSecret == "" {
		// Tracking tokens and dashboard tokens may share a secret, but
		// production must set them apart explicitly.
		if c.IsProduction() {
			errs = append(errs, errors.New("TRACKING_SESSION_SECRET is required in production"))
		} else {
			c.Tracking.SessionSecret = c.Auth.JWTSecret
		}
	}
	if c.Tracking.SessionCookie == "" {
		c.Tracking.SessionCookie = "ats_v1"
	}
	if c.Tracking.SessionTTL <= 0 {
		c.Tracking.SessionTTL = time.Hour
	}
	if c.Tracking.DBExpiryBuffer <= 0 {
		c.Tracking.DBExpiryBuffer = time.Minute
	}
	if c.Tracking.DuplicateWindow <= 0 {
		c.Tracking.DuplicateWindow = 30 * time.Minute
	}
	if c.Tracking.BlacklistMaxAge <= 0 {
		c.Tracking.BlacklistMaxAge = time.Hour
	}

	if c.Pricing.RatesPath == "" {
		errs = append(errs, errors.New("PRICING_RATES_PATH is required"))
	}

	if c.Geo.PrimaryURL == "" {
		c.Geo.PrimaryURL = "http://ip-api.com/json/%s"
	}
	if c.Geo.FallbackURL == "" {
		c.Geo.FallbackURL = "https://ipinfo.io/%s/json"
	}
	if c.Geo.Timeout <= 0 {
		c.Geo.Timeout = 5 * time.Second
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Debug reports whether the process runs in a non-production posture.
// Tracking cookies drop the Secure flag and geo lookups short-circuit
// loopback addresses in this mode.
func (c Config) Debug() bool {
	return c.App.Env == "local" || c.App.Env == "dev"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func mustDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		return 0, append(errs, err)
	}
	return n, errs
}

func joinErrors(errs []error) error {
	var filtered []error
	for _, e := range errs {
		if e != nil {
			filtered = append(filtered, e)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return errors.Join(filtered...)
}

func isValidEnv(env string) bool {
	switch env {
	case "local", "dev", "staging", "production":
		return true
	}
	return false
}

func isValidSSLMode(mode string) bool {
	switch mode {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	}
	return false
}
