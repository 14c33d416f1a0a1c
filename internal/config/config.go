package config

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Simplici0/quickestimate/internal/auth"
	"github.com/Simplici0/quickestimate/internal/photos"
	"github.com/Simplici0/quickestimate/internal/store"
)

const (
	defaultSessionHours = 12
	defaultSQLitePath   = "./data.sqlite"

	// maxSessionHours caps sessions at 100 years, well inside time.Duration.
	maxSessionHours = 100 * 365 * 24
)

// Config holds the full application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Auth      AuthConfig      `yaml:"auth" mapstructure:"auth"`
	Photos    photos.Config   `yaml:"photos" mapstructure:"photos"`
	RateLimit RateLimitConfig `yaml:"ratelimit" mapstructure:"ratelimit"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port                int      `yaml:"port" mapstructure:"port"`
	CORSOrigins         []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	ShutdownTimeoutSecs int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`

	// TrustProxy reads client IPs from forwarding headers. Enable only
	// behind a reverse proxy that sets them.
	TrustProxy bool `yaml:"trust_proxy" mapstructure:"trust_proxy"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	// PostgresSSL is "disable" to connect without TLS. Any other value requires it.
	PostgresSSL string `yaml:"postgres_ssl" mapstructure:"postgres_ssl"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// Options converts the section into store.Open options.
func (c StoreConfig) Options() store.Options {
	return store.Options{
		Driver:      c.Driver,
		SQLitePath:  c.SQLitePath,
		DatabaseURL: strings.TrimSpace(c.DatabaseURL),
		RequireSSL:  c.PostgresSSL != "disable",
		Pool:        &store.PoolConfig{MaxConns: c.MaxConns, MinConns: c.MinConns},
	}
}

// AuthConfig configures the admin area.
type AuthConfig struct {
	AdminPasswordHash string `yaml:"admin_password_hash" mapstructure:"admin_password_hash"`
	AdminPassword     string `yaml:"admin_password" mapstructure:"admin_password"`
	CookieName        string `yaml:"cookie_name" mapstructure:"cookie_name"`
	SecureCookie      bool   `yaml:"secure_cookie" mapstructure:"secure_cookie"`
	PruneIntervalMins int    `yaml:"prune_interval_mins" mapstructure:"prune_interval_mins"`

	// SessionHours is parsed leniently in Load; see parseSessionHours.
	SessionHours float64 `yaml:"session_hours" mapstructure:"-"`
}

// Credentials returns the configured admin secret.
func (c AuthConfig) Credentials() auth.Credentials {
	return auth.Credentials{PasswordHash: c.AdminPasswordHash, Password: c.AdminPassword}
}

// SessionTTL is the lifetime of an admin session.
func (c AuthConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionHours * float64(time.Hour))
}

// PruneInterval is how often expired sessions are swept.
func (c AuthConfig) PruneInterval() time.Duration {
	return time.Duration(c.PruneIntervalMins) * time.Minute
}

// RateLimitConfig bounds public POST requests per client IP.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	Burst             int `yaml:"burst" mapstructure:"burst"`
}

// ExportConfig configures lead exports.
type ExportConfig struct {
	FilenamePrefix string `yaml:"filename_prefix" mapstructure:"filename_prefix"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// envAliases maps config keys to the unprefixed variable names deployments
// already use. The prefixed ESTIMATOR_* name is checked first.
var envAliases = map[string]string{
	"server.port":              "PORT",
	"store.sqlite_path":        "SQLITE_PATH",
	"store.database_url":       "POSTGRES_URL",
	"store.postgres_ssl":       "POSTGRES_SSL",
	"auth.admin_password_hash": "ADMIN_PASSWORD_HASH",
	"auth.admin_password":      "ADMIN_PASSWORD",
	"auth.cookie_name":         "AUTH_COOKIE_NAME",
	"auth.session_hours":       "ADMIN_SESSION_HOURS",
}

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ESTIMATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, alias := range envAliases {
		envKey := "ESTIMATOR_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, alias); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", alias)
		}
	}

	// Defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout_secs", 10)
	v.SetDefault("server.trust_proxy", false)
	v.SetDefault("store.driver", "")
	v.SetDefault("store.sqlite_path", defaultSQLitePath)
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.postgres_ssl", "require")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("auth.admin_password_hash", "")
	v.SetDefault("auth.admin_password", "")
	v.SetDefault("auth.cookie_name", "steelhead_admin")
	v.SetDefault("auth.session_hours", defaultSessionHours)
	v.SetDefault("auth.secure_cookie", false)
	v.SetDefault("auth.prune_interval_mins", 15)
	v.SetDefault("photos.backend", photos.BackendAuto)
	v.SetDefault("photos.upload_dir", "./public/uploads")
	v.SetDefault("photos.public_prefix", "/uploads")
	v.SetDefault("photos.max_photos", photos.DefaultMaxPhotos)
	v.SetDefault("photos.max_photo_bytes", photos.DefaultMaxBytes)
	v.SetDefault("photos.minio.endpoint", "")
	v.SetDefault("photos.minio.access_key", "")
	v.SetDefault("photos.minio.secret_key", "")
	v.SetDefault("photos.minio.bucket", "lead-photos")
	v.SetDefault("photos.minio.region", "")
	v.SetDefault("photos.minio.use_ssl", true)
	v.SetDefault("photos.minio.public_url", "")
	v.SetDefault("photos.minio.prefix", "leads")
	v.SetDefault("ratelimit.requests_per_minute", 30)
	v.SetDefault("ratelimit.burst", 10)
	v.SetDefault("export.filename_prefix", "steelhead-leads")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	cfg.Auth.SessionHours = parseSessionHours(v.GetString("auth.session_hours"))
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "steelhead_admin"
	}

	return &cfg, nil
}

// parseSessionHours falls back to the default for anything that is not a
// positive finite number and caps the rest at maxSessionHours.
func parseSessionHours(raw string) float64 {
	hours, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(hours) || math.IsInf(hours, 0) || hours <= 0 {
		return defaultSessionHours
	}
	return min(hours, maxSessionHours)
}

// Warnings lists settings that leave part of the service unusable.
func (c *Config) Warnings() []string {
	var out []string
	if !c.Auth.Credentials().Configured() {
		out = append(out, "ADMIN_PASSWORD_HASH or ADMIN_PASSWORD is not set; admin login is disabled")
	} else if c.Auth.AdminPasswordHash == "" {
		out = append(out, "ADMIN_PASSWORD is set in plain text; prefer ADMIN_PASSWORD_HASH")
	}
	return out
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
