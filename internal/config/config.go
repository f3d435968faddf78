package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/spf13/viper"

	"github.com/couchcryptid/quake-match/internal/domain"
)

// EnvPrefix namespaces environment overrides, e.g. QUAKEMATCH_DB_HOST.
const EnvPrefix = "QUAKEMATCH"

// Config holds all worker settings, populated from an optional config file
// and environment variables.
type Config struct {
	IgnoreSources    []string      `mapstructure:"ignore_sources"`
	URLTemplate      string        `mapstructure:"url_template"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
	AutoMigrate      bool          `mapstructure:"auto_migrate"`
	PushgatewayURL   string        `mapstructure:"pushgateway_url"`

	DB     DBConfig     `mapstructure:"db"`
	Log    LogConfig    `mapstructure:"log"`
	Mapbox MapboxConfig `mapstructure:"mapbox"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Kafka  KafkaConfig  `mapstructure:"kafka"`
}

// DBConfig holds the Postgres connection parameters.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Name     string `mapstructure:"name"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MapboxConfig configures reverse geocoding of the region label.
type MapboxConfig struct {
	Token   string        `mapstructure:"token"`
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig selects the geocode cache backend: "memory" or "redis".
type CacheConfig struct {
	Backend       string        `mapstructure:"backend"`
	Size          int           `mapstructure:"size"`
	TTL           time.Duration `mapstructure:"ttl"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
}

// KafkaConfig configures match announcements. Empty brokers disable them.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// DSN renders the connection parameters as a libpq keyword/value string.
func (c DBConfig) DSN() string {
	parts := []string{
		"host=" + quoteDSN(c.Host),
		fmt.Sprintf("port=%d", c.Port),
		"user=" + quoteDSN(c.User),
		"dbname=" + quoteDSN(c.Name),
		"sslmode=" + quoteDSN(c.SSLMode),
	}
	if c.Password != "" {
		parts = append(parts, "password="+quoteDSN(c.Password))
	}
	return strings.Join(parts, " ")
}

func quoteDSN(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// Load reads configuration from path (if non-empty) and the environment,
// applying defaults where unset. Failures are KindConfiguration errors.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, configError(fmt.Errorf("read %s: %w", path, err))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configError(fmt.Errorf("decode: %w", err))
	}
	cfg.IgnoreSources = parseList(cfg.IgnoreSources)
	cfg.Kafka.Brokers = parseList(cfg.Kafka.Brokers)

	// A token implies geocoding unless explicitly disabled.
	cfg.Mapbox.Enabled = cfg.Mapbox.Token != ""
	if v.IsSet("mapbox.enabled") {
		cfg.Mapbox.Enabled = v.GetBool("mapbox.enabled")
	}

	if err := cfg.validate(); err != nil {
		return nil, configError(err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ignore_sources", []string{})
	v.SetDefault("url_template", "https://earthquake.usgs.gov/earthquakes/eventpage/"+domain.URLPlaceholder)
	v.SetDefault("statement_timeout", "10s")
	v.SetDefault("auto_migrate", false)
	v.SetDefault("pushgateway_url", "")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "")
	v.SetDefault("db.name", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")

	v.SetDefault("log.level", sharedcfg.EnvOrDefault("LOG_LEVEL", "info"))
	v.SetDefault("log.format", sharedcfg.EnvOrDefault("LOG_FORMAT", "json"))

	v.SetDefault("mapbox.token", "")
	v.SetDefault("mapbox.timeout", "5s")

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.size", 1000)
	v.SetDefault("cache.ttl", "720h")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "quake-matches")
}

func (c *Config) validate() error {
	if c.DB.User == "" {
		return errors.New("db.user is required")
	}
	if c.DB.Name == "" {
		return errors.New("db.name is required")
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		return fmt.Errorf("db.port %d is out of range", c.DB.Port)
	}
	if !strings.Contains(c.URLTemplate, domain.URLPlaceholder) {
		return fmt.Errorf("url_template must contain %s", domain.URLPlaceholder)
	}
	if _, err := url.Parse(strings.ReplaceAll(c.URLTemplate, domain.URLPlaceholder, "x")); err != nil {
		return fmt.Errorf("invalid url_template: %w", err)
	}
	if c.StatementTimeout <= 0 {
		return errors.New("statement_timeout must be positive")
	}
	if c.Mapbox.Enabled && c.Mapbox.Token == "" {
		return errors.New("mapbox.enabled is true but mapbox.token is not set")
	}
	if c.Mapbox.Timeout <= 0 {
		return errors.New("mapbox.timeout must be positive")
	}
	switch c.Cache.Backend {
	case "memory":
		if c.Cache.Size <= 0 {
			return errors.New("cache.size must be positive")
		}
	case "redis":
		if c.Cache.RedisAddr == "" {
			return errors.New("cache.backend is redis but cache.redis_addr is not set")
		}
	default:
		return fmt.Errorf("unknown cache.backend %q", c.Cache.Backend)
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return errors.New("kafka.topic is required when kafka.brokers is set")
	}
	return nil
}

// parseList flattens comma-separated entries, which is how list values arrive
// from environment variables and ini files.
func parseList(in []string) []string {
	return sharedcfg.ParseBrokers(strings.Join(in, ","))
}

func configError(err error) error {
	return domain.NewError(domain.KindConfiguration, "load config", err)
}
