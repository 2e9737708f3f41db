package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env       string          `mapstructure:"env"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Mail      MailConfig      `mapstructure:"mail"`
	Access    AccessConfig    `mapstructure:"access"`
	Statistic StatisticConfig `mapstructure:"statistic"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	// Driver is postgres or sqlite.
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	// Path is the sqlite database file.
	Path     string `mapstructure:"path"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

type RedisConfig struct {
	// Addr enables the document cache and distributed locks when set.
	Addr          string        `mapstructure:"address"`
	Password      string        `mapstructure:"password"`
	DB            int           `mapstructure:"db"`
	CacheDuration time.Duration `mapstructure:"cache_duration"`
}

type AuthConfig struct {
	JWTSecret   string   `mapstructure:"jwt_secret"`
	AdminGroups []string `mapstructure:"admin_groups"`
}

type MailConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	FromEmail     string `mapstructure:"from_email"`
	FromName      string `mapstructure:"from_name"`
	Subject       string `mapstructure:"subject"`
	ExpirySubject string `mapstructure:"expiry_subject"`
	LoginURL      string `mapstructure:"login_url"`
}

type AccessConfig struct {
	Timezone      string        `mapstructure:"timezone"`
	ExpiryHorizon time.Duration `mapstructure:"expiry_horizon"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	LockTTL       time.Duration `mapstructure:"lock_ttl"`
}

type StatisticConfig struct {
	Window time.Duration `mapstructure:"window"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Location resolves the configured time zone that defines calendar days.
func (c AccessConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("access.timezone: %w", err)
	}
	return loc, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "document_access")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.path", "./data/access.db")
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_duration", "1h")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.admin_groups", []string{})
	v.SetDefault("mail.host", "localhost")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from_email", "")
	v.SetDefault("mail.from_name", "")
	v.SetDefault("mail.login_url", "")
	v.SetDefault("mail.subject", "Document access")
	v.SetDefault("mail.expiry_subject", "Document access expires soon")
	v.SetDefault("access.timezone", "Europe/Berlin")
	v.SetDefault("access.expiry_horizon", "168h")
	v.SetDefault("access.sweep_interval", "0s")
	v.SetDefault("access.lock_ttl", "1m")
	v.SetDefault("statistic.window", "24h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
}

// Load reads config.yaml from ./config or the working directory. A .env file
// is loaded first; ACCESS_* variables override file values, for example
// ACCESS_DATABASE_DRIVER for database.driver. Every key needs a default to
// be visible to environment overrides.
func Load() (Config, error) {
	_ = godotenv.Load()
	return LoadFrom("./config", ".")
}

// LoadFrom is Load without the .env step, searching only dirs.
func LoadFrom(dirs ...string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}
	v.SetEnvPrefix("access")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver: unsupported driver %q", c.Database.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if _, err := c.Access.Location(); err != nil {
		return err
	}
	return nil
}
