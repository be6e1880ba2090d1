package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 애플리케이션 설정
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	CORS     CORSConfig     `yaml:"cors"`
	Edit     EditConfig     `yaml:"edit"`
}

// ServerConfig HTTP 서버 설정
type ServerConfig struct {
	Mode string `yaml:"mode"` // debug, release, test
	Env  string `yaml:"env"`
	Port int    `yaml:"port"`
}

// DatabaseConfig 데이터베이스 설정
type DatabaseConfig struct {
	Driver          string `yaml:"driver"` // mysql, sqlite
	Host            string `yaml:"host"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	DBName          string `yaml:"dbname"`
	Path            string `yaml:"path"` // sqlite file path
	LogLevel        string `yaml:"log_level"`
	Port            int    `yaml:"port"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // seconds
}

// RedisConfig Redis 설정
type RedisConfig struct {
	Host     string `yaml:"host"`
	Password string `yaml:"password"`
	Port     int    `yaml:"port"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Enabled  bool   `yaml:"enabled"`
}

// JWTConfig access token verification settings
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// CORSConfig CORS 설정
type CORSConfig struct {
	AllowOrigins string `yaml:"allow_origins"`
}

// EditConfig edit and revision rules
type EditConfig struct {
	ReviewStream         string        `yaml:"review_stream"`
	GraceWindow          time.Duration `yaml:"grace_window"`
	ConcurrencyTolerance time.Duration `yaml:"concurrency_tolerance"`
	TagCacheTTL          time.Duration `yaml:"tag_cache_ttl"`
	ModeratorLevel       int           `yaml:"moderator_level"`
	HistoryDefaultLimit  int           `yaml:"history_default_limit"`
	HistoryMaxLimit      int           `yaml:"history_max_limit"`
	RateLimitPerMinute   int           `yaml:"rate_limit_per_minute"` // 0 disables
}

// GetDSN MySQL DSN 생성
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

// Default returns the built-in defaults applied before the YAML file
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8082, Mode: "debug", Env: "local"},
		Database: DatabaseConfig{
			Driver:          "mysql",
			Host:            "localhost",
			Port:            3306,
			User:            "qna",
			DBName:          "qna",
			Path:            "qna.db",
			LogLevel:        "warn",
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: 3600,
		},
		Redis: RedisConfig{Host: "localhost", Port: 6379, PoolSize: 10},
		CORS:  CORSConfig{AllowOrigins: "http://localhost:3000"},
		Edit: EditConfig{
			GraceWindow:          10 * time.Minute,
			ConcurrencyTolerance: time.Second,
			ModeratorLevel:       10,
			HistoryDefaultLimit:  20,
			HistoryMaxLimit:      100,
			ReviewStream:         "qna:edits:review",
			TagCacheTTL:          10 * time.Minute,
			RateLimitPerMinute:   30,
		},
	}
}

// Load reads the YAML config at path on top of the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.Driver != "mysql" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Edit.GraceWindow < 0 || c.Edit.ConcurrencyTolerance < 0 {
		return fmt.Errorf("edit windows must not be negative")
	}
	if c.Edit.RateLimitPerMinute < 0 {
		return fmt.Errorf("edit rate limit must not be negative")
	}
	if c.Edit.HistoryDefaultLimit <= 0 || c.Edit.HistoryMaxLimit < c.Edit.HistoryDefaultLimit {
		return fmt.Errorf("invalid history limits: default=%d max=%d",
			c.Edit.HistoryDefaultLimit, c.Edit.HistoryMaxLimit)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Env, "APP_ENV")
	setInt(&cfg.Server.Port, "SERVER_PORT")
	setString(&cfg.Server.Mode, "GIN_MODE")

	setString(&cfg.Database.Driver, "DB_DRIVER")
	setString(&cfg.Database.Host, "DB_HOST")
	setInt(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.DBName, "DB_NAME")
	setString(&cfg.Database.Path, "DB_PATH")

	setString(&cfg.Redis.Host, "REDIS_HOST")
	setInt(&cfg.Redis.Port, "REDIS_PORT")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setBool(&cfg.Redis.Enabled, "REDIS_ENABLED")

	setString(&cfg.JWT.Secret, "JWT_SECRET")
	setString(&cfg.CORS.AllowOrigins, "CORS_ALLOW_ORIGINS")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// LogResolved prints the effective settings without secrets
func LogResolved(cfg *Config, logf func(format string, args ...interface{})) {
	logf("config: env=%s port=%d db=%s redis=%t grace=%s tolerance=%s",
		cfg.Server.Env, cfg.Server.Port, cfg.Database.Driver, cfg.Redis.Enabled,
		cfg.Edit.GraceWindow, cfg.Edit.ConcurrencyTolerance)
}
