package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Log        LogConfig        `yaml:"log"`
	Upload     UploadConfig     `yaml:"upload"`
	Permission PermissionConfig `yaml:"permission"`
	Redis      RedisConfig      `yaml:"redis"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Stats      StatsConfig      `yaml:"stats"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
}

// DatabaseConfig selects the driver and pool. For mysql the DSN may be left
// empty and assembled from the MySQL fields instead.
type DatabaseConfig struct {
	Driver          string      `yaml:"driver"` // sqlite, mysql, postgres
	DSN             string      `yaml:"dsn"`
	MySQL           MySQLConfig `yaml:"mysql"`
	MaxOpenConns    int         `yaml:"max_open_conns"`
	MaxIdleConns    int         `yaml:"max_idle_conns"`
	ConnMaxLifetime int         `yaml:"conn_max_lifetime_minutes"`
	Seed            bool        `yaml:"seed"`
}

type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Charset  string `yaml:"charset"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type UploadConfig struct {
	BasePath      string   `yaml:"base_path"`
	AllowedTypes  []string `yaml:"allowed_types"`
	MaxSizeKB     int64    `yaml:"max_size_kb"`
	StoreNameRule string   `yaml:"store_name_rule"`
	MaxRequestMB  int64    `yaml:"max_request_mb"`
}

// PermissionConfig mirrors the capability lists used by the handlers.
// Levels is the nested level-threshold table read only by the task status
// check; it is empty unless configured.
type PermissionConfig struct {
	RequireMember []string                  `yaml:"require_member"`
	RequireLeader []string                  `yaml:"require_leader"`
	Levels        map[string]map[string]int `yaml:"levels"`
}

// RedisConfig for the optional async stats refresh queue
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

type StatsConfig struct {
	ReconcileCron string `yaml:"reconcile_cron"`
}

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.overrideFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "5000",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             "study_group_hub.db",
			MySQL:           MySQLConfig{Host: "localhost", Port: 3306, User: "root", Name: "study_group_hub", Charset: "utf8mb4"},
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 30,
		},
		Upload: UploadConfig{
			BasePath:      filepath.Join("static", "uploads"),
			AllowedTypes:  []string{".docx", ".pdf", ".ppt", ".pptx", ".xlsx", ".xls", ".jpg", ".png", ".txt"},
			MaxSizeKB:     1024 * 5,
			StoreNameRule: "{group_id}_{timestamp}{suffix}",
			MaxRequestMB:  16,
		},
		Permission: PermissionConfig{
			RequireMember: []string{"file_delete", "task_update", "group_member_query"},
			RequireLeader: []string{"group_delete", "task_assign", "member_remove"},
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     5,
			Burst:   10,
		},
	}
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Upload.MaxSizeKB <= 0 {
		return errors.New("upload.max_size_kb must be positive")
	}
	if c.Upload.MaxRequestMB <= 0 {
		return errors.New("upload.max_request_mb must be positive")
	}
	if c.Upload.BasePath == "" {
		return errors.New("upload.base_path is required")
	}
	if !strings.Contains(c.Upload.StoreNameRule, "{suffix}") {
		return errors.New("upload.store_name_rule must contain {suffix}")
	}
	return nil
}

// RequiresMember reports whether capability is in the require_member list.
func (p PermissionConfig) RequiresMember(capability string) bool {
	for _, c := range p.RequireMember {
		if c == capability {
			return true
		}
	}
	return false
}

// Level looks up levels[scope][name].
func (p PermissionConfig) Level(scope, name string) (int, bool) {
	inner, ok := p.Levels[scope]
	if !ok {
		return 0, false
	}
	v, ok := inner[name]
	return v, ok
}

// AllowsExtension reports whether suffix (lower-cased, with dot) is uploadable.
func (u UploadConfig) AllowsExtension(suffix string) bool {
	for _, t := range u.AllowedTypes {
		if strings.EqualFold(t, suffix) {
			return true
		}
	}
	return false
}

func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

func (c *Config) overrideFromEnv() {
	envOverride(&c.Server.Host, "SERVER_HOST")
	envOverride(&c.Server.Port, "SERVER_PORT")
	envOverride(&c.Server.Mode, "SERVER_MODE")
	envOverride(&c.Database.Driver, "DB_DRIVER")
	envOverride(&c.Database.DSN, "DB_DSN")
	envOverride(&c.Database.MySQL.Host, "MYSQL_HOST")
	envOverrideInt(&c.Database.MySQL.Port, "MYSQL_PORT")
	envOverride(&c.Database.MySQL.User, "MYSQL_USER")
	envOverride(&c.Database.MySQL.Password, "MYSQL_PASSWORD")
	envOverride(&c.Database.MySQL.Name, "MYSQL_DB")
	envOverride(&c.Upload.BasePath, "UPLOAD_BASE_PATH")
	envOverride(&c.Log.Level, "LOG_LEVEL")
	envOverride(&c.Log.File, "LOG_FILE")
	envOverride(&c.Stats.ReconcileCron, "STATS_RECONCILE_CRON")

	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(redisURL)
	}
}

// parseRedisURL parses a Redis URL and sets config values
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	url := strings.TrimPrefix(redisURL, "redis://")

	if atIdx := strings.Index(url, "@"); atIdx != -1 {
		authPart := url[:atIdx]
		url = url[atIdx+1:]
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	if slashIdx := strings.LastIndex(url, "/"); slashIdx != -1 {
		dbStr := url[slashIdx+1:]
		url = url[:slashIdx]
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}

	c.Redis.Addr = url
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
