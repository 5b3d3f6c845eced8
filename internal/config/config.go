package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Storage backends. Storage applies to bookings and quotes; ChatStorage
// applies to messages.
const (
	StorageFile   = "file"
	StorageSQL    = "sql"
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Config holds server configuration loaded from an optional YAML file and
// environment variables. Environment variables win over the file.
type Config struct {
	Port         string `yaml:"port"`
	DataDir      string `yaml:"data_dir"`
	Storage      string `yaml:"storage"`
	ChatStorage  string `yaml:"chat_storage"`
	DBDriver     string `yaml:"db_driver"`
	DBDSN        string `yaml:"db_dsn"`
	RedisAddr    string `yaml:"redis_addr"`
	RedisPass    string `yaml:"redis_password"`
	RedisDB      int    `yaml:"redis_db"`
	RedisPrefix  string `yaml:"redis_prefix"`
	LatestWindow int    `yaml:"latest_window"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
	LogLevel     string `yaml:"log_level"`
	LogFormat    string `yaml:"log_format"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:         "9090",
		DataDir:      "data",
		Storage:      StorageFile,
		ChatStorage:  StorageMemory,
		DBDriver:     "sqlite",
		DBDSN:        "collections.db",
		RedisAddr:    "localhost:6379",
		RedisPrefix:  "collections:",
		LatestWindow: 10,
		MaxBodyBytes: 1 << 20,
		LogLevel:     "info",
		LogFormat:    "json",
	}
}

// Load reads configuration from environment variables with sensible
// defaults. If CONFIG_FILE is set, that YAML file is applied first.
func Load() (Config, error) {
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

// LoadFile applies the YAML file at path (if non-empty) over the defaults
// and then the environment over both.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Port = envOrDefault("PORT", cfg.Port)
	cfg.DataDir = envOrDefault("DATA_DIR", cfg.DataDir)
	cfg.Storage = envOrDefault("STORAGE", cfg.Storage)
	cfg.ChatStorage = envOrDefault("CHAT_STORAGE", cfg.ChatStorage)
	cfg.DBDriver = envOrDefault("DB_DRIVER", cfg.DBDriver)
	cfg.DBDSN = envOrDefault("DB_DSN", cfg.DBDSN)
	cfg.RedisAddr = envOrDefault("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPass = envOrDefault("REDIS_PASSWORD", cfg.RedisPass)
	cfg.RedisDB = envOrDefaultInt("REDIS_DB", cfg.RedisDB)
	cfg.RedisPrefix = envOrDefault("REDIS_PREFIX", cfg.RedisPrefix)
	cfg.LatestWindow = envOrDefaultInt("LATEST_WINDOW", cfg.LatestWindow)
	cfg.MaxBodyBytes = int64(envOrDefaultInt("MAX_BODY_BYTES", int(cfg.MaxBodyBytes)))
	cfg.LogLevel = envOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOrDefault("LOG_FORMAT", cfg.LogFormat)

	return cfg, cfg.Validate()
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	for _, storage := range []string{c.Storage, c.ChatStorage} {
		switch storage {
		case StorageFile, StorageSQL, StorageMemory, StorageRedis:
		default:
			return fmt.Errorf("unknown storage %q", storage)
		}
	}
	if c.LatestWindow <= 0 {
		return fmt.Errorf("latest_window must be positive, got %d", c.LatestWindow)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive, got %d", c.MaxBodyBytes)
	}
	return nil
}

// DataFile returns the path of a collection's JSON file.
func (c Config) DataFile(collection string) string {
	return filepath.Join(c.DataDir, collection+".json")
}

// RedisKey returns the Redis key holding a collection.
func (c Config) RedisKey(collection string) string {
	return c.RedisPrefix + collection
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
