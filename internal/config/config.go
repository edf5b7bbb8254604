package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Storage struct {
		// Driver is one of memory, file, redis, sqlite.
		Driver     string `yaml:"driver"`
		Dir        string `yaml:"dir"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		BankPath     string `yaml:"bank_path"`
		BankTTL      string `yaml:"bank_ttl"`
		Timezone     string `yaml:"timezone"`
		WriteTimeout string `yaml:"write_timeout"`
	} `yaml:"quiz"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	var cfg Config
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "8080"
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Storage.Driver = "file"
	cfg.Storage.Dir = "data"
	cfg.Storage.SQLitePath = "data/ranczo.db"
	cfg.Redis.Prefix = "ranczo:"
	cfg.Quiz.BankTTL = "10m"
	cfg.Quiz.Timezone = "UTC"
	cfg.Quiz.WriteTimeout = "5s"
	return cfg
}

// Load reads YAML config from path on top of Default. A missing file is not
// an error. A .env file in the working directory and QUIZ_* environment
// variables override file values.
func Load(path string) (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	envString("QUIZ_HOST", &cfg.Server.Host)
	envString("QUIZ_LOG_LEVEL", &cfg.Log.Level)
	envString("QUIZ_LOG_FORMAT", &cfg.Log.Format)
	envString("QUIZ_STORAGE_DRIVER", &cfg.Storage.Driver)
	envString("QUIZ_STORAGE_DIR", &cfg.Storage.Dir)
	envString("QUIZ_SQLITE_PATH", &cfg.Storage.SQLitePath)
	envString("QUIZ_REDIS_ADDR", &cfg.Redis.Addr)
	envString("QUIZ_REDIS_PASSWORD", &cfg.Redis.Password)
	envInt("QUIZ_REDIS_DB", &cfg.Redis.DB)
	envString("QUIZ_REDIS_PREFIX", &cfg.Redis.Prefix)
	envString("QUIZ_POSTGRES_URL", &cfg.Postgres.URL)
	envString("QUIZ_BANK_PATH", &cfg.Quiz.BankPath)
	envString("QUIZ_TIMEZONE", &cfg.Quiz.Timezone)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}

// Location resolves the configured time zone, falling back to UTC.
func (c Config) Location() *time.Location {
	if c.Quiz.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Quiz.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
