package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Log    LogConfig
	Solver SolverConfig
	Jobs   JobsConfig
	Redis  RedisConfig
}

type LogConfig struct {
	Level  string
	Format string
}

// SolverConfig holds the server-side caps; per-request values may only
// tighten them.
type SolverConfig struct {
	MaxTimeLimit time.Duration
	MaxWorkers   int
}

type JobsConfig struct {
	Store         string // "memory" or "redis"
	TTL           time.Duration
	SweepInterval time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	setDefaults(v)

	// A missing .env file is fine; the environment and defaults cover it.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}

	cfg := &Config{}
	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Solver = SolverConfig{
		MaxTimeLimit: parseDuration(v.GetString("SOLVER_MAX_TIME_LIMIT"), 10*time.Minute),
		MaxWorkers:   v.GetInt("SOLVER_MAX_WORKERS"),
	}

	cfg.Jobs = JobsConfig{
		Store:         v.GetString("JOB_STORE"),
		TTL:           parseDuration(v.GetString("JOB_TTL"), time.Hour),
		SweepInterval: parseDuration(v.GetString("JOB_SWEEP_INTERVAL"), time.Minute),
	}

	cfg.Redis = RedisConfig{
		Addr:     v.GetString("REDIS_ADDR"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SOLVER_MAX_TIME_LIMIT", "10m")
	v.SetDefault("SOLVER_MAX_WORKERS", 8)

	v.SetDefault("JOB_STORE", "memory")
	v.SetDefault("JOB_TTL", "1h")
	v.SetDefault("JOB_SWEEP_INTERVAL", "1m")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
