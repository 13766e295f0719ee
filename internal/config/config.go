// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds every tunable of the server process.
type Config struct {
	Port     int
	LogLevel string

	IdleTimeout   time.Duration
	SweepInterval time.Duration
	BotCount      int
	RandomizeBet  bool
	MaxBet        int
	SendBuffer    int

	ProfilesPath           string
	DatabaseURL            string
	ProfileRefreshInterval time.Duration

	RedisAddr     string
	RedisDB       int
	ActivityQueue string
}

// Load reads the environment, falling back to defaults for unset keys.
// Malformed values are reported rather than silently replaced.
func Load() (Config, error) {
	var errs []error
	intVar := func(key string, def int) int {
		v, err := getEnvInt(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	durVar := func(key string, def time.Duration) time.Duration {
		v, err := getEnvDuration(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	boolVar := func(key string, def bool) bool {
		v, err := getEnvBool(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	cfg := Config{
		Port:                   intVar("PORT", 20006),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		IdleTimeout:            durVar("LOBBY_IDLE_TIMEOUT", 30*time.Second),
		SweepInterval:          durVar("LOBBY_SWEEP_INTERVAL", 10*time.Second),
		BotCount:               intVar("LOBBY_BOT_COUNT", 0),
		RandomizeBet:           boolVar("LOBBY_RANDOMIZE_BET", false),
		MaxBet:                 intVar("LOBBY_MAX_BET", 5),
		SendBuffer:             intVar("WS_SEND_BUFFER", 32),
		ProfilesPath:           getEnv("PROFILES_PATH", "data/profiles.json"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		ProfileRefreshInterval: durVar("PROFILE_REFRESH_INTERVAL", time.Minute),
		RedisAddr:              getEnv("REDIS_ADDR", ""),
		RedisDB:                intVar("REDIS_DB", 0),
		ActivityQueue:          getEnv("ACTIVITY_QUEUE_NAME", "picturepoker_activity"),
	}
	if len(errs) > 0 {
		return cfg, errs[0]
	}
	return cfg, cfg.Validate()
}

// Validate checks ranges that the lobby core depends on.
func (c Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("invalid port %d", c.Port)
	case c.IdleTimeout <= 0:
		return fmt.Errorf("idle timeout must be positive, got %s", c.IdleTimeout)
	case c.SweepInterval <= 0:
		return fmt.Errorf("sweep interval must be positive, got %s", c.SweepInterval)
	case c.BotCount < 0 || c.BotCount > 3:
		return fmt.Errorf("bot count must be between 0 and 3, got %d", c.BotCount)
	case c.MaxBet < 1:
		return fmt.Errorf("max bet must be at least 1, got %d", c.MaxBet)
	case c.ProfileRefreshInterval <= 0:
		return fmt.Errorf("profile refresh interval must be positive, got %s", c.ProfileRefreshInterval)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
