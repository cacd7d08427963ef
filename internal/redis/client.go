// Package redis provides the connection to the game state store. The store
// holds every player record, battle, and leaderboard hash; the process cannot
// serve combat traffic without it, so a failed connection at startup is fatal
// to the caller.
package redis

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps the go-redis client shared by the ledger, battle engine, and
// leaderboard index.
type Client struct {
	*redis.Client
}

// Config holds the game state store connection settings.
type Config struct {
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LoadConfigFromEnv reads connection settings from REDIS_* environment
// variables, falling back to local-development defaults.
func LoadConfigFromEnv() *Config {
	return &Config{
		Host:         getEnv("REDIS_HOST", "localhost"),
		Port:         getEnv("REDIS_PORT", "6379"),
		Password:     getEnv("REDIS_PASSWORD", ""),
		DB:           getEnvAsInt("REDIS_DB", 0),
		PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
		DialTimeout:  getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  getEnvAsDuration("REDIS_READ_TIMEOUT", 10*time.Second),
		WriteTimeout: getEnvAsDuration("REDIS_WRITE_TIMEOUT", 10*time.Second),
	}
}

// NewClient connects to the store and verifies the connection with a ping
// bounded by the dial timeout.
func NewClient(config *Config) (*Client, error) {
	addr := net.JoinHostPort(config.Host, config.Port)

	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), config.DialTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to reach game state store at %s: %w", addr, err)
	}

	log.Printf("[Redis] Connected to %s (db %d, pool %d)", addr, config.DB, config.PoolSize)

	return &Client{rdb}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("[Redis] Ignoring %s=%q: not an integer, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("[Redis] Ignoring %s=%q: not a duration, using %s", key, raw, defaultValue)
		return defaultValue
	}
	return value
}
