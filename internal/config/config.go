package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"liveroom/internal/model"
)

// Config holds process configuration, read from the environment with
// development defaults.
type Config struct {
	MongoURI  string
	MongoDB   string
	RedisAddr string
	Port      string

	JWTSecret    string
	HostUsername string
	HostPassword string

	// BuzzPolicy decides whether buzzes while open queue up or latch
	// after the first; see model.BuzzPolicy.
	BuzzPolicy model.BuzzPolicy

	// RecentInteractions is the size of the bounded interaction window
	// served to clients; the unbounded log stays in the document store.
	RecentInteractions int

	// JoinTimeout bounds room/participant validation during a join; a
	// join that cannot validate in time fails outright.
	JoinTimeout time.Duration
}

// Load reads configuration from the environment.
func Load() *Config {
	return &Config{
		MongoURI:           getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:            getEnvOrDefault("MONGO_DB", "liveroom"),
		RedisAddr:          redisAddr(getEnvOrDefault("REDIS_URI", "localhost:6379")),
		Port:               getEnvOrDefault("PORT", "8080"),
		JWTSecret:          getEnvOrDefault("JWT_SECRET", "super-secret-key-change-in-production"),
		HostUsername:       getEnvOrDefault("HOST_USERNAME", "admin"),
		HostPassword:       getEnvOrDefault("HOST_PASSWORD", "password123"),
		BuzzPolicy:         buzzPolicy(getEnvOrDefault("BUZZ_POLICY", string(model.BuzzPolicyQueue))),
		RecentInteractions: getEnvIntOrDefault("RECENT_INTERACTIONS", 5),
		JoinTimeout:        getEnvDurationOrDefault("JOIN_TIMEOUT", 5*time.Second),
	}
}

func buzzPolicy(v string) model.BuzzPolicy {
	if model.BuzzPolicy(v) == model.BuzzPolicyFirst {
		return model.BuzzPolicyFirst
	}
	return model.BuzzPolicyQueue
}

// redisAddr strips an optional redis:// scheme so the value works as a
// plain host:port for the client.
func redisAddr(v string) string {
	return strings.TrimPrefix(v, "redis://")
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
