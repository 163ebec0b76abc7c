package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Storage
	StorageBackend  string        // "redis" | "sqlite" | "file" | "memory"
	StorageKey      string        // key holding the sports blob (default: extendedSportsConfig)
	SQLitePath      string        // database path for the sqlite backend
	DataFile        string        // YAML document for the file backend
	WatchDataFile   bool          // refresh when the file backend's document changes on disk
	SeedFile        string        // optional YAML list replacing the built-in seed
	RefreshInterval time.Duration // periodic re-read of storage (0 = only on demand)

	// Mutation rate limiting, per client IP
	MutationBurst       int // bucket size
	MutationRefillPerMn int // tokens added per minute

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts []string // optional, restrict mutations and /reload to specific Host headers
	AllowedCIDRS []string // optional, restrict mutations and probes to specific IPs (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

var backends = map[string]bool{"redis": true, "sqlite": true, "file": true, "memory": true}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("HUDDLE_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("HUDDLE_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("HUDDLE_LOG_LEVEL", "info"),
		PrettyLog: mustBool("HUDDLE_PRETTY_LOG", true),

		// Storage
		StorageBackend:  strings.ToLower(getenv("HUDDLE_STORAGE_BACKEND", "redis")),
		StorageKey:      getenv("HUDDLE_STORAGE_KEY", "extendedSportsConfig"),
		SQLitePath:      getenv("HUDDLE_SQLITE_PATH", "/data/huddle.db"),
		DataFile:        getenv("HUDDLE_DATA_FILE", "/data/huddle.yaml"),
		WatchDataFile:   mustBool("HUDDLE_WATCH_DATA_FILE", true),
		SeedFile:        getenv("HUDDLE_SEED_FILE", ""),
		RefreshInterval: mustDuration("HUDDLE_REFRESH_INTERVAL", time.Minute),

		MutationBurst:       getenvInt("HUDDLE_MUTATION_BURST", 10),
		MutationRefillPerMn: getenvInt("HUDDLE_MUTATION_REFILL_PER_MIN", 30),

		// Redis tuning, shared by every backend choice
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("HUDDLE_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("HUDDLE_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("HUDDLE_TRUST_PROXY", false),
	}

	if !backends[cfg.StorageBackend] {
		panic(fmt.Sprintf("❌ FATAL: Unknown HUDDLE_STORAGE_BACKEND %q (want redis, sqlite, file or memory)", cfg.StorageBackend))
	}

	if cfg.StorageBackend == "redis" {
		cfg.RedisAddr = requireEnv("HUDDLE_REDIS_ADDR")
		cfg.RedisDB = requireEnvInt("HUDDLE_REDIS_DB")
		cfg.RedisUser = getenv("HUDDLE_REDIS_USERNAME", "default")
		cfg.RedisPasswordRequired = mustBool("HUDDLE_REDIS_PASSWORD_REQUIRED", true)
		cfg.RedisPassword = getenv("HUDDLE_REDIS_PASSWORD", "")

		// Validate Redis password configuration
		if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
			panic("❌ FATAL: HUDDLE_REDIS_PASSWORD is required when HUDDLE_REDIS_PASSWORD_REQUIRED=true")
		}
	}

	if strings.TrimSpace(cfg.StorageKey) == "" {
		panic("❌ FATAL: HUDDLE_STORAGE_KEY must not be blank")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	if cp.RedisUser != "" {
		cp.RedisUser = "***REDACTED***"
	}
	return cp
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
