package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Planning holds the settings shared by every entry point that builds a plan
// (CLI, Pulumi program, plan server).
type Planning struct {
	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	PlatformFile       string // path to platform.yaml, empty = embedded table
	Environment        string // deployment target: prod, staging, dev...
	Subdomain          string // optional prefix for every hostname (ex: "staging")
	DedicatedDatabases bool   // one database per site instead of one per bundle
	LegacyReplication  bool   // plan DMS replication from legacy servers (prod only)
}

// Config is the plan server configuration.
type Config struct {
	Planning

	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	ReloadInterval  time.Duration // interval to rebuild the plan from the platform file
	CollectInterval time.Duration // interval to drop stale site keys from redis

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
	RedisWarnThreshold    int           // failed attempts logged as warnings before switching to errors

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict access to specific IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers

	RateLimitBurst  int // requests allowed in a burst per client IP
	RateLimitPerMin int // sustained requests per minute per client IP
}

// LoadPlanning reads the planning settings only. It never panics: every
// field has a default.
func LoadPlanning() Planning {
	return Planning{
		LogLevel:  getenv("SITEFLEET_LOG_LEVEL", "info"),
		PrettyLog: mustBool("SITEFLEET_PRETTY_LOG", true),

		PlatformFile:       getenv("SITEFLEET_PLATFORM_FILE", ""),
		Environment:        getenv("SITEFLEET_ENV", "dev"),
		Subdomain:          getenv("SITEFLEET_SUBDOMAIN", ""),
		DedicatedDatabases: mustBool("SITEFLEET_DEDICATED_DATABASES", false),
		LegacyReplication:  mustBool("SITEFLEET_LEGACY_REPLICATION", false),
	}
}

// Load reads the plan server configuration and panics when a required
// variable is missing.
func Load() *Config {
	cfg := &Config{
		Planning: LoadPlanning(),

		// Server settings
		ListenPort:      getenv("SITEFLEET_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("SITEFLEET_SHUTDOWN_TIMEOUT", 5*time.Second),
		ReloadInterval:  mustDuration("SITEFLEET_RELOAD_INTERVAL", time.Hour),
		CollectInterval: mustDuration("SITEFLEET_COLLECT_INTERVAL", 24*time.Hour),

		// Redis settings
		RedisAddr:             requireEnv("SITEFLEET_REDIS_ADDR"),
		RedisUser:             getenv("SITEFLEET_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("SITEFLEET_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("SITEFLEET_REDIS_PASSWORD", ""),
		RedisDB:               requireEnvInt("SITEFLEET_REDIS_DB"),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("SITEFLEET_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("SITEFLEET_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("SITEFLEET_TRUST_PROXY", false),

		RateLimitBurst:  getenvInt("SITEFLEET_RATE_LIMIT_BURST", 30),
		RateLimitPerMin: getenvInt("SITEFLEET_RATE_LIMIT_PER_MIN", 120),
	}

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: SITEFLEET_REDIS_PASSWORD is required when SITEFLEET_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
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
	v := requireEnv(key)
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
