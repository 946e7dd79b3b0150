package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr string `yaml:"http_addr"`

	DBDriver string `yaml:"db_driver"`
	DBDSN    string `yaml:"db_dsn"`

	AuthSecret      string `yaml:"auth_secret"`
	EnableLocalAuth bool   `yaml:"enable_local_auth"`
	EnableGuestAuth bool   `yaml:"enable_guest_auth"`

	CORSOrigins []string `yaml:"cors_origins"`

	// SubmitGrace is the slack past a test's stated duration before a
	// submission is rejected as late.
	SubmitGrace time.Duration `yaml:"submit_grace"`
	// SessionMaxAge bounds how long a start stamp is kept before the
	// janitor purges it.
	SessionMaxAge time.Duration `yaml:"session_max_age"`
	JanitorSpec   string        `yaml:"janitor_spec"`

	SeedDemoData bool `yaml:"seed_demo_data"`
}

// FromEnv builds config from the environment, with an optional YAML overlay
// named by CONFIG_FILE applied first (env always wins).
func FromEnv() (Config, error) {
	cfg := Config{
		HTTPAddr:        ":8080",
		DBDriver:        "sqlite",
		AuthSecret:      "supersecret-dev-key",
		EnableLocalAuth: true,
		EnableGuestAuth: true,
		CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		SubmitGrace:     30 * time.Second,
		SessionMaxAge:   24 * time.Hour,
		JanitorSpec:     "@every 10m",
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.HTTPAddr = envOr("HTTP_ADDR", cfg.HTTPAddr)
	cfg.DBDriver = envOr("DB_DRIVER", cfg.DBDriver)
	cfg.DBDSN = envOr("DB_DSN", cfg.DBDSN)
	cfg.AuthSecret = envOr("AUTH_HMAC_SECRET", cfg.AuthSecret)
	cfg.EnableLocalAuth = envBool("ENABLE_LOCAL_AUTH", cfg.EnableLocalAuth)
	cfg.EnableGuestAuth = envBool("ENABLE_GUEST_AUTH", cfg.EnableGuestAuth)
	cfg.CORSOrigins = csvOr("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.SubmitGrace = envDuration("SUBMIT_GRACE", cfg.SubmitGrace)
	cfg.SessionMaxAge = envDuration("SESSION_MAX_AGE", cfg.SessionMaxAge)
	cfg.JanitorSpec = envOr("JANITOR_SPEC", cfg.JanitorSpec)
	cfg.SeedDemoData = envBool("SEED_DEMO_DATA", cfg.SeedDemoData)
	return cfg, nil
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

func csvOr(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
