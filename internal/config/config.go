package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/peterhellberg/duration"
)

type Config struct {
	Port string

	DBDriver    string
	DBDSN       string
	SeedOnStart bool

	SessionSecret string
	SessionTTL    time.Duration
	SingleUser    bool
	SecureCookie  bool
	CORSOrigins   []string

	DashboardWeakThreshold float64
	ReviewWeakThreshold    float64
	SelectorWeakThreshold  float64
	DrillBatchSize         int
	SAQPassMark            float64
}

// FromEnv reads configuration from the process environment. Callers that
// want .env support load it with godotenv first.
func FromEnv() Config {
	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		DBDriver:      getEnv("DB_DRIVER", "sqlite"),
		DBDSN:         getEnv("DB_DSN", ""),
		SeedOnStart:   envBool("SEED_ON_START", true),
		SessionSecret: getEnv("SESSION_SECRET", ""),
		SessionTTL:    envISODuration("SESSION_TTL", "P365D"),
		SingleUser:    envBool("SINGLE_USER", false),
		SecureCookie:  envBool("SECURE_COOKIE", false),
		CORSOrigins:   csvOr("CORS_ORIGINS", "*"),

		DashboardWeakThreshold: envFloat("DASHBOARD_WEAK_THRESHOLD", 0.8),
		ReviewWeakThreshold:    envFloat("REVIEW_WEAK_THRESHOLD", 0.8),
		SelectorWeakThreshold:  envFloat("SELECTOR_WEAK_THRESHOLD", 0.7),
		DrillBatchSize:         envInt("DRILL_BATCH_SIZE", 10),
		SAQPassMark:            envFloat("SAQ_PASS_MARK", 0.5),
	}

	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "studycoach-dev-session-secret"
		log.Printf("[config] WARN: SESSION_SECRET not set, using development key")
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
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

func envInt(k string, def int) int {
	v, err := strconv.Atoi(os.Getenv(k))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// envFloat accepts values in (0, 1]; anything else falls back to def.
func envFloat(k string, def float64) float64 {
	raw := os.Getenv(k)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 || v > 1 {
		log.Printf("[config] WARN: %s=%q out of range, using %.2f", k, raw, def)
		return def
	}
	return v
}

// envISODuration parses an ISO 8601 duration such as "P30D" or "PT12H".
func envISODuration(k, def string) time.Duration {
	raw := getEnv(k, def)
	d, err := duration.Parse(raw)
	if err != nil || d <= 0 {
		log.Printf("[config] WARN: %s=%q is not a positive ISO 8601 duration, using %s", k, raw, def)
		d, _ = duration.Parse(def)
	}
	return d
}

func csvOr(k, def string) []string {
	v := getEnv(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
