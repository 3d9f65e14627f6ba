package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"tickerboard/internal/domain"
	defaults "tickerboard/internal/infrastructure/config"
)

type Config struct {
	// Common
	Env      string
	LogLevel string
	// API
	Port            string
	ShutdownTimeout time.Duration
	// Sources
	Provider        string
	Sources         []string
	SourcesFile     string
	TopN            int
	HistoryDepth    int
	TickerTTL       time.Duration
	AuxTTL          time.Duration
	KRWFallbackRate float64
	// Upstream HTTP
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryBase      time.Duration
	// Scheduler
	RefreshSchedule string
	SourceSpacing   time.Duration
	ManualQueueSize int
	// Redis (idempotency)
	IdempotencyBackend string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	RedisTTL           time.Duration
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func durMS(key string, def time.Duration) time.Duration {
	return time.Duration(atoiDef(getEnv(key, ""), int(def/time.Millisecond))) * time.Millisecond
}

// topN keeps the ranking size within 1..domain.DefaultTopN.
func topN(s string) int {
	n := atoiDef(s, domain.DefaultTopN)
	if n < 1 || n > domain.DefaultTopN {
		return domain.DefaultTopN
	}
	return n
}

func floatDef(s string, def float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}

func defaultSources() string {
	ids := make([]string, len(domain.DefaultSourceOrder))
	for i, id := range domain.DefaultSourceOrder {
		ids[i] = string(id)
	}
	return strings.Join(ids, ",")
}

// Load reads environment variables and applies defaults.
func Load() Config {
	return Config{
		Env:                getEnv("ENV", "local"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		Port:               getEnv("PORT", defaults.DefaultHTTPPort),
		ShutdownTimeout:    durMS("SHUTDOWN_TIMEOUT_MS", defaults.DefaultShutdownTimeout),
		Provider:           getEnv("PROVIDER", "exchanges"),
		Sources:            splitList(getEnv("SOURCES", defaultSources())),
		SourcesFile:        getEnv("SOURCES_FILE", ""),
		TopN:               topN(getEnv("TOP_N", "")),
		HistoryDepth:       atoiDef(getEnv("HISTORY_DEPTH", ""), domain.DefaultHistoryDepth),
		TickerTTL:          durMS("TICKER_TTL_MS", defaults.DefaultTickerTTL),
		AuxTTL:             durMS("AUX_TTL_MS", defaults.DefaultAuxTTL),
		KRWFallbackRate:    floatDef(getEnv("KRW_FALLBACK_RATE", ""), defaults.DefaultKRWPerUSD),
		RequestTimeout:     durMS("REQUEST_TIMEOUT_MS", defaults.DefaultRequestTimeout),
		RetryAttempts:      atoiDef(getEnv("RETRY_ATTEMPTS", ""), defaults.DefaultRetryAttempts),
		RetryBase:          durMS("RETRY_BASE_MS", defaults.DefaultRetryBase),
		RefreshSchedule:    getEnv("REFRESH_SCHEDULE", defaults.DefaultRefreshSchedule),
		SourceSpacing:      durMS("SOURCE_SPACING_MS", defaults.DefaultSourceSpacing),
		ManualQueueSize:    atoiDef(getEnv("MANUAL_QUEUE_SIZE", ""), defaults.DefaultManualQueueSize),
		IdempotencyBackend: getEnv("IDEMPOTENCY_BACKEND", "none"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            atoiDef(getEnv("REDIS_DB", "0"), 0),
		RedisTTL:           durMS("IDEMPOTENCY_TTL_MS", defaults.DefaultIdempotencyTTL),
	}
}
