package config

import "time"

const (
	DefaultHTTPPort        = "8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultTickerTTL       = 60 * time.Second
	DefaultAuxTTL          = 30 * time.Minute
	DefaultSourceSpacing   = time.Second
	DefaultRetryAttempts   = 3
	DefaultRetryBase       = time.Second
	DefaultRequestTimeout  = 15 * time.Second
	DefaultRefreshSchedule = "0 * * * *"
	DefaultManualQueueSize = 16
	DefaultIdempotencyTTL  = 10 * time.Minute
	// DefaultKRWPerUSD is used when a KRW source has no USDT ticker in the batch.
	DefaultKRWPerUSD = 1350.0
)
