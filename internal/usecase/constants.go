package usecase

import "time"

const (
	// DefaultCacheTTL is how long a date query result stays cached.
	DefaultCacheTTL = 5 * time.Minute

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour
)
