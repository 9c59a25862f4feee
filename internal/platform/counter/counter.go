// Package counter provides monotonically increasing named counters used to
// allocate per-day patient sequence numbers.
package counter

import (
	"context"
	"time"
)

// Store hands out successive values for a named counter. The first call for a
// key returns 1 and arms the TTL; later calls increment without touching it.
type Store interface {
	Next(ctx context.Context, key string, ttl time.Duration) (uint64, error)
}
