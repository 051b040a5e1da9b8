package scheduler

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/casaleverde/bookingengine/internal/snapcache"
)

const sweepInterval = time.Minute

// RegisterCacheSweep registers the periodic eviction of expired availability
// snapshots. Expired entries are also evicted lazily on lookup; the sweep
// keeps an idle cache from holding stale windows indefinitely.
func RegisterCacheSweep(store snapcache.Store) error {
	jobLogger := log.With().Str("component", "snapshot_cache_sweep").Logger()

	_, err := AddIntervalJob("snapshot_cache_sweep", sweepInterval, func() {
		if evicted := store.Sweep(); evicted > 0 {
			jobLogger.Debug().Int("evicted", evicted).Msg("Evicted expired snapshots")
		}
	})
	return err
}
