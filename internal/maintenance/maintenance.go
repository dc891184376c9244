// Package maintenance schedules the background sweeps that keep the gate's
// in-process state and the persistent store tidy.
package maintenance

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/vigilops/ipsentry/internal/logger"
	"github.com/vigilops/ipsentry/internal/reputation"
	"github.com/vigilops/ipsentry/internal/services"
)

// Start schedules the periodic jobs and starts the scheduler. The caller
// owns the returned cron and must Stop it on shutdown.
func Start(gate *reputation.Gate, store *services.TierStoreService) *cron.Cron {
	c := cron.New()
	log := logger.WithField("component", "maintenance")

	// Local cache entries expire after 24h; an hourly sweep keeps memory bounded.
	_, _ = c.AddFunc("@every 1h", func() {
		if removed := gate.SweepCache(); removed > 0 {
			log.WithField("removed", removed).Debug("swept expired cache entries")
		}
	})

	// Safety net for leaked in-flight slots; normal completion cleans up after itself.
	_, _ = c.AddFunc("@every 30s", func() {
		if removed := gate.SweepInflight(); removed > 0 {
			log.WithField("removed", removed).Warn("evicted stale in-flight lookups")
		}
	})

	// Expired tier rows are invisible to lookups; purge daily to reclaim space.
	_, _ = c.AddFunc("@every 24h", func() {
		if purged, err := store.PurgeExpired(context.Background()); err != nil {
			log.WithError(err).Warn("failed to purge expired tier entries")
		} else if purged > 0 {
			log.WithField("purged", purged).Info("purged expired tier entries")
		}
	})

	c.Start()
	return c
}
