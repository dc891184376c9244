// Package guard applies the reputation gate to inbound HTTP traffic. It is
// the enforcement edge: the gate decides, the guard translates the decision
// into pass / monitor / reject per request.
package guard

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/vigilops/ipsentry/internal/config"
	"github.com/vigilops/ipsentry/internal/logger"
	"github.com/vigilops/ipsentry/internal/metrics"
	"github.com/vigilops/ipsentry/internal/reputation"
)

// Guard evaluates each request's source address against the durable block
// list and the reputation gate.
type Guard struct {
	mode  string
	gate  *reputation.Gate
	store reputation.Store
	log   *logrus.Entry
}

// New creates a Guard in the given mode ("disabled", "monitor", "block").
func New(mode string, gate *reputation.Gate, store reputation.Store) *Guard {
	return &Guard{
		mode:  mode,
		gate:  gate,
		store: store,
		log:   logger.WithField("component", "guard"),
	}
}

// IsEnabled reports whether the guard inspects traffic at all.
func (g *Guard) IsEnabled() bool {
	return g.gate != nil && (g.mode == config.GuardModeMonitor || g.mode == config.GuardModeBlock)
}

// Middleware returns a Gin middleware enforcing guard decisions. Blacklisted
// sources are rejected in block mode and logged in monitor mode; yellowlisted
// sources always pass but are flagged. Everything else passes untouched —
// including addresses the gate could not classify (fail-open).
func (g *Guard) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !g.IsEnabled() {
			ctx.Next()
			return
		}

		metrics.IncGuardRequest()
		clientIP := ctx.ClientIP()

		if g.store != nil {
			if blocked, err := g.store.IsBlocked(ctx.Request.Context(), reputation.Normalize(clientIP)); err == nil && blocked {
				if g.mode == config.GuardModeBlock {
					metrics.IncGuardBlocked()
					ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "source address is blocked"})
					return
				}
				metrics.IncGuardMonitored()
				g.log.WithField("ip", clientIP).Warn("blocked address passed in monitor mode")
				ctx.Next()
				return
			}
		}

		res := g.gate.CheckReputation(ctx.Request.Context(), clientIP, 0, false)
		switch res.Tier {
		case reputation.TierBlacklist:
			entry := g.log.WithFields(logrus.Fields{
				"ip":         res.Address,
				"confidence": res.Confidence,
				"reports":    res.ReportCount,
				"path":       ctx.Request.URL.Path,
			})
			if g.mode == config.GuardModeBlock {
				metrics.IncGuardBlocked()
				entry.Warn("rejected request from blacklisted address")
				ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "source address is blocked"})
				return
			}
			metrics.IncGuardMonitored()
			entry.Warn("blacklisted address passed in monitor mode")
		case reputation.TierYellowlist:
			metrics.IncGuardMonitored()
			g.log.WithFields(logrus.Fields{
				"ip":         res.Address,
				"confidence": res.Confidence,
				"path":       ctx.Request.URL.Path,
			}).Info("monitoring request from yellowlisted address")
		}

		ctx.Next()
	}
}
