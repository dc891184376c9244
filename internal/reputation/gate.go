package reputation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vigilops/ipsentry/internal/logger"
	"github.com/vigilops/ipsentry/internal/metrics"
)

// DefaultMaxAgeDays is the report window passed to the oracle when the
// caller does not specify one.
const DefaultMaxAgeDays = 90

// TierHit is the answer from a persistent tier lookup. Expired entries are
// filtered by the store itself and come back as misses.
type TierHit struct {
	Hit        bool
	Confidence float64
	ExpiresAt  time.Time
}

// Store is the persistent tiered list store consulted before and updated
// after oracle lookups. All methods may fail; tier-check failures are
// treated as misses and addTo failures are logged only, so an unavailable
// store never blocks traffic. BlockIP failure is load-bearing in
// CheckAndBlock and nowhere else.
type Store interface {
	IsInWhitelist(ctx context.Context, address string) (TierHit, error)
	IsInYellowlist(ctx context.Context, address string) (TierHit, error)
	AddToWhitelist(ctx context.Context, address string, confidence float64, reports, ttlDays int) error
	AddToYellowlist(ctx context.Context, address string, confidence float64, reports, ttlDays int) error
	IsBlocked(ctx context.Context, address string) (bool, error)
	BlockIP(ctx context.Context, address, reason string) error
}

// Checker performs one lookup against the external abuse-reporting oracle.
type Checker interface {
	Check(ctx context.Context, address string, maxAgeDays int) (Report, error)
}

// Notifier receives block events for out-of-band alerting.
type Notifier interface {
	NotifyBlocked(address, reason string, confidence float64)
}

// Gate decides, per address, whether traffic should pass, be monitored, or
// be hard-blocked. It owns the local result cache and the in-flight
// registry exclusively; the persistent store is reached only through the
// injected Store.
type Gate struct {
	thresholds Thresholds
	enabled    bool
	store      Store
	checker    Checker
	notifier   Notifier
	cache      *resultCache
	inflight   *inflightRegistry
	log        *logrus.Entry
	now        func() time.Time
}

// NewGate wires a gate with its collaborators. checker may be nil when no
// oracle credential is configured; the gate then fails open. enabled=false
// disables fresh lookups entirely while persistent tiers keep working.
func NewGate(thresholds Thresholds, store Store, checker Checker, enabled bool) *Gate {
	now := time.Now
	return &Gate{
		thresholds: thresholds,
		enabled:    enabled,
		store:      store,
		checker:    checker,
		cache:      newResultCache(now),
		inflight:   newInflightRegistry(now),
		log:        logger.WithField("component", "reputation-gate"),
		now:        now,
	}
}

// SetNotifier attaches an optional block-event notifier.
func (g *Gate) SetNotifier(n Notifier) { g.notifier = n }

// setClock swaps the gate's clock, for tests. The cache and registry share it.
func (g *Gate) setClock(now func() time.Time) {
	g.now = now
	g.cache.now = now
	g.inflight.now = now
}

// Normalize canonicalizes a raw remote address for lookups and cache keys:
// whitespace trimmed, IPv6-mapped IPv4 prefix stripped.
func Normalize(raw string) string {
	address := strings.TrimSpace(raw)
	return strings.TrimPrefix(address, "::ffff:")
}

// isExempt reports addresses that never reach the store or the oracle.
func isExempt(address string) bool {
	switch address {
	case "", "unknown", "localhost":
		return true
	}
	if ip := net.ParseIP(address); ip != nil && ip.IsLoopback() {
		return true
	}
	return false
}

// CheckReputation resolves the reputation of rawAddress. Each stage may
// short-circuit: exempt addresses, persistent tiers, the local cache, a
// joined in-flight lookup, then a fresh oracle call. It never returns a
// hard error; upstream failures collapse to an unclassified result with
// the cause recorded on Result.Err (fail-open).
func (g *Gate) CheckReputation(ctx context.Context, rawAddress string, maxAgeDays int, forceFresh bool) Result {
	metrics.IncCheck()

	address := Normalize(rawAddress)
	if isExempt(address) {
		return Result{Address: address, Tier: TierUnclassified}
	}
	if maxAgeDays <= 0 {
		maxAgeDays = DefaultMaxAgeDays
	}

	if !forceFresh {
		if res, ok := g.checkPersistentTiers(ctx, address); ok {
			return res
		}
		if res, ok := g.cache.get(address, maxAgeDays); ok {
			metrics.IncCacheHit()
			res.Source = SourceLocalCache
			return res
		}
	}

	if !g.enabled || g.checker == nil {
		return Result{Address: address, Tier: TierUnclassified}
	}

	// Deduplicate on address alone: a second caller with a different
	// window joins the same outstanding call. If the joined call fails,
	// the waiter takes its own turn once the slot clears; failures are
	// never cached and never poison the slot.
	for {
		call, owner := g.inflight.begin(address)
		if owner {
			res := g.freshLookup(ctx, address, maxAgeDays)
			g.inflight.finish(address, call, res, res.Err)
			return res
		}

		select {
		case <-call.done:
			if call.err == nil {
				return call.result
			}
		case <-ctx.Done():
			// The shared call keeps running for the other waiters.
			return Result{Address: address, Tier: TierUnclassified, Err: ctx.Err()}
		}
	}
}

// checkPersistentTiers consults the durable whitelist then yellowlist.
// A store failure is treated as a miss to preserve fail-open.
func (g *Gate) checkPersistentTiers(ctx context.Context, address string) (Result, bool) {
	if g.store == nil {
		return Result{}, false
	}

	if hit, err := g.store.IsInWhitelist(ctx, address); err != nil {
		g.log.WithField("ip", address).WithError(err).Debug("whitelist check failed, treating as miss")
	} else if hit.Hit {
		return Result{
			Address:    address,
			Confidence: hit.Confidence,
			Tier:       TierWhitelist,
			Source:     SourcePersistentWhitelist,
		}, true
	}

	if hit, err := g.store.IsInYellowlist(ctx, address); err != nil {
		g.log.WithField("ip", address).WithError(err).Debug("yellowlist check failed, treating as miss")
	} else if hit.Hit {
		return Result{
			Address:    address,
			Confidence: hit.Confidence,
			Tier:       TierYellowlist,
			Source:     SourcePersistentYellowlist,
		}, true
	}

	return Result{}, false
}

// freshLookup calls the oracle, classifies, persists the side tiers and
// fills the local cache. Blacklist membership is never written here; only
// CheckAndBlock mutates the permanent block list.
func (g *Gate) freshLookup(ctx context.Context, address string, maxAgeDays int) Result {
	metrics.IncOracleCall()

	report, err := g.checker.Check(ctx, address, maxAgeDays)
	if err != nil {
		metrics.IncOracleFailure()
		g.logLookupFailure(address, err)
		return Result{Address: address, Tier: TierUnclassified, Err: err}
	}

	tier := g.thresholds.Classify(report.Confidence)
	res := Result{
		Address:        address,
		IsAbusive:      tier == TierBlacklist,
		Confidence:     report.Confidence,
		ReportCount:    report.Reports,
		UsageType:      report.UsageType,
		CountryCode:    report.CountryCode,
		LastReportedAt: report.LastReportedAt,
		Tier:           tier,
		Source:         SourceFreshLookup,
	}

	g.persistTier(ctx, res)
	g.cache.put(address, maxAgeDays, res)

	return res
}

// persistTier writes whitelist/yellowlist membership through the store.
// Failure is logged only; the classification already computed survives.
func (g *Gate) persistTier(ctx context.Context, res Result) {
	if g.store == nil {
		return
	}

	var err error
	switch res.Tier {
	case TierWhitelist:
		err = g.store.AddToWhitelist(ctx, res.Address, res.Confidence, res.ReportCount, g.thresholds.WhitelistTTLDays)
	case TierYellowlist:
		err = g.store.AddToYellowlist(ctx, res.Address, res.Confidence, res.ReportCount, g.thresholds.YellowlistTTLDays)
	default:
		return
	}
	if err != nil {
		g.log.WithFields(logrus.Fields{"ip": res.Address, "tier": res.Tier}).
			WithError(err).Warn("failed to persist tier membership")
	}
}

func (g *Gate) logLookupFailure(address string, err error) {
	entry := g.log.WithField("ip", address).WithError(err)
	switch {
	case errors.Is(err, ErrOracleRateLimited):
		entry.Warn("abuse lookup rate limited, failing open")
	case errors.Is(err, ErrOracleUnauthorized):
		entry.Error("abuse lookup rejected credential, failing open")
	default:
		entry.Warn("abuse lookup failed, failing open")
	}
}

// CheckAndBlock combines a reputation check with block-store side effects.
// Already-blocked addresses short-circuit without a new lookup. Only here
// is the permanent block list written, and only here does a store-write
// failure become visible to the caller.
func (g *Gate) CheckAndBlock(ctx context.Context, rawAddress, reason string) BlockDecision {
	address := Normalize(rawAddress)
	if isExempt(address) || net.ParseIP(address) == nil {
		return BlockDecision{Blocked: false, Reason: "address is not blockable"}
	}

	if g.store != nil {
		if blocked, err := g.store.IsBlocked(ctx, address); err != nil {
			g.log.WithField("ip", address).WithError(err).Debug("block-list check failed, proceeding")
		} else if blocked {
			return BlockDecision{Blocked: true, Reason: "already blocked"}
		}
	}

	res := g.CheckReputation(ctx, address, 0, false)

	// classify already guarantees the threshold; re-asserted because this
	// is a mutating security action.
	if res.Tier == TierBlacklist && res.Confidence >= g.thresholds.BlacklistMin {
		if reason == "" {
			reason = fmt.Sprintf("abuse confidence %.0f%% across %d reports", res.Confidence, res.ReportCount)
		}
		if g.store == nil {
			return BlockDecision{Blocked: false, Reason: "block list unavailable", Confidence: res.Confidence, Reports: res.ReportCount, Tier: res.Tier}
		}
		if err := g.store.BlockIP(ctx, address, reason); err != nil {
			// A block that silently fails must not be reported as success.
			return BlockDecision{
				Blocked:    false,
				Reason:     fmt.Sprintf("block write failed: %v", err),
				Confidence: res.Confidence,
				Reports:    res.ReportCount,
				Tier:       res.Tier,
			}
		}
		metrics.IncBlocked()
		g.log.WithFields(logrus.Fields{"ip": address, "confidence": res.Confidence, "reports": res.ReportCount}).
			Warn("address added to permanent block list")
		if g.notifier != nil {
			g.notifier.NotifyBlocked(address, reason, res.Confidence)
		}
		return BlockDecision{Blocked: true, Reason: reason, Confidence: res.Confidence, Reports: res.ReportCount, Tier: res.Tier}
	}

	switch res.Tier {
	case TierWhitelist:
		reason = fmt.Sprintf("whitelisted with confidence %.0f%%", res.Confidence)
	case TierYellowlist:
		reason = fmt.Sprintf("yellowlisted with confidence %.0f%%, monitored", res.Confidence)
	default:
		if res.Err != nil {
			reason = "reputation unavailable, failing open"
		} else {
			reason = "unclassified"
		}
	}
	return BlockDecision{Blocked: false, Reason: reason, Confidence: res.Confidence, Reports: res.ReportCount, Tier: res.Tier}
}

// SweepCache drops expired local cache entries. Intended for periodic
// invocation by the maintenance scheduler.
func (g *Gate) SweepCache() int {
	return g.cache.sweep()
}

// SweepInflight evicts in-flight slots older than InflightMaxAge. Normal
// completion removes its own slot; this only covers leaks.
func (g *Gate) SweepInflight() int {
	return g.inflight.sweep(InflightMaxAge)
}
