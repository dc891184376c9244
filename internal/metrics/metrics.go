package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	checksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ipsentry_reputation_checks_total",
		Help: "Total number of reputation checks performed",
	})
	cacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ipsentry_cache_hits_total",
		Help: "Total number of reputation checks answered from the local cache",
	})
	oracleCallsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ipsentry_oracle_calls_total",
		Help: "Total number of lookups issued to the abuse-reporting service",
	})
	oracleFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ipsentry_oracle_failures_total",
		Help: "Total number of failed lookups against the abuse-reporting service",
	})
	blockedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ipsentry_blocked_total",
		Help: "Total number of addresses added to the permanent block list",
	})
	guardRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ipsentry_guard_requests_total",
		Help: "Total number of inbound requests evaluated by the guard",
	})
	guardBlockedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ipsentry_guard_blocked_total",
		Help: "Total number of inbound requests rejected by the guard",
	})
	guardMonitoredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ipsentry_guard_monitored_total",
		Help: "Total number of inbound requests flagged but passed by the guard",
	})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(
		checksTotal, cacheHitsTotal,
		oracleCallsTotal, oracleFailuresTotal,
		blockedTotal,
		guardRequestsTotal, guardBlockedTotal, guardMonitoredTotal,
	)
}

// IncCheck increments the reputation checks counter.
func IncCheck() { checksTotal.Inc() }

// IncCacheHit increments the local cache hit counter.
func IncCacheHit() { cacheHitsTotal.Inc() }

// IncOracleCall increments the oracle lookup counter.
func IncOracleCall() { oracleCallsTotal.Inc() }

// IncOracleFailure increments the failed oracle lookup counter.
func IncOracleFailure() { oracleFailuresTotal.Inc() }

// IncBlocked increments the permanently blocked address counter.
func IncBlocked() { blockedTotal.Inc() }

// IncGuardRequest increments the evaluated inbound requests counter.
func IncGuardRequest() { guardRequestsTotal.Inc() }

// IncGuardBlocked increments the rejected inbound requests counter.
func IncGuardBlocked() { guardBlockedTotal.Inc() }

// IncGuardMonitored increments the monitored inbound requests counter.
func IncGuardMonitored() { guardMonitoredTotal.Inc() }
