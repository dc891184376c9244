package reputation

import (
	"errors"
	"time"
)

// Source records where a result came from, for observability and tests.
type Source string

const (
	SourcePersistentWhitelist  Source = "persistent_whitelist"
	SourcePersistentYellowlist Source = "persistent_yellowlist"
	SourceLocalCache           Source = "local_cache"
	SourceFreshLookup          Source = "fresh_lookup"
)

// Oracle failure taxonomy. The abuse-reporting client wraps transport and
// HTTP status failures into these so the gate can log by severity. All of
// them are absorbed into a fail-open unclassified result.
var (
	ErrOracleRateLimited  = errors.New("reputation oracle: rate limited")
	ErrOracleUnauthorized = errors.New("reputation oracle: unauthorized")
	ErrOracleUnavailable  = errors.New("reputation oracle: unavailable")
)

// Result is the outcome of one reputation check. Immutable once produced.
type Result struct {
	Address        string     `json:"address"`
	IsAbusive      bool       `json:"is_abusive"`
	Confidence     float64    `json:"confidence"`
	ReportCount    int        `json:"report_count"`
	UsageType      string     `json:"usage_type,omitempty"`
	CountryCode    string     `json:"country_code,omitempty"`
	LastReportedAt *time.Time `json:"last_reported_at,omitempty"`
	Tier           Tier       `json:"tier"`
	Source         Source     `json:"source,omitempty"`

	// Err carries the upstream failure behind a fail-open unclassified
	// result, so it can be told apart from genuine low confidence. Never
	// serialized and never surfaced to callers as a hard error.
	Err error `json:"-"`
}

// Report is the oracle's raw answer for one address.
type Report struct {
	Address        string
	Confidence     float64
	Reports        int
	UsageType      string
	CountryCode    string
	IsPublic       bool
	LastReportedAt *time.Time
}

// BlockDecision is the outcome of a check-and-block operation.
type BlockDecision struct {
	Blocked    bool    `json:"blocked"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
	Reports    int     `json:"reports,omitempty"`
	Tier       Tier    `json:"tier,omitempty"`
}
