package reputation

import (
	"errors"
)

// Tier is the reputation classification of an address.
type Tier string

const (
	TierUnclassified Tier = "unclassified"
	TierWhitelist    Tier = "whitelist"
	TierYellowlist   Tier = "yellowlist"
	TierBlacklist    Tier = "blacklist"
)

// ErrInvalidThresholds indicates a threshold ordering violation detected at startup.
var ErrInvalidThresholds = errors.New("reputation: confidence thresholds out of order")

// Thresholds maps abuse confidence bands to tiers. Loaded once at startup
// and immutable thereafter. Required ordering:
// 0 <= WhitelistMax <= YellowlistMin <= YellowlistMax <= BlacklistMin <= 100.
type Thresholds struct {
	WhitelistMax      float64
	WhitelistTTLDays  int
	YellowlistMin     float64
	YellowlistMax     float64
	YellowlistTTLDays int
	BlacklistMin      float64
}

// DefaultThresholds returns the stock bands: <50 whitelist (15d TTL),
// 50-80 yellowlist (7d TTL), >=80 blacklist (permanent).
func DefaultThresholds() Thresholds {
	return Thresholds{
		WhitelistMax:      50,
		WhitelistTTLDays:  15,
		YellowlistMin:     50,
		YellowlistMax:     80,
		YellowlistTTLDays: 7,
		BlacklistMin:      80,
	}
}

// Validate enforces the ordering invariant. A violation is a configuration
// error and should abort startup.
func (t Thresholds) Validate() error {
	if t.WhitelistMax < 0 || t.BlacklistMin > 100 ||
		t.WhitelistMax > t.YellowlistMin ||
		t.YellowlistMin > t.YellowlistMax ||
		t.YellowlistMax > t.BlacklistMin {
		return ErrInvalidThresholds
	}
	return nil
}

// HasGap reports whether the bands leave confidence values not covered by
// an explicit rule. Gap values still classify (as yellowlist), but a gap is
// almost always a misconfiguration worth warning about.
func (t Thresholds) HasGap() bool {
	return t.WhitelistMax < t.YellowlistMin || t.YellowlistMax < t.BlacklistMin
}

// Classify maps an abuse confidence score to a tier. Evaluated in order,
// first match wins. Scores falling between configured bands default to
// yellowlist so the address is monitored rather than ignored or escalated.
func (t Thresholds) Classify(confidence float64) Tier {
	switch {
	case confidence >= t.BlacklistMin:
		return TierBlacklist
	case confidence >= t.YellowlistMin && confidence < t.YellowlistMax:
		return TierYellowlist
	case confidence < t.WhitelistMax:
		return TierWhitelist
	default:
		return TierYellowlist
	}
}
