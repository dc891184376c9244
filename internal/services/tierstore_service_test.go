package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vigilops/ipsentry/internal/models"
)

func setupTierStoreDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(
		&models.WhitelistEntry{},
		&models.YellowlistEntry{},
		&models.BlockedIP{},
		&models.Decision{},
	)
	assert.NoError(t, err)

	return db
}

func TestTierStoreService_WhitelistRoundTrip(t *testing.T) {
	svc := NewTierStoreService(setupTierStoreDB(t))
	ctx := context.Background()

	hit, err := svc.IsInWhitelist(ctx, "198.51.100.9")
	assert.NoError(t, err)
	assert.False(t, hit.Hit)

	assert.NoError(t, svc.AddToWhitelist(ctx, "198.51.100.9", 12, 1, 15))

	hit, err = svc.IsInWhitelist(ctx, "198.51.100.9")
	assert.NoError(t, err)
	assert.True(t, hit.Hit)
	assert.Equal(t, 12.0, hit.Confidence)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 15), hit.ExpiresAt, time.Minute)

	// Other tiers are untouched.
	hit, err = svc.IsInYellowlist(ctx, "198.51.100.9")
	assert.NoError(t, err)
	assert.False(t, hit.Hit)
}

func TestTierStoreService_UpsertRefreshesTTL(t *testing.T) {
	svc := NewTierStoreService(setupTierStoreDB(t))
	ctx := context.Background()

	assert.NoError(t, svc.AddToYellowlist(ctx, "203.0.113.7", 60, 2, 7))
	assert.NoError(t, svc.AddToYellowlist(ctx, "203.0.113.7", 72, 5, 7))

	var count int64
	assert.NoError(t, svc.db.Model(&models.YellowlistEntry{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	hit, err := svc.IsInYellowlist(ctx, "203.0.113.7")
	assert.NoError(t, err)
	assert.True(t, hit.Hit)
	assert.Equal(t, 72.0, hit.Confidence)
}

func TestTierStoreService_ExpiredEntriesAreMisses(t *testing.T) {
	svc := NewTierStoreService(setupTierStoreDB(t))
	ctx := context.Background()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	assert.NoError(t, svc.AddToWhitelist(ctx, "198.51.100.9", 12, 1, 15))
	assert.NoError(t, svc.AddToYellowlist(ctx, "203.0.113.7", 65, 4, 7))

	// Just inside both windows.
	now = now.Add(6 * 24 * time.Hour)
	hit, _ := svc.IsInWhitelist(ctx, "198.51.100.9")
	assert.True(t, hit.Hit)
	hit, _ = svc.IsInYellowlist(ctx, "203.0.113.7")
	assert.True(t, hit.Hit)

	// Past the yellowlist TTL but not the whitelist one.
	now = now.Add(2 * 24 * time.Hour)
	hit, err := svc.IsInYellowlist(ctx, "203.0.113.7")
	assert.NoError(t, err)
	assert.False(t, hit.Hit)
	hit, _ = svc.IsInWhitelist(ctx, "198.51.100.9")
	assert.True(t, hit.Hit)

	// Past both.
	now = now.Add(10 * 24 * time.Hour)
	hit, _ = svc.IsInWhitelist(ctx, "198.51.100.9")
	assert.False(t, hit.Hit)
}

func TestTierStoreService_BlockIsIdempotent(t *testing.T) {
	svc := NewTierStoreService(setupTierStoreDB(t))
	ctx := context.Background()

	blocked, err := svc.IsBlocked(ctx, "203.0.113.5")
	assert.NoError(t, err)
	assert.False(t, blocked)

	assert.NoError(t, svc.BlockIP(ctx, "203.0.113.5", "abuse confidence 92% across 14 reports"))
	assert.NoError(t, svc.BlockIP(ctx, "203.0.113.5", "second attempt"))

	blocked, err = svc.IsBlocked(ctx, "203.0.113.5")
	assert.NoError(t, err)
	assert.True(t, blocked)

	entries, err := svc.ListBlocked(ctx, 0)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "abuse confidence 92% across 14 reports", entries[0].Reason)

	// Only the first block produced a decision record.
	decisions, err := svc.ListDecisions(ctx, 0)
	assert.NoError(t, err)
	assert.Len(t, decisions, 1)
	assert.Equal(t, "block", decisions[0].Action)
	assert.Equal(t, "gate", decisions[0].Source)
}

func TestTierStoreService_Unblock(t *testing.T) {
	svc := NewTierStoreService(setupTierStoreDB(t))
	ctx := context.Background()

	assert.ErrorIs(t, svc.UnblockIP(ctx, "203.0.113.5", "never blocked"), ErrNotBlocked)

	assert.NoError(t, svc.BlockIP(ctx, "203.0.113.5", "test"))
	assert.NoError(t, svc.UnblockIP(ctx, "203.0.113.5", "operator cleared"))

	blocked, err := svc.IsBlocked(ctx, "203.0.113.5")
	assert.NoError(t, err)
	assert.False(t, blocked)

	decisions, err := svc.ListDecisions(ctx, 0)
	assert.NoError(t, err)
	assert.Len(t, decisions, 2)
	assert.Equal(t, "unblock", decisions[0].Action)
	assert.Equal(t, "manual", decisions[0].Source)
}

func TestTierStoreService_PurgeExpired(t *testing.T) {
	svc := NewTierStoreService(setupTierStoreDB(t))
	ctx := context.Background()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	assert.NoError(t, svc.AddToWhitelist(ctx, "198.51.100.9", 12, 1, 15))
	assert.NoError(t, svc.AddToYellowlist(ctx, "203.0.113.7", 65, 4, 7))
	assert.NoError(t, svc.AddToYellowlist(ctx, "203.0.113.8", 70, 9, 7))

	purged, err := svc.PurgeExpired(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), purged)

	now = now.Add(8 * 24 * time.Hour)
	purged, err = svc.PurgeExpired(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), purged)

	now = now.Add(8 * 24 * time.Hour)
	purged, err = svc.PurgeExpired(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}
