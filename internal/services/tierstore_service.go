package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vigilops/ipsentry/internal/logger"
	"github.com/vigilops/ipsentry/internal/models"
	"github.com/vigilops/ipsentry/internal/reputation"
)

// ErrNotBlocked is returned when unblocking an address that is not on the
// block list.
var ErrNotBlocked = errors.New("address is not blocked")

// TierStoreService is the gorm-backed persistent tiered store: whitelist
// and yellowlist entries with expiry, and the permanent block list. It
// implements reputation.Store.
type TierStoreService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewTierStoreService returns a TierStoreService using the provided DB.
func NewTierStoreService(db *gorm.DB) *TierStoreService {
	return &TierStoreService{db: db, now: time.Now}
}

// IsInWhitelist reports current whitelist membership. Expired rows are
// filtered out here, so callers only ever observe live entries.
func (s *TierStoreService) IsInWhitelist(ctx context.Context, address string) (reputation.TierHit, error) {
	var entry models.WhitelistEntry
	err := s.db.WithContext(ctx).
		Where("ip = ? AND expires_at > ?", address, s.now()).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return reputation.TierHit{}, nil
		}
		return reputation.TierHit{}, err
	}
	return reputation.TierHit{Hit: true, Confidence: entry.Confidence, ExpiresAt: entry.ExpiresAt}, nil
}

// IsInYellowlist reports current yellowlist membership, expired rows excluded.
func (s *TierStoreService) IsInYellowlist(ctx context.Context, address string) (reputation.TierHit, error) {
	var entry models.YellowlistEntry
	err := s.db.WithContext(ctx).
		Where("ip = ? AND expires_at > ?", address, s.now()).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return reputation.TierHit{}, nil
		}
		return reputation.TierHit{}, err
	}
	return reputation.TierHit{Hit: true, Confidence: entry.Confidence, ExpiresAt: entry.ExpiresAt}, nil
}

// AddToWhitelist upserts a whitelist entry with a fresh TTL.
func (s *TierStoreService) AddToWhitelist(ctx context.Context, address string, confidence float64, reports, ttlDays int) error {
	expires := s.now().AddDate(0, 0, ttlDays)

	var existing models.WhitelistEntry
	err := s.db.WithContext(ctx).Where("ip = ?", address).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			entry := models.WhitelistEntry{IP: address, Confidence: confidence, Reports: reports, ExpiresAt: expires}
			return s.db.WithContext(ctx).Create(&entry).Error
		}
		return err
	}

	existing.Confidence = confidence
	existing.Reports = reports
	existing.ExpiresAt = expires
	return s.db.WithContext(ctx).Save(&existing).Error
}

// AddToYellowlist upserts a yellowlist entry with a fresh TTL.
func (s *TierStoreService) AddToYellowlist(ctx context.Context, address string, confidence float64, reports, ttlDays int) error {
	expires := s.now().AddDate(0, 0, ttlDays)

	var existing models.YellowlistEntry
	err := s.db.WithContext(ctx).Where("ip = ?", address).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			entry := models.YellowlistEntry{IP: address, Confidence: confidence, Reports: reports, ExpiresAt: expires}
			return s.db.WithContext(ctx).Create(&entry).Error
		}
		return err
	}

	existing.Confidence = confidence
	existing.Reports = reports
	existing.ExpiresAt = expires
	return s.db.WithContext(ctx).Save(&existing).Error
}

// IsBlocked reports membership in the permanent block list.
func (s *TierStoreService) IsBlocked(ctx context.Context, address string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.BlockedIP{}).Where("ip = ?", address).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// BlockIP adds an address to the permanent block list. Idempotent: blocking
// an already-blocked address is a no-op. A decision record is written for
// the audit trail.
func (s *TierStoreService) BlockIP(ctx context.Context, address, reason string) error {
	blocked, err := s.IsBlocked(ctx, address)
	if err != nil {
		return err
	}
	if blocked {
		return nil
	}

	entry := models.BlockedIP{IP: address, Reason: reason}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return err
	}

	s.recordDecision(ctx, "gate", "block", address, reason)
	return nil
}

// UnblockIP removes an address from the block list, recording the action.
func (s *TierStoreService) UnblockIP(ctx context.Context, address, reason string) error {
	res := s.db.WithContext(ctx).Where("ip = ?", address).Delete(&models.BlockedIP{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotBlocked
	}

	s.recordDecision(ctx, "manual", "unblock", address, reason)
	return nil
}

// ListBlocked returns block list entries, newest first.
func (s *TierStoreService) ListBlocked(ctx context.Context, limit int) ([]models.BlockedIP, error) {
	var entries []models.BlockedIP
	q := s.db.WithContext(ctx).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListDecisions returns recent decision records, newest first.
func (s *TierStoreService) ListDecisions(ctx context.Context, limit int) ([]models.Decision, error) {
	var decisions []models.Decision
	q := s.db.WithContext(ctx).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&decisions).Error; err != nil {
		return nil, err
	}
	return decisions, nil
}

// PurgeExpired deletes whitelist and yellowlist rows whose TTL has passed.
// The rows are already invisible to lookups; purging reclaims space.
func (s *TierStoreService) PurgeExpired(ctx context.Context) (int64, error) {
	now := s.now()

	white := s.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.WhitelistEntry{})
	if white.Error != nil {
		return 0, white.Error
	}
	yellow := s.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.YellowlistEntry{})
	if yellow.Error != nil {
		return white.RowsAffected, yellow.Error
	}
	return white.RowsAffected + yellow.RowsAffected, nil
}

// recordDecision stores an audit row; failures are logged, never surfaced,
// since the decision itself already took effect.
func (s *TierStoreService) recordDecision(ctx context.Context, source, action, address, details string) {
	decision := models.Decision{
		UUID:    uuid.NewString(),
		Source:  source,
		Action:  action,
		IP:      address,
		Details: details,
	}
	if err := s.db.WithContext(ctx).Create(&decision).Error; err != nil {
		logger.WithField("ip", address).WithError(err).Warn("failed to record decision")
	}
}
