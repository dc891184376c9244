package services

import (
	"fmt"
	"regexp"

	"github.com/containrrr/shoutrrr"
	"gorm.io/gorm"

	"github.com/vigilops/ipsentry/internal/logger"
	"github.com/vigilops/ipsentry/internal/models"
)

type NotificationService struct {
	DB *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{DB: db}
}

var discordWebhookRegex = regexp.MustCompile(`^https://discord(?:app)?\.com/api/webhooks/(\d+)/([a-zA-Z0-9_-]+)`)

// normalizeURL rewrites plain Discord webhook URLs into shoutrrr form.
func normalizeURL(serviceType, rawURL string) string {
	if serviceType == "discord" {
		matches := discordWebhookRegex.FindStringSubmatch(rawURL)
		if len(matches) == 3 {
			id := matches[1]
			token := matches[2]
			return fmt.Sprintf("discord://%s@%s", token, id)
		}
	}
	return rawURL
}

// ListProviders returns all configured providers.
func (s *NotificationService) ListProviders() ([]models.NotificationProvider, error) {
	var providers []models.NotificationProvider
	result := s.DB.Order("created_at desc").Find(&providers)
	return providers, result.Error
}

// CreateProvider stores a new provider.
func (s *NotificationService) CreateProvider(p *models.NotificationProvider) error {
	return s.DB.Create(p).Error
}

// DeleteProvider removes a provider by id.
func (s *NotificationService) DeleteProvider(id string) error {
	return s.DB.Where("id = ?", id).Delete(&models.NotificationProvider{}).Error
}

// NotifyBlocked fans a block event out to every enabled provider that opted
// into block alerts. Sends run async and failures are logged only; alerting
// never holds up or fails the enforcement path.
func (s *NotificationService) NotifyBlocked(address, reason string, confidence float64) {
	var providers []models.NotificationProvider
	if err := s.DB.Where("enabled = ? AND notify_blocks = ?", true, true).Find(&providers).Error; err != nil {
		logger.Log().WithError(err).Warn("failed to fetch notification providers")
		return
	}

	msg := fmt.Sprintf("IPSentry blocked %s\n\nreason: %s\nabuse confidence: %.0f%%", address, reason, confidence)

	for _, provider := range providers {
		go func(p models.NotificationProvider) {
			url := normalizeURL(p.Type, p.URL)
			if err := shoutrrr.Send(url, msg); err != nil {
				logger.WithField("provider", p.Name).WithError(err).Warn("failed to send block alert")
			}
		}(provider)
	}
}

// TestProvider sends a test message through the given provider.
func (s *NotificationService) TestProvider(id string) error {
	var provider models.NotificationProvider
	if err := s.DB.Where("id = ?", id).First(&provider).Error; err != nil {
		return err
	}
	url := normalizeURL(provider.Type, provider.URL)
	return shoutrrr.Send(url, "Test notification from IPSentry")
}
