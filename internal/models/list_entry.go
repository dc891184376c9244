package models

import (
	"time"
)

// WhitelistEntry records an address the oracle scored below the whitelist
// threshold. Entries expire; an expired row is equivalent to a miss.
type WhitelistEntry struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	IP         string    `json:"ip" gorm:"uniqueIndex"`
	Confidence float64   `json:"confidence"`
	Reports    int       `json:"reports"`
	ExpiresAt  time.Time `json:"expires_at" gorm:"index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// YellowlistEntry records an address in the monitored confidence band.
// Shorter-lived than whitelist entries so suspect addresses get re-checked.
type YellowlistEntry struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	IP         string    `json:"ip" gorm:"uniqueIndex"`
	Confidence float64   `json:"confidence"`
	Reports    int       `json:"reports"`
	ExpiresAt  time.Time `json:"expires_at" gorm:"index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
