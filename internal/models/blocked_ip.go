package models

import (
	"time"
)

// BlockedIP is a permanent entry in the durable block list. No TTL; removal
// is an explicit administrative action.
type BlockedIP struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	IP        string    `json:"ip" gorm:"uniqueIndex"`
	Reason    string    `json:"reason" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}
