package models

import (
	"time"
)

// Decision stores a block/unblock action taken by the gate or an operator
// so it can be audited and surfaced over the API.
type Decision struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UUID      string    `json:"uuid" gorm:"uniqueIndex"`
	Source    string    `json:"source"` // e.g., gate, guard, manual
	Action    string    `json:"action"` // block, unblock
	IP        string    `json:"ip" gorm:"index"`
	Details   string    `json:"details" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}
