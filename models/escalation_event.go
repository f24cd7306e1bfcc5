package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	EscalationStatusPending   = "pending"
	EscalationStatusSent      = "sent"
	EscalationStatusCancelled = "cancelled"
	EscalationStatusResolved  = "resolved"
)

// EscalationEvent is a scheduled supervisor alert for an unacknowledged
// request. It is cancelled when the request gets acknowledged.
type EscalationEvent struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	RequestID  string         `gorm:"size:36;index;column:request_id" json:"request_id"`
	LocationID uint           `gorm:"index;column:location_id" json:"location_id"`
	Status     string         `gorm:"size:32;default:'pending';index" json:"status"`
	Level      int            `gorm:"default:1" json:"level"`
	EscalateAt time.Time      `gorm:"column:escalate_at;index" json:"escalate_at"`
	Payload    datatypes.JSON `gorm:"column:payload" json:"payload,omitempty"`

	ResolvedAt *time.Time `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	ResolvedBy *uint      `gorm:"column:resolved_by" json:"resolved_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
