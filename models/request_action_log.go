package models

import "time"

const (
	ActionAcknowledge = "acknowledge"
	ActionComplete    = "complete"
	ActionReassign    = "reassign"
	ActionCancel      = "cancel"
)

// RequestActionLog is append-only: one row per processed action, never
// updated or deleted.
type RequestActionLog struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	RequestID      string    `gorm:"size:36;index;column:request_id" json:"request_id"`
	Action         string    `gorm:"size:32" json:"action"`
	PerformedBy    uint      `gorm:"column:performed_by" json:"performed_by"`
	PerformedAt    time.Time `gorm:"column:performed_at" json:"performed_at"`
	Note           string    `gorm:"type:text" json:"note,omitempty"`
	PreviousStatus string    `gorm:"size:32;column:previous_status" json:"previous_status"`
	NewStatus      string    `gorm:"size:32;column:new_status" json:"new_status"`
}
