package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RequestStatusPending      = "pending"
	RequestStatusAcknowledged = "acknowledged"
	RequestStatusCompleted    = "completed"
	RequestStatusCancelled    = "cancelled"
)

const (
	RequestTypeCallWaiter  = "call_waiter"
	RequestTypeRequestBill = "request_bill"
	RequestTypeIceBucket   = "ice_bucket"
	RequestTypeAssistance  = "assistance"
	RequestTypeCustom      = "custom"
)

// HotActionRequest is a time-sensitive customer request tied to a table.
// Version guards concurrent mutation: every action updates the row with a
// conditional WHERE on the version it read.
type HotActionRequest struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	LocationID  uint   `gorm:"index;column:location_id" json:"location_id"`
	TableNumber string `gorm:"size:32;column:table_number" json:"table_number"`
	Type        string `gorm:"size:64" json:"type"`
	Status      string `gorm:"size:32;default:'pending';index" json:"status"`

	AssignedToStaffID       *uint `gorm:"column:assigned_to_staff_id;index" json:"assigned_to_staff_id,omitempty"`
	OriginalAssignedStaffID *uint `gorm:"column:original_assigned_staff_id" json:"original_assigned_staff_id,omitempty"`
	AcknowledgedBy          *uint `gorm:"column:acknowledged_by" json:"acknowledged_by,omitempty"`
	CompletedBy             *uint `gorm:"column:completed_by" json:"completed_by,omitempty"`

	CustomerNote        string         `gorm:"type:text;column:customer_note" json:"customer_note,omitempty"`
	Metadata            datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	ResponseTimeSeconds *int           `gorm:"column:response_time_seconds" json:"response_time_seconds,omitempty"`
	Version             int            `gorm:"default:0" json:"version"`

	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	AcknowledgedAt *time.Time `gorm:"column:acknowledged_at" json:"acknowledged_at,omitempty"`
	CompletedAt    *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

func (r *HotActionRequest) IsTerminal() bool {
	return r.Status == RequestStatusCompleted || r.Status == RequestStatusCancelled
}

func ValidRequestType(t string) bool {
	switch t {
	case RequestTypeCallWaiter, RequestTypeRequestBill, RequestTypeIceBucket,
		RequestTypeAssistance, RequestTypeCustom:
		return true
	}
	return false
}
