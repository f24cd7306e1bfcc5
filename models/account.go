package models

import (
	"time"

	"gorm.io/gorm"
)

type Account struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string         `gorm:"size:255;column:password_hash" json:"-"`
	FullName     string         `gorm:"size:255;column:full_name" json:"full_name"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

const (
	StaffStatusActive   = "active"
	StaffStatusInactive = "inactive"
)

const (
	StaffRoleWaiter  = "waiter"
	StaffRoleManager = "manager"
)

// StaffProfile ties an account to a location. A request actor must have one
// with status=active, otherwise the workflow rejects the call.
type StaffProfile struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	AccountID   uint           `gorm:"index;column:account_id" json:"account_id"`
	LocationID  uint           `gorm:"index;column:location_id" json:"location_id"`
	MerchantID  uint           `gorm:"column:merchant_id" json:"merchant_id"`
	DisplayName string         `gorm:"size:255;column:display_name" json:"display_name"`
	Role        string         `gorm:"size:64;default:'waiter'" json:"role"`
	Status      string         `gorm:"size:32;default:'active'" json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Account Account `gorm:"foreignKey:AccountID" json:"account,omitempty"`
}
