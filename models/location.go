package models

import (
	"time"

	"gorm.io/gorm"
)

type Location struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	MerchantID uint           `gorm:"index;column:merchant_id" json:"merchant_id"`
	Name       string         `gorm:"size:255" json:"name"`
	Slug       string         `gorm:"uniqueIndex;size:150" json:"slug"`
	Timezone   string         `gorm:"size:64;default:'Asia/Ho_Chi_Minh'" json:"timezone"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

type Section struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	LocationID uint      `gorm:"index;column:location_id" json:"location_id"`
	Name       string    `gorm:"size:150" json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableRecord is a physical table at a location. TableNumber is what customers
// and staff see; SectionID is nullable for tables outside any section.
type TableRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	LocationID  uint      `gorm:"index;column:location_id" json:"location_id"`
	SectionID   *uint     `gorm:"index;column:section_id" json:"section_id,omitempty"`
	TableNumber string    `gorm:"size:32;column:table_number;index:idx_tables_location_number" json:"table_number"`
	Seats       int       `gorm:"default:2" json:"seats"`
	IsActive    bool      `gorm:"default:true;column:is_active" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Section *Section `gorm:"foreignKey:SectionID" json:"section,omitempty"`
}

func (TableRecord) TableName() string {
	return "tables"
}
