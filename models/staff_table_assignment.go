package models

import "time"

const (
	AssignMethodSelfAssign = "self_assign"
	AssignMethodManual     = "manual"
	AssignMethodTakeover   = "takeover"
)

// StaffTableAssignment scopes a staff member's responsibility for one shift
// date. Exactly one of TableID / SectionID is set for scoped assignments;
// both nil means the whole location. ShiftDate is a plain YYYY-MM-DD string,
// matching how the rest of the platform stores calendar dates.
type StaffTableAssignment struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	StaffID    uint   `gorm:"index;column:staff_id" json:"staff_id"`
	LocationID uint   `gorm:"index;column:location_id" json:"location_id"`
	TableID    *uint  `gorm:"column:table_id;index:idx_assignments_table_shift" json:"table_id,omitempty"`
	SectionID  *uint  `gorm:"column:section_id" json:"section_id,omitempty"`
	ShiftDate  string `gorm:"size:10;column:shift_date;index:idx_assignments_table_shift" json:"shift_date"`

	AssignmentMethod string `gorm:"size:32;column:assignment_method;default:'self_assign'" json:"assignment_method"`
	IsActive         bool   `gorm:"column:is_active;default:true;index" json:"is_active"`
	AssignedBy       *uint  `gorm:"column:assigned_by" json:"assigned_by,omitempty"`
	Notes            string `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
