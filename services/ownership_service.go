package services

import (
	"errors"
	"time"

	"staff-backend/models"

	"gorm.io/gorm"
)

// OwnershipService answers "who is responsible for this table today".
// Resolution is advisory: it informs the takeover prompt, it is not a lock.
type OwnershipService struct {
	DB *gorm.DB
}

func NewOwnershipService(db *gorm.DB) *OwnershipService {
	return &OwnershipService{DB: db}
}

type ResponsibleStaff struct {
	StaffID      uint   `json:"id"`
	StaffName    string `json:"name"`
	AssignmentID uint   `json:"assignment_id"`
}

// TodayShiftDate is the calendar day assignments are scoped to.
func TodayShiftDate() string {
	return time.Now().Format("2006-01-02")
}

// Resolve finds the staff member currently responsible for the table,
// excluding the requesting staff member. Direct table assignments win over
// section assignments. Returns nil when nobody else is responsible, or when
// the table cannot be resolved (nothing to conflict with).
func (s *OwnershipService) Resolve(locationID uint, tableNumber string, requestingStaffID uint, shiftDate string) (*ResponsibleStaff, error) {
	var table models.TableRecord
	err := s.DB.
		Where("location_id = ? AND table_number = ? AND is_active = ?", locationID, tableNumber, true).
		First(&table).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var assignments []models.StaffTableAssignment
	err = s.DB.
		Where("location_id = ? AND shift_date = ? AND is_active = ? AND staff_id <> ?",
			locationID, shiftDate, true, requestingStaffID).
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}

	matched := matchAssignment(assignments, table)
	if matched == nil {
		return nil, nil
	}

	var staff models.StaffProfile
	if err := s.DB.First(&staff, matched.StaffID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// stale assignment pointing at a deleted profile
			return nil, nil
		}
		return nil, err
	}

	return &ResponsibleStaff{
		StaffID:      staff.ID,
		StaffName:    staff.DisplayName,
		AssignmentID: matched.ID,
	}, nil
}

// matchAssignment applies the tie-break: direct table assignment first, then
// section scope. Multiple active matches are a data-integrity bug upstream;
// the first returned row wins.
func matchAssignment(assignments []models.StaffTableAssignment, table models.TableRecord) *models.StaffTableAssignment {
	for i := range assignments {
		a := &assignments[i]
		if a.TableID != nil && *a.TableID == table.ID {
			return a
		}
	}
	if table.SectionID == nil {
		return nil
	}
	for i := range assignments {
		a := &assignments[i]
		if a.TableID == nil && a.SectionID != nil && *a.SectionID == *table.SectionID {
			return a
		}
	}
	return nil
}
