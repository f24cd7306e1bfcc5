package services

import (
	"errors"

	"staff-backend/models"
	"staff-backend/utils"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type AssignmentService struct {
	DB *gorm.DB
}

func NewAssignmentService(db *gorm.DB) *AssignmentService {
	return &AssignmentService{DB: db}
}

type SelfAssignResult struct {
	Assignment      models.StaffTableAssignment `json:"assignment"`
	AlreadyAssigned bool                        `json:"alreadyAssigned"`
	TableNumber     string                      `json:"tableNumber"`
}

// SelfAssign claims a table for the caller for today's shift. Idempotent:
// claiming a table you already hold returns the existing assignment.
func (s *AssignmentService) SelfAssign(staff *models.StaffProfile, tableID *uint, tableNumber string, locationID *uint) (*SelfAssignResult, error) {
	var table models.TableRecord
	var err error

	switch {
	case tableID != nil && *tableID != 0:
		err = s.DB.Where("id = ? AND is_active = ?", *tableID, true).First(&table).Error
	case tableNumber != "" && locationID != nil && *locationID != 0:
		err = s.DB.Where("location_id = ? AND table_number = ? AND is_active = ?",
			*locationID, tableNumber, true).First(&table).Error
	default:
		return nil, utils.Validationf("either tableId or tableNumber with locationId is required")
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("table not found")
		}
		return nil, err
	}

	today := TodayShiftDate()

	var existing models.StaffTableAssignment
	err = s.DB.
		Where("staff_id = ? AND table_id = ? AND shift_date = ? AND is_active = ?",
			staff.ID, table.ID, today, true).
		First(&existing).Error
	if err == nil {
		return &SelfAssignResult{Assignment: existing, AlreadyAssigned: true, TableNumber: table.TableNumber}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	assignment := models.StaffTableAssignment{
		StaffID:          staff.ID,
		LocationID:       table.LocationID,
		TableID:          &table.ID,
		ShiftDate:        today,
		AssignmentMethod: models.AssignMethodSelfAssign,
		IsActive:         true,
		AssignedBy:       &staff.AccountID,
	}
	if err := s.DB.Create(&assignment).Error; err != nil {
		if isUniqueViolation(err) {
			// raced with ourselves, fetch the winning row
			if ferr := s.DB.
				Where("staff_id = ? AND table_id = ? AND shift_date = ? AND is_active = ?",
					staff.ID, table.ID, today, true).
				First(&existing).Error; ferr == nil {
				return &SelfAssignResult{Assignment: existing, AlreadyAssigned: true, TableNumber: table.TableNumber}, nil
			}
		}
		return nil, err
	}

	return &SelfAssignResult{Assignment: assignment, AlreadyAssigned: false, TableNumber: table.TableNumber}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

type AssignmentView struct {
	models.StaffTableAssignment
	TableNumber string `json:"table_number,omitempty"`
	SectionName string `json:"section_name,omitempty"`
}

type MyWorkView struct {
	Assignments       []AssignmentView          `json:"assignments"`
	PendingRequests   []models.HotActionRequest `json:"pendingRequests"`
	CompletedRequests []models.HotActionRequest `json:"completedRequests"`
}

// ListMyAssignmentsAndRequests returns today's active assignments for the
// caller plus the location's requests. statusFilter is one of pending,
// in_progress, completed, all (in_progress maps to acknowledged).
func (s *AssignmentService) ListMyAssignmentsAndRequests(staff *models.StaffProfile, statusFilter string, onlyMine bool) (*MyWorkView, error) {
	statuses, err := statusesForFilter(statusFilter)
	if err != nil {
		return nil, err
	}

	var assignments []models.StaffTableAssignment
	if err := s.DB.
		Where("staff_id = ? AND shift_date = ? AND is_active = ?", staff.ID, TodayShiftDate(), true).
		Order("id").
		Find(&assignments).Error; err != nil {
		return nil, err
	}

	views, err := s.decorateAssignments(assignments)
	if err != nil {
		return nil, err
	}

	query := s.DB.
		Where("location_id = ? AND status IN ?", staff.LocationID, statuses).
		Order("created_at DESC")
	if onlyMine {
		query = query.Where("assigned_to_staff_id = ?", staff.ID)
	}

	var requests []models.HotActionRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, err
	}

	view := &MyWorkView{
		Assignments:       views,
		PendingRequests:   []models.HotActionRequest{},
		CompletedRequests: []models.HotActionRequest{},
	}
	for _, req := range requests {
		if req.Status == models.RequestStatusPending || req.Status == models.RequestStatusAcknowledged {
			view.PendingRequests = append(view.PendingRequests, req)
		} else {
			view.CompletedRequests = append(view.CompletedRequests, req)
		}
	}
	return view, nil
}

func statusesForFilter(filter string) ([]string, error) {
	switch filter {
	case "pending":
		return []string{models.RequestStatusPending}, nil
	case "in_progress":
		return []string{models.RequestStatusAcknowledged}, nil
	case "completed":
		return []string{models.RequestStatusCompleted}, nil
	case "", "all":
		return []string{
			models.RequestStatusPending,
			models.RequestStatusAcknowledged,
			models.RequestStatusCompleted,
			models.RequestStatusCancelled,
		}, nil
	default:
		return nil, utils.Validationf("unknown status filter %q: use pending|in_progress|completed|all", filter)
	}
}

func (s *AssignmentService) decorateAssignments(assignments []models.StaffTableAssignment) ([]AssignmentView, error) {
	views := make([]AssignmentView, 0, len(assignments))
	for _, a := range assignments {
		view := AssignmentView{StaffTableAssignment: a}
		if a.TableID != nil {
			var table models.TableRecord
			if err := s.DB.First(&table, *a.TableID).Error; err == nil {
				view.TableNumber = table.TableNumber
			}
		}
		if a.SectionID != nil {
			var section models.Section
			if err := s.DB.First(&section, *a.SectionID).Error; err == nil {
				view.SectionName = section.Name
			}
		}
		views = append(views, view)
	}
	return views, nil
}
