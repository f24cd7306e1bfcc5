package services

import (
	"errors"
	"strings"
	"time"

	"staff-backend/models"
	"staff-backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RequestService owns the customer-facing entry point: creating a request in
// pending and scheduling its escalation.
type RequestService struct {
	DB              *gorm.DB
	Ownership       *OwnershipService
	Escalate        *EscalationService
	Events          *EventBus
	Log             *zap.SugaredLogger
	EscalationDelay time.Duration
}

func NewRequestService(db *gorm.DB, ownership *OwnershipService, escalate *EscalationService, events *EventBus, log *zap.SugaredLogger, escalationDelay time.Duration) *RequestService {
	return &RequestService{
		DB:              db,
		Ownership:       ownership,
		Escalate:        escalate,
		Events:          events,
		Log:             log,
		EscalationDelay: escalationDelay,
	}
}

func (s *RequestService) Create(locationID uint, tableNumber, requestType, customerNote string, metadata datatypes.JSON) (*models.HotActionRequest, error) {
	requestType = strings.TrimSpace(requestType)
	if !models.ValidRequestType(requestType) {
		return nil, utils.Validationf("unknown request type %q", requestType)
	}

	var location models.Location
	if err := s.DB.First(&location, locationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("location %d not found", locationID)
		}
		return nil, err
	}

	var table models.TableRecord
	err := s.DB.Where("location_id = ? AND table_number = ? AND is_active = ?",
		locationID, tableNumber, true).First(&table).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("table %q not found at this location", tableNumber)
		}
		return nil, err
	}

	req := models.HotActionRequest{
		ID:           uuid.NewString(),
		LocationID:   locationID,
		TableNumber:  table.TableNumber,
		Type:         requestType,
		Status:       models.RequestStatusPending,
		CustomerNote: strings.TrimSpace(customerNote),
		Metadata:     metadata,
	}

	// pre-assign the responsible staff member so the waiter list can show
	// ownership before anyone acknowledges; staff id 0 excludes nobody
	owner, err := s.Ownership.Resolve(locationID, table.TableNumber, 0, TodayShiftDate())
	if err != nil {
		s.Log.Warnw("ownership pre-resolution failed, creating request unassigned",
			"location_id", locationID, "table_number", table.TableNumber, "error", err)
	} else if owner != nil {
		req.AssignedToStaffID = &owner.StaffID
	}

	if err := s.DB.Create(&req).Error; err != nil {
		return nil, err
	}

	if _, err := s.Escalate.ScheduleForRequest(&req, s.EscalationDelay); err != nil {
		s.Log.Warnw("escalation scheduling failed", "request_id", req.ID, "error", err)
	}

	s.Events.Publish(StaffEvent{
		Type:        EventRequestCreated,
		RequestID:   req.ID,
		LocationID:  req.LocationID,
		TableNumber: req.TableNumber,
		Status:      req.Status,
	})

	return &req, nil
}

// GetActionLog returns the append-only history for a request, oldest first.
func (s *RequestService) GetActionLog(requestID string) ([]models.RequestActionLog, error) {
	var req models.HotActionRequest
	if err := s.DB.First(&req, "id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("request %s not found", requestID)
		}
		return nil, err
	}

	var logs []models.RequestActionLog
	if err := s.DB.
		Where("request_id = ?", requestID).
		Order("performed_at, id").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
