package services

import (
	"encoding/json"
	"time"

	"staff-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EscalationService schedules supervisor alerts for unacknowledged requests
// and cancels them once a request is picked up.
type EscalationService struct {
	DB     *gorm.DB
	Events *EventBus
	Log    *zap.SugaredLogger
}

func NewEscalationService(db *gorm.DB, events *EventBus, log *zap.SugaredLogger) *EscalationService {
	return &EscalationService{DB: db, Events: events, Log: log}
}

func (s *EscalationService) ScheduleForRequest(req *models.HotActionRequest, delay time.Duration) (*models.EscalationEvent, error) {
	payload, _ := json.Marshal(map[string]string{
		"table_number": req.TableNumber,
		"request_type": req.Type,
	})
	event := models.EscalationEvent{
		ID:         uuid.NewString(),
		RequestID:  req.ID,
		LocationID: req.LocationID,
		Status:     models.EscalationStatusPending,
		Level:      1,
		EscalateAt: time.Now().UTC().Add(delay),
		Payload:    datatypes.JSON(payload),
	}
	if err := s.DB.Create(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// CancelForRequest marks every pending or sent escalation for the request as
// cancelled. Returns the number of events touched.
func (s *EscalationService) CancelForRequest(requestID string, actorStaffID uint) (int64, error) {
	now := time.Now().UTC()
	res := s.DB.Model(&models.EscalationEvent{}).
		Where("request_id = ? AND status IN ?", requestID,
			[]string{models.EscalationStatusPending, models.EscalationStatusSent}).
		Updates(map[string]interface{}{
			"status":      models.EscalationStatusCancelled,
			"resolved_at": now,
			"resolved_by": actorStaffID,
		})
	return res.RowsAffected, res.Error
}

// DispatchDue flips due pending escalations to sent and publishes them.
// Called from the background loop in main.
func (s *EscalationService) DispatchDue(limit int) (int, error) {
	var due []models.EscalationEvent
	err := s.DB.
		Where("status = ? AND escalate_at <= ?", models.EscalationStatusPending, time.Now().UTC()).
		Order("escalate_at").
		Limit(limit).
		Find(&due).Error
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for i := range due {
		event := &due[i]
		res := s.DB.Model(&models.EscalationEvent{}).
			Where("id = ? AND status = ?", event.ID, models.EscalationStatusPending).
			Update("status", models.EscalationStatusSent)
		if res.Error != nil {
			s.Log.Warnw("escalation dispatch failed", "escalation_id", event.ID, "error", res.Error)
			continue
		}
		if res.RowsAffected == 0 {
			// cancelled or dispatched by someone else in the meantime
			continue
		}
		dispatched++
		s.Events.Publish(StaffEvent{
			Type:       EventEscalationDue,
			RequestID:  event.RequestID,
			LocationID: event.LocationID,
		})
	}
	return dispatched, nil
}
