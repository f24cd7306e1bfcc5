package services

import (
	"errors"
	"fmt"
	"time"

	"staff-backend/models"
	"staff-backend/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Action is the closed set of things staff can do to a request. The string
// form from the transport is parsed once into one of these, so each variant
// only carries the fields it needs.
type Action interface {
	Name() string
}

type AcknowledgeAction struct {
	TakeoverTable bool
	CheckOnly     bool
}

type CompleteAction struct{}

type ReassignAction struct {
	ReassignTo uint
}

type CancelAction struct{}

func (AcknowledgeAction) Name() string { return models.ActionAcknowledge }
func (CompleteAction) Name() string    { return models.ActionComplete }
func (ReassignAction) Name() string    { return models.ActionReassign }
func (CancelAction) Name() string      { return models.ActionCancel }

// ParseAction validates the wire form of an action and its options.
func ParseAction(name string, reassignTo *uint, takeoverTable, checkOnly bool) (Action, error) {
	switch name {
	case models.ActionAcknowledge:
		return AcknowledgeAction{TakeoverTable: takeoverTable, CheckOnly: checkOnly}, nil
	case models.ActionComplete:
		return CompleteAction{}, nil
	case models.ActionReassign:
		if reassignTo == nil || *reassignTo == 0 {
			return nil, utils.Validationf("reassignTo is required for reassign")
		}
		return ReassignAction{ReassignTo: *reassignTo}, nil
	case models.ActionCancel:
		return CancelAction{}, nil
	default:
		return nil, utils.Validationf("unknown action %q: use acknowledge|complete|reassign|cancel", name)
	}
}

// transitionMap lists the statuses each action may be applied from. Terminal
// requests (completed, cancelled) never appear as a source, so they are
// immutable.
var transitionMap = map[string][]string{
	models.ActionAcknowledge: {models.RequestStatusPending},
	models.ActionComplete:    {models.RequestStatusPending, models.RequestStatusAcknowledged},
	models.ActionReassign:    {models.RequestStatusPending, models.RequestStatusAcknowledged},
	models.ActionCancel:      {models.RequestStatusPending, models.RequestStatusAcknowledged},
}

func ValidTransition(action, fromStatus string) bool {
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == fromStatus {
			return true
		}
	}
	return false
}

type ActionResult struct {
	Success             bool              `json:"success"`
	Action              string            `json:"action"`
	RequestID           string            `json:"requestId"`
	PerformedBy         uint              `json:"performedBy"`
	ResponseTimeSeconds *int              `json:"responseTimeSeconds,omitempty"`
	TableTakenOver      bool              `json:"tableTakenOver"`
	NeedsConfirmation   bool              `json:"needsConfirmation,omitempty"`
	HasConflict         bool              `json:"hasConflict,omitempty"`
	AssignedTo          *ResponsibleStaff `json:"assignedTo,omitempty"`
	TableNumber         string            `json:"tableNumber,omitempty"`
	Message             string            `json:"message"`
}

// ActionService applies staff actions to hot action requests. The request
// mutation and any takeover run in one transaction; escalation cancellation,
// the audit log append and the realtime publish are best-effort afterwards.
type ActionService struct {
	DB        *gorm.DB
	Ownership *OwnershipService
	Escalate  *EscalationService
	Events    *EventBus
	Log       *zap.SugaredLogger
}

func NewActionService(db *gorm.DB, ownership *OwnershipService, escalate *EscalationService, events *EventBus, log *zap.SugaredLogger) *ActionService {
	return &ActionService{DB: db, Ownership: ownership, Escalate: escalate, Events: events, Log: log}
}

func (s *ActionService) ProcessAction(actor *models.StaffProfile, requestID string, action Action, note string) (*ActionResult, error) {
	var req models.HotActionRequest
	if err := s.DB.First(&req, "id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("request %s not found", requestID)
		}
		return nil, err
	}

	if actor.LocationID != req.LocationID {
		return nil, utils.Forbiddenf("request belongs to another location")
	}
	if req.IsTerminal() {
		return nil, utils.Conflictf("request is already %s", req.Status)
	}
	if !ValidTransition(action.Name(), req.Status) {
		return nil, utils.Conflictf("cannot %s a request in status %s", action.Name(), req.Status)
	}

	switch a := action.(type) {
	case AcknowledgeAction:
		return s.acknowledge(actor, &req, a, note)
	case CompleteAction:
		return s.closeRequest(actor, &req, models.ActionComplete, models.RequestStatusCompleted, note)
	case CancelAction:
		return s.closeRequest(actor, &req, models.ActionCancel, models.RequestStatusCancelled, note)
	case ReassignAction:
		return s.reassign(actor, &req, a, note)
	default:
		return nil, utils.Validationf("unknown action %q", action.Name())
	}
}

func (s *ActionService) acknowledge(actor *models.StaffProfile, req *models.HotActionRequest, a AcknowledgeAction, note string) (*ActionResult, error) {
	conflict, err := s.Ownership.Resolve(req.LocationID, req.TableNumber, actor.ID, TodayShiftDate())
	if err != nil {
		return nil, err
	}

	if a.CheckOnly {
		return &ActionResult{
			Success:     true,
			Action:      models.ActionAcknowledge,
			RequestID:   req.ID,
			PerformedBy: actor.ID,
			HasConflict: conflict != nil,
			AssignedTo:  conflict,
			TableNumber: req.TableNumber,
			Message:     "check only, no changes made",
		}, nil
	}

	if conflict != nil && !a.TakeoverTable {
		// soft conflict: the caller decides whether to take the table over
		return &ActionResult{
			Success:           false,
			Action:            models.ActionAcknowledge,
			RequestID:         req.ID,
			PerformedBy:       actor.ID,
			NeedsConfirmation: true,
			AssignedTo:        conflict,
			TableNumber:       req.TableNumber,
			Message: fmt.Sprintf("This table is assigned to %s. Handle just this request or take over the table?",
				conflict.StaffName),
		}, nil
	}

	now := time.Now().UTC()
	responseTime := int(now.Sub(req.CreatedAt).Seconds())
	if responseTime < 0 {
		responseTime = 0
	}

	updates := map[string]interface{}{
		"status":                models.RequestStatusAcknowledged,
		"assigned_to_staff_id":  actor.ID,
		"acknowledged_at":       now,
		"acknowledged_by":       actor.ID,
		"response_time_seconds": responseTime,
		"version":               req.Version + 1,
	}
	if req.AssignedToStaffID != nil && *req.AssignedToStaffID != actor.ID && req.OriginalAssignedStaffID == nil {
		updates["original_assigned_staff_id"] = *req.AssignedToStaffID
	}

	takenOver := false
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if conflict != nil && a.TakeoverTable {
			if err := s.takeoverTable(tx, actor, req, conflict); err != nil {
				return err
			}
			takenOver = true
		}
		return s.updateRequest(tx, req, updates)
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.Escalate.CancelForRequest(req.ID, actor.ID); err != nil {
		s.Log.Warnw("escalation cancellation failed", "request_id", req.ID, "error", err)
	}
	s.appendLog(req.ID, models.ActionAcknowledge, actor.ID, note, req.Status, models.RequestStatusAcknowledged)
	s.publishUpdate(req, models.ActionAcknowledge, models.RequestStatusAcknowledged, actor.ID)

	message := "Request acknowledged"
	if takenOver {
		message = "Request acknowledged and table taken over"
	}
	return &ActionResult{
		Success:             true,
		Action:              models.ActionAcknowledge,
		RequestID:           req.ID,
		PerformedBy:         actor.ID,
		ResponseTimeSeconds: &responseTime,
		TableTakenOver:      takenOver,
		TableNumber:         req.TableNumber,
		Message:             message,
	}, nil
}

// takeoverTable deactivates the conflicting assignment and inserts a new
// active one for the actor, inside the caller's transaction.
func (s *ActionService) takeoverTable(tx *gorm.DB, actor *models.StaffProfile, req *models.HotActionRequest, conflict *ResponsibleStaff) error {
	res := tx.Model(&models.StaffTableAssignment{}).
		Where("id = ? AND is_active = ?", conflict.AssignmentID, true).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}

	var table models.TableRecord
	if err := tx.Where("location_id = ? AND table_number = ? AND is_active = ?",
		req.LocationID, req.TableNumber, true).First(&table).Error; err != nil {
		return err
	}

	assignment := models.StaffTableAssignment{
		StaffID:          actor.ID,
		LocationID:       req.LocationID,
		TableID:          &table.ID,
		ShiftDate:        TodayShiftDate(),
		AssignmentMethod: models.AssignMethodTakeover,
		IsActive:         true,
		AssignedBy:       &actor.AccountID,
		Notes:            fmt.Sprintf("taken over from %s while handling request %s", conflict.StaffName, req.ID),
	}
	return tx.Create(&assignment).Error
}

func (s *ActionService) closeRequest(actor *models.StaffProfile, req *models.HotActionRequest, action, newStatus, note string) (*ActionResult, error) {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":       newStatus,
		"completed_at": now,
		"completed_by": actor.ID,
		"version":      req.Version + 1,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		return s.updateRequest(tx, req, updates)
	})
	if err != nil {
		return nil, err
	}

	s.appendLog(req.ID, action, actor.ID, note, req.Status, newStatus)
	s.publishUpdate(req, action, newStatus, actor.ID)

	message := "Request completed"
	if action == models.ActionCancel {
		message = "Request cancelled"
	}
	return &ActionResult{
		Success:     true,
		Action:      action,
		RequestID:   req.ID,
		PerformedBy: actor.ID,
		TableNumber: req.TableNumber,
		Message:     message,
	}, nil
}

func (s *ActionService) reassign(actor *models.StaffProfile, req *models.HotActionRequest, a ReassignAction, note string) (*ActionResult, error) {
	var target models.StaffProfile
	err := s.DB.Where("id = ? AND location_id = ? AND status = ?",
		a.ReassignTo, req.LocationID, models.StaffStatusActive).First(&target).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("staff %d not found at this location", a.ReassignTo)
		}
		return nil, err
	}

	updates := map[string]interface{}{
		"assigned_to_staff_id": target.ID,
		"version":              req.Version + 1,
	}
	if req.OriginalAssignedStaffID == nil {
		previous := actor.ID
		if req.AssignedToStaffID != nil {
			previous = *req.AssignedToStaffID
		}
		updates["original_assigned_staff_id"] = previous
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		return s.updateRequest(tx, req, updates)
	})
	if err != nil {
		return nil, err
	}

	s.appendLog(req.ID, models.ActionReassign, actor.ID, note, req.Status, req.Status)
	s.publishUpdate(req, models.ActionReassign, req.Status, actor.ID)

	return &ActionResult{
		Success:     true,
		Action:      models.ActionReassign,
		RequestID:   req.ID,
		PerformedBy: actor.ID,
		TableNumber: req.TableNumber,
		Message:     fmt.Sprintf("Request reassigned to %s", target.DisplayName),
	}, nil
}

// updateRequest issues the conditional update that enforces the optimistic
// concurrency check: zero rows affected means the row changed since it was
// read, and the caller gets a conflict to retry.
func (s *ActionService) updateRequest(tx *gorm.DB, req *models.HotActionRequest, updates map[string]interface{}) error {
	res := tx.Model(&models.HotActionRequest{}).
		Where("id = ? AND version = ?", req.ID, req.Version).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.Conflictf("request %s was modified concurrently, reload and retry", req.ID)
	}
	return nil
}

// appendLog writes the audit row. Failures are logged and swallowed: the
// primary state transition already happened and must not be failed by the
// audit side effect.
func (s *ActionService) appendLog(requestID, action string, performedBy uint, note, previousStatus, newStatus string) {
	row := models.RequestActionLog{
		RequestID:      requestID,
		Action:         action,
		PerformedBy:    performedBy,
		PerformedAt:    time.Now().UTC(),
		Note:           note,
		PreviousStatus: previousStatus,
		NewStatus:      newStatus,
	}
	if err := s.DB.Create(&row).Error; err != nil {
		s.Log.Warnw("action log append failed", "request_id", requestID, "action", action, "error", err)
	}
}

func (s *ActionService) publishUpdate(req *models.HotActionRequest, action, status string, staffID uint) {
	s.Events.Publish(StaffEvent{
		Type:        EventRequestUpdated,
		RequestID:   req.ID,
		LocationID:  req.LocationID,
		TableNumber: req.TableNumber,
		Status:      status,
		Action:      action,
		StaffID:     &staffID,
	})
}
