package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"staff-backend/models"
	"staff-backend/utils"
)

func TestParseAction(t *testing.T) {
	if _, err := ParseAction("acknowledge", nil, false, false); err != nil {
		t.Fatalf("acknowledge should parse: %v", err)
	}
	if _, err := ParseAction("shout", nil, false, false); !errors.Is(err, utils.ErrValidation) {
		t.Fatalf("unknown action should be a validation error, got %v", err)
	} else if !strings.Contains(err.Error(), "acknowledge|complete|reassign|cancel") {
		t.Fatalf("error should list valid actions, got %q", err.Error())
	}
	if _, err := ParseAction("reassign", nil, false, false); !errors.Is(err, utils.ErrValidation) {
		t.Fatalf("reassign without target should be a validation error, got %v", err)
	}
	to := uint(5)
	action, err := ParseAction("reassign", &to, false, false)
	if err != nil {
		t.Fatalf("reassign with target should parse: %v", err)
	}
	if a, ok := action.(ReassignAction); !ok || a.ReassignTo != 5 {
		t.Fatalf("unexpected parsed action %#v", action)
	}
}

func TestValidTransition(t *testing.T) {
	cases := []struct {
		action string
		from   string
		want   bool
	}{
		{models.ActionAcknowledge, models.RequestStatusPending, true},
		{models.ActionAcknowledge, models.RequestStatusAcknowledged, false},
		{models.ActionComplete, models.RequestStatusPending, true},
		{models.ActionComplete, models.RequestStatusAcknowledged, true},
		{models.ActionComplete, models.RequestStatusCompleted, false},
		{models.ActionCancel, models.RequestStatusAcknowledged, true},
		{models.ActionCancel, models.RequestStatusCancelled, false},
		{models.ActionReassign, models.RequestStatusPending, true},
		{"unknown", models.RequestStatusPending, false},
	}
	for _, tc := range cases {
		if got := ValidTransition(tc.action, tc.from); got != tc.want {
			t.Errorf("ValidTransition(%s, %s) = %v, want %v", tc.action, tc.from, got, tc.want)
		}
	}
}

func TestAcknowledgeNoConflict(t *testing.T) {
	db := testDB(t)
	w := seedWorld(t, db)
	svc := newTestActionService(db)

	req := w.makeRequest(t, "12", 90*time.Second)

	result, err := svc.ProcessAction(&w.staffA, req.ID, AcknowledgeAction{}, "")
	if err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if !result.Success || result.NeedsConfirmation {
		t.Fatalf("expected clean acknowledge, got %+v", result)
	}
	if result.ResponseTimeSeconds == nil || *result.ResponseTimeSeconds != 90 {
		t.Fatalf("expected response time 90s, got %v", result.ResponseTimeSeconds)
	}

	got := reloadRequest(t, db, req.ID)
	if got.Status != models.RequestStatusAcknowledged {
		t.Fatalf("status = %s, want acknowledged", got.Status)
	}
	if got.AssignedToStaffID == nil || *got.AssignedToStaffID != w.staffA.ID {
		t.Fatalf("assigned to = %v, want %d", got.AssignedToStaffID, w.staffA.ID)
	}
	if got.AcknowledgedAt == nil || got.AcknowledgedBy == nil {
		t.Fatal("acknowledged_at / acknowledged_by should be set")
	}
	if got.Version != req.Version+1 {
		t.Fatalf("version = %d, want %d", got.Version, req.Version+1)
	}

	var logs []models.RequestActionLog
	if err := db.Where("request_id = ?", req.ID).Find(&logs).Error; err != nil {
		t.Fatalf("load logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected exactly one log row, got %d", len(logs))
	}
	if logs[0].PreviousStatus != models.RequestStatusPending || logs[0].NewStatus != models.RequestStatusAcknowledged {
		t.Fatalf("log transition %s->%s, want pending->acknowledged", logs[0].PreviousStatus, logs[0].NewStatus)
	}
	if logs[0].PerformedBy != w.staffA.ID || logs[0].Action != models.ActionAcknowledge {
		t.Fatalf("unexpected log row %+v", logs[0])
	}
}

func TestAcknowledgeConflictNeedsConfirmation(t *testing.T) {
	db := testDB(t)
	w := seedWorld(t, db)
	svc := newTestActionService(db)

	w.assignTable(t, w.staffB, "12")
	req := w.makeRequest(t, "12", time.Minute)

	result, err := svc.ProcessAction(&w.staffA, req.ID, AcknowledgeAction{}, "")
	if err != nil {
		t.Fatalf("soft conflict must not be an error: %v", err)
	}
	if !result.NeedsConfirmation || result.Success {
		t.Fatalf("expected needsConfirmation, got %+v", result)
	}
	if result.AssignedTo == nil || result.AssignedTo.StaffID != w.staffB.ID {
		t.Fatalf("conflict should name staff B, got %+v", result.AssignedTo)
	}
	if !strings.Contains(result.Message, w.staffB.DisplayName) {
		t.Fatalf("message should name the current owner, got %q", result.Message)
	}

	// idempotent probe: zero mutations
	got := reloadRequest(t, db, req.ID)
	if got.Status != models.RequestStatusPending || got.Version != req.Version {
		t.Fatalf("soft conflict mutated the request: %+v", got)
	}
	if n := countLogs(t, db, req.ID); n != 0 {
		t.Fatalf("soft conflict wrote %d log rows", n)
	}
}

func TestAcknowledgeCheckOnly(t *testing.T) {
	db := testDB(t)
	w := seedWorld(t, db)
	svc := newTestActionService(db)

	w.assignTable(t, w.staffB, "12")
	req := w.makeRequest(t, "12", time.Minute)

	result, err := svc.ProcessAction(&w.staffA, req.ID, AcknowledgeAction{CheckOnly: true}, "")
	if err != nil {
		t.Fatalf("checkOnly: %v", err)
	}
	if !result.HasConflict || result.AssignedTo == nil {
		t.Fatalf("checkOnly should report the conflict, got %+v", result)
	}

	got := reloadRequest(t, db, req.ID)
	if got.Status != models.RequestStatusPending || got.Version != req.Version {
		t.Fatalf("checkOnly mutated the request: %+v", got)
	}
	if n := countLogs(t, db, req.ID); n != 0 {
		t.Fatalf("checkOnly wrote %d log rows", n)
	}

	// checkOnly with takeoverTable set still must not mutate anything
	result, err = svc.ProcessAction(&w.staffA, req.ID, AcknowledgeAction{CheckOnly: true, TakeoverTable: true}, "")
	if err != nil || !result.HasConflict {
		t.Fatalf("checkOnly with takeover flag: result=%+v err=%v", result, err)
	}
	if got := reloadRequest(t, db, req.ID); got.Status != models.RequestStatusPending {
		t.Fatalf("checkOnly with takeover flag mutated the request: %+v", got)
	}
}

func TestAcknowledgeTakeover(t *testing.T) {
	db := testDB(t)
	w := seedWorld(t, db)
	svc := newTestActionService(db)

	oldAssignment := w.assignTable(t, w.staffB, "12")
	req := w.makeRequest(t, "12", time.Minute)

	// escalation pending for this request, should get cancelled on ack
	escalation, err := svc.Escalate.ScheduleForRequest(&req, 2*time.Minute)
	if err != nil {
		t.Fatalf("schedule escalation: %v", err)
	}

	result, err := svc.ProcessAction(&w.staffA, req.ID, AcknowledgeAction{TakeoverTable: true}, "")
	if err != nil {
		t.Fatalf("takeover acknowledge: %v", err)
	}
	if !result.Success || !result.TableTakenOver {
		t.Fatalf("expected takeover result, got %+v", result)
	}

	var old models.StaffTableAssignment
	if err := db.First(&old, oldAssignment.ID).Error; err != nil {
		t.Fatalf("reload old assignment: %v", err)
	}
	if old.IsActive {
		t.Fatal("old assignment should be deactivated")
	}

	var replacement models.StaffTableAssignment
	err = db.Where("staff_id = ? AND table_id = ? AND shift_date = ? AND is_active = ?",
		w.staffA.ID, w.tables["12"].ID, TodayShiftDate(), true).First(&replacement).Error
	if err != nil {
		t.Fatalf("load takeover assignment: %v", err)
	}
	if replacement.AssignmentMethod != models.AssignMethodTakeover {
		t.Fatalf("assignment method = %s, want takeover", replacement.AssignmentMethod)
	}
	if !strings.Contains(replacement.Notes, w.staffB.DisplayName) {
		t.Fatalf("takeover note should reference the previous owner, got %q", replacement.Notes)
	}

	got := reloadRequest(t, db, req.ID)
	if got.Status != models.RequestStatusAcknowledged || got.AssignedToStaffID == nil || *got.AssignedToStaffID != w.staffA.ID {
		t.Fatalf("request not acknowledged by staff A: %+v", got)
	}

	var esc models.EscalationEvent
	if err := db.First(&esc, "id = ?", escalation.ID).Error; err != nil {
		t.Fatalf("reload escalation: %v", err)
	}
	if esc.Status != models.EscalationStatusCancelled {
		t.Fatalf("escalation status = %s, want cancelled", esc.Status)
	}
	if esc.ResolvedAt == nil || esc.ResolvedBy == nil || *esc.ResolvedBy != w.staffA.ID {
		t.Fatalf("escalation resolution fields wrong: %+v", esc)
	}
}

func TestAcknowledgePreservesOriginalAssignee(t *testing.T) {
	db := testDB(t)
	w := seedWorld(t, db)
	svc := newTestActionService(db)

	req := w.makeRequest(t, "7", time.Minute)
	if err := db.Model(&models.HotActionRequest{}).Where("id = ?", req.ID).
		Update("assigned_to_staff_id", w.staffB.ID).Error; err != nil {
		t.Fatalf("preassign: %v", err)
	}

	if _, err := svc.ProcessAction(&w.staffA, req.ID, AcknowledgeAction{}, ""); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}

	got := reloadRequest(t, db, req.ID)
	if got.OriginalAssignedStaffID == nil || *got.OriginalAssignedStaffID != w.staffB.ID {
		t.Fatalf("original assignee not preserved: %+v", got.OriginalAssignedStaffID)
	}
	if got.AssignedToStaffID == nil || *got.AssignedToStaffID != w.staffA.ID {
		t.Fatalf("new assignee wrong: %+v", got.AssignedToStaffID)
	}
}

func TestCompleteAndTerminalGuard(t *testing.T) {
	db := testDB(t)
	w := seedWorld(t, db)
	svc := newTestActionService(db)

	req := w.makeRequest(t, "7", time.Minute)

	if _, err := svc.ProcessAction(&w.staffA, req.ID, AcknowledgeAction{}, ""); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if _, err := svc.ProcessAction(&w.staffA, req.ID, CompleteAction{}, ""); err != nil {
		t.Fatalf("complete: %v", err)
	}

	got := reloadRequest(t, db, req.ID)
	if got.Status != models.RequestStatusCompleted || got.CompletedAt == nil || got.CompletedBy == nil {
		t.Fatalf("complete did not close the request: %+v", got)
	}

	// terminal requests are immutable
	if _, err := svc.ProcessAction(&w.staffA, req.ID, AcknowledgeAction{}, ""); !errors.Is(err, utils.ErrConflict) {
		t.Fatalf("acknowledge after complete should conflict, got %v", err)
	}
	if _, err := svc.ProcessAction(&w.staffA, req.ID, CancelAction{}, ""); !errors.Is(err, utils.ErrConflict) {
		t.Fatalf("cancel after complete should conflict, got %v", err)
	}

	if n := countLogs(t, db, req.ID); n != 2 {
		t.Fatalf("expected 2 log rows (ack, complete), got %d", n)
	}
}

func TestCancelFromPending(t *testing.T) {
	db := testDB(t)
	w := seedWorld(t, db)
	svc := newTestActionService(db)

	req := w.makeRequest(t, "7", time.Minute)

	result, err := svc.ProcessAction(&w.staffB, req.ID, CancelAction{}, "guest left")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !result.Success {
		t.Fatalf("cancel result %+v", result)
	}

	got := reloadRequest(t, db, req.ID)
	if got.Status != models.RequestStatusCancelled {
		t.Fatalf("status = %s, want cancelled", got.Status)
	}
	if got.CompletedAt == nil || got.CompletedBy == nil || *got.CompletedBy != w.staffB.ID {
		t.Fatalf("cancel should stamp completion fields: %+v", got)
	}

	var logRow models.RequestActionLog
	if err := db.Where("request_id = ?", req.ID).First(&logRow).Error; err != nil {
		t.Fatalf("load log: %v", err)
	}
	if logRow.PreviousStatus != models.RequestStatusPending || logRow.NewStatus != models.RequestStatusCancelled {
		t.Fatalf("log transition %s->%s", logRow.PreviousStatus, logRow.NewStatus)
	}
	if logRow.Note != "guest left" {
		t.Fatalf("log note = %q", logRow.Note)
	}
}

func TestReassign(t *testing.T) {
	db := testDB(t)
	w := seedWorld(t, db)
	svc := newTestActionService(db)

	req := w.makeRequest(t, "7", time.Minute)

	result, err := svc.ProcessAction(&w.staffA, req.ID, ReassignAction{ReassignTo: w.staffB.ID}, "")
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if !strings.Contains(result.Message, w.staffB.DisplayName) {
		t.Fatalf("message should name the target, got %q", result.Message)
	}

	got := reloadRequest(t, db, req.ID)
	if got.Status != models.RequestStatusPending {
		t.Fatalf("reassign must not change status, got %s", got.Status)
	}
	if got.AssignedToStaffID == nil || *got.AssignedToStaffID != w.staffB.ID {
		t.Fatalf("assignee = %v, want %d", got.AssignedToStaffID, w.staffB.ID)
	}
	if got.OriginalAssignedStaffID == nil || *got.OriginalAssignedStaffID != w.staffA.ID {
		t.Fatalf("original assignee should default to the actor, got %v", got.OriginalAssignedStaffID)
	}

	if _, err := svc.ProcessAction(&w.staffA, req.ID, ReassignAction{ReassignTo: 9999}, ""); !errors.Is(err, utils.ErrNotFound) {
		t.Fatalf("reassign to unknown staff should be not found, got %v", err)
	}
}

func TestReassignKeepsPriorAssigneeAsOriginal(t *testing.T) {
	db := testDB(t)
	w := seedWorld(t, db)
	svc := newTestActionService(db)
	carla := seedStaff(t, db, w.loc, "carla@test.local", "Carla")

	req := w.makeRequest(t, "7", time.Minute)
	if err := db.Model(&models.HotActionRequest{}).Where("id = ?", req.ID).
		Update("assigned_to_staff_id", w.staffB.ID).Error; err != nil {
		t.Fatalf("preassign: %v", err)
	}

	if _, err := svc.ProcessAction(&w.staffA, req.ID, ReassignAction{ReassignTo: carla.ID}, ""); err != nil {
		t.Fatalf("reassign: %v", err)
	}

	got := reloadRequest(t, db, req.ID)
	if got.AssignedToStaffID == nil || *got.AssignedToStaffID != carla.ID {
		t.Fatalf("assignee = %v, want %d", got.AssignedToStaffID, carla.ID)
	}
	// provenance tracks who held the request, not who moved it
	if got.OriginalAssignedStaffID == nil || *got.OriginalAssignedStaffID != w.staffB.ID {
		t.Fatalf("original assignee = %v, want %d", got.OriginalAssignedStaffID, w.staffB.ID)
	}
}

func TestActionRequestNotFound(t *testing.T) {
	db := testDB(t)
	w := seedWorld(t, db)
	svc := newTestActionService(db)

	if _, err := svc.ProcessAction(&w.staffA, "no-such-id", CompleteAction{}, ""); !errors.Is(err, utils.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestActionWrongLocation(t *testing.T) {
	db := testDB(t)
	w := seedWorld(t, db)
	svc := newTestActionService(db)

	other := models.Location{MerchantID: 2, Name: "Other", Slug: "other"}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("seed other location: %v", err)
	}
	outsider := seedStaff(t, db, other, "carla@test.local", "Carla")

	req := w.makeRequest(t, "7", time.Minute)
	if _, err := svc.ProcessAction(&outsider, req.ID, CompleteAction{}, ""); !errors.Is(err, utils.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestConcurrentUpdateConflict(t *testing.T) {
	db := testDB(t)
	w := seedWorld(t, db)
	svc := newTestActionService(db)

	req := w.makeRequest(t, "7", time.Minute)

	// someone else bumps the version between our read and write
	if err := db.Model(&models.HotActionRequest{}).Where("id = ?", req.ID).
		Update("version", req.Version+1).Error; err != nil {
		t.Fatalf("bump version: %v", err)
	}

	err := svc.updateRequest(db, &req, map[string]interface{}{
		"status":  models.RequestStatusAcknowledged,
		"version": req.Version + 1,
	})
	if !errors.Is(err, utils.ErrConflict) {
		t.Fatalf("stale write should conflict, got %v", err)
	}
}
