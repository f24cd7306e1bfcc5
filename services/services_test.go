package services

import (
	"fmt"
	"testing"
	"time"

	"staff-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("raw db: %v", err)
	}
	// one connection keeps the shared in-memory database alive
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&models.Account{},
		&models.Location{},
		&models.Section{},
		&models.TableRecord{},
		&models.StaffProfile{},
		&models.StaffTableAssignment{},
		&models.HotActionRequest{},
		&models.EscalationEvent{},
		&models.RequestActionLog{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

type testWorld struct {
	db      *gorm.DB
	loc     models.Location
	indoor  models.Section
	terrace models.Section
	tables  map[string]models.TableRecord
	staffA  models.StaffProfile
	staffB  models.StaffProfile
}

func seedWorld(t *testing.T, db *gorm.DB) *testWorld {
	t.Helper()

	w := &testWorld{db: db, tables: map[string]models.TableRecord{}}

	w.loc = models.Location{MerchantID: 1, Name: "Test Cafe", Slug: "test-cafe"}
	if err := db.Create(&w.loc).Error; err != nil {
		t.Fatalf("seed location: %v", err)
	}

	w.indoor = models.Section{LocationID: w.loc.ID, Name: "Indoor"}
	w.terrace = models.Section{LocationID: w.loc.ID, Name: "Terrace"}
	if err := db.Create(&w.indoor).Error; err != nil {
		t.Fatalf("seed section: %v", err)
	}
	if err := db.Create(&w.terrace).Error; err != nil {
		t.Fatalf("seed section: %v", err)
	}

	for number, sectionID := range map[string]*uint{
		"7":  &w.indoor.ID,
		"12": &w.terrace.ID,
		"20": nil,
	} {
		table := models.TableRecord{
			LocationID:  w.loc.ID,
			SectionID:   sectionID,
			TableNumber: number,
			Seats:       4,
			IsActive:    true,
		}
		if err := db.Create(&table).Error; err != nil {
			t.Fatalf("seed table %s: %v", number, err)
		}
		w.tables[number] = table
	}

	w.staffA = seedStaff(t, db, w.loc, "anna@test.local", "Anna")
	w.staffB = seedStaff(t, db, w.loc, "bruno@test.local", "Bruno")
	return w
}

func seedStaff(t *testing.T, db *gorm.DB, loc models.Location, email, name string) models.StaffProfile {
	t.Helper()

	account := models.Account{Email: email, PasswordHash: "x", FullName: name}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("seed account %s: %v", email, err)
	}
	profile := models.StaffProfile{
		AccountID:   account.ID,
		LocationID:  loc.ID,
		MerchantID:  loc.MerchantID,
		DisplayName: name,
		Role:        models.StaffRoleWaiter,
		Status:      models.StaffStatusActive,
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("seed staff %s: %v", email, err)
	}
	return profile
}

func (w *testWorld) assignTable(t *testing.T, staff models.StaffProfile, tableNumber string) models.StaffTableAssignment {
	t.Helper()

	table, ok := w.tables[tableNumber]
	if !ok {
		t.Fatalf("unknown table %s", tableNumber)
	}
	assignment := models.StaffTableAssignment{
		StaffID:          staff.ID,
		LocationID:       w.loc.ID,
		TableID:          &table.ID,
		ShiftDate:        TodayShiftDate(),
		AssignmentMethod: models.AssignMethodManual,
		IsActive:         true,
	}
	if err := w.db.Create(&assignment).Error; err != nil {
		t.Fatalf("assign table %s: %v", tableNumber, err)
	}
	return assignment
}

func (w *testWorld) assignSection(t *testing.T, staff models.StaffProfile, section models.Section) models.StaffTableAssignment {
	t.Helper()

	assignment := models.StaffTableAssignment{
		StaffID:          staff.ID,
		LocationID:       w.loc.ID,
		SectionID:        &section.ID,
		ShiftDate:        TodayShiftDate(),
		AssignmentMethod: models.AssignMethodManual,
		IsActive:         true,
	}
	if err := w.db.Create(&assignment).Error; err != nil {
		t.Fatalf("assign section %s: %v", section.Name, err)
	}
	return assignment
}

func (w *testWorld) makeRequest(t *testing.T, tableNumber string, age time.Duration) models.HotActionRequest {
	t.Helper()

	req := models.HotActionRequest{
		ID:          uuid.NewString(),
		LocationID:  w.loc.ID,
		TableNumber: tableNumber,
		Type:        models.RequestTypeCallWaiter,
		Status:      models.RequestStatusPending,
		CreatedAt:   time.Now().UTC().Add(-age),
	}
	if err := w.db.Create(&req).Error; err != nil {
		t.Fatalf("seed request: %v", err)
	}
	return req
}

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func newTestActionService(db *gorm.DB) *ActionService {
	log := testLogger()
	events := &EventBus{log: log}
	escalate := NewEscalationService(db, events, log)
	return NewActionService(db, NewOwnershipService(db), escalate, events, log)
}

func countLogs(t *testing.T, db *gorm.DB, requestID string) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.RequestActionLog{}).Where("request_id = ?", requestID).Count(&count).Error; err != nil {
		t.Fatalf("count logs: %v", err)
	}
	return count
}

func reloadRequest(t *testing.T, db *gorm.DB, id string) models.HotActionRequest {
	t.Helper()
	var req models.HotActionRequest
	if err := db.First(&req, "id = ?", id).Error; err != nil {
		t.Fatalf("reload request: %v", err)
	}
	return req
}
