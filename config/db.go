package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"staff-backend/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func envOrDefault(key, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}

func resolvePostgresDSN() string {
	raw := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if raw != "" {
		return raw
	}

	user := envOrDefault("DB_USER", "postgres")
	pass := envOrDefault("DB_PASS", "postgres")
	host := envOrDefault("DB_HOST", "127.0.0.1")
	port := envOrDefault("DB_PORT", "5432")
	dbName := envOrDefault("DB_NAME", "staff_db")
	sslMode := envOrDefault("DB_SSLMODE", "disable")

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		host, user, pass, dbName, port, sslMode,
	)
}

func ConnectDatabase() error {
	dsn := resolvePostgresDSN()

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return err
	}

	DB = db

	// AutoMigrate in parent->child order
	if err := DB.AutoMigrate(
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
		return err
	}

	SeedDatabase()
	return nil
}

// SeedDatabase creates the reference data a fresh install needs: one demo
// location with sections and tables, and a manager login. Count-guarded, so
// it is safe to run on every boot.
func SeedDatabase() {
	var locCount int64
	DB.Model(&models.Location{}).Count(&locCount)
	if locCount == 0 {
		loc := models.Location{MerchantID: 1, Name: "GUDBRO Demo Cafe", Slug: "gudbro-demo-cafe"}
		if err := DB.Create(&loc).Error; err != nil {
			log.Printf("warning: failed to seed location: %v", err)
			return
		}

		sections := []models.Section{
			{LocationID: loc.ID, Name: "Indoor"},
			{LocationID: loc.ID, Name: "Terrace"},
		}
		if err := DB.Create(&sections).Error; err != nil {
			log.Printf("warning: failed to seed sections: %v", err)
		}

		tables := make([]models.TableRecord, 0, 12)
		for i := 1; i <= 12; i++ {
			table := models.TableRecord{
				LocationID:  loc.ID,
				TableNumber: fmt.Sprintf("%d", i),
				Seats:       4,
				IsActive:    true,
			}
			// tables 1-8 indoor, 9-12 terrace
			if len(sections) == 2 {
				if i <= 8 {
					table.SectionID = &sections[0].ID
				} else {
					table.SectionID = &sections[1].ID
				}
			}
			tables = append(tables, table)
		}
		if err := DB.Create(&tables).Error; err != nil {
			log.Printf("warning: failed to seed tables: %v", err)
		}

		log.Println("Location, sections and tables seeded")
	}

	var accountCount int64
	DB.Model(&models.Account{}).Count(&accountCount)
	if accountCount == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte(envOrDefault("SEED_MANAGER_PASSWORD", "manager123")), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("warning: failed to hash default manager password: %v", err)
			return
		}
		account := models.Account{
			Email:        "manager@gudbro.local",
			PasswordHash: string(hash),
			FullName:     "Demo Manager",
		}
		if err := DB.Create(&account).Error; err != nil {
			log.Printf("warning: failed to create default manager: %v", err)
			return
		}

		var loc models.Location
		if err := DB.First(&loc).Error; err == nil {
			profile := models.StaffProfile{
				AccountID:   account.ID,
				LocationID:  loc.ID,
				MerchantID:  loc.MerchantID,
				DisplayName: account.FullName,
				Role:        models.StaffRoleManager,
				Status:      models.StaffStatusActive,
			}
			if err := DB.Create(&profile).Error; err != nil {
				log.Printf("warning: failed to create manager staff profile: %v", err)
			}
		}
		log.Println("Default manager seeded")
	}
}
