package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	qrTokenModel "smartattendance_backend/internals/features/attendance/qrtoken/model"
	recordModel "smartattendance_backend/internals/features/attendance/records/model"
	orgModel "smartattendance_backend/internals/features/organisations/organisation/model"
	userModel "smartattendance_backend/internals/features/users/user/model"
)

var DB *gorm.DB

func ConnectDB() {
	log.Println("🔌 Connecting to PostgreSQL...")

	sslmode := getenv("DB_SSLMODE", "require")
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=smartattendance&options=-c statement_timeout=3000",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_NAME"),
		sslmode,
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // plays well with PgBouncer transaction pooling
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("❌ DB connection failed: %v", err)
	}
	DB = db
	log.Println("✅ DB connected.")
}

func TunePool() {
	sqlDB, err := DB.DB()
	if err != nil {
		log.Printf("pool tune err: %v", err)
		return
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

// Migrate keeps the schema in sync. The partial unique index guarding
// one attendance row per user per day lives on the record model tags.
func Migrate() {
	if err := DB.AutoMigrate(
		&orgModel.OrganisationModel{},
		&userModel.UserModel{},
		&qrTokenModel.QrCodeRecordModel{},
		&recordModel.AttendanceRecordModel{},
	); err != nil {
		log.Fatalf("❌ migration failed: %v", err)
	}
	log.Println("✅ Migration done.")
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
