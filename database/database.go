package database

import (
	"fmt"
	"log"
	"os"

	"github.com/roxas19/DRP/config"
	"github.com/roxas19/DRP/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DbInstance struct holds the database connection instance
type DbInstance struct {
	Db *gorm.DB
}

// Database is the global database instance
var Database DbInstance

// ConnectDb opens the configured database, tunes the pool and runs migrations
func ConnectDb() {
	cfg := config.AppConfig

	db, err := Open(cfg.DBDriver, buildDSN(cfg))
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", cfg.DBDriver, err)
		os.Exit(2)
	}

	// Set up connection pooling
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	if cfg.DBDriver == "sqlite" {
		sqlDB.SetMaxOpenConns(1) // single writer
	} else {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(5)
	}
	sqlDB.SetConnMaxLifetime(0)

	log.Println("Running Migrations...")
	if err := Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migrations completed successfully.")

	// Save database instance globally
	Database = DbInstance{Db: db}
}

// Open returns a gorm handle for one of the supported drivers
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
	return gorm.Open(dialector, &gorm.Config{TranslateError: true})
}

func buildDSN(cfg *config.Config) string {
	switch cfg.DBDriver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	case "sqlite":
		return cfg.DBName + "?_foreign_keys=on"
	default:
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
	}
}

// Migrate creates or updates every table the application uses
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.StudentProfile{},
		&models.InstructorProfile{},
		&models.Category{},
		&models.Course{},
		&models.WeeklyModule{},
		&models.Task{},
		&models.TaskCompletion{},
		&models.Resource{},
		&models.Enrollment{},
		&models.DiscussionPost{},
		&models.Comment{},
		&models.Flag{},
		&models.YouTubeToken{},
		&models.Livestream{},
		&models.LoginHistory{},
	)
}
