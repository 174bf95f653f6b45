package config

import (
	"fmt"
	"time"

	"github.com/Govind-619/LinkSphere/models"
	"github.com/Govind-619/LinkSphere/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// ConnectDatabase opens the postgres connection pool
func ConnectDatabase(cfg *Config) (*gorm.DB, error) {
	level := logger.Warn
	if !cfg.IsProduction() && cfg.LogLevel == "debug" {
		level = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:  logger.Default.LogMode(level),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	DB = db
	return db, nil
}

// Migrate creates or updates every table
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Workspace{},
		&models.WorkspaceMember{},
		&models.Program{},
		&models.Partner{},
		&models.ProgramEnrollment{},
		&models.Discount{},
		&models.Customer{},
		&models.Commission{},
		&models.Token{},
		&models.DefaultDomains{},
		&models.OutboxEvent{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %v", err)
	}

	// Commission listing always filters on positive earnings
	err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_commissions_earning
		ON commissions (program_id, created_at DESC, id DESC) WHERE earnings > 0`).Error
	if err != nil {
		return fmt.Errorf("failed to create commission index: %v", err)
	}

	utils.LogInfo("Database schema is up to date")
	return nil
}
