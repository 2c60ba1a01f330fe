package database

import (
	"context"
	"fmt"

	"controlos-backend/internal/config"
	"controlos-backend/internal/logger"
	"controlos-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) error {
	ctx := context.Background()

	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("could not connect to database: %w", err)
	}

	err = DB.AutoMigrate(
		&models.Restaurant{},
		&models.User{},
		&models.Employee{},
		&models.AppSettings{},
		&models.StaffingTableEntry{},
		&models.HistoryEntry{},
		&models.DailySchedule{},
		&models.Invoice{},
		&models.InvoiceLine{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}

	// staffing table order is read by position on every requirement lookup
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_staffing_restaurant_position ON staffing_table_entries(restaurant_id, position)").Error; err != nil {
		logger.WarnLog(ctx, "could not create staffing position index: %v", err)
	}

	logger.InfoLog(ctx, "database connected, migrations applied")
	return nil
}

// Ping checks the underlying connection pool.
func Ping(ctx context.Context) error {
	if DB == nil {
		return fmt.Errorf("database not initialised")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
