package postgres

import (
	"fmt"
	"time"

	"github.com/travelmind/booking/config"
	"github.com/travelmind/booking/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to Postgres, applies pool settings and migrates the schema.
// All repositories in this package share the returned handle so their
// tx-scoped methods compose into one transaction.
func Open(cfg *config.Database) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseURL()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the schema for every entity this service owns.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.Room{},
		&model.RoomAvailability{},
		&model.Booking{},
		&model.Payment{},
		&model.OutboxEvent{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
