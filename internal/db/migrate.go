package db

import (
	"fmt"

	"gorm.io/gorm"

	"go_netinv/internal/model"
	"go_netinv/internal/util"
)

// Models lists every persisted model, in dependency order
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Device{},
		&model.DeviceCommand{},
		&model.DeviceConfiguration{},
		&model.AuditLog{},
	}
}

// Migrate runs database migrations for all models
func Migrate(gdb *gorm.DB) error {
	log := util.WithComponent("db")
	log.Info("starting database migration")

	models := Models()
	if err := gdb.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.WithField("tables", len(models)).Info("database migration completed")
	return nil
}
