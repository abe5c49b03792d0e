package infra

import (
	"fmt"

	"restopos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate,
// then applies the idempotent DDL that GORM cannot express (partial indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations applies the schema. Also used by integration tests against a
// throwaway container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Caja{},
		&model.Pago{},
		&model.CierreCaja{},
		&model.Operacion{},
		&model.OperacionDetalle{},
		&model.Mesa{},
		&model.Persona{},
		&model.Comprobante{},
		&model.ComprobanteItem{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// Partial index backing the retry cron query.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_comprobantes_pending_retry') THEN
		    CREATE INDEX idx_comprobantes_pending_retry
		        ON comprobantes (next_retry_at)
		        WHERE estado IN ('PROCESSING', 'ERROR', 'CANCELLATION_ERROR') AND next_retry_at IS NOT NULL;
		  END IF;
		END $$`,
		// Partial index for the open payment window per register.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_pagos_sin_cerrar') THEN
		    CREATE INDEX idx_pagos_sin_cerrar
		        ON pagos (caja_id, created_at)
		        WHERE cierre_id IS NULL;
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("schema patch: %w", err)
		}
	}
	return nil
}
