package infra

import (
	"fmt"

	"distribuidora/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, migrates the
// reconciliation tables and applies the SQL patches AutoMigrate cannot express
// (partial unique indexes, CHECK constraints).
//
// TranslateError is on so unique violations surface as gorm.ErrDuplicatedKey,
// which the services use to detect lost insert races.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
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

// RunMigrations creates / updates every table and then applies the schema
// patches. Idempotent; integration tests call it against a fresh container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.TipoOperacion{},
		&model.Cliente{},
		&model.SesionCaja{},
		&model.MovimientoCaja{},
		&model.CuentaPorCobrar{},
		&model.PagoCuenta{},
		&model.RegistroAuditoria{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL that GORM tags cannot describe.
// Each statement is guarded so re-running on a patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// One original movement per (sale|payment, type). Compensations share
		// the referencia_id of the payment, so they are excluded.
		{"unique movimiento por referencia", `
CREATE UNIQUE INDEX IF NOT EXISTS idx_movimiento_cajas_referencia_tipo
    ON movimiento_cajas (referencia_id, tipo_operacion)
    WHERE movimiento_origen_id IS NULL AND referencia_id IS NOT NULL`},

		// Resolver lookup: open sessions of one operator, newest first.
		{"index sesiones abiertas por usuario", `
CREATE INDEX IF NOT EXISTS idx_sesion_cajas_abiertas
    ON sesion_cajas (usuario_id, opened_at DESC)
    WHERE estado = 'abierta'`},

		// Overdue sweeper.
		{"index cuentas abiertas por vencimiento", `
CREATE INDEX IF NOT EXISTS idx_cuentas_por_cobrar_abiertas_vencimiento
    ON cuentas_por_cobrar (fecha_vencimiento)
    WHERE estado = 'abierta'`},

		{"check saldo pendiente", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_cuentas_saldo_rango') THEN
    ALTER TABLE cuentas_por_cobrar
      ADD CONSTRAINT chk_cuentas_saldo_rango
      CHECK (saldo_pendiente >= 0 AND saldo_pendiente <= monto_original);
  END IF;
END $$`},

		{"check monto movimiento", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_movimiento_cajas_monto') THEN
    ALTER TABLE movimiento_cajas
      ADD CONSTRAINT chk_movimiento_cajas_monto CHECK (monto >= 0);
  END IF;
END $$`},

		{"check monto pago", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_pagos_cuenta_monto') THEN
    ALTER TABLE pagos_cuenta
      ADD CONSTRAINT chk_pagos_cuenta_monto CHECK (monto > 0);
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
