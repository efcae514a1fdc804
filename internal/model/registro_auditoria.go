package model

import (
	"time"

	"github.com/google/uuid"
)

// Acciones de auditoría emitidas por el motor de conciliación.
const (
	AccionMovimientoRegistrado = "MOVIMIENTO_REGISTRADO"
	AccionMovimientoOmitido    = "MOVIMIENTO_OMITIDO"
	AccionIntentoPagoSinCaja   = "INTENTO_PAGO_SIN_CAJA"
	AccionErrorConfiguracion   = "ERROR_CONFIGURACION"
	AccionErrorConciliacion    = "ERROR_CONCILIACION"
	AccionPagoRegistrado       = "PAGO_CREDITO_REGISTRADO"
	AccionPagoRechazado        = "PAGO_CREDITO_RECHAZADO"
	AccionPagoAnulado          = "PAGO_CREDITO_ANULADO"
	AccionCuentasVencidas      = "CUENTAS_VENCIDAS"
)

// RegistroAuditoria is an append-only log entry. Never updated, never deleted.
// Detalle is a JSON object with the structured context of the attempt.
type RegistroAuditoria struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID          uuid.UUID  `gorm:"type:uuid;index"`
	PuntoDeVenta       *int
	SesionCajaID       *uuid.UUID `gorm:"type:uuid;index"`
	Accion             string     `gorm:"type:varchar(50);not null;index"`
	OperacionIntentada string     `gorm:"type:varchar(100);not null"`
	TipoOperacion      string     `gorm:"type:varchar(30)"`
	Exitoso            bool       `gorm:"not null"`
	Detalle            string     `gorm:"type:jsonb;not null;default:'{}'"`
	CodigoResultado    int        `gorm:"not null"`
	MensajeError       *string
	IP                 string `gorm:"type:varchar(45)"`
	UserAgent          string
	CreatedAt          time.Time `gorm:"index"`
}

func (RegistroAuditoria) TableName() string { return "registros_auditoria" }
