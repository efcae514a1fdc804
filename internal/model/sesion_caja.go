package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estados de SesionCaja.
const (
	SesionAbierta = "abierta"
	SesionCerrada = "cerrada"
)

// SesionCaja is one register opened by one operator on one calendar day.
// Opening and closing happen outside this service; here it is read-only.
// Estado: "abierta" | "cerrada"
type SesionCaja struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PuntoDeVenta int             `gorm:"not null;index"`
	UsuarioID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	MontoInicial decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Estado       string          `gorm:"type:varchar(20);not null;default:'abierta'"`
	OpenedAt     time.Time       `gorm:"not null;index"`
	ClosedAt     *time.Time

	Movimientos []MovimientoCaja `gorm:"foreignKey:SesionCajaID"`
}

func (SesionCaja) TableName() string { return "sesion_cajas" }

// Abierta reports whether the session still accepts movements.
func (s *SesionCaja) Abierta() bool { return s.Estado == SesionAbierta }

// MovimientoCaja is an immutable entry in the cash register ledger.
// Monto is always >= 0; the direction comes from TipoOperacion.Signo.
// Movements are NEVER modified or deleted. A reversal inserts a new row
// whose MovimientoOrigenID points at the entry it compensates.
type MovimientoCaja struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SesionCajaID    uuid.UUID       `gorm:"type:uuid;index;not null"`
	UsuarioID       uuid.UUID       `gorm:"type:uuid;not null"`
	TipoOperacionID int             `gorm:"not null"`
	TipoOperacion   string          `gorm:"type:varchar(30);not null"` // codigo, denormalizado para reportes
	MetodoPagoID    *int
	NumeroDocumento string          `gorm:"type:varchar(50)"`
	Monto           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Descripcion     string          `gorm:"not null"`
	// ReferenciaID links to the originating Venta or PagoCuenta
	ReferenciaID       *uuid.UUID `gorm:"type:uuid;index"`
	MovimientoOrigenID *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	CreatedAt          time.Time
}

func (MovimientoCaja) TableName() string { return "movimiento_cajas" }
