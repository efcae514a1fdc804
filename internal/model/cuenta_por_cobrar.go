package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estados de CuentaPorCobrar.
const (
	CuentaAbierta = "abierta"
	CuentaPagada  = "pagada"
	CuentaVencida = "vencida"
)

// Estados de PagoCuenta.
const (
	PagoRegistrado = "registrado"
	PagoAnulado    = "anulado"
)

// CuentaPorCobrar is the receivable created for a credit sale.
// Invariante: SaldoPendiente = MontoOriginal - SUM(pagos registrados) >= 0.
// Estado: "abierta" | "pagada" | "vencida"
type CuentaPorCobrar struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID          uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	ClienteID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	UsuarioID        uuid.UUID       `gorm:"type:uuid;not null"`
	MontoOriginal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SaldoPendiente   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	FechaVencimiento time.Time       `gorm:"not null;index"`
	Estado           string          `gorm:"type:varchar(20);not null;default:'abierta'"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Pagos []PagoCuenta `gorm:"foreignKey:CuentaID"`
}

func (CuentaPorCobrar) TableName() string { return "cuentas_por_cobrar" }

// Vencida reports whether the due date has passed at instant t.
func (c *CuentaPorCobrar) Vencida(t time.Time) bool {
	return t.After(c.FechaVencimiento)
}

// PagoCuenta is a payment applied against a CuentaPorCobrar.
// A voided payment is kept with Estado "anulado"; rows are never deleted.
type PagoCuenta struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CuentaID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	Monto           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MetodoPagoID    *int
	NumeroRecibo    string `gorm:"type:varchar(50)"`
	Estado          string `gorm:"type:varchar(20);not null;default:'registrado'"`
	MotivoAnulacion *string
	UsuarioID       uuid.UUID `gorm:"type:uuid;not null"`
	PuntoDeVenta    *int
	PagadoEn        time.Time `gorm:"not null"`
	AnuladoEn       *time.Time
}

func (PagoCuenta) TableName() string { return "pagos_cuenta" }

func (p *PagoCuenta) Anulado() bool { return p.Estado == PagoAnulado }
