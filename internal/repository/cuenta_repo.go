package repository

import (
	"context"
	"time"

	"distribuidora/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CuentaRepository persists receivables and their payments.
// Balance changes are conditional UPDATEs: they only apply when the row
// still satisfies the guard, so concurrent callers cannot both succeed
// against the same balance.
type CuentaRepository interface {
	Create(ctx context.Context, tx *gorm.DB, c *model.CuentaPorCobrar) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CuentaPorCobrar, error)
	FindByVentaID(ctx context.Context, tx *gorm.DB, ventaID uuid.UUID) (*model.CuentaPorCobrar, error)
	// Bloquear reads the account with SELECT ... FOR UPDATE.
	Bloquear(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.CuentaPorCobrar, error)
	// DescontarSaldo subtracts monto if the balance covers it, flipping the
	// account to "pagada" when it lands on exactly zero. Returns false when
	// the guard rejected the update.
	DescontarSaldo(ctx context.Context, tx *gorm.DB, id uuid.UUID, monto decimal.Decimal, ahora time.Time) (bool, error)
	// RestaurarSaldo adds monto back (never above MontoOriginal) and reopens
	// the account as "abierta" or "vencida" depending on its due date.
	RestaurarSaldo(ctx context.Context, tx *gorm.DB, id uuid.UUID, monto decimal.Decimal, ahora time.Time) (bool, error)
	CreatePago(ctx context.Context, tx *gorm.DB, p *model.PagoCuenta) error
	FindPagoByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.PagoCuenta, error)
	// AnularPago flips a payment from "registrado" to "anulado". Returns false
	// when the payment was already voided.
	AnularPago(ctx context.Context, tx *gorm.DB, id uuid.UUID, motivo string, ahora time.Time) (bool, error)
	SumSaldoPorCliente(ctx context.Context, clienteID uuid.UUID) (decimal.Decimal, error)
	MarcarVencidas(ctx context.Context, ahora time.Time) (int64, error)
	DB() *gorm.DB
}

type cuentaRepo struct{ db *gorm.DB }

func NewCuentaRepository(db *gorm.DB) CuentaRepository { return &cuentaRepo{db: db} }

func (r *cuentaRepo) DB() *gorm.DB { return r.db }

func (r *cuentaRepo) Create(ctx context.Context, tx *gorm.DB, c *model.CuentaPorCobrar) error {
	return conn(ctx, r.db, tx).Create(c).Error
}

func (r *cuentaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CuentaPorCobrar, error) {
	var c model.CuentaPorCobrar
	err := r.db.WithContext(ctx).
		Preload("Pagos", func(db *gorm.DB) *gorm.DB { return db.Order("pagado_en ASC") }).
		Where("id = ?", id).Take(&c).Error
	return opcional(&c, err)
}

func (r *cuentaRepo) FindByVentaID(ctx context.Context, tx *gorm.DB, ventaID uuid.UUID) (*model.CuentaPorCobrar, error) {
	var c model.CuentaPorCobrar
	err := conn(ctx, r.db, tx).Where("venta_id = ?", ventaID).Take(&c).Error
	return opcional(&c, err)
}

func (r *cuentaRepo) Bloquear(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.CuentaPorCobrar, error) {
	var c model.CuentaPorCobrar
	err := conn(ctx, r.db, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).Take(&c).Error
	return opcional(&c, err)
}

func (r *cuentaRepo) DescontarSaldo(ctx context.Context, tx *gorm.DB, id uuid.UUID, monto decimal.Decimal, ahora time.Time) (bool, error) {
	res := conn(ctx, r.db, tx).
		Model(&model.CuentaPorCobrar{}).
		Where("id = ? AND saldo_pendiente >= ?", id, monto).
		Updates(map[string]interface{}{
			"saldo_pendiente": gorm.Expr("saldo_pendiente - ?", monto),
			"estado":          gorm.Expr("CASE WHEN saldo_pendiente - ? = 0 THEN ? ELSE estado END", monto, model.CuentaPagada),
			"updated_at":      ahora,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *cuentaRepo) RestaurarSaldo(ctx context.Context, tx *gorm.DB, id uuid.UUID, monto decimal.Decimal, ahora time.Time) (bool, error) {
	res := conn(ctx, r.db, tx).
		Model(&model.CuentaPorCobrar{}).
		Where("id = ? AND saldo_pendiente + ? <= monto_original", id, monto).
		Updates(map[string]interface{}{
			"saldo_pendiente": gorm.Expr("saldo_pendiente + ?", monto),
			"estado":          gorm.Expr("CASE WHEN fecha_vencimiento < ? THEN ? ELSE ? END", ahora, model.CuentaVencida, model.CuentaAbierta),
			"updated_at":      ahora,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *cuentaRepo) CreatePago(ctx context.Context, tx *gorm.DB, p *model.PagoCuenta) error {
	return conn(ctx, r.db, tx).Create(p).Error
}

func (r *cuentaRepo) FindPagoByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.PagoCuenta, error) {
	var p model.PagoCuenta
	err := conn(ctx, r.db, tx).Where("id = ?", id).Take(&p).Error
	return opcional(&p, err)
}

func (r *cuentaRepo) AnularPago(ctx context.Context, tx *gorm.DB, id uuid.UUID, motivo string, ahora time.Time) (bool, error) {
	res := conn(ctx, r.db, tx).
		Model(&model.PagoCuenta{}).
		Where("id = ? AND estado = ?", id, model.PagoRegistrado).
		Updates(map[string]interface{}{
			"estado":           model.PagoAnulado,
			"motivo_anulacion": motivo,
			"anulado_en":       ahora,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *cuentaRepo) SumSaldoPorCliente(ctx context.Context, clienteID uuid.UUID) (decimal.Decimal, error) {
	var row struct{ Total decimal.Decimal }
	err := r.db.WithContext(ctx).
		Model(&model.CuentaPorCobrar{}).
		Select("COALESCE(SUM(saldo_pendiente), 0) AS total").
		Where("cliente_id = ? AND estado IN ?", clienteID, []string{model.CuentaAbierta, model.CuentaVencida}).
		Scan(&row).Error
	return row.Total, err
}

func (r *cuentaRepo) MarcarVencidas(ctx context.Context, ahora time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.CuentaPorCobrar{}).
		Where("estado = ? AND fecha_vencimiento < ? AND saldo_pendiente > 0", model.CuentaAbierta, ahora).
		Updates(map[string]interface{}{"estado": model.CuentaVencida, "updated_at": ahora})
	return res.RowsAffected, res.Error
}
