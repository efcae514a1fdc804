package repository

import (
	"context"
	"time"

	"distribuidora/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SesionFiltro narrows the open-session search. Zero fields are ignored
// except UsuarioID, which is always applied.
type SesionFiltro struct {
	UsuarioID    uuid.UUID
	PuntoDeVenta *int
	Desde        *time.Time // opened_at >= Desde
}

type CajaRepository interface {
	// BuscarSesionAbierta returns the most recently opened session matching
	// the filter, or nil when there is none.
	BuscarSesionAbierta(ctx context.Context, f SesionFiltro) (*model.SesionCaja, error)
	FindSesionByID(ctx context.Context, id uuid.UUID) (*model.SesionCaja, error)
	CreateMovimiento(ctx context.Context, tx *gorm.DB, m *model.MovimientoCaja) error
	// FindMovimientoPorReferencia finds the original (non-compensating) movement
	// of the given type written for a sale or payment.
	FindMovimientoPorReferencia(ctx context.Context, tx *gorm.DB, referenciaID uuid.UUID, tipo string) (*model.MovimientoCaja, error)
	FindCompensacion(ctx context.Context, tx *gorm.DB, origenID uuid.UUID) (*model.MovimientoCaja, error)
	ListMovimientos(ctx context.Context, sesionCajaID uuid.UUID) ([]model.MovimientoCaja, error)
	// SumMovimientosByTipo totals a session per operation type in one statement,
	// so the figures come from a single snapshot.
	SumMovimientosByTipo(ctx context.Context, sesionCajaID uuid.UUID) (map[string]decimal.Decimal, error)
	DB() *gorm.DB
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) DB() *gorm.DB { return r.db }

func (r *cajaRepo) BuscarSesionAbierta(ctx context.Context, f SesionFiltro) (*model.SesionCaja, error) {
	q := r.db.WithContext(ctx).
		Where("usuario_id = ? AND estado = ?", f.UsuarioID, model.SesionAbierta)
	if f.PuntoDeVenta != nil {
		q = q.Where("punto_de_venta = ?", *f.PuntoDeVenta)
	}
	if f.Desde != nil {
		q = q.Where("opened_at >= ?", *f.Desde)
	}
	var s model.SesionCaja
	err := q.Order("opened_at DESC").Take(&s).Error
	return opcional(&s, err)
}

func (r *cajaRepo) FindSesionByID(ctx context.Context, id uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&s).Error
	return opcional(&s, err)
}

func (r *cajaRepo) CreateMovimiento(ctx context.Context, tx *gorm.DB, m *model.MovimientoCaja) error {
	return conn(ctx, r.db, tx).Create(m).Error
}

func (r *cajaRepo) FindMovimientoPorReferencia(ctx context.Context, tx *gorm.DB, referenciaID uuid.UUID, tipo string) (*model.MovimientoCaja, error) {
	var m model.MovimientoCaja
	err := conn(ctx, r.db, tx).
		Where("referencia_id = ? AND tipo_operacion = ? AND movimiento_origen_id IS NULL", referenciaID, tipo).
		Take(&m).Error
	return opcional(&m, err)
}

func (r *cajaRepo) FindCompensacion(ctx context.Context, tx *gorm.DB, origenID uuid.UUID) (*model.MovimientoCaja, error) {
	var m model.MovimientoCaja
	err := conn(ctx, r.db, tx).Where("movimiento_origen_id = ?", origenID).Take(&m).Error
	return opcional(&m, err)
}

func (r *cajaRepo) ListMovimientos(ctx context.Context, sesionCajaID uuid.UUID) ([]model.MovimientoCaja, error) {
	var movs []model.MovimientoCaja
	err := r.db.WithContext(ctx).Where("sesion_caja_id = ?", sesionCajaID).Order("created_at ASC").Find(&movs).Error
	return movs, err
}

func (r *cajaRepo) SumMovimientosByTipo(ctx context.Context, sesionCajaID uuid.UUID) (map[string]decimal.Decimal, error) {
	var rows []struct {
		TipoOperacion string
		Total         decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&model.MovimientoCaja{}).
		Select("tipo_operacion, COALESCE(SUM(monto), 0) AS total").
		Where("sesion_caja_id = ?", sesionCajaID).
		Group("tipo_operacion").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	sums := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[row.TipoOperacion] = row.Total
	}
	return sums, nil
}
