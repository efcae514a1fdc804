package repository

import (
	"context"
	"time"

	"distribuidora/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditoriaFiltro is the parsed form of the audit list query.
type AuditoriaFiltro struct {
	UsuarioID    *uuid.UUID
	SesionCajaID *uuid.UUID
	Accion       string
	Exitoso      *bool
	Desde        *time.Time
	Hasta        *time.Time // exclusive
	Page         int
	Limit        int
}

// AuditoriaRepository is append-only: there is no update or delete.
type AuditoriaRepository interface {
	Create(ctx context.Context, r *model.RegistroAuditoria) error
	List(ctx context.Context, f AuditoriaFiltro) ([]model.RegistroAuditoria, int64, error)
}

type auditoriaRepo struct{ db *gorm.DB }

func NewAuditoriaRepository(db *gorm.DB) AuditoriaRepository { return &auditoriaRepo{db: db} }

func (r *auditoriaRepo) Create(ctx context.Context, reg *model.RegistroAuditoria) error {
	return r.db.WithContext(ctx).Create(reg).Error
}

func (r *auditoriaRepo) List(ctx context.Context, f AuditoriaFiltro) ([]model.RegistroAuditoria, int64, error) {
	var registros []model.RegistroAuditoria
	var total int64

	q := r.db.WithContext(ctx).Model(&model.RegistroAuditoria{})
	if f.UsuarioID != nil {
		q = q.Where("usuario_id = ?", *f.UsuarioID)
	}
	if f.SesionCajaID != nil {
		q = q.Where("sesion_caja_id = ?", *f.SesionCajaID)
	}
	if f.Accion != "" {
		q = q.Where("accion = ?", f.Accion)
	}
	if f.Exitoso != nil {
		q = q.Where("exitoso = ?", *f.Exitoso)
	}
	if f.Desde != nil {
		q = q.Where("created_at >= ?", *f.Desde)
	}
	if f.Hasta != nil {
		q = q.Where("created_at < ?", *f.Hasta)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (f.Page - 1) * f.Limit
	err := q.Order("created_at DESC").Offset(offset).Limit(f.Limit).Find(&registros).Error
	return registros, total, err
}
