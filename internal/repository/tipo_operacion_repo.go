package repository

import (
	"context"

	"distribuidora/internal/model"

	"gorm.io/gorm"
)

type TipoOperacionRepository interface {
	List(ctx context.Context) ([]model.TipoOperacion, error)
}

type tipoOperacionRepo struct{ db *gorm.DB }

func NewTipoOperacionRepository(db *gorm.DB) TipoOperacionRepository {
	return &tipoOperacionRepo{db: db}
}

func (r *tipoOperacionRepo) List(ctx context.Context) ([]model.TipoOperacion, error) {
	var tipos []model.TipoOperacion
	err := r.db.WithContext(ctx).Order("id ASC").Find(&tipos).Error
	return tipos, err
}
