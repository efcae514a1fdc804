// Package repository holds the GORM-backed persistence layer.
// Lookups return (nil, nil) when the row does not exist; callers decide
// whether absence is an error.
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// conn picks the transaction when one is in flight, else the pool.
func conn(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

func opcional[T any](v *T, err error) (*T, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}
