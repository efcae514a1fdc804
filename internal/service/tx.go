package service

import (
	"context"

	"gorm.io/gorm"
)

// runTx executes fn inside a DB transaction. When db is nil (unit tests with
// in-memory repositories) fn is called directly with a nil tx.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}
