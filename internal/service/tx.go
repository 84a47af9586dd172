package service

import (
	"context"

	"gorm.io/gorm"
)

// runTx executes fn inside a GORM transaction.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

// joinTx runs fn in the caller's transaction when tx is set and opens a new
// one otherwise.
func joinTx(ctx context.Context, db, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx != nil {
		return fn(tx)
	}
	return runTx(ctx, db, fn)
}
