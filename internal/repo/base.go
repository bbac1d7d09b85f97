package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base carries the gorm handle shared by the domain repositories. WithTx
// implementations rebind it to a transaction so every statement inside the
// block runs on the same connection.
type Base struct {
	db *gorm.DB
}

// NewBase wraps a gorm handle, which may be a root connection or an open
// transaction.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the handle bound to the supplied context.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}
