package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrInsufficientStock = errors.New("insufficient_stock")

type Repository interface {
	LockLevel(ctx context.Context, db *gorm.DB, menuItemID snowflake.ID) (*StockLevel, error)
	UpdateStock(ctx context.Context, db *gorm.DB, menuItemID snowflake.ID, newStock decimal.Decimal) error
	InsertMovement(ctx context.Context, db *gorm.DB, movement *StockMovement) error
}

// Service is the stock-deduction contract. Deduct runs inside the caller's
// transaction: a failed deduction aborts order creation as a whole.
type Service interface {
	Deduct(ctx context.Context, tx *gorm.DB, menuItemID snowflake.ID, quantity decimal.Decimal, reason string, actor snowflake.ID) error
}
