// Package domain contains stock levels and the movement ledger behind the
// deduction contract used by order creation.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// StockLevel tracks remaining stock for a menu item. Items without a row are
// untracked and never block an order.
type StockLevel struct {
	ID           snowflake.ID    `gorm:"primaryKey" json:"id"`
	MenuItemID   snowflake.ID    `gorm:"not null;uniqueIndex" json:"menu_item_id"`
	CurrentStock decimal.Decimal `gorm:"type:decimal(10,3);not null;default:0" json:"current_stock"`
	ReorderLevel decimal.Decimal `gorm:"type:decimal(10,3);not null;default:0" json:"reorder_level"`
	Unit         string          `gorm:"type:text;not null;default:'unit'" json:"unit"`
	CreatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (StockLevel) TableName() string { return "stock_levels" }

// StockMovement is an append-only audit row for every stock change.
type StockMovement struct {
	ID         snowflake.ID    `gorm:"primaryKey" json:"id"`
	MenuItemID snowflake.ID    `gorm:"not null;index" json:"menu_item_id"`
	Quantity   decimal.Decimal `gorm:"type:decimal(10,3);not null" json:"quantity"`
	Reason     string          `gorm:"type:text;not null" json:"reason"`
	ActorID    *snowflake.ID   `gorm:"index" json:"actor_id,omitempty"`
	CreatedAt  time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (StockMovement) TableName() string { return "stock_movements" }
