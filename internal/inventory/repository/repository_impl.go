package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/mariahavens/pos/internal/inventory/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) LockLevel(ctx context.Context, db *gorm.DB, menuItemID snowflake.ID) (*domain.StockLevel, error) {
	var level domain.StockLevel
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("menu_item_id = ?", menuItemID).
		Limit(1).
		Find(&level).Error
	if err != nil {
		return nil, err
	}
	if level.ID == 0 {
		return nil, nil
	}
	return &level, nil
}

func (r *repo) UpdateStock(ctx context.Context, db *gorm.DB, menuItemID snowflake.ID, newStock decimal.Decimal) error {
	return db.WithContext(ctx).Exec(
		`UPDATE stock_levels SET current_stock = ?, updated_at = CURRENT_TIMESTAMP WHERE menu_item_id = ?`,
		newStock,
		menuItemID,
	).Error
}

func (r *repo) InsertMovement(ctx context.Context, db *gorm.DB, movement *domain.StockMovement) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO stock_movements (id, menu_item_id, quantity, reason, actor_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		movement.ID,
		movement.MenuItemID,
		movement.Quantity,
		movement.Reason,
		movement.ActorID,
		movement.CreatedAt,
	).Error
}
