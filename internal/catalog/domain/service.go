package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("menu_item_not_found")
	ErrItemUnavailable = errors.New("menu_item_unavailable")
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*MenuItem, error)
}

// Service is the catalog lookup contract consumed by the order aggregate.
type Service interface {
	// GetItem returns the current name/price/availability snapshot for id.
	GetItem(ctx context.Context, id snowflake.ID) (Item, error)
}
