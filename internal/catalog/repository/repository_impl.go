package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/mariahavens/pos/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.MenuItem, error) {
	var item domain.MenuItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, description, category, price, is_available, created_at, updated_at
		 FROM menu_items WHERE id = ?`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}
