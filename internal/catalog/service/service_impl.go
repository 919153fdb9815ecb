package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/mariahavens/pos/internal/catalog/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("catalog.service"),
		repo: p.Repo,
	}
}

func (s *Service) GetItem(ctx context.Context, id snowflake.ID) (domain.Item, error) {
	if id == 0 {
		return domain.Item{}, domain.ErrNotFound
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Item{}, err
	}
	if item == nil {
		return domain.Item{}, domain.ErrNotFound
	}

	return domain.Item{
		ID:          item.ID,
		Name:        item.Name,
		Price:       item.Price,
		IsAvailable: item.IsAvailable,
	}, nil
}
