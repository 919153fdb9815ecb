package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/mariahavens/pos/internal/inventory/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		log:   p.Log.Named("inventory.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// Deduct reduces tracked stock for a menu item inside the caller's
// transaction. Items without a stock row are untracked and pass through.
func (s *Service) Deduct(ctx context.Context, tx *gorm.DB, menuItemID snowflake.ID, quantity decimal.Decimal, reason string, actor snowflake.ID) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInsufficientStock
	}

	level, err := s.repo.LockLevel(ctx, tx, menuItemID)
	if err != nil {
		return err
	}
	if level == nil {
		return nil
	}

	remaining := level.CurrentStock.Sub(quantity)
	if remaining.IsNegative() {
		s.log.Warn("stock deduction rejected",
			zap.String("menu_item_id", menuItemID.String()),
			zap.String("requested", quantity.String()),
			zap.String("available", level.CurrentStock.String()),
		)
		return domain.ErrInsufficientStock
	}

	if err := s.repo.UpdateStock(ctx, tx, menuItemID, remaining); err != nil {
		return err
	}

	var actorRef *snowflake.ID
	if actor != 0 {
		actorRef = &actor
	}
	return s.repo.InsertMovement(ctx, tx, &domain.StockMovement{
		ID:         s.genID.Generate(),
		MenuItemID: menuItemID,
		Quantity:   quantity.Neg(),
		Reason:     reason,
		ActorID:    actorRef,
		CreatedAt:  time.Now().UTC(),
	})
}
