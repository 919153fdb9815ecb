package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/mariahavens/pos/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	InsertLineItem(ctx context.Context, db *gorm.DB, item *OrderLineItem) error
	InsertModifier(ctx context.Context, db *gorm.DB, modifier *LineItemModifier) error
	InsertStatusEvent(ctx context.Context, db *gorm.DB, event *OrderStatusEvent) error

	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	// LockByID loads the order row under FOR UPDATE so concurrent status
	// transitions and balance checks on the same order serialize.
	LockByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	ListLineItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]OrderLineItem, error)
	ListModifiers(ctx context.Context, db *gorm.DB, lineItemIDs []snowflake.ID) ([]LineItemModifier, error)
	ListStatusEvents(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]OrderStatusEvent, error)
	List(ctx context.Context, db *gorm.DB, filter ListOrdersRequest, page pagination.Pagination) ([]*Order, error)

	UpdateStatus(ctx context.Context, db *gorm.DB, order *Order) error
	UpdateTotals(ctx context.Context, db *gorm.DB, order *Order) error
	// HasCompletedPayment reports whether any completed payment exists for the
	// order. Once true, line items and totals are frozen.
	HasCompletedPayment(ctx context.Context, db *gorm.DB, orderID snowflake.ID) (bool, error)
}
