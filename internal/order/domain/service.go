package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/mariahavens/pos/pkg/db/pagination"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("order_not_found")
	ErrInvalidCustomer   = errors.New("invalid_customer")
	ErrInvalidType       = errors.New("invalid_fulfillment_type")
	ErrMissingTable      = errors.New("table_number_required")
	ErrMissingRoom       = errors.New("room_number_required")
	ErrNoItems           = errors.New("order_requires_items")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrInvalidDiscount   = errors.New("invalid_discount")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidTransition = errors.New("invalid_status_transition")
	ErrOrderSettled      = errors.New("order_already_settled")
)

type CreateOrderModifier struct {
	Name            string          `json:"name"`
	Type            string          `json:"type"`
	PriceAdjustment decimal.Decimal `json:"price_adjustment"`
	Quantity        int             `json:"quantity"`
}

type CreateOrderItem struct {
	MenuItemID          snowflake.ID          `json:"menu_item_id"`
	Quantity            int                   `json:"quantity"`
	SpecialInstructions string                `json:"special_instructions"`
	Modifiers           []CreateOrderModifier `json:"modifiers"`
}

type CreateOrderRequest struct {
	CustomerID           snowflake.ID
	WaiterID             *snowflake.ID
	ActorID              snowflake.ID
	Type                 FulfillmentType
	TableNumber          string
	RoomNumber           string
	Items                []CreateOrderItem
	SpecialInstructions  string
	KitchenNotes         string
	Priority             OrderPriority
	EstimatedPrepMinutes int
	DiscountAmount       decimal.Decimal
}

type TransitionRequest struct {
	OrderID snowflake.ID
	Status  OrderStatus
	ActorID snowflake.ID
	Note    string
}

type CancelRequest struct {
	OrderID snowflake.ID
	ActorID snowflake.ID
	Reason  string
}

type ListOrdersRequest struct {
	Statuses   []OrderStatus
	Type       FulfillmentType
	CustomerID snowflake.ID
	Page       pagination.Pagination
}

type ListOrdersResponse struct {
	Orders   []*Order             `json:"orders"`
	PageInfo *pagination.PageInfo `json:"page_info"`
}

type Service interface {
	Create(ctx context.Context, req CreateOrderRequest) (*Order, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Order, error)
	List(ctx context.Context, req ListOrdersRequest) (*ListOrdersResponse, error)
	Transition(ctx context.Context, req TransitionRequest) (*Order, error)
	Cancel(ctx context.Context, req CancelRequest) (*Order, error)
}
