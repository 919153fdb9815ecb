// Package domain contains the order aggregate: the order row, its snapshotted
// line items and modifiers, and the append-only status ledger.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// FulfillmentType determines the required location field and whether the
// dine-in service charge applies.
type FulfillmentType string

const (
	TypeDineIn      FulfillmentType = "dine_in"
	TypeRoomService FulfillmentType = "room_service"
	TypeTakeaway    FulfillmentType = "takeaway"
)

func (t FulfillmentType) Valid() bool {
	switch t {
	case TypeDineIn, TypeRoomService, TypeTakeaway:
		return true
	default:
		return false
	}
}

// OrderStatus is the order lifecycle state. The status column is a cached
// projection of the latest OrderStatusEvent row.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusServed    OrderStatus = "served"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// OrderPriority orders the kitchen queue.
type OrderPriority string

const (
	PriorityLow    OrderPriority = "low"
	PriorityNormal OrderPriority = "normal"
	PriorityHigh   OrderPriority = "high"
	PriorityUrgent OrderPriority = "urgent"
)

func (p OrderPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// LineItemStatus tracks preparation per line.
type LineItemStatus string

const (
	LineItemPending   LineItemStatus = "pending"
	LineItemPreparing LineItemStatus = "preparing"
	LineItemReady     LineItemStatus = "ready"
	LineItemServed    LineItemStatus = "served"
	LineItemCancelled LineItemStatus = "cancelled"
)

// Order identifies one customer transaction. Monetary fields are recomputed
// from the line items, never trusted from caller input. Orders are never
// physically deleted; cancellation is a terminal status.
type Order struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrderNumber string          `gorm:"type:text;not null;uniqueIndex" json:"order_number"`
	CustomerID  snowflake.ID    `gorm:"not null;index" json:"customer_id"`
	WaiterID    *snowflake.ID   `gorm:"index" json:"waiter_id,omitempty"`
	Type        FulfillmentType `gorm:"type:text;not null" json:"type"`
	Status      OrderStatus     `gorm:"type:text;not null;default:'pending';index" json:"status"`

	TableNumber string `gorm:"type:text" json:"table_number,omitempty"`
	RoomNumber  string `gorm:"type:text" json:"room_number,omitempty"`

	Subtotal       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"subtotal"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"tax_amount"`
	ServiceCharge  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"service_charge"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discount_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total_amount"`

	SpecialInstructions string        `gorm:"type:text" json:"special_instructions"`
	KitchenNotes        string        `gorm:"type:text" json:"kitchen_notes"`
	Priority            OrderPriority `gorm:"type:text;not null;default:'normal'" json:"priority"`

	EstimatedPrepMinutes int        `gorm:"not null;default:30" json:"estimated_prep_minutes"`
	PreparedAt           *time.Time `json:"prepared_at,omitempty"`
	ServedAt             *time.Time `json:"served_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Items        []OrderLineItem    `gorm:"-" json:"items,omitempty"`
	StatusEvents []OrderStatusEvent `gorm:"-" json:"status_events,omitempty"`
}

// TableName sets the database table name.
func (Order) TableName() string { return "orders" }

// CanBeCancelled reports whether the customer-facing cancel operation is
// still allowed.
func (o *Order) CanBeCancelled() bool {
	return o.Status == StatusPending || o.Status == StatusConfirmed
}

// OrderLineItem is one ordered quantity of a catalog item. Name and unit
// price are snapshotted at creation time and immune to later catalog edits.
type OrderLineItem struct {
	ID      snowflake.ID `gorm:"primaryKey" json:"id"`
	OrderID snowflake.ID `gorm:"not null;index" json:"order_id"`

	MenuItemID snowflake.ID    `gorm:"not null;index" json:"menu_item_id"`
	Name       string          `gorm:"type:text;not null" json:"name"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	LineTotal  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"line_total"`

	Status              LineItemStatus `gorm:"type:text;not null;default:'pending'" json:"status"`
	SpecialInstructions string         `gorm:"type:text" json:"special_instructions"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Modifiers []LineItemModifier `gorm:"-" json:"modifiers,omitempty"`
}

// TableName sets the database table name.
func (OrderLineItem) TableName() string { return "order_line_items" }

// LineItemModifier is a snapshotted modifier attached to a line item.
type LineItemModifier struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	LineItemID snowflake.ID `gorm:"not null;index" json:"line_item_id"`

	Name            string          `gorm:"type:text;not null" json:"name"`
	Type            string          `gorm:"type:text" json:"type"`
	PriceAdjustment decimal.Decimal `gorm:"type:decimal(8,2);not null;default:0" json:"price_adjustment"`
	Quantity        int             `gorm:"not null;default:1" json:"quantity"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (LineItemModifier) TableName() string { return "order_item_modifiers" }

// OrderStatusEvent is an append-only ledger row, one per transition including
// the initial pending entry. Rows are never updated or deleted.
type OrderStatusEvent struct {
	ID      snowflake.ID `gorm:"primaryKey" json:"id"`
	OrderID snowflake.ID `gorm:"not null;index" json:"order_id"`

	Status  OrderStatus   `gorm:"type:text;not null" json:"status"`
	ActorID *snowflake.ID `gorm:"index" json:"actor_id,omitempty"`
	Note    string        `gorm:"type:text" json:"note"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (OrderStatusEvent) TableName() string { return "order_status_events" }
