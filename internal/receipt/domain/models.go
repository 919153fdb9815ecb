// Package domain contains receipt snapshots. A receipt copies everything it
// shows from the order, payment and venue policy at generation time; later
// edits to any of those never change an issued receipt.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type ReceiptType string

const (
	TypeSale          ReceiptType = "sale"
	TypeRefund        ReceiptType = "refund"
	TypePartialRefund ReceiptType = "partial_refund"
	TypeCreditNote    ReceiptType = "credit_note"
)

func (t ReceiptType) Valid() bool {
	switch t {
	case TypeSale, TypeRefund, TypePartialRefund, TypeCreditNote:
		return true
	default:
		return false
	}
}

type ReceiptStatus string

const (
	StatusGenerated ReceiptStatus = "generated"
	StatusPrinted   ReceiptStatus = "printed"
	StatusVoided    ReceiptStatus = "voided"
)

// Receipt is an issued document. Monetary and business fields are frozen
// copies; only print tracking and voiding mutate the row.
type Receipt struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	ReceiptNumber string        `gorm:"type:text;not null;uniqueIndex" json:"receipt_number"`
	OrderID       snowflake.ID  `gorm:"not null;index" json:"order_id"`
	PaymentID     *snowflake.ID `gorm:"index" json:"payment_id,omitempty"`

	Type   ReceiptType   `gorm:"type:text;not null;default:'sale'" json:"type"`
	Status ReceiptStatus `gorm:"type:text;not null;default:'generated'" json:"status"`

	CustomerName  string `gorm:"type:text" json:"customer_name"`
	CustomerEmail string `gorm:"type:text" json:"customer_email,omitempty"`
	CustomerPhone string `gorm:"type:text" json:"customer_phone,omitempty"`
	CustomerRoom  string `gorm:"type:text" json:"customer_room,omitempty"`

	BusinessName    string `gorm:"type:text;not null" json:"business_name"`
	BusinessAddress string `gorm:"type:text" json:"business_address"`
	BusinessPhone   string `gorm:"type:text" json:"business_phone"`
	BusinessEmail   string `gorm:"type:text" json:"business_email"`
	TaxID           string `gorm:"type:text" json:"tax_id"`

	Subtotal       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"tax_amount"`
	ServiceCharge  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"service_charge"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discount_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	AmountPaid     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"amount_paid"`
	ChangeAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"change_amount"`

	PaymentMethod string `gorm:"type:text" json:"payment_method,omitempty"`
	PaymentRef    string `gorm:"type:text" json:"payment_reference,omitempty"`

	GeneratedBy *snowflake.ID     `gorm:"index" json:"generated_by,omitempty"`
	Data        datatypes.JSONMap `gorm:"type:json" json:"data,omitempty"`

	IsPrinted  bool `gorm:"not null;default:false" json:"is_printed"`
	PrintCount int  `gorm:"not null;default:0" json:"print_count"`

	VoidReason string        `gorm:"type:text" json:"void_reason,omitempty"`
	VoidedBy   *snowflake.ID `json:"voided_by,omitempty"`
	VoidedAt   *time.Time    `json:"voided_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Items []ReceiptLineItem `gorm:"-" json:"items,omitempty"`
}

// TableName sets the database table name.
func (Receipt) TableName() string { return "receipts" }

// ReceiptLineItem is a frozen copy of one order line at generation time.
type ReceiptLineItem struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	ReceiptID snowflake.ID `gorm:"not null;index" json:"receipt_id"`

	Name      string          `gorm:"type:text;not null" json:"name"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	LineTotal decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"line_total"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ReceiptLineItem) TableName() string { return "receipt_line_items" }
