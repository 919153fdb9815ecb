// Package domain contains the payment ledger: payments against orders,
// refund records, and split allocations.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PaymentMethod string

const (
	MethodCash          PaymentMethod = "cash"
	MethodCard          PaymentMethod = "card"
	MethodMobileMoney   PaymentMethod = "mobile_money"
	MethodBankTransfer  PaymentMethod = "bank_transfer"
	MethodDigitalWallet PaymentMethod = "digital_wallet"
	MethodVoucher       PaymentMethod = "voucher"
	MethodRoomCharge    PaymentMethod = "room_charge"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodMobileMoney, MethodBankTransfer,
		MethodDigitalWallet, MethodVoucher, MethodRoomCharge:
		return true
	default:
		return false
	}
}

type PaymentStatus string

const (
	StatusPending       PaymentStatus = "pending"
	StatusProcessing    PaymentStatus = "processing"
	StatusCompleted     PaymentStatus = "completed"
	StatusFailed        PaymentStatus = "failed"
	StatusCancelled     PaymentStatus = "cancelled"
	StatusRefunded      PaymentStatus = "refunded"
	StatusPartialRefund PaymentStatus = "partial_refund"
)

// Payment is one settlement attempt against an order. Amount is the portion
// of the order balance this payment settles; for cash, TenderedAmount may
// exceed it and the difference is returned as change on the receipt.
type Payment struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	PaymentNumber string       `gorm:"type:text;not null;uniqueIndex" json:"payment_number"`
	OrderID       snowflake.ID `gorm:"not null;index" json:"order_id"`
	CustomerID    snowflake.ID `gorm:"not null;index" json:"customer_id"`

	Amount         decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"amount"`
	TenderedAmount *decimal.Decimal `gorm:"type:decimal(10,2)" json:"tendered_amount,omitempty"`
	Method         PaymentMethod    `gorm:"type:text;not null" json:"method"`
	Status         PaymentStatus    `gorm:"type:text;not null;default:'pending';index" json:"status"`

	TransactionRef    string            `gorm:"type:text" json:"transaction_reference,omitempty"`
	GatewayRef        string            `gorm:"type:text" json:"gateway_reference,omitempty"`
	AuthorizationCode string            `gorm:"type:text" json:"authorization_code,omitempty"`
	GatewayFee        decimal.Decimal   `gorm:"type:decimal(8,2);not null;default:0" json:"gateway_fee"`
	ProcessingFee     decimal.Decimal   `gorm:"type:decimal(8,2);not null;default:0" json:"processing_fee"`
	Metadata          datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`

	RefundedAmount decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"refunded_amount"`
	RefundReason   string          `gorm:"type:text" json:"refund_reason,omitempty"`

	ProcessedBy *snowflake.ID `gorm:"index" json:"processed_by,omitempty"`
	Notes       string        `gorm:"type:text" json:"notes,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Refunds []PaymentRefund `gorm:"-" json:"refunds,omitempty"`
	Splits  []PaymentSplit  `gorm:"-" json:"splits,omitempty"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// Settled reports whether the payment's money was captured at some point,
// regardless of later refunds.
func (p *Payment) Settled() bool {
	switch p.Status {
	case StatusCompleted, StatusRefunded, StatusPartialRefund:
		return true
	default:
		return false
	}
}

// CanBeRefunded reports whether any refundable amount remains. Only settled
// money can be returned, so pending, failed and cancelled payments are out.
func (p *Payment) CanBeRefunded() bool {
	settled := p.Status == StatusCompleted || p.Status == StatusPartialRefund
	return settled && p.RefundedAmount.LessThan(p.Amount)
}

// RemainingRefundable returns the amount that can still be refunded.
func (p *Payment) RemainingRefundable() decimal.Decimal {
	return p.Amount.Sub(p.RefundedAmount)
}

// NetAmount is what the venue keeps after gateway and processing fees.
func (p *Payment) NetAmount() decimal.Decimal {
	return p.Amount.Sub(p.GatewayFee).Sub(p.ProcessingFee)
}

// PaymentRefund is an append-only record of money returned against a payment.
type PaymentRefund struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	RefundNumber string       `gorm:"type:text;not null;uniqueIndex" json:"refund_number"`
	PaymentID    snowflake.ID `gorm:"not null;index" json:"payment_id"`

	Amount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Reason string          `gorm:"type:text" json:"reason"`

	ProcessedBy *snowflake.ID `gorm:"index" json:"processed_by,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (PaymentRefund) TableName() string { return "payment_refunds" }

// PaymentSplit allocates a share of a payment to a named recipient.
type PaymentSplit struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	PaymentID snowflake.ID `gorm:"not null;index" json:"payment_id"`

	RecipientName    string          `gorm:"type:text;not null" json:"recipient_name"`
	RecipientAccount string          `gorm:"type:text" json:"recipient_account,omitempty"`
	Amount           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Percentage       decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"percentage"`

	IsProcessed bool       `gorm:"not null;default:false" json:"is_processed"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (PaymentSplit) TableName() string { return "payment_splits" }
