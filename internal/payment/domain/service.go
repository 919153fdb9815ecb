package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound                = errors.New("payment_not_found")
	ErrInvalidAmount           = errors.New("invalid_payment_amount")
	ErrInvalidMethod           = errors.New("invalid_payment_method")
	ErrInvalidTender           = errors.New("invalid_tendered_amount")
	ErrInvalidPaymentState     = errors.New("invalid_payment_state")
	ErrOrderNotPayable         = errors.New("order_not_payable")
	ErrPaymentExceedsBalance   = errors.New("payment_exceeds_balance")
	ErrPaymentNotRefundable    = errors.New("payment_not_refundable")
	ErrRefundExceedsRefundable = errors.New("refund_exceeds_refundable")
	ErrSplitExceedsAmount      = errors.New("split_exceeds_payment_amount")
)

type RecordPaymentRequest struct {
	OrderID        snowflake.ID
	Amount         decimal.Decimal
	Method         PaymentMethod
	TenderedAmount *decimal.Decimal
	TransactionRef string
	Metadata       map[string]any
	Notes          string
	ActorID        snowflake.ID
}

type ProcessPaymentRequest struct {
	PaymentID         snowflake.ID
	TransactionRef    string
	GatewayRef        string
	AuthorizationCode string
	GatewayFee        decimal.Decimal
	ProcessingFee     decimal.Decimal
	ActorID           snowflake.ID
}

type FailPaymentRequest struct {
	PaymentID snowflake.ID
	Reason    string
	ActorID   snowflake.ID
}

type CancelPaymentRequest struct {
	PaymentID snowflake.ID
	Reason    string
	ActorID   snowflake.ID
}

// RefundRequest returns money against a completed payment. A nil Amount
// refunds everything still refundable.
type RefundRequest struct {
	PaymentID snowflake.ID
	Amount    *decimal.Decimal
	Reason    string
	ActorID   snowflake.ID
}

type SplitInput struct {
	RecipientName    string          `json:"recipient_name"`
	RecipientAccount string          `json:"recipient_account"`
	Amount           decimal.Decimal `json:"amount"`
	Percentage       decimal.Decimal `json:"percentage"`
}

type SplitPaymentRequest struct {
	PaymentID snowflake.ID
	Splits    []SplitInput
	ActorID   snowflake.ID
}

type Service interface {
	// Record creates a payment against an order. Cash payments complete
	// immediately; other methods start pending, or processing when a gateway
	// transaction reference is already attached.
	Record(ctx context.Context, req RecordPaymentRequest) (*Payment, error)
	Process(ctx context.Context, req ProcessPaymentRequest) (*Payment, error)
	Fail(ctx context.Context, req FailPaymentRequest) (*Payment, error)
	Cancel(ctx context.Context, req CancelPaymentRequest) (*Payment, error)
	Refund(ctx context.Context, req RefundRequest) (*Payment, error)
	Split(ctx context.Context, req SplitPaymentRequest) ([]PaymentSplit, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Payment, error)
	ListByOrder(ctx context.Context, orderID snowflake.ID) ([]*Payment, error)
}
