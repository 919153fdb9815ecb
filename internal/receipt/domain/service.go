package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrNotFound          = errors.New("receipt_not_found")
	ErrInvalidType       = errors.New("invalid_receipt_type")
	ErrPaymentNotSettled = errors.New("payment_not_settled")
	ErrAlreadyVoided     = errors.New("receipt_already_voided")
	ErrVoidWindowExpired = errors.New("void_window_expired")
)

// GenerateRequest issues a receipt for an order, optionally tied to one
// payment. Customer contact details are resolved by the caller; the engine
// stores whatever snapshot it is handed.
type GenerateRequest struct {
	OrderID       snowflake.ID
	PaymentID     *snowflake.ID
	Type          ReceiptType
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	ActorID       snowflake.ID
}

type VoidRequest struct {
	ReceiptID snowflake.ID
	Reason    string
	ActorID   snowflake.ID
}

type Service interface {
	Generate(ctx context.Context, req GenerateRequest) (*Receipt, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Receipt, error)
	ListByOrder(ctx context.Context, orderID snowflake.ID) ([]*Receipt, error)
	// Void marks a receipt invalid. Allowed once, within the venue's void
	// window counted from generation.
	Void(ctx context.Context, req VoidRequest) (*Receipt, error)
	// MarkPrinted records one physical print of the receipt.
	MarkPrinted(ctx context.Context, id snowflake.ID) (*Receipt, error)
}
