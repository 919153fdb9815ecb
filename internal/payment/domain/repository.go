package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderBalance is the slice of the order row the ledger needs to admit or
// refuse a settlement.
type OrderBalance struct {
	ID          snowflake.ID
	OrderNumber string
	CustomerID  snowflake.ID
	Status      string
	TotalAmount decimal.Decimal
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	Update(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	// LockByID loads the payment row under FOR UPDATE.
	LockByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	ListByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]*Payment, error)

	// LockOrderBalance locks the order row so the balance check and the
	// payment insert are atomic with respect to concurrent settlements.
	LockOrderBalance(ctx context.Context, db *gorm.DB, orderID snowflake.ID) (*OrderBalance, error)
	// SumCompleted returns the settled amount for an order, counting only
	// completed, refunded and partially refunded payments.
	SumCompleted(ctx context.Context, db *gorm.DB, orderID snowflake.ID) (decimal.Decimal, error)

	InsertRefund(ctx context.Context, db *gorm.DB, refund *PaymentRefund) error
	ListRefunds(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) ([]PaymentRefund, error)

	InsertSplit(ctx context.Context, db *gorm.DB, split *PaymentSplit) error
	ListSplits(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) ([]PaymentSplit, error)
	SumSplits(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) (decimal.Decimal, error)
	// MarkSplitsProcessed stamps every unprocessed split of the payment as
	// disbursed at the given time.
	MarkSplitsProcessed(ctx context.Context, db *gorm.DB, paymentID snowflake.ID, at time.Time) error
}
