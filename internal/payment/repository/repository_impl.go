package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/mariahavens/pos/internal/payment/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, payment_number, order_id, customer_id,
			amount, tendered_amount, method, status,
			transaction_ref, gateway_ref, authorization_code, gateway_fee, processing_fee,
			metadata, refunded_amount, refund_reason,
			processed_by, notes, completed_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.PaymentNumber,
		payment.OrderID,
		payment.CustomerID,
		payment.Amount,
		payment.TenderedAmount,
		payment.Method,
		payment.Status,
		payment.TransactionRef,
		payment.GatewayRef,
		payment.AuthorizationCode,
		payment.GatewayFee,
		payment.ProcessingFee,
		payment.Metadata,
		payment.RefundedAmount,
		payment.RefundReason,
		payment.ProcessedBy,
		payment.Notes,
		payment.CompletedAt,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payments SET status = ?, transaction_ref = ?, gateway_ref = ?,
			authorization_code = ?, gateway_fee = ?, processing_fee = ?, refunded_amount = ?,
			refund_reason = ?, processed_by = ?, notes = ?, completed_at = ?, updated_at = ?
		 WHERE id = ?`,
		payment.Status,
		payment.TransactionRef,
		payment.GatewayRef,
		payment.AuthorizationCode,
		payment.GatewayFee,
		payment.ProcessingFee,
		payment.RefundedAmount,
		payment.RefundReason,
		payment.ProcessedBy,
		payment.Notes,
		payment.CompletedAt,
		payment.UpdatedAt,
		payment.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}

func (r *repo) LockByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}

func (r *repo) ListByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	err := db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at asc, id asc").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) LockOrderBalance(ctx context.Context, db *gorm.DB, orderID snowflake.ID) (*domain.OrderBalance, error) {
	var balance domain.OrderBalance
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Table("orders").
		Select("id, order_number, customer_id, status, total_amount").
		Where("id = ?", orderID).
		Limit(1).
		Find(&balance).Error
	if err != nil {
		return nil, err
	}
	if balance.ID == 0 {
		return nil, nil
	}
	return &balance, nil
}

func (r *repo) SumCompleted(ctx context.Context, db *gorm.DB, orderID snowflake.ID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := db.WithContext(ctx).Raw(
		`SELECT SUM(amount) FROM payments
		 WHERE order_id = ? AND status IN ('completed', 'refunded', 'partial_refund')`,
		orderID,
	).Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (r *repo) InsertRefund(ctx context.Context, db *gorm.DB, refund *domain.PaymentRefund) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payment_refunds (id, refund_number, payment_id, amount, reason, processed_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		refund.ID,
		refund.RefundNumber,
		refund.PaymentID,
		refund.Amount,
		refund.Reason,
		refund.ProcessedBy,
		refund.CreatedAt,
	).Error
}

func (r *repo) ListRefunds(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) ([]domain.PaymentRefund, error) {
	var refunds []domain.PaymentRefund
	err := db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at asc, id asc").
		Find(&refunds).Error
	if err != nil {
		return nil, err
	}
	return refunds, nil
}

func (r *repo) InsertSplit(ctx context.Context, db *gorm.DB, split *domain.PaymentSplit) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payment_splits (
			id, payment_id, recipient_name, recipient_account,
			amount, percentage, is_processed, processed_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		split.ID,
		split.PaymentID,
		split.RecipientName,
		split.RecipientAccount,
		split.Amount,
		split.Percentage,
		split.IsProcessed,
		split.ProcessedAt,
		split.CreatedAt,
	).Error
}

func (r *repo) ListSplits(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) ([]domain.PaymentSplit, error) {
	var splits []domain.PaymentSplit
	err := db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at asc, id asc").
		Find(&splits).Error
	if err != nil {
		return nil, err
	}
	return splits, nil
}

func (r *repo) MarkSplitsProcessed(ctx context.Context, db *gorm.DB, paymentID snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_splits SET is_processed = TRUE, processed_at = ?
		 WHERE payment_id = ? AND is_processed = FALSE`,
		at,
		paymentID,
	).Error
}

func (r *repo) SumSplits(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := db.WithContext(ctx).Raw(
		`SELECT SUM(amount) FROM payment_splits WHERE payment_id = ?`,
		paymentID,
	).Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}
