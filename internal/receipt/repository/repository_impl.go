package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/mariahavens/pos/internal/receipt/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, receipt *domain.Receipt) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO receipts (
			id, receipt_number, order_id, payment_id, type, status,
			customer_name, customer_email, customer_phone, customer_room,
			business_name, business_address, business_phone, business_email, tax_id,
			subtotal, tax_amount, service_charge, discount_amount, total_amount,
			amount_paid, change_amount, payment_method, payment_ref,
			generated_by, data, is_printed, print_count, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		receipt.ID,
		receipt.ReceiptNumber,
		receipt.OrderID,
		receipt.PaymentID,
		receipt.Type,
		receipt.Status,
		receipt.CustomerName,
		receipt.CustomerEmail,
		receipt.CustomerPhone,
		receipt.CustomerRoom,
		receipt.BusinessName,
		receipt.BusinessAddress,
		receipt.BusinessPhone,
		receipt.BusinessEmail,
		receipt.TaxID,
		receipt.Subtotal,
		receipt.TaxAmount,
		receipt.ServiceCharge,
		receipt.DiscountAmount,
		receipt.TotalAmount,
		receipt.AmountPaid,
		receipt.ChangeAmount,
		receipt.PaymentMethod,
		receipt.PaymentRef,
		receipt.GeneratedBy,
		receipt.Data,
		receipt.IsPrinted,
		receipt.PrintCount,
		receipt.CreatedAt,
		receipt.UpdatedAt,
	).Error
}

func (r *repo) InsertLineItem(ctx context.Context, db *gorm.DB, item *domain.ReceiptLineItem) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO receipt_line_items (id, receipt_id, name, quantity, unit_price, line_total, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.ReceiptID,
		item.Name,
		item.Quantity,
		item.UnitPrice,
		item.LineTotal,
		item.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Receipt, error) {
	var receipt domain.Receipt
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&receipt).Error
	if err != nil {
		return nil, err
	}
	if receipt.ID == 0 {
		return nil, nil
	}
	return &receipt, nil
}

func (r *repo) LockByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Receipt, error) {
	var receipt domain.Receipt
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&receipt).Error
	if err != nil {
		return nil, err
	}
	if receipt.ID == 0 {
		return nil, nil
	}
	return &receipt, nil
}

func (r *repo) ListByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]*domain.Receipt, error) {
	var receipts []*domain.Receipt
	err := db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at asc, id asc").
		Find(&receipts).Error
	if err != nil {
		return nil, err
	}
	return receipts, nil
}

func (r *repo) ListLineItems(ctx context.Context, db *gorm.DB, receiptID snowflake.ID) ([]domain.ReceiptLineItem, error) {
	var items []domain.ReceiptLineItem
	err := db.WithContext(ctx).
		Where("receipt_id = ?", receiptID).
		Order("created_at asc, id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, receipt *domain.Receipt) error {
	return db.WithContext(ctx).Exec(
		`UPDATE receipts SET status = ?, is_printed = ?, print_count = ?,
			void_reason = ?, voided_by = ?, voided_at = ?, updated_at = ?
		 WHERE id = ?`,
		receipt.Status,
		receipt.IsPrinted,
		receipt.PrintCount,
		receipt.VoidReason,
		receipt.VoidedBy,
		receipt.VoidedAt,
		receipt.UpdatedAt,
		receipt.ID,
	).Error
}
