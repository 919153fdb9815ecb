package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, receipt *Receipt) error
	InsertLineItem(ctx context.Context, db *gorm.DB, item *ReceiptLineItem) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Receipt, error)
	// LockByID loads the receipt row under FOR UPDATE so void and print
	// updates on the same receipt serialize.
	LockByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Receipt, error)
	ListByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]*Receipt, error)
	ListLineItems(ctx context.Context, db *gorm.DB, receiptID snowflake.ID) ([]ReceiptLineItem, error)
	// Update persists the mutable fields: status, print tracking and the
	// void audit trail. Snapshot columns are never rewritten.
	Update(ctx context.Context, db *gorm.DB, receipt *Receipt) error
}
