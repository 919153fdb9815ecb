package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/mariahavens/pos/internal/order/domain"
	"github.com/mariahavens/pos/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO orders (
			id, order_number, customer_id, waiter_id, type, status,
			table_number, room_number,
			subtotal, tax_amount, service_charge, discount_amount, total_amount,
			special_instructions, kitchen_notes, priority,
			estimated_prep_minutes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.OrderNumber,
		order.CustomerID,
		order.WaiterID,
		order.Type,
		order.Status,
		order.TableNumber,
		order.RoomNumber,
		order.Subtotal,
		order.TaxAmount,
		order.ServiceCharge,
		order.DiscountAmount,
		order.TotalAmount,
		order.SpecialInstructions,
		order.KitchenNotes,
		order.Priority,
		order.EstimatedPrepMinutes,
		order.CreatedAt,
		order.UpdatedAt,
	).Error
}

func (r *repo) InsertLineItem(ctx context.Context, db *gorm.DB, item *domain.OrderLineItem) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO order_line_items (
			id, order_id, menu_item_id, name, unit_price, quantity, line_total,
			status, special_instructions, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.OrderID,
		item.MenuItemID,
		item.Name,
		item.UnitPrice,
		item.Quantity,
		item.LineTotal,
		item.Status,
		item.SpecialInstructions,
		item.CreatedAt,
		item.UpdatedAt,
	).Error
}

func (r *repo) InsertModifier(ctx context.Context, db *gorm.DB, modifier *domain.LineItemModifier) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO order_item_modifiers (
			id, line_item_id, name, type, price_adjustment, quantity, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		modifier.ID,
		modifier.LineItemID,
		modifier.Name,
		modifier.Type,
		modifier.PriceAdjustment,
		modifier.Quantity,
		modifier.CreatedAt,
	).Error
}

func (r *repo) InsertStatusEvent(ctx context.Context, db *gorm.DB, event *domain.OrderStatusEvent) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO order_status_events (id, order_id, status, actor_id, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.OrderID,
		event.Status,
		event.ActorID,
		event.Note,
		event.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) LockByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) ListLineItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]domain.OrderLineItem, error) {
	var items []domain.OrderLineItem
	err := db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at asc, id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListModifiers(ctx context.Context, db *gorm.DB, lineItemIDs []snowflake.ID) ([]domain.LineItemModifier, error) {
	if len(lineItemIDs) == 0 {
		return nil, nil
	}
	var modifiers []domain.LineItemModifier
	err := db.WithContext(ctx).
		Where("line_item_id IN ?", lineItemIDs).
		Order("created_at asc, id asc").
		Find(&modifiers).Error
	if err != nil {
		return nil, err
	}
	return modifiers, nil
}

func (r *repo) ListStatusEvents(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]domain.OrderStatusEvent, error) {
	var events []domain.OrderStatusEvent
	err := db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at asc, id asc").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListOrdersRequest, page pagination.Pagination) ([]*domain.Order, error) {
	stmt := db.WithContext(ctx).Model(&domain.Order{})
	if len(filter.Statuses) > 0 {
		stmt = stmt.Where("status IN ?", filter.Statuses)
	}
	if filter.Type != "" {
		stmt = stmt.Where("type = ?", filter.Type)
	}
	if filter.CustomerID != 0 {
		stmt = stmt.Where("customer_id = ?", filter.CustomerID)
	}
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, err
		}
		if cursor.CreatedAt != "" && cursor.ID != "" {
			stmt = stmt.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
		}
	}

	limit := page.PageSize
	if limit <= 0 {
		limit = 20
	}

	var orders []*domain.Order
	err := stmt.
		Order("created_at desc, id desc").
		Limit(limit + 1).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET status = ?, prepared_at = ?, served_at = ?, updated_at = ?
		 WHERE id = ?`,
		order.Status,
		order.PreparedAt,
		order.ServedAt,
		order.UpdatedAt,
		order.ID,
	).Error
}

func (r *repo) UpdateTotals(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET subtotal = ?, tax_amount = ?, service_charge = ?,
			discount_amount = ?, total_amount = ?, updated_at = ?
		 WHERE id = ?`,
		order.Subtotal,
		order.TaxAmount,
		order.ServiceCharge,
		order.DiscountAmount,
		order.TotalAmount,
		order.UpdatedAt,
		order.ID,
	).Error
}

func (r *repo) HasCompletedPayment(ctx context.Context, db *gorm.DB, orderID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM payments
		 WHERE order_id = ? AND status IN ('completed', 'refunded', 'partial_refund')`,
		orderID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
