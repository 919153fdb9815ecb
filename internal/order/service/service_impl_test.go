package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	catalogdomain "github.com/mariahavens/pos/internal/catalog/domain"
	catalogrepo "github.com/mariahavens/pos/internal/catalog/repository"
	catalogservice "github.com/mariahavens/pos/internal/catalog/service"
	"github.com/mariahavens/pos/internal/clock"
	"github.com/mariahavens/pos/internal/config"
	inventorydomain "github.com/mariahavens/pos/internal/inventory/domain"
	inventoryrepo "github.com/mariahavens/pos/internal/inventory/repository"
	inventoryservice "github.com/mariahavens/pos/internal/inventory/service"
	"github.com/mariahavens/pos/internal/notification"
	orderdomain "github.com/mariahavens/pos/internal/order/domain"
	orderrepo "github.com/mariahavens/pos/internal/order/repository"
	paymentdomain "github.com/mariahavens/pos/internal/payment/domain"
	"github.com/mariahavens/pos/internal/sequence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	// sqlite has no row locks, strip the clause before SQL is built
	db.Callback().Query().Before("gorm:query").Register("sqlite_no_locking", func(d *gorm.DB) {
		delete(d.Statement.Clauses, "FOR UPDATE")
	})

	require.NoError(t, db.AutoMigrate(
		&orderdomain.Order{},
		&orderdomain.OrderLineItem{},
		&orderdomain.LineItemModifier{},
		&orderdomain.OrderStatusEvent{},
		&paymentdomain.Payment{},
		&catalogdomain.MenuItem{},
		&inventorydomain.StockLevel{},
		&inventorydomain.StockMovement{},
		&sequence.DocumentNumber{},
	))
	return db
}

type fixture struct {
	db    *gorm.DB
	svc   orderdomain.Service
	clock *clock.FakeClock
	genID *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	log := zap.NewNop()
	genID, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC))

	catalogSvc := catalogservice.NewService(catalogservice.Params{
		DB: db, Log: log, Repo: catalogrepo.Provide(),
	})
	stockSvc := inventoryservice.NewService(inventoryservice.Params{
		Log: log, GenID: genID, Repo: inventoryrepo.Provide(),
	})
	notifier := notification.NewDispatcher(notification.Params{Log: log})

	svc := NewService(Params{
		DB:         db,
		Log:        log,
		GenID:      genID,
		Clock:      fake,
		Policy:     config.NewStaticPolicyHolder(config.DefaultVenuePolicy()),
		Seq:        sequence.NewGenerator(),
		Repo:       orderrepo.Provide(),
		CatalogSvc: catalogSvc,
		StockSvc:   stockSvc,
		Notifier:   notifier,
	})
	return &fixture{db: db, svc: svc, clock: fake, genID: genID}
}

func (f *fixture) seedItem(t *testing.T, name, price string) snowflake.ID {
	t.Helper()
	item := catalogdomain.MenuItem{
		ID:          f.genID.Generate(),
		Name:        name,
		Price:       decimal.RequireFromString(price),
		IsAvailable: true,
	}
	require.NoError(t, f.db.Create(&item).Error)
	return item.ID
}

func (f *fixture) createDineIn(t *testing.T, items []orderdomain.CreateOrderItem) *orderdomain.Order {
	t.Helper()
	order, err := f.svc.Create(context.Background(), orderdomain.CreateOrderRequest{
		CustomerID:  f.genID.Generate(),
		ActorID:     f.genID.Generate(),
		Type:        orderdomain.TypeDineIn,
		TableNumber: "12",
		Items:       items,
	})
	require.NoError(t, err)
	return order
}

func TestCreate_DineInTotalsAndNumbering(t *testing.T) {
	f := newFixture(t)
	burger := f.seedItem(t, "Beef Burger", "10.00")
	juice := f.seedItem(t, "Mango Juice", "5.99")

	order := f.createDineIn(t, []orderdomain.CreateOrderItem{
		{MenuItemID: burger, Quantity: 2},
		{MenuItemID: juice, Quantity: 1},
	})

	assert.Equal(t, "ORD-20250314-0001", order.OrderNumber)
	assert.Equal(t, orderdomain.StatusPending, order.Status)
	assert.Equal(t, "25.99", order.Subtotal.StringFixed(2))
	assert.Equal(t, "4.16", order.TaxAmount.StringFixed(2))
	assert.Equal(t, "2.60", order.ServiceCharge.StringFixed(2))
	assert.Equal(t, "32.75", order.TotalAmount.StringFixed(2))

	second := f.createDineIn(t, []orderdomain.CreateOrderItem{
		{MenuItemID: juice, Quantity: 1},
	})
	assert.Equal(t, "ORD-20250314-0002", second.OrderNumber)

	loaded, err := f.svc.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	require.Len(t, loaded.StatusEvents, 1)
	assert.Equal(t, orderdomain.StatusPending, loaded.StatusEvents[0].Status)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	item := f.seedItem(t, "Chips", "3.50")
	customer := f.genID.Generate()

	cases := []struct {
		name string
		req  orderdomain.CreateOrderRequest
		want error
	}{
		{
			name: "missing customer",
			req:  orderdomain.CreateOrderRequest{Type: orderdomain.TypeTakeaway},
			want: orderdomain.ErrInvalidCustomer,
		},
		{
			name: "bad type",
			req:  orderdomain.CreateOrderRequest{CustomerID: customer, Type: "drive_through"},
			want: orderdomain.ErrInvalidType,
		},
		{
			name: "dine in without table",
			req:  orderdomain.CreateOrderRequest{CustomerID: customer, Type: orderdomain.TypeDineIn},
			want: orderdomain.ErrMissingTable,
		},
		{
			name: "room service without room",
			req:  orderdomain.CreateOrderRequest{CustomerID: customer, Type: orderdomain.TypeRoomService},
			want: orderdomain.ErrMissingRoom,
		},
		{
			name: "no items",
			req:  orderdomain.CreateOrderRequest{CustomerID: customer, Type: orderdomain.TypeTakeaway},
			want: orderdomain.ErrNoItems,
		},
		{
			name: "zero quantity",
			req: orderdomain.CreateOrderRequest{
				CustomerID: customer,
				Type:       orderdomain.TypeTakeaway,
				Items:      []orderdomain.CreateOrderItem{{MenuItemID: item, Quantity: 0}},
			},
			want: orderdomain.ErrInvalidQuantity,
		},
		{
			name: "negative discount",
			req: orderdomain.CreateOrderRequest{
				CustomerID:     customer,
				Type:           orderdomain.TypeTakeaway,
				Items:          []orderdomain.CreateOrderItem{{MenuItemID: item, Quantity: 1}},
				DiscountAmount: decimal.RequireFromString("-1.00"),
			},
			want: orderdomain.ErrInvalidDiscount,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreate_UnavailableItemRefused(t *testing.T) {
	f := newFixture(t)
	item := catalogdomain.MenuItem{
		ID:          f.genID.Generate(),
		Name:        "Seasonal Special",
		Price:       decimal.RequireFromString("18.00"),
		IsAvailable: false,
	}
	require.NoError(t, f.db.Create(&item).Error)

	_, err := f.svc.Create(context.Background(), orderdomain.CreateOrderRequest{
		CustomerID: f.genID.Generate(),
		Type:       orderdomain.TypeTakeaway,
		Items:      []orderdomain.CreateOrderItem{{MenuItemID: item.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, catalogdomain.ErrItemUnavailable)
}

func TestCreate_SnapshotSurvivesCatalogEdits(t *testing.T) {
	f := newFixture(t)
	item := f.seedItem(t, "Tilapia Fillet", "14.00")

	order := f.createDineIn(t, []orderdomain.CreateOrderItem{{MenuItemID: item, Quantity: 1}})

	require.NoError(t, f.db.Exec(
		`UPDATE menu_items SET name = 'Renamed', price = '99.00' WHERE id = ?`, item,
	).Error)

	loaded, err := f.svc.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "Tilapia Fillet", loaded.Items[0].Name)
	assert.Equal(t, "14.00", loaded.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "14.00", loaded.Subtotal.StringFixed(2))
}

func TestCreate_InsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)
	item := f.seedItem(t, "Lamb Chops", "22.00")
	require.NoError(t, f.db.Create(&inventorydomain.StockLevel{
		ID:           f.genID.Generate(),
		MenuItemID:   item,
		CurrentStock: decimal.NewFromInt(1),
	}).Error)

	_, err := f.svc.Create(context.Background(), orderdomain.CreateOrderRequest{
		CustomerID:  f.genID.Generate(),
		Type:        orderdomain.TypeDineIn,
		TableNumber: "3",
		Items:       []orderdomain.CreateOrderItem{{MenuItemID: item, Quantity: 2}},
	})
	assert.ErrorIs(t, err, inventorydomain.ErrInsufficientStock)

	var count int64
	require.NoError(t, f.db.Model(&orderdomain.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTransition_WalksLifecycle(t *testing.T) {
	f := newFixture(t)
	item := f.seedItem(t, "Club Sandwich", "9.00")
	order := f.createDineIn(t, []orderdomain.CreateOrderItem{{MenuItemID: item, Quantity: 1}})
	actor := f.genID.Generate()

	for _, status := range []orderdomain.OrderStatus{
		orderdomain.StatusConfirmed,
		orderdomain.StatusPreparing,
		orderdomain.StatusReady,
		orderdomain.StatusServed,
		orderdomain.StatusCompleted,
	} {
		updated, err := f.svc.Transition(context.Background(), orderdomain.TransitionRequest{
			OrderID: order.ID,
			Status:  status,
			ActorID: actor,
		})
		require.NoError(t, err, "to %s", status)
		assert.Equal(t, status, updated.Status)

		switch status {
		case orderdomain.StatusReady:
			assert.NotNil(t, updated.PreparedAt)
		case orderdomain.StatusServed:
			assert.NotNil(t, updated.ServedAt)
		}
	}

	_, err := f.svc.Transition(context.Background(), orderdomain.TransitionRequest{
		OrderID: order.ID,
		Status:  orderdomain.StatusCancelled,
		ActorID: actor,
	})
	assert.ErrorIs(t, err, orderdomain.ErrInvalidTransition)

	loaded, err := f.svc.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.StatusEvents, 6)
}

func TestTransition_RefusesSkips(t *testing.T) {
	f := newFixture(t)
	item := f.seedItem(t, "Soup", "4.00")
	order := f.createDineIn(t, []orderdomain.CreateOrderItem{{MenuItemID: item, Quantity: 1}})

	_, err := f.svc.Transition(context.Background(), orderdomain.TransitionRequest{
		OrderID: order.ID,
		Status:  orderdomain.StatusReady,
	})
	assert.ErrorIs(t, err, orderdomain.ErrInvalidTransition)
}

func TestCancel_OnlyBeforePreparation(t *testing.T) {
	f := newFixture(t)
	item := f.seedItem(t, "Espresso", "2.50")
	order := f.createDineIn(t, []orderdomain.CreateOrderItem{{MenuItemID: item, Quantity: 1}})

	cancelled, err := f.svc.Cancel(context.Background(), orderdomain.CancelRequest{
		OrderID: order.ID,
		Reason:  "changed my mind",
	})
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusCancelled, cancelled.Status)

	second := f.createDineIn(t, []orderdomain.CreateOrderItem{{MenuItemID: item, Quantity: 1}})
	for _, status := range []orderdomain.OrderStatus{orderdomain.StatusConfirmed, orderdomain.StatusPreparing} {
		_, err = f.svc.Transition(context.Background(), orderdomain.TransitionRequest{
			OrderID: second.ID, Status: status,
		})
		require.NoError(t, err)
	}

	_, err = f.svc.Cancel(context.Background(), orderdomain.CancelRequest{OrderID: second.ID})
	assert.ErrorIs(t, err, orderdomain.ErrInvalidTransition)

	// kitchen staff can still abandon the order through a transition
	aborted, err := f.svc.Transition(context.Background(), orderdomain.TransitionRequest{
		OrderID: second.ID, Status: orderdomain.StatusCancelled,
	})
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusCancelled, aborted.Status)
}

func TestTransition_TotalsFrozenAfterSettlement(t *testing.T) {
	f := newFixture(t)
	item := f.seedItem(t, "Grilled Chicken", "10.00")
	order := f.createDineIn(t, []orderdomain.CreateOrderItem{{MenuItemID: item, Quantity: 2}})

	now := f.clock.Now()
	require.NoError(t, f.db.Create(&paymentdomain.Payment{
		ID:            f.genID.Generate(),
		PaymentNumber: "PAY-20250314-0001",
		OrderID:       order.ID,
		CustomerID:    order.CustomerID,
		Amount:        order.TotalAmount,
		Method:        paymentdomain.MethodCash,
		Status:        paymentdomain.StatusCompleted,
		CompletedAt:   &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}).Error)

	// a diverging line item would force a recalculation
	require.NoError(t, f.db.Exec(
		`UPDATE order_line_items SET quantity = 3, line_total = '30.00' WHERE order_id = ?`, order.ID,
	).Error)

	_, err := f.svc.Transition(context.Background(), orderdomain.TransitionRequest{
		OrderID: order.ID,
		Status:  orderdomain.StatusConfirmed,
	})
	assert.ErrorIs(t, err, orderdomain.ErrOrderSettled)
}

func TestGetByID_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetByID(context.Background(), f.genID.Generate())
	assert.ErrorIs(t, err, orderdomain.ErrNotFound)
}
