package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/mariahavens/pos/internal/clock"
	"github.com/mariahavens/pos/internal/notification"
	orderdomain "github.com/mariahavens/pos/internal/order/domain"
	"github.com/mariahavens/pos/internal/payment/domain"
	paymentrepo "github.com/mariahavens/pos/internal/payment/repository"
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

	db.Callback().Query().Before("gorm:query").Register("sqlite_no_locking", func(d *gorm.DB) {
		delete(d.Statement.Clauses, "FOR UPDATE")
	})

	require.NoError(t, db.AutoMigrate(
		&orderdomain.Order{},
		&domain.Payment{},
		&domain.PaymentRefund{},
		&domain.PaymentSplit{},
		&sequence.DocumentNumber{},
	))
	return db
}

type fixture struct {
	db    *gorm.DB
	svc   domain.Service
	clock *clock.FakeClock
	genID *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	log := zap.NewNop()
	genID, err := snowflake.NewNode(2)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC))

	svc := NewService(Params{
		DB:       db,
		Log:      log,
		GenID:    genID,
		Clock:    fake,
		Seq:      sequence.NewGenerator(),
		Repo:     paymentrepo.Provide(),
		Notifier: notification.NewDispatcher(notification.Params{Log: log}),
	})
	return &fixture{db: db, svc: svc, clock: fake, genID: genID}
}

func (f *fixture) seedOrder(t *testing.T, total string) *orderdomain.Order {
	t.Helper()
	now := f.clock.Now()
	order := &orderdomain.Order{
		ID:          f.genID.Generate(),
		OrderNumber: fmt.Sprintf("ORD-20250314-%04d", f.genID.Generate()%9999),
		CustomerID:  f.genID.Generate(),
		Type:        orderdomain.TypeDineIn,
		Status:      orderdomain.StatusServed,
		TableNumber: "7",
		TotalAmount: decimal.RequireFromString(total),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, f.db.Create(order).Error)
	return order
}

func TestRecord_CashCompletesImmediately(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, "32.75")
	tendered := decimal.RequireFromString("35.00")

	payment, err := f.svc.Record(context.Background(), domain.RecordPaymentRequest{
		OrderID:        order.ID,
		Amount:         decimal.RequireFromString("32.75"),
		Method:         domain.MethodCash,
		TenderedAmount: &tendered,
		ActorID:        f.genID.Generate(),
	})
	require.NoError(t, err)

	assert.Equal(t, "PAY-20250314-0001", payment.PaymentNumber)
	assert.Equal(t, domain.StatusCompleted, payment.Status)
	require.NotNil(t, payment.CompletedAt)
	require.NotNil(t, payment.TenderedAmount)
	assert.Equal(t, "35.00", payment.TenderedAmount.StringFixed(2))
}

func TestRecord_CardStartsPendingThenProcesses(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, "50.00")

	payment, err := f.svc.Record(context.Background(), domain.RecordPaymentRequest{
		OrderID: order.ID,
		Amount:  decimal.RequireFromString("50.00"),
		Method:  domain.MethodCard,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, payment.Status)
	assert.Nil(t, payment.CompletedAt)

	processed, err := f.svc.Process(context.Background(), domain.ProcessPaymentRequest{
		PaymentID:         payment.ID,
		TransactionRef:    "TXN-889431",
		GatewayRef:        "gw_1Hh2Jk",
		AuthorizationCode: "AUTH-042",
		GatewayFee:        decimal.RequireFromString("1.45"),
		ProcessingFee:     decimal.RequireFromString("0.30"),
		ActorID:           f.genID.Generate(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, processed.Status)
	assert.Equal(t, "TXN-889431", processed.TransactionRef)
	assert.Equal(t, "AUTH-042", processed.AuthorizationCode)
	assert.True(t, processed.NetAmount().Equal(decimal.RequireFromString("48.25")))

	_, err = f.svc.Process(context.Background(), domain.ProcessPaymentRequest{PaymentID: payment.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentState)
}

func TestRecord_RefusesOverpayment(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, "32.75")

	_, err := f.svc.Record(context.Background(), domain.RecordPaymentRequest{
		OrderID: order.ID,
		Amount:  decimal.RequireFromString("40.00"),
		Method:  domain.MethodCard,
	})
	assert.ErrorIs(t, err, domain.ErrPaymentExceedsBalance)
}

func TestRecord_PartialThenBalanceOnly(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, "32.75")

	_, err := f.svc.Record(context.Background(), domain.RecordPaymentRequest{
		OrderID: order.ID,
		Amount:  decimal.RequireFromString("20.00"),
		Method:  domain.MethodCash,
	})
	require.NoError(t, err)

	_, err = f.svc.Record(context.Background(), domain.RecordPaymentRequest{
		OrderID: order.ID,
		Amount:  decimal.RequireFromString("13.00"),
		Method:  domain.MethodCash,
	})
	assert.ErrorIs(t, err, domain.ErrPaymentExceedsBalance)

	settled, err := f.svc.Record(context.Background(), domain.RecordPaymentRequest{
		OrderID: order.ID,
		Amount:  decimal.RequireFromString("12.75"),
		Method:  domain.MethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, "PAY-20250314-0002", settled.PaymentNumber)
}

func TestRecord_PendingDoesNotReserveBalance(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, "30.00")

	first, err := f.svc.Record(context.Background(), domain.RecordPaymentRequest{
		OrderID: order.ID,
		Amount:  decimal.RequireFromString("30.00"),
		Method:  domain.MethodCard,
	})
	require.NoError(t, err)

	second, err := f.svc.Record(context.Background(), domain.RecordPaymentRequest{
		OrderID: order.ID,
		Amount:  decimal.RequireFromString("30.00"),
		Method:  domain.MethodMobileMoney,
	})
	require.NoError(t, err)

	_, err = f.svc.Process(context.Background(), domain.ProcessPaymentRequest{PaymentID: first.ID})
	require.NoError(t, err)

	// the second completion would settle the order twice
	_, err = f.svc.Process(context.Background(), domain.ProcessPaymentRequest{PaymentID: second.ID})
	assert.ErrorIs(t, err, domain.ErrPaymentExceedsBalance)
}

func TestRecord_Validation(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, "10.00")
	short := decimal.RequireFromString("5.00")

	_, err := f.svc.Record(context.Background(), domain.RecordPaymentRequest{
		OrderID: order.ID, Amount: decimal.Zero, Method: domain.MethodCash,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.svc.Record(context.Background(), domain.RecordPaymentRequest{
		OrderID: order.ID, Amount: decimal.RequireFromString("10.00"), Method: "cheque",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMethod)

	_, err = f.svc.Record(context.Background(), domain.RecordPaymentRequest{
		OrderID:        order.ID,
		Amount:         decimal.RequireFromString("10.00"),
		Method:         domain.MethodCash,
		TenderedAmount: &short,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTender)

	_, err = f.svc.Record(context.Background(), domain.RecordPaymentRequest{
		OrderID:        order.ID,
		Amount:         decimal.RequireFromString("10.00"),
		Method:         domain.MethodCard,
		TenderedAmount: &short,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTender)

	_, err = f.svc.Record(context.Background(), domain.RecordPaymentRequest{
		OrderID: f.genID.Generate(), Amount: decimal.RequireFromString("10.00"), Method: domain.MethodCash,
	})
	assert.ErrorIs(t, err, orderdomain.ErrNotFound)
}

func TestRecord_RefusesCancelledOrder(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, "10.00")
	require.NoError(t, f.db.Exec(`UPDATE orders SET status = 'cancelled' WHERE id = ?`, order.ID).Error)

	_, err := f.svc.Record(context.Background(), domain.RecordPaymentRequest{
		OrderID: order.ID, Amount: decimal.RequireFromString("10.00"), Method: domain.MethodCash,
	})
	assert.ErrorIs(t, err, domain.ErrOrderNotPayable)
}

func TestCancel_PendingOnly(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, "20.00")

	payment, err := f.svc.Record(context.Background(), domain.RecordPaymentRequest{
		OrderID: order.ID, Amount: decimal.RequireFromString("20.00"), Method: domain.MethodCard,
	})
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(context.Background(), domain.CancelPaymentRequest{
		PaymentID: payment.ID, Reason: "customer walked away",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)

	_, err = f.svc.Cancel(context.Background(), domain.CancelPaymentRequest{PaymentID: payment.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentState)
}

func TestRefund_PartialThenFull(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, "32.75")

	payment, err := f.svc.Record(context.Background(), domain.RecordPaymentRequest{
		OrderID: order.ID, Amount: decimal.RequireFromString("32.75"), Method: domain.MethodCash,
	})
	require.NoError(t, err)

	partial, err := f.svc.Refund(context.Background(), domain.RefundRequest{
		PaymentID: payment.ID,
		Amount:    ptr(decimal.RequireFromString("10.00")),
		Reason:    "cold soup",
		ActorID:   f.genID.Generate(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPartialRefund, partial.Status)
	assert.Equal(t, "10.00", partial.RefundedAmount.StringFixed(2))
	require.Len(t, partial.Refunds, 1)
	assert.Equal(t, "REF-20250314-0001", partial.Refunds[0].RefundNumber)

	full, err := f.svc.Refund(context.Background(), domain.RefundRequest{
		PaymentID: payment.ID,
		Amount:    ptr(decimal.RequireFromString("22.75")),
		Reason:    "order voided",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRefunded, full.Status)
	assert.Equal(t, "32.75", full.RefundedAmount.StringFixed(2))

	_, err = f.svc.Refund(context.Background(), domain.RefundRequest{
		PaymentID: payment.ID,
		Amount:    ptr(decimal.RequireFromString("0.01")),
	})
	assert.ErrorIs(t, err, domain.ErrPaymentNotRefundable)
}

func TestRefund_DefaultsToRemaining(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, "18.00")

	payment, err := f.svc.Record(context.Background(), domain.RecordPaymentRequest{
		OrderID: order.ID, Amount: decimal.RequireFromString("18.00"), Method: domain.MethodCash,
	})
	require.NoError(t, err)

	refunded, err := f.svc.Refund(context.Background(), domain.RefundRequest{
		PaymentID: payment.ID,
		Reason:    "event cancelled",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRefunded, refunded.Status)
	assert.Equal(t, "18.00", refunded.RefundedAmount.StringFixed(2))
}

func TestRefund_GuardRails(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, "25.00")

	pending, err := f.svc.Record(context.Background(), domain.RecordPaymentRequest{
		OrderID: order.ID, Amount: decimal.RequireFromString("25.00"), Method: domain.MethodCard,
	})
	require.NoError(t, err)

	_, err = f.svc.Refund(context.Background(), domain.RefundRequest{PaymentID: pending.ID})
	assert.ErrorIs(t, err, domain.ErrPaymentNotRefundable)

	completed, err := f.svc.Process(context.Background(), domain.ProcessPaymentRequest{PaymentID: pending.ID})
	require.NoError(t, err)

	_, err = f.svc.Refund(context.Background(), domain.RefundRequest{
		PaymentID: completed.ID,
		Amount:    ptr(decimal.RequireFromString("30.00")),
	})
	assert.ErrorIs(t, err, domain.ErrRefundExceedsRefundable)
}

func TestSplit_BoundedByPaymentAmount(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, "40.00")

	payment, err := f.svc.Record(context.Background(), domain.RecordPaymentRequest{
		OrderID: order.ID, Amount: decimal.RequireFromString("40.00"), Method: domain.MethodCash,
	})
	require.NoError(t, err)

	splits, err := f.svc.Split(context.Background(), domain.SplitPaymentRequest{
		PaymentID: payment.ID,
		Splits: []domain.SplitInput{
			{RecipientName: "Alice", Amount: decimal.RequireFromString("25.00")},
			{RecipientName: "Ben", Amount: decimal.RequireFromString("10.00")},
		},
	})
	require.NoError(t, err)
	assert.Len(t, splits, 2)

	_, err = f.svc.Split(context.Background(), domain.SplitPaymentRequest{
		PaymentID: payment.ID,
		Splits: []domain.SplitInput{
			{RecipientName: "Chao", Amount: decimal.RequireFromString("6.00")},
		},
	})
	assert.ErrorIs(t, err, domain.ErrSplitExceedsAmount)

	loaded, err := f.svc.GetByID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Splits, 2)
}

func TestRecord_GatewayRefStartsProcessing(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, "18.50")

	payment, err := f.svc.Record(context.Background(), domain.RecordPaymentRequest{
		OrderID:        order.ID,
		Amount:         decimal.RequireFromString("18.50"),
		Method:         domain.MethodMobileMoney,
		TransactionRef: "MPESA-QX81KJ",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, payment.Status)
	assert.Nil(t, payment.CompletedAt)

	processed, err := f.svc.Process(context.Background(), domain.ProcessPaymentRequest{PaymentID: payment.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, processed.Status)
}

func TestSplit_PercentageDerivedAndBounded(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, "40.00")

	payment, err := f.svc.Record(context.Background(), domain.RecordPaymentRequest{
		OrderID: order.ID, Amount: decimal.RequireFromString("40.00"), Method: domain.MethodCash,
	})
	require.NoError(t, err)

	splits, err := f.svc.Split(context.Background(), domain.SplitPaymentRequest{
		PaymentID: payment.ID,
		Splits: []domain.SplitInput{
			{RecipientName: "Alice", Amount: decimal.RequireFromString("25.00")},
			{RecipientName: "Ben", Amount: decimal.RequireFromString("10.00"), Percentage: decimal.RequireFromString("25.00")},
		},
	})
	require.NoError(t, err)
	require.Len(t, splits, 2)
	assert.True(t, splits[0].Percentage.Equal(decimal.RequireFromString("62.50")))
	assert.True(t, splits[1].Percentage.Equal(decimal.RequireFromString("25.00")))

	_, err = f.svc.Split(context.Background(), domain.SplitPaymentRequest{
		PaymentID: payment.ID,
		Splits: []domain.SplitInput{
			{RecipientName: "Chao", Amount: decimal.RequireFromString("1.00"), Percentage: decimal.RequireFromString("120")},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestSplit_ProcessedFollowsPayment(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, "30.00")

	pending, err := f.svc.Record(context.Background(), domain.RecordPaymentRequest{
		OrderID: order.ID, Amount: decimal.RequireFromString("30.00"), Method: domain.MethodCard,
	})
	require.NoError(t, err)

	splits, err := f.svc.Split(context.Background(), domain.SplitPaymentRequest{
		PaymentID: pending.ID,
		Splits: []domain.SplitInput{
			{RecipientName: "Kitchen", Amount: decimal.RequireFromString("30.00")},
		},
	})
	require.NoError(t, err)
	require.Len(t, splits, 1)
	assert.False(t, splits[0].IsProcessed)
	assert.Nil(t, splits[0].ProcessedAt)

	_, err = f.svc.Process(context.Background(), domain.ProcessPaymentRequest{PaymentID: pending.ID})
	require.NoError(t, err)

	loaded, err := f.svc.GetByID(context.Background(), pending.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Splits, 1)
	assert.True(t, loaded.Splits[0].IsProcessed)
	require.NotNil(t, loaded.Splits[0].ProcessedAt)
	assert.False(t, loaded.Splits[0].ProcessedAt.IsZero())

	// splits against already settled money are disbursed on creation
	cashOrder := f.seedOrder(t, "12.00")
	cash, err := f.svc.Record(context.Background(), domain.RecordPaymentRequest{
		OrderID: cashOrder.ID, Amount: decimal.RequireFromString("12.00"), Method: domain.MethodCash,
	})
	require.NoError(t, err)

	cashSplits, err := f.svc.Split(context.Background(), domain.SplitPaymentRequest{
		PaymentID: cash.ID,
		Splits: []domain.SplitInput{
			{RecipientName: "Bar", Amount: decimal.RequireFromString("12.00")},
		},
	})
	require.NoError(t, err)
	require.Len(t, cashSplits, 1)
	assert.True(t, cashSplits[0].IsProcessed)
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }
