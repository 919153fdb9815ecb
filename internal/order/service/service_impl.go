package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/mariahavens/pos/internal/catalog/domain"
	"github.com/mariahavens/pos/internal/clock"
	"github.com/mariahavens/pos/internal/config"
	inventorydomain "github.com/mariahavens/pos/internal/inventory/domain"
	"github.com/mariahavens/pos/internal/notification"
	obsmetrics "github.com/mariahavens/pos/internal/observability/metrics"
	orderdomain "github.com/mariahavens/pos/internal/order/domain"
	"github.com/mariahavens/pos/internal/sequence"
	"github.com/mariahavens/pos/pkg/db"
	"github.com/mariahavens/pos/pkg/db/pagination"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Policy     *config.PolicyHolder
	Seq        sequence.Generator
	Repo       orderdomain.Repository
	CatalogSvc catalogdomain.Service
	StockSvc   inventorydomain.Service
	Notifier   *notification.Dispatcher
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	policy     *config.PolicyHolder
	seq        sequence.Generator
	repo       orderdomain.Repository
	catalogSvc catalogdomain.Service
	stockSvc   inventorydomain.Service
	notifier   *notification.Dispatcher
	metrics    *obsmetrics.Metrics
}

func NewService(p Params) orderdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("order.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		policy:     p.Policy,
		seq:        p.Seq,
		repo:       p.Repo,
		catalogSvc: p.CatalogSvc,
		stockSvc:   p.StockSvc,
		notifier:   p.Notifier,
		metrics:    p.Metrics,
	}
}

func (s *Service) rates() orderdomain.Rates {
	policy := s.policy.Current()
	return orderdomain.Rates{
		Tax:           policy.TaxRate,
		ServiceCharge: policy.ServiceChargeRate,
	}
}

func (s *Service) Create(ctx context.Context, req orderdomain.CreateOrderRequest) (*orderdomain.Order, error) {
	if err := validateCreate(&req); err != nil {
		return nil, err
	}

	// Availability is checked and prices are snapshotted before the write
	// transaction opens; the catalog is never re-queried afterwards.
	snapshots := make([]catalogdomain.Item, 0, len(req.Items))
	for _, item := range req.Items {
		snapshot, err := s.catalogSvc.GetItem(ctx, item.MenuItemID)
		if err != nil {
			return nil, err
		}
		if !snapshot.IsAvailable {
			return nil, catalogdomain.ErrItemUnavailable
		}
		snapshots = append(snapshots, snapshot)
	}

	var created *orderdomain.Order
	for attempt := 0; attempt < sequence.MaxAttempts; attempt++ {
		order, err := s.createOnce(ctx, req, snapshots)
		if err == nil {
			created = order
			break
		}
		if !db.IsDuplicateKeyErr(err) {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.RecordSequenceCollision()
		}
		s.log.Warn("order number collision, retrying", zap.Int("attempt", attempt+1))
		if attempt == sequence.MaxAttempts-1 {
			return nil, sequence.ErrCollision
		}
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCreated(string(created.Type))
	}
	s.notifier.Notify(notification.Event{
		Type:      notification.EventOrderCreated,
		Recipient: created.CustomerID,
		OrderNum:  created.OrderNumber,
		Detail: map[string]any{
			"type":   string(created.Type),
			"total":  created.TotalAmount.StringFixed(2),
			"status": string(created.Status),
		},
	})

	return created, nil
}

func (s *Service) createOnce(ctx context.Context, req orderdomain.CreateOrderRequest, snapshots []catalogdomain.Item) (*orderdomain.Order, error) {
	now := s.clock.Now()
	var created *orderdomain.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := s.seq.Next(ctx, tx, sequence.PrefixOrder, now)
		if err != nil {
			return err
		}

		order := &orderdomain.Order{
			ID:                   s.genID.Generate(),
			OrderNumber:          number,
			CustomerID:           req.CustomerID,
			WaiterID:             req.WaiterID,
			Type:                 req.Type,
			Status:               orderdomain.StatusPending,
			TableNumber:          req.TableNumber,
			RoomNumber:           req.RoomNumber,
			SpecialInstructions:  req.SpecialInstructions,
			KitchenNotes:         req.KitchenNotes,
			Priority:             req.Priority,
			EstimatedPrepMinutes: req.EstimatedPrepMinutes,
			CreatedAt:            now,
			UpdatedAt:            now,
		}

		lines := make([]orderdomain.OrderLineItem, 0, len(req.Items))
		for i, item := range req.Items {
			snapshot := snapshots[i]
			line := orderdomain.OrderLineItem{
				ID:                  s.genID.Generate(),
				OrderID:             order.ID,
				MenuItemID:          snapshot.ID,
				Name:                snapshot.Name,
				UnitPrice:           snapshot.Price,
				Quantity:            item.Quantity,
				LineTotal:           orderdomain.LineTotal(snapshot.Price, item.Quantity),
				Status:              orderdomain.LineItemPending,
				SpecialInstructions: item.SpecialInstructions,
				CreatedAt:           now,
				UpdatedAt:           now,
			}
			for _, mod := range item.Modifiers {
				line.Modifiers = append(line.Modifiers, orderdomain.LineItemModifier{
					ID:              s.genID.Generate(),
					LineItemID:      line.ID,
					Name:            mod.Name,
					Type:            mod.Type,
					PriceAdjustment: mod.PriceAdjustment,
					Quantity:        mod.Quantity,
					CreatedAt:       now,
				})
			}
			lines = append(lines, line)
		}

		totals := orderdomain.CalculateTotals(order.Type, lines, req.DiscountAmount, s.rates())
		totals.Apply(order)

		for i := range lines {
			reason := fmt.Sprintf("order %s", number)
			qty := decimal.NewFromInt(int64(lines[i].Quantity))
			if err := s.stockSvc.Deduct(ctx, tx, lines[i].MenuItemID, qty, reason, req.ActorID); err != nil {
				return err
			}
		}

		if err := s.repo.Insert(ctx, tx, order); err != nil {
			return err
		}
		for i := range lines {
			if err := s.repo.InsertLineItem(ctx, tx, &lines[i]); err != nil {
				return err
			}
			for j := range lines[i].Modifiers {
				if err := s.repo.InsertModifier(ctx, tx, &lines[i].Modifiers[j]); err != nil {
					return err
				}
			}
		}

		if err := s.repo.InsertStatusEvent(ctx, tx, &orderdomain.OrderStatusEvent{
			ID:        s.genID.Generate(),
			OrderID:   order.ID,
			Status:    orderdomain.StatusPending,
			ActorID:   actorRef(req.ActorID),
			Note:      "order created",
			CreatedAt: now,
		}); err != nil {
			return err
		}

		order.Items = lines
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*orderdomain.Order, error) {
	order, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, orderdomain.ErrNotFound
	}

	items, err := s.repo.ListLineItems(ctx, s.db, order.ID)
	if err != nil {
		return nil, err
	}
	lineIDs := make([]snowflake.ID, 0, len(items))
	for _, item := range items {
		lineIDs = append(lineIDs, item.ID)
	}
	modifiers, err := s.repo.ListModifiers(ctx, s.db, lineIDs)
	if err != nil {
		return nil, err
	}
	byLine := make(map[snowflake.ID][]orderdomain.LineItemModifier, len(items))
	for _, mod := range modifiers {
		byLine[mod.LineItemID] = append(byLine[mod.LineItemID], mod)
	}
	for i := range items {
		items[i].Modifiers = byLine[items[i].ID]
	}
	order.Items = items

	events, err := s.repo.ListStatusEvents(ctx, s.db, order.ID)
	if err != nil {
		return nil, err
	}
	order.StatusEvents = events

	return order, nil
}

func (s *Service) List(ctx context.Context, req orderdomain.ListOrdersRequest) (*orderdomain.ListOrdersResponse, error) {
	for _, status := range req.Statuses {
		if !orderdomain.ValidStatus(status) {
			return nil, orderdomain.ErrInvalidStatus
		}
	}
	if req.Type != "" && !req.Type.Valid() {
		return nil, orderdomain.ErrInvalidType
	}

	limit := req.Page.PageSize
	if limit <= 0 {
		limit = 20
	}

	orders, err := s.repo.List(ctx, s.db, req, req.Page)
	if err != nil {
		return nil, err
	}

	orders, pageInfo := pagination.BuildCursorPageInfo(orders, limit, func(o *orderdomain.Order) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        o.ID.String(),
			CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		return token
	})

	return &orderdomain.ListOrdersResponse{Orders: orders, PageInfo: pageInfo}, nil
}

func (s *Service) Transition(ctx context.Context, req orderdomain.TransitionRequest) (*orderdomain.Order, error) {
	if !orderdomain.ValidStatus(req.Status) {
		return nil, orderdomain.ErrInvalidStatus
	}

	updated, err := s.transition(ctx, req.OrderID, req.Status, req.ActorID, req.Note, false)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordStatusTransition(string(req.Status))
	}
	s.notifier.Notify(notification.Event{
		Type:      notification.EventOrderStatus,
		Recipient: updated.CustomerID,
		OrderNum:  updated.OrderNumber,
		Detail:    map[string]any{"status": string(updated.Status)},
	})

	return updated, nil
}

func (s *Service) Cancel(ctx context.Context, req orderdomain.CancelRequest) (*orderdomain.Order, error) {
	note := req.Reason
	if note == "" {
		note = "order cancelled"
	}

	updated, err := s.transition(ctx, req.OrderID, orderdomain.StatusCancelled, req.ActorID, note, true)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordStatusTransition(string(orderdomain.StatusCancelled))
	}
	s.notifier.Notify(notification.Event{
		Type:      notification.EventOrderCancelled,
		Recipient: updated.CustomerID,
		OrderNum:  updated.OrderNumber,
		Detail:    map[string]any{"reason": note},
	})

	return updated, nil
}

// transition performs one locked read-modify-write of the order status and
// appends the ledger row in the same transaction.
func (s *Service) transition(ctx context.Context, orderID snowflake.ID, to orderdomain.OrderStatus, actor snowflake.ID, note string, customerCancel bool) (*orderdomain.Order, error) {
	var updated *orderdomain.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.LockByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return orderdomain.ErrNotFound
		}

		if customerCancel && !order.CanBeCancelled() {
			return orderdomain.ErrInvalidTransition
		}
		if !orderdomain.CanTransition(order.Status, to) {
			return orderdomain.ErrInvalidTransition
		}

		now := s.clock.Now()
		order.Status = to
		order.UpdatedAt = now
		switch to {
		case orderdomain.StatusReady:
			order.PreparedAt = &now
		case orderdomain.StatusServed:
			order.ServedAt = &now
		}

		if order.Type == orderdomain.TypeDineIn {
			if err := s.refreshTotals(ctx, tx, order); err != nil {
				return err
			}
		}

		if err := s.repo.UpdateStatus(ctx, tx, order); err != nil {
			return err
		}

		if err := s.repo.InsertStatusEvent(ctx, tx, &orderdomain.OrderStatusEvent{
			ID:        s.genID.Generate(),
			OrderID:   order.ID,
			Status:    to,
			ActorID:   actorRef(actor),
			Note:      note,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// refreshTotals recomputes monetary fields from the current line items. Once
// a completed payment exists the order's money is frozen: a diverging
// recomputation is refused instead of silently overwriting the settled total.
func (s *Service) refreshTotals(ctx context.Context, tx *gorm.DB, order *orderdomain.Order) error {
	lines, err := s.repo.ListLineItems(ctx, tx, order.ID)
	if err != nil {
		return err
	}

	totals := orderdomain.CalculateTotals(order.Type, lines, order.DiscountAmount, s.rates())
	current := orderdomain.Totals{
		Subtotal:       order.Subtotal,
		TaxAmount:      order.TaxAmount,
		ServiceCharge:  order.ServiceCharge,
		DiscountAmount: order.DiscountAmount,
		TotalAmount:    order.TotalAmount,
	}
	if totals.Equal(current) {
		return nil
	}

	settled, err := s.repo.HasCompletedPayment(ctx, tx, order.ID)
	if err != nil {
		return err
	}
	if settled {
		return orderdomain.ErrOrderSettled
	}

	totals.Apply(order)
	order.UpdatedAt = s.clock.Now()
	return s.repo.UpdateTotals(ctx, tx, order)
}

func validateCreate(req *orderdomain.CreateOrderRequest) error {
	if req.CustomerID == 0 {
		return orderdomain.ErrInvalidCustomer
	}
	if !req.Type.Valid() {
		return orderdomain.ErrInvalidType
	}
	if req.Type == orderdomain.TypeDineIn && req.TableNumber == "" {
		return orderdomain.ErrMissingTable
	}
	if req.Type == orderdomain.TypeRoomService && req.RoomNumber == "" {
		return orderdomain.ErrMissingRoom
	}
	if len(req.Items) == 0 {
		return orderdomain.ErrNoItems
	}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return orderdomain.ErrInvalidQuantity
		}
	}
	if req.DiscountAmount.IsNegative() {
		return orderdomain.ErrInvalidDiscount
	}
	if req.Priority == "" {
		req.Priority = orderdomain.PriorityNormal
	}
	if !req.Priority.Valid() {
		return orderdomain.ErrInvalidStatus
	}
	if req.EstimatedPrepMinutes <= 0 {
		req.EstimatedPrepMinutes = 30
	}
	return nil
}

func actorRef(actor snowflake.ID) *snowflake.ID {
	if actor == 0 {
		return nil
	}
	return &actor
}
