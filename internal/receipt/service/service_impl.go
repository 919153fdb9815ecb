package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/mariahavens/pos/internal/clock"
	"github.com/mariahavens/pos/internal/config"
	obsmetrics "github.com/mariahavens/pos/internal/observability/metrics"
	orderdomain "github.com/mariahavens/pos/internal/order/domain"
	paymentdomain "github.com/mariahavens/pos/internal/payment/domain"
	"github.com/mariahavens/pos/internal/receipt/domain"
	"github.com/mariahavens/pos/internal/sequence"
	"github.com/mariahavens/pos/pkg/db"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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
	Repo       domain.Repository
	OrderSvc   orderdomain.Service
	PaymentSvc paymentdomain.Service
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	policy     *config.PolicyHolder
	seq        sequence.Generator
	repo       domain.Repository
	orderSvc   orderdomain.Service
	paymentSvc paymentdomain.Service
	metrics    *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("receipt.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		policy:     p.Policy,
		seq:        p.Seq,
		repo:       p.Repo,
		orderSvc:   p.OrderSvc,
		paymentSvc: p.PaymentSvc,
		metrics:    p.Metrics,
	}
}

func (s *Service) Generate(ctx context.Context, req domain.GenerateRequest) (*domain.Receipt, error) {
	if req.Type == "" {
		req.Type = domain.TypeSale
	}
	if !req.Type.Valid() {
		return nil, domain.ErrInvalidType
	}

	order, err := s.orderSvc.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	var payment *paymentdomain.Payment
	if req.PaymentID != nil {
		payment, err = s.paymentSvc.GetByID(ctx, *req.PaymentID)
		if err != nil {
			return nil, err
		}
		if payment.OrderID != order.ID {
			return nil, paymentdomain.ErrNotFound
		}
		switch payment.Status {
		case paymentdomain.StatusCompleted, paymentdomain.StatusRefunded, paymentdomain.StatusPartialRefund:
		default:
			return nil, domain.ErrPaymentNotSettled
		}
	}

	amountPaid, change := paidAndChange(order, payment)
	business := s.policy.Current().Business

	var created *domain.Receipt
	for attempt := 0; attempt < sequence.MaxAttempts; attempt++ {
		created, err = s.generateOnce(ctx, req, order, payment, business, amountPaid, change)
		if err == nil {
			break
		}
		if !db.IsDuplicateKeyErr(err) {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.RecordSequenceCollision()
		}
		s.log.Warn("receipt number collision, retrying", zap.Int("attempt", attempt+1))
		if attempt == sequence.MaxAttempts-1 {
			return nil, sequence.ErrCollision
		}
	}

	if s.metrics != nil {
		s.metrics.RecordReceiptGenerated()
	}
	return created, nil
}

func (s *Service) generateOnce(
	ctx context.Context,
	req domain.GenerateRequest,
	order *orderdomain.Order,
	payment *paymentdomain.Payment,
	business config.BusinessInfo,
	amountPaid, change decimal.Decimal,
) (*domain.Receipt, error) {
	now := s.clock.Now()
	var created *domain.Receipt

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := s.seq.Next(ctx, tx, sequence.PrefixReceipt, now)
		if err != nil {
			return err
		}

		receipt := &domain.Receipt{
			ID:            s.genID.Generate(),
			ReceiptNumber: number,
			OrderID:       order.ID,
			PaymentID:     req.PaymentID,
			Type:          req.Type,
			Status:        domain.StatusGenerated,

			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
			CustomerPhone: req.CustomerPhone,
			CustomerRoom:  order.RoomNumber,

			BusinessName:    business.Name,
			BusinessAddress: business.Address,
			BusinessPhone:   business.Phone,
			BusinessEmail:   business.Email,
			TaxID:           business.TaxID,

			Subtotal:       order.Subtotal,
			TaxAmount:      order.TaxAmount,
			ServiceCharge:  order.ServiceCharge,
			DiscountAmount: order.DiscountAmount,
			TotalAmount:    order.TotalAmount,
			AmountPaid:     amountPaid,
			ChangeAmount:   change,

			GeneratedBy: actorRef(req.ActorID),
			Data:        receiptData(order),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if payment != nil {
			receipt.PaymentMethod = string(payment.Method)
			receipt.PaymentRef = payment.TransactionRef
		}

		if err := s.repo.Insert(ctx, tx, receipt); err != nil {
			return err
		}
		for _, line := range order.Items {
			if line.Status == orderdomain.LineItemCancelled {
				continue
			}
			item := domain.ReceiptLineItem{
				ID:        s.genID.Generate(),
				ReceiptID: receipt.ID,
				Name:      line.Name,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
				LineTotal: line.LineTotal,
				CreatedAt: now,
			}
			if err := s.repo.InsertLineItem(ctx, tx, &item); err != nil {
				return err
			}
			receipt.Items = append(receipt.Items, item)
		}

		created = receipt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*domain.Receipt, error) {
	receipt, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, domain.ErrNotFound
	}
	items, err := s.repo.ListLineItems(ctx, s.db, receipt.ID)
	if err != nil {
		return nil, err
	}
	receipt.Items = items
	return receipt, nil
}

func (s *Service) ListByOrder(ctx context.Context, orderID snowflake.ID) ([]*domain.Receipt, error) {
	return s.repo.ListByOrder(ctx, s.db, orderID)
}

func (s *Service) Void(ctx context.Context, req domain.VoidRequest) (*domain.Receipt, error) {
	now := s.clock.Now()
	window := s.policy.Current().ReceiptVoidWindow
	var updated *domain.Receipt

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		receipt, err := s.repo.LockByID(ctx, tx, req.ReceiptID)
		if err != nil {
			return err
		}
		if receipt == nil {
			return domain.ErrNotFound
		}
		if receipt.Status == domain.StatusVoided {
			return domain.ErrAlreadyVoided
		}
		if now.Sub(receipt.CreatedAt) > window {
			return domain.ErrVoidWindowExpired
		}

		receipt.Status = domain.StatusVoided
		receipt.VoidReason = req.Reason
		receipt.VoidedBy = actorRef(req.ActorID)
		receipt.VoidedAt = &now
		receipt.UpdatedAt = now

		if err := s.repo.Update(ctx, tx, receipt); err != nil {
			return err
		}
		updated = receipt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) MarkPrinted(ctx context.Context, id snowflake.ID) (*domain.Receipt, error) {
	now := s.clock.Now()
	var updated *domain.Receipt

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		receipt, err := s.repo.LockByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if receipt == nil {
			return domain.ErrNotFound
		}
		if receipt.Status == domain.StatusVoided {
			return domain.ErrAlreadyVoided
		}

		receipt.Status = domain.StatusPrinted
		receipt.IsPrinted = true
		receipt.PrintCount++
		receipt.UpdatedAt = now

		if err := s.repo.Update(ctx, tx, receipt); err != nil {
			return err
		}
		updated = receipt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// paidAndChange resolves what the receipt shows as paid. Cash tendered above
// the order total produces change; nothing else ever does.
func paidAndChange(order *orderdomain.Order, payment *paymentdomain.Payment) (decimal.Decimal, decimal.Decimal) {
	amountPaid := order.TotalAmount
	if payment != nil {
		amountPaid = payment.Amount
		if payment.Method == paymentdomain.MethodCash && payment.TenderedAmount != nil {
			amountPaid = *payment.TenderedAmount
		}
	}
	change := decimal.Zero
	if amountPaid.GreaterThan(order.TotalAmount) {
		change = amountPaid.Sub(order.TotalAmount)
	}
	return amountPaid, change
}

func receiptData(order *orderdomain.Order) datatypes.JSONMap {
	items := make([]map[string]any, 0, len(order.Items))
	for _, line := range order.Items {
		if line.Status == orderdomain.LineItemCancelled {
			continue
		}
		mods := make([]map[string]any, 0, len(line.Modifiers))
		for _, mod := range line.Modifiers {
			mods = append(mods, map[string]any{
				"name":  mod.Name,
				"price": mod.PriceAdjustment.StringFixed(2),
			})
		}
		items = append(items, map[string]any{
			"name":                 line.Name,
			"quantity":             line.Quantity,
			"unit_price":           line.UnitPrice.StringFixed(2),
			"line_total":           line.LineTotal.StringFixed(2),
			"special_instructions": line.SpecialInstructions,
			"modifiers":            mods,
		})
	}
	return datatypes.JSONMap{
		"order_number":         order.OrderNumber,
		"order_type":           string(order.Type),
		"table_number":         order.TableNumber,
		"room_number":          order.RoomNumber,
		"special_instructions": order.SpecialInstructions,
		"items":                items,
	}
}

func actorRef(actor snowflake.ID) *snowflake.ID {
	if actor == 0 {
		return nil
	}
	return &actor
}
