package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/mariahavens/pos/internal/clock"
	"github.com/mariahavens/pos/internal/notification"
	obsmetrics "github.com/mariahavens/pos/internal/observability/metrics"
	orderdomain "github.com/mariahavens/pos/internal/order/domain"
	"github.com/mariahavens/pos/internal/payment/domain"
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

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Seq      sequence.Generator
	Repo     domain.Repository
	Notifier *notification.Dispatcher
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	seq      sequence.Generator
	repo     domain.Repository
	notifier *notification.Dispatcher
	metrics  *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("payment.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		seq:      p.Seq,
		repo:     p.Repo,
		notifier: p.Notifier,
		metrics:  p.Metrics,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordPaymentRequest) (*domain.Payment, error) {
	if !req.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if !req.Method.Valid() {
		return nil, domain.ErrInvalidMethod
	}
	if req.TenderedAmount != nil {
		if req.Method != domain.MethodCash {
			return nil, domain.ErrInvalidTender
		}
		if req.TenderedAmount.LessThan(req.Amount) {
			return nil, domain.ErrInvalidTender
		}
	}

	var created *domain.Payment
	err := s.withCollisionRetry(func() error {
		payment, err := s.recordOnce(ctx, req)
		if err != nil {
			return err
		}
		created = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created.Status == domain.StatusCompleted {
		if s.metrics != nil {
			s.metrics.RecordPaymentCompleted(string(created.Method))
		}
		s.notifyCompleted(ctx, created)
	}
	return created, nil
}

func (s *Service) recordOnce(ctx context.Context, req domain.RecordPaymentRequest) (*domain.Payment, error) {
	now := s.clock.Now()
	var created *domain.Payment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.LockOrderBalance(ctx, tx, req.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return orderdomain.ErrNotFound
		}
		if orderdomain.OrderStatus(order.Status) == orderdomain.StatusCancelled {
			return domain.ErrOrderNotPayable
		}

		settled, err := s.repo.SumCompleted(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		balance := order.TotalAmount.Sub(settled)
		if req.Amount.GreaterThan(balance) {
			return domain.ErrPaymentExceedsBalance
		}

		number, err := s.seq.Next(ctx, tx, sequence.PrefixPayment, now)
		if err != nil {
			return err
		}

		payment := &domain.Payment{
			ID:             s.genID.Generate(),
			PaymentNumber:  number,
			OrderID:        order.ID,
			CustomerID:     order.CustomerID,
			Amount:         req.Amount.Round(2),
			TenderedAmount: req.TenderedAmount,
			Method:         req.Method,
			Status:         domain.StatusPending,
			TransactionRef: req.TransactionRef,
			Metadata:       datatypes.JSONMap(req.Metadata),
			RefundedAmount: decimal.Zero,
			ProcessedBy:    actorRef(req.ActorID),
			Notes:          req.Notes,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		// Cash changes hands at the till, there is nothing left to settle.
		if req.Method == domain.MethodCash {
			payment.Status = domain.StatusCompleted
			payment.CompletedAt = &now
		} else if req.TransactionRef != "" {
			// A transaction reference means the gateway handshake has
			// already started.
			payment.Status = domain.StatusProcessing
		}

		if err := s.repo.Insert(ctx, tx, payment); err != nil {
			return err
		}
		created = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) Process(ctx context.Context, req domain.ProcessPaymentRequest) (*domain.Payment, error) {
	now := s.clock.Now()
	var updated *domain.Payment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.repo.LockByID(ctx, tx, req.PaymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return domain.ErrNotFound
		}
		if payment.Status != domain.StatusPending && payment.Status != domain.StatusProcessing {
			return domain.ErrInvalidPaymentState
		}

		// Pending payments do not reserve balance, so the check runs again
		// under the order lock before the money is counted as settled.
		order, err := s.repo.LockOrderBalance(ctx, tx, payment.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return orderdomain.ErrNotFound
		}
		settled, err := s.repo.SumCompleted(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if payment.Amount.GreaterThan(order.TotalAmount.Sub(settled)) {
			return domain.ErrPaymentExceedsBalance
		}

		payment.Status = domain.StatusCompleted
		payment.CompletedAt = &now
		payment.UpdatedAt = now
		if req.TransactionRef != "" {
			payment.TransactionRef = req.TransactionRef
		}
		if req.GatewayRef != "" {
			payment.GatewayRef = req.GatewayRef
		}
		if req.AuthorizationCode != "" {
			payment.AuthorizationCode = req.AuthorizationCode
		}
		if req.GatewayFee.IsNegative() || req.ProcessingFee.IsNegative() {
			return domain.ErrInvalidAmount
		}
		payment.GatewayFee = req.GatewayFee
		payment.ProcessingFee = req.ProcessingFee
		if req.ActorID != 0 {
			payment.ProcessedBy = actorRef(req.ActorID)
		}

		if err := s.repo.Update(ctx, tx, payment); err != nil {
			return err
		}
		if err := s.repo.MarkSplitsProcessed(ctx, tx, payment.ID, now); err != nil {
			return err
		}
		updated = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordPaymentCompleted(string(updated.Method))
	}
	s.notifyCompleted(ctx, updated)
	return updated, nil
}

func (s *Service) Fail(ctx context.Context, req domain.FailPaymentRequest) (*domain.Payment, error) {
	return s.close(ctx, req.PaymentID, domain.StatusFailed, req.Reason, req.ActorID)
}

func (s *Service) Cancel(ctx context.Context, req domain.CancelPaymentRequest) (*domain.Payment, error) {
	return s.close(ctx, req.PaymentID, domain.StatusCancelled, req.Reason, req.ActorID)
}

// close moves an unsettled payment to a terminal failed or cancelled state.
func (s *Service) close(ctx context.Context, paymentID snowflake.ID, to domain.PaymentStatus, reason string, actor snowflake.ID) (*domain.Payment, error) {
	now := s.clock.Now()
	var updated *domain.Payment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.repo.LockByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return domain.ErrNotFound
		}
		if payment.Status != domain.StatusPending && payment.Status != domain.StatusProcessing {
			return domain.ErrInvalidPaymentState
		}

		payment.Status = to
		payment.UpdatedAt = now
		if reason != "" {
			payment.Notes = reason
		}
		if actor != 0 {
			payment.ProcessedBy = actorRef(actor)
		}

		if err := s.repo.Update(ctx, tx, payment); err != nil {
			return err
		}
		updated = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Refund(ctx context.Context, req domain.RefundRequest) (*domain.Payment, error) {
	if req.Amount != nil && !req.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	var updated *domain.Payment
	err := s.withCollisionRetry(func() error {
		payment, err := s.refundOnce(ctx, req)
		if err != nil {
			return err
		}
		updated = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordRefund()
	}
	s.notifier.Notify(notification.Event{
		Type:      notification.EventPaymentRefunded,
		Recipient: updated.CustomerID,
		Detail: map[string]any{
			"payment_number":  updated.PaymentNumber,
			"refunded_amount": updated.RefundedAmount.StringFixed(2),
			"status":          string(updated.Status),
		},
	})
	return updated, nil
}

func (s *Service) refundOnce(ctx context.Context, req domain.RefundRequest) (*domain.Payment, error) {
	now := s.clock.Now()
	var updated *domain.Payment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.repo.LockByID(ctx, tx, req.PaymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return domain.ErrNotFound
		}
		if !payment.CanBeRefunded() {
			return domain.ErrPaymentNotRefundable
		}

		remaining := payment.RemainingRefundable()
		amount := remaining
		if req.Amount != nil {
			amount = req.Amount.Round(2)
		}
		if amount.GreaterThan(remaining) {
			return domain.ErrRefundExceedsRefundable
		}

		number, err := s.seq.Next(ctx, tx, sequence.PrefixRefund, now)
		if err != nil {
			return err
		}

		payment.RefundedAmount = payment.RefundedAmount.Add(amount)
		payment.RefundReason = req.Reason
		if payment.RefundedAmount.GreaterThanOrEqual(payment.Amount) {
			payment.Status = domain.StatusRefunded
		} else {
			payment.Status = domain.StatusPartialRefund
		}
		payment.UpdatedAt = now

		if err := s.repo.Update(ctx, tx, payment); err != nil {
			return err
		}
		refund := &domain.PaymentRefund{
			ID:           s.genID.Generate(),
			RefundNumber: number,
			PaymentID:    payment.ID,
			Amount:       amount,
			Reason:       req.Reason,
			ProcessedBy:  actorRef(req.ActorID),
			CreatedAt:    now,
		}
		if err := s.repo.InsertRefund(ctx, tx, refund); err != nil {
			return err
		}

		payment.Refunds = append(payment.Refunds, *refund)
		updated = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Split(ctx context.Context, req domain.SplitPaymentRequest) ([]domain.PaymentSplit, error) {
	if len(req.Splits) == 0 {
		return nil, domain.ErrInvalidAmount
	}
	requested := decimal.Zero
	for _, in := range req.Splits {
		if !in.Amount.IsPositive() {
			return nil, domain.ErrInvalidAmount
		}
		if in.Percentage.IsNegative() || in.Percentage.GreaterThan(decimal.NewFromInt(100)) {
			return nil, domain.ErrInvalidAmount
		}
		requested = requested.Add(in.Amount)
	}

	now := s.clock.Now()
	var created []domain.PaymentSplit

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.repo.LockByID(ctx, tx, req.PaymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return domain.ErrNotFound
		}

		existing, err := s.repo.SumSplits(ctx, tx, payment.ID)
		if err != nil {
			return err
		}
		if existing.Add(requested).GreaterThan(payment.Amount) {
			return domain.ErrSplitExceedsAmount
		}

		for _, in := range req.Splits {
			percentage := in.Percentage
			if percentage.IsZero() && payment.Amount.IsPositive() {
				percentage = in.Amount.Div(payment.Amount).Mul(decimal.NewFromInt(100)).Round(2)
			}
			split := domain.PaymentSplit{
				ID:               s.genID.Generate(),
				PaymentID:        payment.ID,
				RecipientName:    in.RecipientName,
				RecipientAccount: in.RecipientAccount,
				Amount:           in.Amount.Round(2),
				Percentage:       percentage,
				CreatedAt:        now,
			}
			// Splits of settled money are disbursed right away; splits of an
			// in-flight payment wait until Process completes it.
			if payment.Settled() {
				split.IsProcessed = true
				split.ProcessedAt = &now
			}
			if err := s.repo.InsertSplit(ctx, tx, &split); err != nil {
				return err
			}
			created = append(created, split)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*domain.Payment, error) {
	payment, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, domain.ErrNotFound
	}

	refunds, err := s.repo.ListRefunds(ctx, s.db, payment.ID)
	if err != nil {
		return nil, err
	}
	payment.Refunds = refunds

	splits, err := s.repo.ListSplits(ctx, s.db, payment.ID)
	if err != nil {
		return nil, err
	}
	payment.Splits = splits

	return payment, nil
}

func (s *Service) ListByOrder(ctx context.Context, orderID snowflake.ID) ([]*domain.Payment, error) {
	return s.repo.ListByOrder(ctx, s.db, orderID)
}

// withCollisionRetry re-runs fn when a document number insert hits a unique
// violation, surfacing sequence.ErrCollision once attempts are exhausted.
func (s *Service) withCollisionRetry(fn func() error) error {
	for attempt := 0; attempt < sequence.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return err
		}
		if s.metrics != nil {
			s.metrics.RecordSequenceCollision()
		}
		s.log.Warn("document number collision, retrying", zap.Int("attempt", attempt+1))
	}
	return sequence.ErrCollision
}

func (s *Service) notifyCompleted(_ context.Context, payment *domain.Payment) {
	s.notifier.Notify(notification.Event{
		Type:      notification.EventPaymentCompleted,
		Recipient: payment.CustomerID,
		Detail: map[string]any{
			"payment_number": payment.PaymentNumber,
			"amount":         payment.Amount.StringFixed(2),
			"method":         string(payment.Method),
		},
	})
}

func actorRef(actor snowflake.ID) *snowflake.ID {
	if actor == 0 {
		return nil
	}
	return &actor
}
