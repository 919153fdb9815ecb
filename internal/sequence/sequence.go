// Package sequence allocates the per-day, human-readable document numbers
// used for orders, payments, refunds and receipts.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Document prefixes. One counter exists per prefix per calendar day.
const (
	PrefixOrder   = "ORD"
	PrefixPayment = "PAY"
	PrefixRefund  = "REF"
	PrefixReceipt = "RCP"
)

// ErrCollision is returned when a concurrent allocation produced a duplicate
// number. Callers retry the enclosing transaction; it is never surfaced to
// API clients directly.
var ErrCollision = errors.New("sequence_collision")

// MaxAttempts bounds transparent retries before the operation is reported as
// temporarily unavailable.
const MaxAttempts = 3

// Generator hands out strictly increasing numbers of the form
// <PREFIX>-<YYYYMMDD>-<4-digit-seq>.
type Generator interface {
	// Next allocates the next number for prefix on the given day. It must be
	// called inside the transaction that persists the numbered row, so the
	// counter row lock serializes concurrent allocations. On Postgres the
	// ON CONFLICT (prefix, day) DO UPDATE upsert takes that row lock, so two
	// transactions allocating the same prefix and day block each other and
	// receive distinct seq values. The sqlite-backed tests only exercise
	// sequential allocation; the concurrent path relies on those Postgres
	// semantics.
	Next(ctx context.Context, tx *gorm.DB, prefix string, day time.Time) (string, error)
}

type generator struct{}

func NewGenerator() Generator {
	return &generator{}
}

func (g *generator) Next(ctx context.Context, tx *gorm.DB, prefix string, day time.Time) (string, error) {
	dayKey := day.UTC().Format("2006-01-02")

	var seq int64
	err := tx.WithContext(ctx).Raw(
		`INSERT INTO document_numbers (prefix, day, seq)
		 VALUES (?, ?, 1)
		 ON CONFLICT (prefix, day) DO UPDATE SET seq = document_numbers.seq + 1
		 RETURNING seq`,
		prefix,
		dayKey,
	).Scan(&seq).Error
	if err != nil {
		return "", err
	}
	if seq == 0 {
		return "", ErrCollision
	}

	return fmt.Sprintf("%s-%s-%04d", prefix, day.UTC().Format("20060102"), seq), nil
}

var Module = fx.Module("sequence",
	fx.Provide(NewGenerator),
)
