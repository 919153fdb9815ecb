package payment

import (
	"github.com/mariahavens/pos/internal/payment/repository"
	paymentservice "github.com/mariahavens/pos/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(paymentservice.NewService),
)
