package order

import (
	"github.com/mariahavens/pos/internal/order/repository"
	orderservice "github.com/mariahavens/pos/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(orderservice.NewService),
)
