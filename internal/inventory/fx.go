package inventory

import (
	"github.com/mariahavens/pos/internal/inventory/repository"
	inventoryservice "github.com/mariahavens/pos/internal/inventory/service"
	"go.uber.org/fx"
)

var Module = fx.Module("inventory.service",
	fx.Provide(repository.Provide),
	fx.Provide(inventoryservice.NewService),
)
