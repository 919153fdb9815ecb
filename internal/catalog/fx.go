package catalog

import (
	"github.com/mariahavens/pos/internal/catalog/repository"
	catalogservice "github.com/mariahavens/pos/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(catalogservice.NewService),
)
