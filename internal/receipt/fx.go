package receipt

import (
	"github.com/mariahavens/pos/internal/receipt/repository"
	receiptservice "github.com/mariahavens/pos/internal/receipt/service"
	"go.uber.org/fx"
)

var Module = fx.Module("receipt.service",
	fx.Provide(repository.Provide),
	fx.Provide(receiptservice.NewService),
)
