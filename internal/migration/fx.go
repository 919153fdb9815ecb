package migration

import (
	catalogdomain "github.com/mariahavens/pos/internal/catalog/domain"
	"github.com/mariahavens/pos/internal/config"
	inventorydomain "github.com/mariahavens/pos/internal/inventory/domain"
	orderdomain "github.com/mariahavens/pos/internal/order/domain"
	paymentdomain "github.com/mariahavens/pos/internal/payment/domain"
	receiptdomain "github.com/mariahavens/pos/internal/receipt/domain"
	"github.com/mariahavens/pos/internal/sequence"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if !cfg.MigrateOnStart {
			return nil
		}

		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		// sqlite and mysql deployments lean on the model definitions
		return conn.AutoMigrate(
			&catalogdomain.MenuItem{},
			&inventorydomain.StockLevel{},
			&inventorydomain.StockMovement{},
			&orderdomain.Order{},
			&orderdomain.OrderLineItem{},
			&orderdomain.LineItemModifier{},
			&orderdomain.OrderStatusEvent{},
			&paymentdomain.Payment{},
			&paymentdomain.PaymentRefund{},
			&paymentdomain.PaymentSplit{},
			&receiptdomain.Receipt{},
			&receiptdomain.ReceiptLineItem{},
			&sequence.DocumentNumber{},
		)
	}),
)
