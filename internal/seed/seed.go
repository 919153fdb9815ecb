// Package seed bootstraps a demo menu and starting stock for development
// environments.
package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/mariahavens/pos/internal/catalog/domain"
	inventorydomain "github.com/mariahavens/pos/internal/inventory/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type menuEntry struct {
	name        string
	description string
	category    string
	price       string
	stock       string
	unit        string
}

var defaultMenu = []menuEntry{
	{"Grilled Tilapia", "Whole tilapia with ugali and greens", "mains", "25.99", "40", "portion"},
	{"Chicken Curry", "Coconut chicken curry with rice", "mains", "18.50", "30", "portion"},
	{"Club Sandwich", "Triple decker with fries", "snacks", "12.00", "", ""},
	{"Fresh Passion Juice", "Pressed daily", "drinks", "4.50", "60", "glass"},
	{"House Coffee", "Single origin pour over", "drinks", "3.75", "", ""},
	{"Fruit Platter", "Seasonal fruit selection", "desserts", "8.25", "20", "portion"},
}

// EnsureDemoMenu inserts the default menu and stock levels when the catalog
// is empty. Safe to run on every startup.
func EnsureDemoMenu(db *gorm.DB, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&catalogdomain.MenuItem{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		for _, entry := range defaultMenu {
			price, err := decimal.NewFromString(entry.price)
			if err != nil {
				return err
			}

			item := catalogdomain.MenuItem{
				ID:          node.Generate(),
				Name:        entry.name,
				Description: entry.description,
				Category:    entry.category,
				Price:       price,
				IsAvailable: true,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}

			if entry.stock == "" {
				continue
			}
			stock, err := decimal.NewFromString(entry.stock)
			if err != nil {
				return err
			}
			level := inventorydomain.StockLevel{
				ID:           node.Generate(),
				MenuItemID:   item.ID,
				CurrentStock: stock,
				Unit:         entry.unit,
			}
			if err := tx.Create(&level).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
