package seed

import (
	"github.com/bwmarrin/snowflake"
	"github.com/mariahavens/pos/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("seed",
	fx.Invoke(runSeed),
)

func runSeed(cfg config.Config, db *gorm.DB, node *snowflake.Node, log *zap.Logger) error {
	if !cfg.SeedOnStart || cfg.IsProduction() {
		return nil
	}
	if err := EnsureDemoMenu(db, node); err != nil {
		return err
	}
	log.Info("demo menu seeded")
	return nil
}
