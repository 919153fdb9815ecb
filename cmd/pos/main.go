package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/mariahavens/pos/internal/clock"
	"github.com/mariahavens/pos/internal/migration"
	"github.com/mariahavens/pos/internal/observability"
	"github.com/mariahavens/pos/internal/seed"
	"github.com/mariahavens/pos/internal/server"
	"github.com/mariahavens/pos/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
		seed.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
