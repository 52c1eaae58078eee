package main

import (
	"go.uber.org/zap"

	"github.com/dizmorall/srdhub/config"
	"github.com/dizmorall/srdhub/routes"
	"github.com/dizmorall/srdhub/srd"
	"github.com/dizmorall/srdhub/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer utils.Logger.Sync()

	catalog := srd.Default()
	db := config.InitDatabase()
	r := routes.SetupRouter(db, catalog)

	utils.Logger.Info("starting server",
		zap.String("port", cfg.AppPort),
		zap.String("db_driver", cfg.DBDriver),
		zap.Bool("redis", cfg.RedisEnabled),
	)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Logger.Fatal("server stopped with error", zap.Error(err))
	}
}
