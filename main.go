package main

import (
	"fmt"
	"thevideopool/pool-api/app"
	"thevideopool/pool-api/config"
	"thevideopool/pool-api/db"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	err := config.Setup()
	if err != nil {
		panic(err)
	}

	if config.SeedOnly() {
		conn, err := db.New()
		if err != nil {
			panic(err)
		}

		if err := db.SeedCatalog(conn); err != nil {
			panic(err)
		}

		zap.L().Info("Catalog seeded")
		return
	}

	a, err := app.NewRouter()
	if err != nil {
		panic(err)
	}

	addr := fmt.Sprintf(":%d", viper.GetInt("host.port"))

	zap.L().Info("Server starting", zap.String("addr", addr))

	if viper.GetBool("host.ssl.enabled") {
		err = a.RunTLS(addr,
			viper.GetString("host.ssl.certificate_path"),
			viper.GetString("host.ssl.certificate_key_path"))
	} else {
		err = a.Run(addr)
	}
	if err != nil {
		panic(err)
	}
}
