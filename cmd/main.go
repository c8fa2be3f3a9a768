package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"odatanode"
	"odatanode/internal/api/handler/endpoints"
	"odatanode/internal/api/models"
	"odatanode/internal/realtime"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
)

func main() {
	odatanode.InitConfig(".env")
	gin.SetMode(gin.ReleaseMode)
	defer odatanode.Close()

	if odatanode.GetConfig().Mode == "dev" {
		if err := odatanode.DB.AutoMigrate(
			&models.Node{},
			&models.NodeRun{},
		); err != nil {
			odatanode.Logger.Fatal().Err(err).Msg("Failed to migrate database")
		}
		odatanode.Logger.Info().Msg("Database migrated successfully")
		gin.SetMode(gin.DebugMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	router, err := graceful.Default(graceful.WithAddr(odatanode.GetConfig().ApiPort))
	if err != nil {
		panic(err)
	}
	defer stop()
	defer router.Close()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	hub := realtime.NewHub(odatanode.Logger)
	go hub.Run(ctx)
	if odatanode.NATS != nil {
		bridge := realtime.NewNATSBridge(odatanode.NATS, hub, odatanode.Logger)
		if err := bridge.Subscribe(); err != nil {
			odatanode.Logger.Error().Err(err).Msg("Progress relay disabled")
		} else {
			defer bridge.Close()
		}
	}

	endpoints.ODataNodeHandler(router, hub)

	odatanode.Logger.Debug().Msgf("Starting OData node API on port %s", odatanode.GetConfig().ApiPort)
	if err = router.RunWithContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		odatanode.Logger.Fatal().Msg(err.Error())
	}
}
