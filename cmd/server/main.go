package main

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/Archu-ck/Truth-and-Dare/docs"
	"github.com/Archu-ck/Truth-and-Dare/internal/config"
	"github.com/Archu-ck/Truth-and-Dare/internal/database"
	"github.com/Archu-ck/Truth-and-Dare/internal/game"
	"github.com/Archu-ck/Truth-and-Dare/internal/handlers"
	"github.com/Archu-ck/Truth-and-Dare/internal/logger"
	"github.com/Archu-ck/Truth-and-Dare/internal/store"
	"github.com/Archu-ck/Truth-and-Dare/internal/ws"
)

// @title           Truth and Dare API
// @version         1.0
// @description     Multiplayer truth-or-dare session backend. Game actions flow over the websocket at /ws; REST is a read-only view.
// @BasePath        /

func main() {
	logger.Setup()

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, using environment")
	}
	cfg := config.Load()

	db := database.Connect(cfg)
	database.AutoMigrate(db)

	hub := ws.NewHub()
	roomStore := store.NewRoomStore(db)
	timers := game.NewTimerScheduler(roomStore, hub)
	router := game.NewRouter(game.NewMachine(), roomStore, timers, hub)
	timers.SetDispatch(func(act game.Action) {
		if err := router.Dispatch(context.Background(), act); err != nil {
			log.Warn().Err(err).Str("code", act.Code).Msg("deadline dispatch failed")
		}
	})

	wsHandler := handlers.NewWSHandler(router, hub)
	roomHandler := handlers.NewRoomHandler(roomStore)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: false,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/ws", wsHandler.HandleWebSocket)

	api := r.Group("/api/v1")
	{
		api.GET("/rooms/:code", roomHandler.GetRoom)
	}

	log.Info().Str("port", cfg.ServerPort).Msg("server starting")
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
