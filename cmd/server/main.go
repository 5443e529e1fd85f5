package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backoffice_backend/internal/cache"
	"backoffice_backend/internal/config"
	"backoffice_backend/internal/database"
	"backoffice_backend/internal/events"
	"backoffice_backend/internal/router"
	"backoffice_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	utils.InitLogger(cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()
	utils.LogInfo("Database initialized", map[string]interface{}{"max_open_conns": cfg.DB.MaxOpenConns, "schema_applied": cfg.DB.ApplySchema})

	reports := cache.NewNoopReportCache()
	if cfg.RedisAddr != "" {
		reports = cache.NewRedisReportCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.ReportCacheTTL)
	} else {
		log.Info().Msg("REDIS_ADDR not set, report caching disabled")
	}

	var publisher events.Publisher = events.LogPublisher{}
	if cfg.AMQPURL != "" {
		rabbit, err := events.NewRabbitPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Warn().Err(err).Msg("RabbitMQ unavailable, events will only be logged")
		} else {
			publisher = rabbit
		}
	}
	defer publisher.Close()

	engine := router.New(cfg, router.Dependencies{DB: db, Reports: reports, Publisher: publisher})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Port, "api": "/api/v1"})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogError(err, "Failed to start server")
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError(err, "HTTP server shutdown failed")
	}
	log.Info().Msg("Server stopped")
}
