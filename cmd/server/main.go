package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"plate-watch/internal/config"
	"plate-watch/internal/db"
	httpapi "plate-watch/internal/http"
	"plate-watch/internal/imaging"
	"plate-watch/internal/notify"
	"plate-watch/internal/ocr"
	"plate-watch/internal/repository"
	"plate-watch/internal/service"
	"plate-watch/internal/storage"
	"plate-watch/internal/ws"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	gdb, err := db.Open(cfg.Database.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}

	images, err := storage.NewLocalStore(cfg.Uploads.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare uploads directory")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := ocr.NewEnginePool(cfg.OCR.PoolSize, cfg.OCR.Language, log)
	defer engine.Close()

	hub := ws.NewHub(log)
	go hub.Run(ctx)

	var sender service.Sender
	if cfg.Email.Enabled() {
		sender = notify.NewSMTPMailer(cfg.Email, log)
		log.Info().Str("host", cfg.Email.Host).Msg("email alert channel enabled")
	} else {
		log.Warn().Msg("email not configured, alerts go to the dashboard channel only")
	}

	repo := repository.NewPlateRepository(gdb)
	alerts := service.NewAlertService(repo, sender, cfg.Alerts, log)
	recognition := service.NewRecognitionService(imaging.NewNormalizer(log), engine, repo, hub, alerts, log)
	watchlist := service.NewWatchlistService(repo, log)
	auth := service.NewAuthService(cfg.Auth)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handler := httpapi.NewHandler(recognition, watchlist, auth, hub, images, cfg, log)
	handler.Register(router, httpapi.AuthMiddleware(cfg.Auth.JWTSecret))

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("plate-watch listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
