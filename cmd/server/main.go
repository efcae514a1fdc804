package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"distribuidora/internal/config"
	"distribuidora/internal/infra"
	"distribuidora/internal/router"
	"distribuidora/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	configurarLogger(cfg)

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL, cfg.WorkerPoolSize)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Events leave through Redis; the engine never calls the gateway inline.
	dispatcher := worker.NewDispatcher(rdb)

	svcs, err := router.NewServicios(ctx, cfg, db, dispatcher)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to wire services")
	}

	notifCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	notifier := infra.NewWebhookNotifier(cfg.NotifierURL, time.Duration(cfg.NotifierTimeoutSeconds)*time.Second, notifCB)
	mailer := infra.NewMailer(cfg)
	if !mailer.Habilitado() {
		log.Warn().Msg("SMTP no configurado: las alertas de credito critico solo se notifican por webhook")
	}

	// Worker handlers are wired here (composition root) so that the pool
	// has full access to all infrastructure dependencies.
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, worker.Procesadores{
		worker.QueueConciliacion:   worker.NewConciliacionWorker(svcs.Conciliacion),
		worker.QueueNotificaciones: worker.NewNotificacionWorker(notifier, mailer, cfg.NotifierMaxRetries),
	})
	worker.StartVencimientoCron(ctx, worker.VencimientoCronConfig{
		Credito:   svcs.Credito,
		Auditoria: svcs.Auditoria,
		Intervalo: time.Duration(cfg.VencimientoCronSeconds) * time.Second,
	})

	r := router.New(cfg, router.Infra{
		DB:          db,
		Redis:       rdb,
		Notificador: notifier,
		Cola:        dispatcher,
	}, svcs)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("conciliacion backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel() // stop workers and the overdue sweeper
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	if err := rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close")
	}
	log.Info().Msg("server exited")
}

// configurarLogger: dev pretty console, prod JSON. LOG_LEVEL falls back to info.
func configurarLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
