package worker

// vencimiento_cron.go
// Background goroutine that periodically moves open receivables past their
// due date to "vencida" and leaves one audit record per sweep that changed
// anything.

import (
	"context"
	"net/http"
	"time"

	"distribuidora/internal/model"
	"distribuidora/internal/service"

	"github.com/rs/zerolog/log"
)

const defaultVencimientoInterval = 5 * time.Minute

// VencimientoCronConfig holds all dependencies for the sweeper goroutine.
type VencimientoCronConfig struct {
	Credito   service.CreditoService
	Auditoria service.AuditoriaService
	Intervalo time.Duration
}

// StartVencimientoCron sweeps once at startup and then on every tick.
// It respects the context for graceful shutdown.
func StartVencimientoCron(ctx context.Context, cfg VencimientoCronConfig) {
	if cfg.Intervalo <= 0 {
		cfg.Intervalo = defaultVencimientoInterval
	}
	go func() {
		ticker := time.NewTicker(cfg.Intervalo)
		defer ticker.Stop()

		log.Info().Dur("intervalo", cfg.Intervalo).Msg("vencimiento_cron: started")
		barrerVencidas(ctx, cfg)

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("vencimiento_cron: shutting down")
				return
			case <-ticker.C:
				barrerVencidas(ctx, cfg)
			}
		}
	}()
}

func barrerVencidas(ctx context.Context, cfg VencimientoCronConfig) int64 {
	n, err := cfg.Credito.MarcarVencidas(ctx)
	if err != nil {
		log.Error().Err(err).Msg("vencimiento_cron: failed to mark overdue accounts")
		cfg.Auditoria.Registrar(ctx, service.EntradaAuditoria{
			Accion:             model.AccionCuentasVencidas,
			OperacionIntentada: "marcar cuentas vencidas",
			Exitoso:            false,
			CodigoResultado:    http.StatusInternalServerError,
			Err:                err,
		})
		return 0
	}
	if n == 0 {
		return 0
	}

	log.Info().Int64("cuentas", n).Msg("vencimiento_cron: cuentas marcadas como vencidas")
	cfg.Auditoria.Registrar(ctx, service.EntradaAuditoria{
		Accion:             model.AccionCuentasVencidas,
		OperacionIntentada: "marcar cuentas vencidas",
		Exitoso:            true,
		CodigoResultado:    http.StatusOK,
		Detalle:            map[string]any{"cuentas": n},
	})
	return n
}
