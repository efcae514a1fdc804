package worker

// conciliacion_worker.go
// Processes sale-created events from QueueConciliacion. Runs after the sale
// committed, on a worker goroutine, so nothing here can affect the sale.

import (
	"context"
	"encoding/json"
	"fmt"

	"distribuidora/internal/dto"
	"distribuidora/internal/service"

	"github.com/rs/zerolog/log"
)

type ConciliacionWorker struct {
	motor service.ConciliacionService
}

func NewConciliacionWorker(motor service.ConciliacionService) *ConciliacionWorker {
	return &ConciliacionWorker{motor: motor}
}

// Process only fails for undecodable payloads. Business outcomes, including
// contained failures, are already audited by the engine.
func (w *ConciliacionWorker) Process(ctx context.Context, job Job) error {
	var ev dto.VentaCreadaEvento
	if err := json.Unmarshal(job.Payload, &ev); err != nil {
		log.Error().Err(err).Msg("conciliacion_worker: invalid payload")
		return fmt.Errorf("payload inválido: %w", err)
	}
	venta, actor, err := service.VentaDesdeEvento(ev)
	if err != nil {
		log.Error().Err(err).Str("venta_id", ev.VentaID).Msg("conciliacion_worker: invalid event")
		return err
	}

	out := w.motor.OnVentaCreada(ctx, venta, actor)

	evt := log.Info()
	if out.Movimiento.Estado == service.FallidoContenido {
		evt = log.Warn().AnErr("causa", out.Movimiento.Err)
	}
	evt.
		Str("venta_id", venta.ID.String()).
		Str("politica", out.Decision.Politica.Codigo).
		Str("resultado", out.Movimiento.Estado.String()).
		Str("motivo", out.Movimiento.Motivo).
		Bool("cuenta_creada", out.CuentaCreada).
		Msg("conciliacion_worker: venta procesada")
	return nil
}
