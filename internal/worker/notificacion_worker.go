package worker

// notificacion_worker.go
// Delivers domain events from QueueNotificaciones to the notification
// gateway, with a fixed number of attempts and exponential backoff.
// credito.critico is also sent by e-mail.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"distribuidora/internal/service"

	"github.com/rs/zerolog/log"
)

// Notificador is satisfied by infra.WebhookNotifier.
type Notificador interface {
	Enviar(ctx context.Context, evento string, payload json.RawMessage) error
}

// Alertador is satisfied by infra.Mailer.
type Alertador interface {
	EnviarAlerta(asunto, cuerpo string) error
}

// FalloProcesamiento is returned when every attempt failed.
type FalloProcesamiento struct {
	Intentos int
	Err      error
}

func (e *FalloProcesamiento) Error() string {
	return fmt.Sprintf("agotados %d intentos: %v", e.Intentos, e.Err)
}

func (e *FalloProcesamiento) Unwrap() error { return e.Err }

type NotificacionWorker struct {
	notifier   Notificador
	alertas    Alertador
	maxRetries int
	espera     time.Duration // base of the backoff: espera, 2*espera, 4*espera…
}

func NewNotificacionWorker(notifier Notificador, alertas Alertador, maxRetries int) *NotificacionWorker {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &NotificacionWorker{
		notifier:   notifier,
		alertas:    alertas,
		maxRetries: maxRetries,
		espera:     time.Second,
	}
}

func (w *NotificacionWorker) Process(ctx context.Context, job Job) error {
	if job.Type == service.EventoCreditoCritico {
		w.alertarPorEmail(job.Payload)
	}

	intentos := 0
	err := withRetry(ctx, w.maxRetries, w.espera, func(attempt int) error {
		intentos = attempt + 1
		err := w.notifier.Enviar(ctx, job.Type, job.Payload)
		if err != nil {
			log.Warn().Err(err).Str("evento", job.Type).Int("attempt", intentos).Msg("notificacion_worker: intento fallido")
		}
		return err
	})
	if err != nil {
		return &FalloProcesamiento{Intentos: intentos, Err: err}
	}
	return nil
}

func (w *NotificacionWorker) alertarPorEmail(raw json.RawMessage) {
	if w.alertas == nil {
		return
	}
	var p service.CreditoCriticoPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Error().Err(err).Msg("notificacion_worker: payload de crédito crítico inválido")
		return
	}
	asunto := fmt.Sprintf("Crédito crítico: cliente %s al %s%%", p.ClienteID, p.Porcentaje)
	cuerpo := fmt.Sprintf(
		"El cliente %s usa el %s%% de su límite de crédito.\nCrédito disponible: %s\n",
		p.ClienteID, p.Porcentaje, p.Disponible,
	)
	if err := w.alertas.EnviarAlerta(asunto, cuerpo); err != nil {
		log.Error().Err(err).Str("cliente_id", p.ClienteID).Msg("notificacion_worker: no se pudo enviar la alerta por email")
	}
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = base, 3 = 2*base.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, base time.Duration, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * base
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
