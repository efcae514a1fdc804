package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"distribuidora/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueConciliacion   = "jobs:conciliacion"
	QueueNotificaciones = "jobs:notificaciones"

	JobVentaCreada = "venta.creada"
)

// Colas lists every queue the pool consumes, in priority order.
var Colas = []string{QueueConciliacion, QueueNotificaciones}

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Enqueued string          `json:"enqueued_at"`
}

// Cola is the subset of the Redis client the producers need.
type Cola interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// Procesador handles one job. A returned error sends the job to the DLQ.
type Procesador interface {
	Process(ctx context.Context, job Job) error
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
// It also implements service.Emisor, so domain events leave the request path
// as soon as they are pushed.
type Dispatcher struct {
	rdb Cola
}

func NewDispatcher(rdb Cola) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EncolarVenta pushes a sale-created event for the conciliation workers.
func (d *Dispatcher) EncolarVenta(ctx context.Context, ev dto.VentaCreadaEvento) error {
	return d.enqueue(ctx, QueueConciliacion, JobVentaCreada, ev)
}

// Emitir pushes a domain event for the notification workers.
func (d *Dispatcher) Emitir(ctx context.Context, nombre string, payload any) error {
	return d.enqueue(ctx, QueueNotificaciones, nombre, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("dispatcher: marshal %s: %w", jobType, err)
	}
	encoded, err := json.Marshal(Job{
		Type:     jobType,
		Payload:  data,
		Enqueued: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Procesadores maps each queue to its handler.
type Procesadores map[string]Procesador

func (p Procesadores) colas() []string {
	colas := make([]string, 0, len(p))
	// Conciliation first: BRPOP serves keys in the order given.
	if _, ok := p[QueueConciliacion]; ok {
		colas = append(colas, QueueConciliacion)
	}
	for q := range p {
		if q != QueueConciliacion {
			colas = append(colas, q)
		}
	}
	return colas
}

// StartWorkerPool launches numWorkers goroutines consuming every queue in
// procesadores. Each goroutine blocks on BRPOP and uses no CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, numWorkers int, procesadores Procesadores) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, i, procesadores)
	}
	log.Info().Int("workers", numWorkers).Strs("queues", procesadores.colas()).Msg("worker pool started")
}

func runWorker(ctx context.Context, rdb *redis.Client, id int, procesadores Procesadores) {
	queues := procesadores.colas()
	for {
		select {
		case <-ctx.Done():
			log.Info().Int("worker", id).Msg("worker shutting down")
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, procesadores, result[0], result[1])
		}
	}
}

// processJob decodes and runs one job. Panics and handler errors are
// contained here so a bad job never takes a worker down.
func processJob(ctx context.Context, dlq Cola, procesadores Procesadores, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		crudo, _ := json.Marshal(raw)
		SendToDLQ(ctx, dlq, queue, "desconocido", crudo, "payload ilegible: "+err.Error(), 0)
		return
	}

	p, ok := procesadores[queue]
	if !ok {
		log.Error().Str("queue", queue).Str("type", job.Type).Msg("no processor for queue")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("queue", queue).Str("type", job.Type).Msg("worker: panic recuperado")
			SendToDLQ(ctx, dlq, queue, job.Type, job.Payload, fmt.Sprintf("panic: %v", r), 1)
		}
	}()

	if err := p.Process(ctx, job); err != nil {
		var fallo *FalloProcesamiento
		intentos := 1
		if errors.As(err, &fallo) {
			intentos = fallo.Intentos
		}
		SendToDLQ(ctx, dlq, queue, job.Type, job.Payload, err.Error(), intentos)
		return
	}
	log.Debug().Str("type", job.Type).Str("queue", queue).Msg("job processed")
}
