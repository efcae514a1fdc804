package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// NotificacionPayload is the body POSTed to the notification gateway, which
// fans it out to the connected WebSocket clients.
type NotificacionPayload struct {
	Evento    string          `json:"evento"`
	Payload   json.RawMessage `json:"payload"`
	EmitidoEn string          `json:"emitido_en"`
}

// WebhookNotifier delivers domain events to the notification gateway over
// HTTP. Each attempt is bounded by the client timeout and guarded by a
// circuit breaker so a dead gateway fails fast.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
	cb         *CircuitBreaker
}

func NewWebhookNotifier(url string, timeout time.Duration, cb *CircuitBreaker) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if cb == nil {
		cb = NewCircuitBreaker(DefaultCBConfig())
	}
	return &WebhookNotifier{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		cb:         cb,
	}
}

// Enviar performs one delivery attempt. Retries are the caller's concern.
func (n *WebhookNotifier) Enviar(ctx context.Context, evento string, payload json.RawMessage) error {
	body, err := json.Marshal(NotificacionPayload{
		Evento:    evento,
		Payload:   payload,
		EmitidoEn: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("notifier: marshal payload: %w", err)
	}

	return n.cb.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url+"/eventos", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("notifier: create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("notifier: gateway unreachable: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return fmt.Errorf("notifier: gateway returned %d", resp.StatusCode)
		}
		return nil
	})
}

// Estado exposes the breaker state for the health endpoint.
func (n *WebhookNotifier) Estado() CBState { return n.cb.State() }
