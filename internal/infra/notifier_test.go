package infra

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookNotifier_Enviar(t *testing.T) {
	var recibido NotificacionPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/eventos", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&recibido))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, time.Second, nil)
	err := n.Enviar(context.Background(), "credito.critico", json.RawMessage(`{"cliente_id":"c-1"}`))

	require.NoError(t, err)
	assert.Equal(t, "credito.critico", recibido.Evento)
	assert.JSONEq(t, `{"cliente_id":"c-1"}`, string(recibido.Payload))
	assert.NotEmpty(t, recibido.EmitidoEn)
}

func TestWebhookNotifier_ErrorDelGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, time.Second, nil)
	err := n.Enviar(context.Background(), "credito.pago_registrado", json.RawMessage(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Equal(t, CBClosed, n.Estado())
}

func TestWebhookNotifier_TimeoutAcotado(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, 50*time.Millisecond, nil)
	inicio := time.Now()
	err := n.Enviar(context.Background(), "caja.movimiento_registrado", json.RawMessage(`{}`))

	assert.Error(t, err)
	assert.Less(t, time.Since(inicio), 250*time.Millisecond)
}

func TestWebhookNotifier_BreakerCortaLlamadas(t *testing.T) {
	var llamadas int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&llamadas, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, OpenTimeout: time.Hour})
	n := NewWebhookNotifier(srv.URL, time.Second, cb)

	for i := 0; i < 5; i++ {
		_ = n.Enviar(context.Background(), "credito.pago_anulado", json.RawMessage(`{}`))
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&llamadas))
	assert.Equal(t, CBOpen, n.Estado())
	assert.ErrorIs(t, n.Enviar(context.Background(), "x", json.RawMessage(`{}`)), ErrCircuitOpen)
}
