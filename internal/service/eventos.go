package service

import (
	"context"
	"time"

	"distribuidora/internal/dto"
	"distribuidora/internal/model"
)

// Nombres de eventos de dominio publicados para los notificadores externos.
const (
	EventoCuentaCreada         = "credito.cuenta_creada"
	EventoCreditoCritico       = "credito.critico"
	EventoPagoRegistrado       = "credito.pago_registrado"
	EventoPagoAnulado          = "credito.pago_anulado"
	EventoMovimientoRegistrado = "caja.movimiento_registrado"
)

// Emisor publishes a domain event. Implementations must not block for long;
// delivery and its retries happen elsewhere.
type Emisor interface {
	Emitir(ctx context.Context, nombre string, payload any) error
}

// CreditoCriticoPayload is the body of EventoCreditoCritico.
type CreditoCriticoPayload struct {
	ClienteID  string `json:"cliente_id"`
	Porcentaje string `json:"porcentaje"`
	Disponible string `json:"disponible"`
}

type MovimientoPayload struct {
	ID                 string  `json:"id"`
	SesionCajaID       string  `json:"sesion_caja_id"`
	UsuarioID          string  `json:"usuario_id"`
	TipoOperacion      string  `json:"tipo_operacion"`
	NumeroDocumento    string  `json:"numero_documento"`
	Monto              string  `json:"monto"`
	ReferenciaID       *string `json:"referencia_id"`
	MovimientoOrigenID *string `json:"movimiento_origen_id"`
	CreatedAt          string  `json:"created_at"`
}

func toMovimientoPayload(m *model.MovimientoCaja) MovimientoPayload {
	p := MovimientoPayload{
		ID:              m.ID.String(),
		SesionCajaID:    m.SesionCajaID.String(),
		UsuarioID:       m.UsuarioID.String(),
		TipoOperacion:   m.TipoOperacion,
		NumeroDocumento: m.NumeroDocumento,
		Monto:           m.Monto.StringFixed(2),
		CreatedAt:       m.CreatedAt.Format(time.RFC3339),
	}
	if m.ReferenciaID != nil {
		s := m.ReferenciaID.String()
		p.ReferenciaID = &s
	}
	if m.MovimientoOrigenID != nil {
		s := m.MovimientoOrigenID.String()
		p.MovimientoOrigenID = &s
	}
	return p
}

func toPagoResponse(p *model.PagoCuenta) dto.PagoResponse {
	r := dto.PagoResponse{
		ID:              p.ID.String(),
		CuentaID:        p.CuentaID.String(),
		Monto:           p.Monto,
		MetodoPagoID:    p.MetodoPagoID,
		NumeroRecibo:    p.NumeroRecibo,
		Estado:          p.Estado,
		MotivoAnulacion: p.MotivoAnulacion,
		PagadoEn:        p.PagadoEn.Format(time.RFC3339),
	}
	if p.AnuladoEn != nil {
		t := p.AnuladoEn.Format(time.RFC3339)
		r.AnuladoEn = &t
	}
	return r
}

func toCuentaResponse(c *model.CuentaPorCobrar) dto.CuentaResponse {
	r := dto.CuentaResponse{
		ID:               c.ID.String(),
		VentaID:          c.VentaID.String(),
		ClienteID:        c.ClienteID.String(),
		MontoOriginal:    c.MontoOriginal,
		SaldoPendiente:   c.SaldoPendiente,
		FechaVencimiento: c.FechaVencimiento.Format(time.RFC3339),
		Estado:           c.Estado,
		Pagos:            make([]dto.PagoResponse, 0, len(c.Pagos)),
	}
	for i := range c.Pagos {
		r.Pagos = append(r.Pagos, toPagoResponse(&c.Pagos[i]))
	}
	return r
}
