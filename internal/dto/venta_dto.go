package dto

import "github.com/shopspring/decimal"

// ─── Eventos entrantes ───────────────────────────────────────────────────────

// VentaCreadaEvento is published by the sales module once the sale has been
// committed. It is accepted by POST /v1/eventos/ventas and queued for the
// conciliation workers.
type VentaCreadaEvento struct {
	VentaID         string          `json:"venta_id"         validate:"required,uuid"`
	NumeroDocumento string          `json:"numero_documento" validate:"required,max=50"`
	ClienteID       string          `json:"cliente_id"       validate:"omitempty,uuid"`
	UsuarioID       string          `json:"usuario_id"       validate:"required,uuid"`
	PuntoDeVenta    *int            `json:"punto_de_venta"   validate:"omitempty,min=1"`
	PoliticaPago    string          `json:"politica_pago"    validate:"required,max=30"`
	Total           decimal.Decimal `json:"total"            validate:"min=0"`
	MontoPagado     decimal.Decimal `json:"monto_pagado"     validate:"min=0"`
	MetodoPagoID    *int            `json:"metodo_pago_id"`
	IP              string          `json:"ip,omitempty"`
	UserAgent       string          `json:"user_agent,omitempty"`
}

type EventoAceptadoResponse struct {
	VentaID string `json:"venta_id"`
	Estado  string `json:"estado"` // encolado
}
