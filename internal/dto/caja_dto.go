package dto

import "github.com/shopspring/decimal"

// ─── Response DTOs ───────────────────────────────────────────────────────────

// SesionActivaResponse previews which session the resolver would pick for
// the authenticated operator.
type SesionActivaResponse struct {
	SesionCajaID string `json:"sesion_caja_id"`
	PuntoDeVenta int    `json:"punto_de_venta"`
	UsuarioID    string `json:"usuario_id"`
	OpenedAt     string `json:"opened_at"`
	Estrategia   string `json:"estrategia"` // pdv_hoy | usuario_hoy | desfasada
	Desfasada    bool   `json:"desfasada"`
}

type MovimientoResponse struct {
	ID                 string          `json:"id"`
	TipoOperacion      string          `json:"tipo_operacion"`
	Monto              decimal.Decimal `json:"monto"`
	NumeroDocumento    string          `json:"numero_documento"`
	ReferenciaID       *string         `json:"referencia_id"`
	MovimientoOrigenID *string         `json:"movimiento_origen_id"`
	UsuarioID          string          `json:"usuario_id"`
	CreatedAt          string          `json:"created_at"`
}

type ResumenSesionResponse struct {
	SesionCajaID string                     `json:"sesion_caja_id"`
	PuntoDeVenta int                        `json:"punto_de_venta"`
	Estado       string                     `json:"estado"`
	MontoInicial decimal.Decimal            `json:"monto_inicial"`
	Ingresos     decimal.Decimal            `json:"ingresos"`
	Egresos      decimal.Decimal            `json:"egresos"`
	Saldo        decimal.Decimal            `json:"saldo"`
	PorTipo      map[string]decimal.Decimal `json:"por_tipo"`
	Movimientos  []MovimientoResponse       `json:"movimientos"`
	OpenedAt     string                     `json:"opened_at"`
	ClosedAt     *string                    `json:"closed_at"`
}
