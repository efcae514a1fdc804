package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type RegistrarPagoRequest struct {
	Monto        decimal.Decimal `json:"monto"          validate:"required,gt=0"`
	MetodoPagoID *int            `json:"metodo_pago_id" validate:"omitempty,min=1"`
	NumeroRecibo string          `json:"numero_recibo"  validate:"required,max=50"`
	PuntoDeVenta *int            `json:"punto_de_venta" validate:"omitempty,min=1"`
}

type AnularPagoRequest struct {
	Motivo string `json:"motivo" validate:"required,min=3,max=255"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PagoResponse struct {
	ID              string          `json:"id"`
	CuentaID        string          `json:"cuenta_id"`
	Monto           decimal.Decimal `json:"monto"`
	MetodoPagoID    *int            `json:"metodo_pago_id"`
	NumeroRecibo    string          `json:"numero_recibo"`
	Estado          string          `json:"estado"` // registrado | anulado
	MotivoAnulacion *string         `json:"motivo_anulacion"`
	PagadoEn        string          `json:"pagado_en"`
	AnuladoEn       *string         `json:"anulado_en"`
}

type CuentaResponse struct {
	ID               string          `json:"id"`
	VentaID          string          `json:"venta_id"`
	ClienteID        string          `json:"cliente_id"`
	MontoOriginal    decimal.Decimal `json:"monto_original"`
	SaldoPendiente   decimal.Decimal `json:"saldo_pendiente"`
	FechaVencimiento string          `json:"fecha_vencimiento"`
	Estado           string          `json:"estado"` // abierta | pagada | vencida
	Pagos            []PagoResponse  `json:"pagos"`
}

type EstadoCreditoResponse struct {
	ClienteID     string          `json:"cliente_id"`
	LimiteCredito decimal.Decimal `json:"limite_credito"`
	SaldoTotal    decimal.Decimal `json:"saldo_total"`
	Porcentaje    decimal.Decimal `json:"porcentaje"`
	Disponible    decimal.Decimal `json:"disponible"`
	Umbral        decimal.Decimal `json:"umbral"`
	Critico       bool            `json:"critico"`
}
