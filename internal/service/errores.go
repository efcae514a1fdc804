package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrCuentaNoEncontrada  = errors.New("cuenta por cobrar no encontrada")
	ErrPagoNoEncontrado    = errors.New("pago no encontrado")
	ErrClienteNoEncontrado = errors.New("cliente no encontrado")
	ErrClienteRequerido    = errors.New("una venta a crédito requiere cliente_id")
	ErrSesionNoEncontrada  = errors.New("no hay sesión de caja abierta para el usuario")
	ErrMontoInvalido       = errors.New("el monto debe ser mayor a cero")
	ErrFiltroInvalido      = errors.New("filtro inválido")
)

// SobrepagoError is returned when a payment would leave the balance negative.
type SobrepagoError struct {
	CuentaID uuid.UUID
	Monto    decimal.Decimal
	Saldo    decimal.Decimal
}

func (e *SobrepagoError) Error() string {
	return fmt.Sprintf("el pago de %s excede el saldo pendiente de %s",
		e.Monto.StringFixed(2), e.Saldo.StringFixed(2))
}

// PagoYaAnuladoError is returned when voiding a payment a second time.
type PagoYaAnuladoError struct {
	PagoID uuid.UUID
}

func (e *PagoYaAnuladoError) Error() string {
	return fmt.Sprintf("el pago %s ya fue anulado", e.PagoID)
}

// ConfiguracionError signals missing reference data (e.g. an operation type
// that was never seeded). It is a setup problem, not a user error.
type ConfiguracionError struct {
	Clave string
}

func (e *ConfiguracionError) Error() string {
	return fmt.Sprintf("configuración incompleta: tipo de operación %q no existe", e.Clave)
}

// SinSesionError is returned when an operation needs an open cash session
// for the operator and none can be resolved.
type SinSesionError struct {
	UsuarioID uuid.UUID
}

func (e *SinSesionError) Error() string {
	return fmt.Sprintf("el usuario %s no tiene una sesión de caja abierta", e.UsuarioID)
}

// CodigoHTTP maps an error to the status code used both in API responses and
// in the audit trail.
func CodigoHTTP(err error) int {
	var (
		sobrepago *SobrepagoError
		anulado   *PagoYaAnuladoError
		sinSesion *SinSesionError
	)
	switch {
	case errors.As(err, &sobrepago), errors.As(err, &sinSesion),
		errors.Is(err, ErrMontoInvalido), errors.Is(err, ErrClienteRequerido):
		return http.StatusUnprocessableEntity
	case errors.As(err, &anulado):
		return http.StatusConflict
	case errors.Is(err, ErrFiltroInvalido):
		return http.StatusBadRequest
	case errors.Is(err, ErrCuentaNoEncontrada), errors.Is(err, ErrPagoNoEncontrado),
		errors.Is(err, ErrClienteNoEncontrado), errors.Is(err, ErrSesionNoEncontrada):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
