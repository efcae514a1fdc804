// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// Machine-readable codes for the business rejections clients branch on.
const (
	CodigoSobrepago     = "SOBREPAGO"
	CodigoPagoAnulado   = "PAGO_YA_ANULADO"
	CodigoSinSesion     = "SIN_SESION_CAJA"
	CodigoNoEncontrado  = "NO_ENCONTRADO"
	CodigoMontoInvalido = "MONTO_INVALIDO"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
	Codigo string `json:"codigo,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// WithCodigo returns an error envelope carrying a machine-readable code.
func WithCodigo(codigo, msg string) *APIError {
	return &APIError{Detail: msg, Codigo: codigo}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}
