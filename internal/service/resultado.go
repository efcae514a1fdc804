package service

import "distribuidora/internal/model"

// EstadoResultado classifies the outcome of a best-effort side effect.
type EstadoResultado int

const (
	Exitoso          EstadoResultado = iota // the side effect was applied
	OmitidoEsperado                         // skipped for a legitimate business reason
	FallidoContenido                        // failed; logged and audited, not propagated
)

func (e EstadoResultado) String() string {
	switch e {
	case Exitoso:
		return "exitoso"
	case OmitidoEsperado:
		return "omitido"
	case FallidoContenido:
		return "fallido"
	default:
		return "desconocido"
	}
}

// Resultado is what best-effort operations return instead of an error.
type Resultado struct {
	Estado     EstadoResultado
	Motivo     string
	Err        error
	Movimiento *model.MovimientoCaja
}

func exitoso(m *model.MovimientoCaja) Resultado {
	return Resultado{Estado: Exitoso, Movimiento: m}
}

func omitido(motivo string) Resultado {
	return Resultado{Estado: OmitidoEsperado, Motivo: motivo}
}

func fallido(motivo string, err error) Resultado {
	return Resultado{Estado: FallidoContenido, Motivo: motivo, Err: err}
}
