package service

import (
	"strings"

	"distribuidora/internal/model"

	"github.com/shopspring/decimal"
)

// Códigos de política de pago.
const (
	PoliticaAnticipado    = "ANTICIPADO_100"
	PoliticaMedioMedio    = "MEDIO_MEDIO"
	PoliticaContraEntrega = "CONTRA_ENTREGA"
	PoliticaCredito       = "CREDITO"
)

// Politica describes how a payment policy maps to a cash movement.
// The table below is the only place these rules live.
type Politica struct {
	Codigo      string
	Descripcion string
	// siempre: a movement is recorded even when nothing was paid
	siempre bool
	// porTotal: the movement carries the sale total instead of the amount paid
	porTotal bool
}

var politicas = map[string]Politica{
	PoliticaAnticipado:    {Codigo: PoliticaAnticipado, Descripcion: "Pago anticipado 100%", siempre: true},
	PoliticaMedioMedio:    {Codigo: PoliticaMedioMedio, Descripcion: "50% anticipo, 50% contra entrega", siempre: true},
	PoliticaContraEntrega: {Codigo: PoliticaContraEntrega, Descripcion: "Pago contra entrega"},
	PoliticaCredito:       {Codigo: PoliticaCredito, Descripcion: "Venta a crédito", siempre: true, porTotal: true},
}

// DescribirPolitica returns the policy for a code. Unknown codes get the
// default rule: record a movement only when something was paid.
func DescribirPolitica(codigo string) Politica {
	codigo = strings.ToUpper(strings.TrimSpace(codigo))
	if p, ok := politicas[codigo]; ok {
		return p
	}
	return Politica{Codigo: codigo, Descripcion: "Política no reconocida"}
}

func (p Politica) EsCredito() bool { return p.porTotal }

// RequiereMovimiento reports whether a movement must be written.
func (p Politica) RequiereMovimiento(pagado decimal.Decimal) bool {
	return p.siempre || pagado.GreaterThan(decimal.Zero)
}

// MontoARegistrar returns the amount for the movement and false when no
// movement is required.
func (p Politica) MontoARegistrar(total, pagado decimal.Decimal) (decimal.Decimal, bool) {
	if !p.RequiereMovimiento(pagado) {
		return decimal.Zero, false
	}
	if p.porTotal {
		return total, true
	}
	return pagado, true
}

// CodigoOperacion is the TipoOperacion the movement is filed under.
func (p Politica) CodigoOperacion() string {
	if p.porTotal {
		return model.OperacionCredito
	}
	return model.OperacionVenta
}

func RequiereMovimiento(codigo string, pagado decimal.Decimal) bool {
	return DescribirPolitica(codigo).RequiereMovimiento(pagado)
}

func MontoARegistrar(codigo string, total, pagado decimal.Decimal) (decimal.Decimal, bool) {
	return DescribirPolitica(codigo).MontoARegistrar(total, pagado)
}

// DecisionPolitica bundles everything the engine needs to know about a sale.
type DecisionPolitica struct {
	Politica           Politica
	RequiereMovimiento bool
	Monto              decimal.Decimal
	CodigoOperacion    string
	RequiereCuenta     bool
}

func DecidirPolitica(codigo string, total, pagado decimal.Decimal) DecisionPolitica {
	p := DescribirPolitica(codigo)
	monto, requiere := p.MontoARegistrar(total, pagado)
	return DecisionPolitica{
		Politica:           p,
		RequiereMovimiento: requiere,
		Monto:              monto,
		CodigoOperacion:    p.CodigoOperacion(),
		RequiereCuenta:     p.EsCredito(),
	}
}
