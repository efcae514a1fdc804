package service

import (
	"context"
	"fmt"

	"distribuidora/internal/model"
	"distribuidora/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// tiposRequeridos must exist in tipos_operacion for the ledger to work.
var tiposRequeridos = []string{
	model.OperacionVenta,
	model.OperacionCredito,
	model.OperacionCobroCredito,
	model.OperacionAnulacionCobro,
}

// CatalogoReferencias is the read-only reference data loaded once at startup:
// operation types plus the fixed credit parameters.
type CatalogoReferencias struct {
	tipos           map[string]model.TipoOperacion
	diasVencimiento int
	umbralCritico   decimal.Decimal
}

func NewCatalogoReferencias(tipos []model.TipoOperacion, diasVencimiento int, umbralCritico decimal.Decimal) *CatalogoReferencias {
	m := make(map[string]model.TipoOperacion, len(tipos))
	for _, t := range tipos {
		m[t.Codigo] = t
	}
	if diasVencimiento <= 0 {
		diasVencimiento = 7
	}
	if umbralCritico.LessThanOrEqual(decimal.Zero) {
		umbralCritico = decimal.NewFromInt(80)
	}
	return &CatalogoReferencias{tipos: m, diasVencimiento: diasVencimiento, umbralCritico: umbralCritico}
}

// CargarCatalogo reads tipos_operacion. Missing codes are reported but do not
// stop startup; the ledger reports them per operation as ConfiguracionError.
func CargarCatalogo(ctx context.Context, repo repository.TipoOperacionRepository, diasVencimiento int, umbralCritico decimal.Decimal) (*CatalogoReferencias, error) {
	tipos, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("cargar tipos de operación: %w", err)
	}
	c := NewCatalogoReferencias(tipos, diasVencimiento, umbralCritico)
	if faltan := c.Faltantes(); len(faltan) > 0 {
		log.Error().Strs("faltantes", faltan).Msg("catalogo: tipos de operación sin sembrar (ejecutar cmd/seedref)")
	}
	return c, nil
}

func (c *CatalogoReferencias) TipoOperacion(codigo string) (model.TipoOperacion, error) {
	t, ok := c.tipos[codigo]
	if !ok {
		return model.TipoOperacion{}, &ConfiguracionError{Clave: codigo}
	}
	return t, nil
}

// Signo returns the direction of a type, "" when unknown.
func (c *CatalogoReferencias) Signo(codigo string) string {
	return c.tipos[codigo].Signo
}

func (c *CatalogoReferencias) DiasVencimiento() int { return c.diasVencimiento }

func (c *CatalogoReferencias) UmbralCritico() decimal.Decimal { return c.umbralCritico }

func (c *CatalogoReferencias) Faltantes() []string {
	var faltan []string
	for _, codigo := range tiposRequeridos {
		if _, ok := c.tipos[codigo]; !ok {
			faltan = append(faltan, codigo)
		}
	}
	return faltan
}
