package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"distribuidora/internal/model"
	"distribuidora/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LibroMovimientos writes cash movements against a resolved session.
// Registrar and RegistrarCobro never return errors: every failure ends up in
// the audit trail and in the returned Resultado.
type LibroMovimientos interface {
	Registrar(ctx context.Context, venta Venta, res *ResolucionSesion, decision DecisionPolitica, actor Actor) Resultado
	RegistrarCobro(ctx context.Context, pago *model.PagoCuenta, res *ResolucionSesion, actor Actor) Resultado
	// CompensarTx inserts the reversing entry for the cash movement of a
	// payment, inside the caller's transaction. It is a no-op when the payment
	// never produced a movement or was already compensated.
	CompensarTx(ctx context.Context, tx *gorm.DB, pago *model.PagoCuenta, actor Actor) (*model.MovimientoCaja, error)
}

type libroMovimientos struct {
	repo       repository.CajaRepository
	resolvedor ResolvedorSesion
	catalogo   *CatalogoReferencias
	auditoria  AuditoriaService
	ahora      func() time.Time
}

func NewLibroMovimientos(
	repo repository.CajaRepository,
	resolvedor ResolvedorSesion,
	catalogo *CatalogoReferencias,
	auditoria AuditoriaService,
	ahora func() time.Time,
) LibroMovimientos {
	if ahora == nil {
		ahora = time.Now
	}
	return &libroMovimientos{
		repo:       repo,
		resolvedor: resolvedor,
		catalogo:   catalogo,
		auditoria:  auditoria,
		ahora:      ahora,
	}
}

// asiento is the input shared by sale and payment movements.
type asiento struct {
	codigo          string
	referenciaID    uuid.UUID
	numeroDocumento string
	monto           decimal.Decimal
	metodoPagoID    *int
	descripcion     string
	operacion       string
	detalle         map[string]any
}

// ── Registrar ─────────────────────────────────────────────────────────────────

func (l *libroMovimientos) Registrar(ctx context.Context, venta Venta, res *ResolucionSesion, decision DecisionPolitica, actor Actor) Resultado {
	if !decision.RequiereMovimiento {
		l.auditoria.Registrar(ctx, EntradaAuditoria{
			Actor:              actor,
			SesionCajaID:       &res.Sesion.ID,
			Accion:             model.AccionMovimientoOmitido,
			OperacionIntentada: "registrar movimiento de venta",
			TipoOperacion:      decision.CodigoOperacion,
			Exitoso:            true,
			CodigoResultado:    http.StatusNoContent,
			Detalle: map[string]any{
				"venta_id":     venta.ID.String(),
				"politica":     decision.Politica.Codigo,
				"monto_pagado": venta.MontoPagado.StringFixed(2),
			},
		})
		return omitido("la política de pago no requiere movimiento")
	}

	return l.registrar(ctx, res, actor, asiento{
		codigo:          decision.CodigoOperacion,
		referenciaID:    venta.ID,
		numeroDocumento: venta.NumeroDocumento,
		monto:           decision.Monto,
		metodoPagoID:    venta.MetodoPagoID,
		descripcion:     fmt.Sprintf("Venta %s (%s)", venta.NumeroDocumento, decision.Politica.Descripcion),
		operacion:       "registrar movimiento de venta",
		detalle: map[string]any{
			"venta_id":     venta.ID.String(),
			"politica":     decision.Politica.Codigo,
			"total":        venta.Total.StringFixed(2),
			"monto_pagado": venta.MontoPagado.StringFixed(2),
		},
	})
}

// ── RegistrarCobro ────────────────────────────────────────────────────────────

func (l *libroMovimientos) RegistrarCobro(ctx context.Context, pago *model.PagoCuenta, res *ResolucionSesion, actor Actor) Resultado {
	return l.registrar(ctx, res, actor, asiento{
		codigo:          model.OperacionCobroCredito,
		referenciaID:    pago.ID,
		numeroDocumento: pago.NumeroRecibo,
		monto:           pago.Monto,
		metodoPagoID:    pago.MetodoPagoID,
		descripcion:     fmt.Sprintf("Cobro de crédito, recibo %s", pago.NumeroRecibo),
		operacion:       "registrar cobro de crédito",
		detalle: map[string]any{
			"pago_id":   pago.ID.String(),
			"cuenta_id": pago.CuentaID.String(),
		},
	})
}

func (l *libroMovimientos) registrar(ctx context.Context, res *ResolucionSesion, actor Actor, a asiento) Resultado {
	sesionID := res.Sesion.ID
	detalle := a.detalle
	detalle["monto"] = a.monto.StringFixed(2)
	detalle["estrategia_sesion"] = string(res.Estrategia)
	detalle["sesion_desfasada"] = res.Desfasada

	entrada := EntradaAuditoria{
		Actor:              actor,
		SesionCajaID:       &sesionID,
		OperacionIntentada: a.operacion,
		TipoOperacion:      a.codigo,
		Detalle:            detalle,
	}

	existente, err := l.repo.FindMovimientoPorReferencia(ctx, nil, a.referenciaID, a.codigo)
	if err != nil {
		return l.fallar(ctx, entrada, model.AccionErrorConciliacion, "no se pudo verificar duplicados", err)
	}
	if existente != nil {
		log.Info().
			Str("referencia_id", a.referenciaID.String()).
			Str("movimiento_id", existente.ID.String()).
			Msg("libro: movimiento ya registrado, se omite")
		r := omitido("movimiento ya registrado")
		r.Movimiento = existente
		return r
	}

	tipo, err := l.catalogo.TipoOperacion(a.codigo)
	if err != nil {
		log.Error().
			Err(err).
			Str("severity", "fatal_contained").
			Str("tipo_operacion", a.codigo).
			Str("referencia_id", a.referenciaID.String()).
			Msg("libro: tipo de operación inexistente")
		return l.fallar(ctx, entrada, model.AccionErrorConfiguracion, "tipo de operación no configurado", err)
	}

	mov := &model.MovimientoCaja{
		ID:              uuid.New(),
		SesionCajaID:    sesionID,
		UsuarioID:       actor.UsuarioID,
		TipoOperacionID: tipo.ID,
		TipoOperacion:   tipo.Codigo,
		MetodoPagoID:    a.metodoPagoID,
		NumeroDocumento: a.numeroDocumento,
		Monto:           a.monto,
		Descripcion:     a.descripcion,
		ReferenciaID:    &a.referenciaID,
		CreatedAt:       l.ahora(),
	}
	if err := l.repo.CreateMovimiento(ctx, nil, mov); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Concurrent delivery of the same event won the insert.
			return omitido("movimiento ya registrado")
		}
		log.Error().Err(err).Str("referencia_id", a.referenciaID.String()).Msg("libro: no se pudo insertar el movimiento")
		return l.fallar(ctx, entrada, model.AccionErrorConciliacion, "error al insertar movimiento", err)
	}

	detalle["movimiento_id"] = mov.ID.String()
	entrada.Accion = model.AccionMovimientoRegistrado
	entrada.Exitoso = true
	entrada.CodigoResultado = http.StatusCreated
	l.auditoria.Registrar(ctx, entrada)

	return exitoso(mov)
}

func (l *libroMovimientos) fallar(ctx context.Context, e EntradaAuditoria, accion, motivo string, err error) Resultado {
	e.Accion = accion
	e.Exitoso = false
	e.CodigoResultado = http.StatusInternalServerError
	e.Err = err
	l.auditoria.Registrar(ctx, e)
	return fallido(motivo, err)
}

// ── CompensarTx ───────────────────────────────────────────────────────────────
// The reversing entry goes to the original session while it is still open,
// otherwise to the session the voiding operator is working on now.

func (l *libroMovimientos) CompensarTx(ctx context.Context, tx *gorm.DB, pago *model.PagoCuenta, actor Actor) (*model.MovimientoCaja, error) {
	origen, err := l.repo.FindMovimientoPorReferencia(ctx, tx, pago.ID, model.OperacionCobroCredito)
	if err != nil {
		return nil, err
	}
	if origen == nil {
		return nil, nil
	}
	previa, err := l.repo.FindCompensacion(ctx, tx, origen.ID)
	if err != nil {
		return nil, err
	}
	if previa != nil {
		return previa, nil
	}

	tipo, err := l.catalogo.TipoOperacion(model.OperacionAnulacionCobro)
	if err != nil {
		log.Error().Err(err).Str("severity", "fatal_contained").Str("pago_id", pago.ID.String()).
			Msg("libro: no se puede compensar el cobro")
		return nil, err
	}

	sesionID, err := l.sesionParaCompensar(ctx, origen, actor)
	if err != nil {
		return nil, err
	}

	origenID := origen.ID
	comp := &model.MovimientoCaja{
		ID:                 uuid.New(),
		SesionCajaID:       sesionID,
		UsuarioID:          actor.UsuarioID,
		TipoOperacionID:    tipo.ID,
		TipoOperacion:      tipo.Codigo,
		MetodoPagoID:       origen.MetodoPagoID,
		NumeroDocumento:    origen.NumeroDocumento,
		Monto:              origen.Monto,
		Descripcion:        fmt.Sprintf("Anulación de cobro, recibo %s", pago.NumeroRecibo),
		ReferenciaID:       &pago.ID,
		MovimientoOrigenID: &origenID,
		CreatedAt:          l.ahora(),
	}
	if err := l.repo.CreateMovimiento(ctx, tx, comp); err != nil {
		return nil, fmt.Errorf("insertar compensación: %w", err)
	}
	return comp, nil
}

func (l *libroMovimientos) sesionParaCompensar(ctx context.Context, origen *model.MovimientoCaja, actor Actor) (uuid.UUID, error) {
	sesion, err := l.repo.FindSesionByID(ctx, origen.SesionCajaID)
	if err != nil {
		return uuid.Nil, err
	}
	if sesion != nil && sesion.Abierta() {
		return sesion.ID, nil
	}
	res, err := l.resolvedor.Resolver(ctx, actor.UsuarioID, actor.PuntoDeVenta)
	if err != nil {
		return uuid.Nil, err
	}
	if res == nil {
		return uuid.Nil, &SinSesionError{UsuarioID: actor.UsuarioID}
	}
	return res.Sesion.ID, nil
}
