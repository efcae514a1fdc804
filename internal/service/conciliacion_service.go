package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"distribuidora/internal/dto"
	"distribuidora/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ResultadoConciliacion summarizes what OnVentaCreada did for one sale.
type ResultadoConciliacion struct {
	Decision     DecisionPolitica
	Cuenta       *model.CuentaPorCobrar
	CuentaCreada bool
	Resolucion   *ResolucionSesion
	Movimiento   Resultado
}

// ConciliacionService orchestrates session resolution, the cash ledger and
// credit accounts for sale and payment events. The On* handlers run after the
// originating transaction committed and never return errors to it.
type ConciliacionService interface {
	OnVentaCreada(ctx context.Context, venta Venta, actor Actor) ResultadoConciliacion
	RegistrarPago(ctx context.Context, cuentaID uuid.UUID, req dto.RegistrarPagoRequest, actor Actor) (*dto.PagoResponse, error)
	AnularPago(ctx context.Context, pagoID uuid.UUID, motivo string, actor Actor) (*dto.PagoResponse, error)
	OnPagoRegistrado(ctx context.Context, pago *model.PagoCuenta, actor Actor) Resultado
	OnPagoAnulado(ctx context.Context, anulacion *AnulacionPago, actor Actor)
}

type conciliacionService struct {
	resolvedor ResolvedorSesion
	libro      LibroMovimientos
	credito    CreditoService
	auditoria  AuditoriaService
	catalogo   *CatalogoReferencias
	emisor     Emisor
}

func NewConciliacionService(
	resolvedor ResolvedorSesion,
	libro LibroMovimientos,
	credito CreditoService,
	auditoria AuditoriaService,
	catalogo *CatalogoReferencias,
	emisor Emisor,
) ConciliacionService {
	return &conciliacionService{
		resolvedor: resolvedor,
		libro:      libro,
		credito:    credito,
		auditoria:  auditoria,
		catalogo:   catalogo,
		emisor:     emisor,
	}
}

// ── OnVentaCreada ─────────────────────────────────────────────────────────────

func (s *conciliacionService) OnVentaCreada(ctx context.Context, venta Venta, actor Actor) (out ResultadoConciliacion) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			log.Error().Interface("panic", r).Str("venta_id", venta.ID.String()).Msg("conciliacion: panic recuperado")
			s.auditoria.Registrar(ctx, EntradaAuditoria{
				Actor:              actor,
				Accion:             model.AccionErrorConciliacion,
				OperacionIntentada: "conciliar venta",
				Exitoso:            false,
				CodigoResultado:    http.StatusInternalServerError,
				Detalle:            map[string]any{"venta_id": venta.ID.String()},
				Err:                err,
			})
			out.Movimiento = fallido("error inesperado", err)
		}
	}()

	decision := DecidirPolitica(venta.PoliticaPago, venta.Total, venta.MontoPagado)
	out.Decision = decision

	// 1. Cuenta por cobrar para ventas a crédito
	if decision.RequiereCuenta {
		out.Cuenta, out.CuentaCreada = s.crearCuenta(ctx, venta, actor)
	}

	// 2. Resolver la sesión de caja del operador
	res, err := s.resolvedor.Resolver(ctx, venta.UsuarioID, venta.PuntoDeVenta)
	if err != nil {
		log.Error().Err(err).Str("venta_id", venta.ID.String()).Msg("conciliacion: error resolviendo sesión de caja")
		s.auditoria.Registrar(ctx, EntradaAuditoria{
			Actor:              actor,
			Accion:             model.AccionErrorConciliacion,
			OperacionIntentada: "resolver sesión de caja",
			TipoOperacion:      decision.CodigoOperacion,
			CodigoResultado:    http.StatusInternalServerError,
			Detalle:            map[string]any{"venta_id": venta.ID.String()},
			Err:                err,
		})
		out.Movimiento = fallido("error resolviendo sesión", err)
		return out
	}
	out.Resolucion = res

	// 3. Sin caja abierta: resultado esperado, queda auditado
	if res == nil {
		detalle := map[string]any{
			"venta_id":     venta.ID.String(),
			"politica":     decision.Politica.Codigo,
			"total":        venta.Total.StringFixed(2),
			"monto_pagado": venta.MontoPagado.StringFixed(2),
		}
		if out.Cuenta != nil {
			detalle["cuenta_id"] = out.Cuenta.ID.String()
		}
		s.auditoria.Registrar(ctx, EntradaAuditoria{
			Actor:              actor,
			Accion:             model.AccionIntentoPagoSinCaja,
			OperacionIntentada: "registrar movimiento de venta",
			TipoOperacion:      decision.CodigoOperacion,
			Exitoso:            false,
			CodigoResultado:    http.StatusUnprocessableEntity,
			Detalle:            detalle,
			Err:                &SinSesionError{UsuarioID: venta.UsuarioID},
		})
		out.Movimiento = omitido("sin sesión de caja abierta")
		return out
	}

	// 4. Movimiento de caja según la política
	out.Movimiento = s.libro.Registrar(ctx, venta, res, decision, actor)
	if out.Movimiento.Estado == Exitoso {
		s.emitir(ctx, EventoMovimientoRegistrado, toMovimientoPayload(out.Movimiento.Movimiento))
	}
	return out
}

func (s *conciliacionService) crearCuenta(ctx context.Context, venta Venta, actor Actor) (*model.CuentaPorCobrar, bool) {
	cuenta, creada, err := s.credito.CrearCuenta(ctx, venta)
	if err != nil {
		log.Error().Err(err).Str("venta_id", venta.ID.String()).Msg("conciliacion: no se pudo crear la cuenta por cobrar")
		s.auditoria.Registrar(ctx, EntradaAuditoria{
			Actor:              actor,
			Accion:             model.AccionErrorConciliacion,
			OperacionIntentada: "crear cuenta por cobrar",
			TipoOperacion:      model.OperacionCredito,
			CodigoResultado:    CodigoHTTP(err),
			Detalle:            map[string]any{"venta_id": venta.ID.String()},
			Err:                err,
		})
		return nil, false
	}
	if !creada {
		return cuenta, false
	}

	s.emitir(ctx, EventoCuentaCreada, toCuentaResponse(cuenta))

	estado, err := s.credito.VerificarCritico(ctx, cuenta.ClienteID, s.catalogo.UmbralCritico())
	if err != nil {
		log.Warn().Err(err).Str("cliente_id", cuenta.ClienteID.String()).Msg("conciliacion: no se pudo verificar crédito crítico")
		return cuenta, true
	}
	if estado.Critico {
		s.emitir(ctx, EventoCreditoCritico, CreditoCriticoPayload{
			ClienteID:  cuenta.ClienteID.String(),
			Porcentaje: estado.Porcentaje.StringFixed(2),
			Disponible: estado.Disponible.StringFixed(2),
		})
	}
	return cuenta, true
}

// ── RegistrarPago ─────────────────────────────────────────────────────────────

func (s *conciliacionService) RegistrarPago(ctx context.Context, cuentaID uuid.UUID, req dto.RegistrarPagoRequest, actor Actor) (*dto.PagoResponse, error) {
	pago, err := s.credito.AplicarPago(ctx, cuentaID, req, actor)
	if err != nil {
		accion := model.AccionPagoRechazado
		if CodigoHTTP(err) == http.StatusInternalServerError {
			accion = model.AccionErrorConciliacion
		}
		s.auditoria.Registrar(ctx, EntradaAuditoria{
			Actor:              actor,
			Accion:             accion,
			OperacionIntentada: "registrar pago de crédito",
			TipoOperacion:      model.OperacionCobroCredito,
			CodigoResultado:    CodigoHTTP(err),
			Detalle: map[string]any{
				"cuenta_id":     cuentaID.String(),
				"monto":         req.Monto.StringFixed(2),
				"numero_recibo": req.NumeroRecibo,
			},
			Err: err,
		})
		return nil, err
	}

	// The payment is committed; the cash side must not depend on the caller
	// staying connected.
	ctx = context.WithoutCancel(ctx)

	s.auditoria.Registrar(ctx, EntradaAuditoria{
		Actor:              actor,
		Accion:             model.AccionPagoRegistrado,
		OperacionIntentada: "registrar pago de crédito",
		TipoOperacion:      model.OperacionCobroCredito,
		Exitoso:            true,
		CodigoResultado:    http.StatusCreated,
		Detalle: map[string]any{
			"cuenta_id":     cuentaID.String(),
			"pago_id":       pago.ID.String(),
			"monto":         pago.Monto.StringFixed(2),
			"numero_recibo": pago.NumeroRecibo,
		},
	})

	s.OnPagoRegistrado(ctx, pago, actor)
	resp := toPagoResponse(pago)
	return &resp, nil
}

// OnPagoRegistrado records the cash side of a committed payment. Best effort.
func (s *conciliacionService) OnPagoRegistrado(ctx context.Context, pago *model.PagoCuenta, actor Actor) (r Resultado) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("pago_id", pago.ID.String()).Msg("conciliacion: panic recuperado")
			r = fallido("error inesperado", fmt.Errorf("panic: %v", rec))
		}
	}()

	s.emitir(ctx, EventoPagoRegistrado, toPagoResponse(pago))

	puntoDeVenta := pago.PuntoDeVenta
	if puntoDeVenta == nil {
		puntoDeVenta = actor.PuntoDeVenta
	}
	res, err := s.resolvedor.Resolver(ctx, actor.UsuarioID, puntoDeVenta)
	if err != nil {
		log.Error().Err(err).Str("pago_id", pago.ID.String()).Msg("conciliacion: error resolviendo sesión de caja")
		s.auditoria.Registrar(ctx, EntradaAuditoria{
			Actor:              actor,
			Accion:             model.AccionErrorConciliacion,
			OperacionIntentada: "resolver sesión de caja",
			TipoOperacion:      model.OperacionCobroCredito,
			CodigoResultado:    http.StatusInternalServerError,
			Detalle:            map[string]any{"pago_id": pago.ID.String()},
			Err:                err,
		})
		return fallido("error resolviendo sesión", err)
	}
	if res == nil {
		s.auditoria.Registrar(ctx, EntradaAuditoria{
			Actor:              actor,
			Accion:             model.AccionIntentoPagoSinCaja,
			OperacionIntentada: "registrar cobro de crédito",
			TipoOperacion:      model.OperacionCobroCredito,
			Exitoso:            false,
			CodigoResultado:    http.StatusUnprocessableEntity,
			Detalle: map[string]any{
				"pago_id":   pago.ID.String(),
				"cuenta_id": pago.CuentaID.String(),
				"monto":     pago.Monto.StringFixed(2),
			},
			Err: &SinSesionError{UsuarioID: actor.UsuarioID},
		})
		return omitido("sin sesión de caja abierta")
	}

	r = s.libro.RegistrarCobro(ctx, pago, res, actor)
	if r.Estado == Exitoso {
		s.emitir(ctx, EventoMovimientoRegistrado, toMovimientoPayload(r.Movimiento))
	}
	return r
}

// ── AnularPago ────────────────────────────────────────────────────────────────

func (s *conciliacionService) AnularPago(ctx context.Context, pagoID uuid.UUID, motivo string, actor Actor) (*dto.PagoResponse, error) {
	anulacion, err := s.credito.AnularPago(ctx, pagoID, motivo, actor)
	if err != nil {
		accion := model.AccionPagoAnulado
		var sinSesion *SinSesionError
		if errors.As(err, &sinSesion) {
			accion = model.AccionIntentoPagoSinCaja
		}
		s.auditoria.Registrar(ctx, EntradaAuditoria{
			Actor:              actor,
			Accion:             accion,
			OperacionIntentada: "anular pago de crédito",
			TipoOperacion:      model.OperacionAnulacionCobro,
			Exitoso:            false,
			CodigoResultado:    CodigoHTTP(err),
			Detalle:            map[string]any{"pago_id": pagoID.String(), "motivo": motivo},
			Err:                err,
		})
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	detalle := map[string]any{
		"pago_id":   pagoID.String(),
		"cuenta_id": anulacion.Pago.CuentaID.String(),
		"monto":     anulacion.Pago.Monto.StringFixed(2),
		"motivo":    motivo,
	}
	var sesionID *uuid.UUID
	if anulacion.Compensacion != nil {
		detalle["movimiento_compensacion_id"] = anulacion.Compensacion.ID.String()
		sesionID = &anulacion.Compensacion.SesionCajaID
	}
	s.auditoria.Registrar(ctx, EntradaAuditoria{
		Actor:              actor,
		SesionCajaID:       sesionID,
		Accion:             model.AccionPagoAnulado,
		OperacionIntentada: "anular pago de crédito",
		TipoOperacion:      model.OperacionAnulacionCobro,
		Exitoso:            true,
		CodigoResultado:    http.StatusOK,
		Detalle:            detalle,
	})

	s.OnPagoAnulado(ctx, anulacion, actor)
	resp := toPagoResponse(anulacion.Pago)
	return &resp, nil
}

// OnPagoAnulado publishes the void and its compensating movement.
func (s *conciliacionService) OnPagoAnulado(ctx context.Context, anulacion *AnulacionPago, _ Actor) {
	s.emitir(ctx, EventoPagoAnulado, toPagoResponse(anulacion.Pago))
	if anulacion.Compensacion != nil {
		s.emitir(ctx, EventoMovimientoRegistrado, toMovimientoPayload(anulacion.Compensacion))
	}
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *conciliacionService) emitir(ctx context.Context, nombre string, payload any) {
	if s.emisor == nil {
		return
	}
	if err := s.emisor.Emitir(ctx, nombre, payload); err != nil {
		log.Warn().Err(err).Str("evento", nombre).Msg("conciliacion: no se pudo publicar el evento")
	}
}
