package service

import (
	"context"
	"time"

	"distribuidora/internal/dto"
	"distribuidora/internal/model"
	"distribuidora/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CajaService exposes read views over cash sessions. Opening and closing a
// register belong to the POS module.
type CajaService interface {
	SesionActiva(ctx context.Context, usuarioID uuid.UUID, puntoDeVenta *int) (*dto.SesionActivaResponse, error)
	ObtenerResumen(ctx context.Context, sesionID uuid.UUID) (*dto.ResumenSesionResponse, error)
}

type cajaService struct {
	repo       repository.CajaRepository
	resolvedor ResolvedorSesion
	catalogo   *CatalogoReferencias
}

func NewCajaService(repo repository.CajaRepository, resolvedor ResolvedorSesion, catalogo *CatalogoReferencias) CajaService {
	return &cajaService{repo: repo, resolvedor: resolvedor, catalogo: catalogo}
}

// ── SesionActiva ──────────────────────────────────────────────────────────────

func (s *cajaService) SesionActiva(ctx context.Context, usuarioID uuid.UUID, puntoDeVenta *int) (*dto.SesionActivaResponse, error) {
	res, err := s.resolvedor.Resolver(ctx, usuarioID, puntoDeVenta)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, ErrSesionNoEncontrada
	}
	return &dto.SesionActivaResponse{
		SesionCajaID: res.Sesion.ID.String(),
		PuntoDeVenta: res.Sesion.PuntoDeVenta,
		UsuarioID:    res.Sesion.UsuarioID.String(),
		OpenedAt:     res.Sesion.OpenedAt.Format(time.RFC3339),
		Estrategia:   string(res.Estrategia),
		Desfasada:    res.Desfasada,
	}, nil
}

// ── ObtenerResumen ────────────────────────────────────────────────────────────
// Running totals per operation type plus the session's movements in insertion
// order. Credit granted is listed but does not change the cash balance.

func (s *cajaService) ObtenerResumen(ctx context.Context, sesionID uuid.UUID) (*dto.ResumenSesionResponse, error) {
	sesion, err := s.repo.FindSesionByID(ctx, sesionID)
	if err != nil {
		return nil, err
	}
	if sesion == nil {
		return nil, ErrSesionNoEncontrada
	}

	sums, err := s.repo.SumMovimientosByTipo(ctx, sesionID)
	if err != nil {
		return nil, err
	}

	movs, err := s.repo.ListMovimientos(ctx, sesionID)
	if err != nil {
		return nil, err
	}

	ingresos, egresos := decimal.Zero, decimal.Zero
	for tipo, total := range sums {
		switch s.catalogo.Signo(tipo) {
		case model.SignoIngreso:
			ingresos = ingresos.Add(total)
		case model.SignoEgreso:
			egresos = egresos.Add(total)
		}
	}

	resumen := &dto.ResumenSesionResponse{
		SesionCajaID: sesion.ID.String(),
		PuntoDeVenta: sesion.PuntoDeVenta,
		Estado:       sesion.Estado,
		MontoInicial: sesion.MontoInicial,
		Ingresos:     ingresos,
		Egresos:      egresos,
		Saldo:        sesion.MontoInicial.Add(ingresos).Sub(egresos),
		PorTipo:      sums,
		Movimientos:  make([]dto.MovimientoResponse, 0, len(movs)),
		OpenedAt:     sesion.OpenedAt.Format(time.RFC3339),
	}
	for i := range movs {
		resumen.Movimientos = append(resumen.Movimientos, toMovimientoResponse(&movs[i]))
	}
	if sesion.ClosedAt != nil {
		t := sesion.ClosedAt.Format(time.RFC3339)
		resumen.ClosedAt = &t
	}
	return resumen, nil
}

func toMovimientoResponse(m *model.MovimientoCaja) dto.MovimientoResponse {
	r := dto.MovimientoResponse{
		ID:              m.ID.String(),
		TipoOperacion:   m.TipoOperacion,
		Monto:           m.Monto,
		NumeroDocumento: m.NumeroDocumento,
		UsuarioID:       m.UsuarioID.String(),
		CreatedAt:       m.CreatedAt.Format(time.RFC3339),
	}
	if m.ReferenciaID != nil {
		s := m.ReferenciaID.String()
		r.ReferenciaID = &s
	}
	if m.MovimientoOrigenID != nil {
		s := m.MovimientoOrigenID.String()
		r.MovimientoOrigenID = &s
	}
	return r
}
