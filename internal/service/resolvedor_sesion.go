package service

import (
	"context"
	"time"

	"distribuidora/internal/model"
	"distribuidora/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EstrategiaResolucion records which fallback step found the session.
type EstrategiaResolucion string

const (
	EstrategiaPDVHoy     EstrategiaResolucion = "pdv_hoy"
	EstrategiaUsuarioHoy EstrategiaResolucion = "usuario_hoy"
	EstrategiaDesfasada  EstrategiaResolucion = "desfasada"
)

// ResolucionSesion is a found session plus how it was found.
type ResolucionSesion struct {
	Sesion     *model.SesionCaja
	Estrategia EstrategiaResolucion
	// Desfasada: the session was opened before today and never closed.
	Desfasada bool
}

// ResolvedorSesion locates the open cash session an operator's movements go to.
// Resolver returns (nil, nil) when the operator has no open session at all;
// that is a business outcome, not an error.
type ResolvedorSesion interface {
	Resolver(ctx context.Context, usuarioID uuid.UUID, puntoDeVenta *int) (*ResolucionSesion, error)
}

type resolvedorSesion struct {
	repo  repository.CajaRepository
	loc   *time.Location
	ahora func() time.Time
}

func NewResolvedorSesion(repo repository.CajaRepository, loc *time.Location, ahora func() time.Time) ResolvedorSesion {
	if loc == nil {
		loc = time.Local
	}
	if ahora == nil {
		ahora = time.Now
	}
	return &resolvedorSesion{repo: repo, loc: loc, ahora: ahora}
}

// Resolver applies, in order:
//  1. open session on the given register for the operator, opened today
//  2. any open session of the operator opened today, most recent first
//  3. the operator's most recent open session of any date (flagged desfasada)
//
// There is no limit on how old the session in step 3 may be.
func (r *resolvedorSesion) Resolver(ctx context.Context, usuarioID uuid.UUID, puntoDeVenta *int) (*ResolucionSesion, error) {
	hoy := r.inicioDelDia()

	if puntoDeVenta != nil {
		s, err := r.repo.BuscarSesionAbierta(ctx, repository.SesionFiltro{
			UsuarioID:    usuarioID,
			PuntoDeVenta: puntoDeVenta,
			Desde:        &hoy,
		})
		if err != nil {
			return nil, err
		}
		if s != nil {
			return &ResolucionSesion{Sesion: s, Estrategia: EstrategiaPDVHoy}, nil
		}
	}

	s, err := r.repo.BuscarSesionAbierta(ctx, repository.SesionFiltro{UsuarioID: usuarioID, Desde: &hoy})
	if err != nil {
		return nil, err
	}
	if s != nil {
		return &ResolucionSesion{Sesion: s, Estrategia: EstrategiaUsuarioHoy}, nil
	}

	s, err = r.repo.BuscarSesionAbierta(ctx, repository.SesionFiltro{UsuarioID: usuarioID})
	if err != nil {
		return nil, err
	}
	if s != nil {
		log.Warn().
			Str("usuario_id", usuarioID.String()).
			Str("sesion_caja_id", s.ID.String()).
			Time("opened_at", s.OpenedAt).
			Msg("resolvedor: usando sesión de caja de un día anterior sin cerrar")
		return &ResolucionSesion{Sesion: s, Estrategia: EstrategiaDesfasada, Desfasada: true}, nil
	}

	return nil, nil
}

func (r *resolvedorSesion) inicioDelDia() time.Time {
	now := r.ahora().In(r.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, r.loc)
}
