package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"distribuidora/internal/dto"
	"distribuidora/internal/model"
	"distribuidora/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EntradaAuditoria is one attempted operation to be recorded.
type EntradaAuditoria struct {
	Actor              Actor
	SesionCajaID       *uuid.UUID
	Accion             string
	OperacionIntentada string
	TipoOperacion      string
	Exitoso            bool
	Detalle            map[string]any
	CodigoResultado    int
	Err                error
}

type AuditoriaService interface {
	// Registrar never fails the caller: persistence errors are logged only.
	Registrar(ctx context.Context, e EntradaAuditoria)
	Listar(ctx context.Context, filter dto.AuditoriaFilter) (*dto.AuditoriaListResponse, error)
}

type auditoriaService struct {
	repo  repository.AuditoriaRepository
	ahora func() time.Time
}

func NewAuditoriaService(repo repository.AuditoriaRepository, ahora func() time.Time) AuditoriaService {
	if ahora == nil {
		ahora = time.Now
	}
	return &auditoriaService{repo: repo, ahora: ahora}
}

// ── Registrar ─────────────────────────────────────────────────────────────────

func (s *auditoriaService) Registrar(ctx context.Context, e EntradaAuditoria) {
	detalle := "{}"
	if len(e.Detalle) > 0 {
		if b, err := json.Marshal(e.Detalle); err == nil {
			detalle = string(b)
		} else {
			log.Warn().Err(err).Str("accion", e.Accion).Msg("auditoria: detalle no serializable")
		}
	}

	reg := &model.RegistroAuditoria{
		ID:                 uuid.New(),
		UsuarioID:          e.Actor.UsuarioID,
		PuntoDeVenta:       e.Actor.PuntoDeVenta,
		SesionCajaID:       e.SesionCajaID,
		Accion:             e.Accion,
		OperacionIntentada: e.OperacionIntentada,
		TipoOperacion:      e.TipoOperacion,
		Exitoso:            e.Exitoso,
		Detalle:            detalle,
		CodigoResultado:    e.CodigoResultado,
		IP:                 e.Actor.IP,
		UserAgent:          e.Actor.UserAgent,
		CreatedAt:          s.ahora(),
	}
	if e.Err != nil {
		msg := e.Err.Error()
		reg.MensajeError = &msg
	}

	// Detached from the caller's cancellation so the trail survives request aborts.
	if err := s.repo.Create(context.WithoutCancel(ctx), reg); err != nil {
		log.Error().
			Err(err).
			Str("accion", e.Accion).
			Str("usuario_id", e.Actor.UsuarioID.String()).
			Bool("exitoso", e.Exitoso).
			Int("codigo_resultado", e.CodigoResultado).
			Msg("auditoria: no se pudo persistir el registro")
	}
}

// ── Listar ────────────────────────────────────────────────────────────────────

func (s *auditoriaService) Listar(ctx context.Context, filter dto.AuditoriaFilter) (*dto.AuditoriaListResponse, error) {
	f := repository.AuditoriaFiltro{
		Accion:  filter.Accion,
		Exitoso: filter.Exitoso,
		Page:    filter.Page,
		Limit:   filter.Limit,
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 50
	}
	if filter.UsuarioID != "" {
		id, err := uuid.Parse(filter.UsuarioID)
		if err != nil {
			return nil, fmt.Errorf("%w: usuario_id: %v", ErrFiltroInvalido, err)
		}
		f.UsuarioID = &id
	}
	if filter.SesionCajaID != "" {
		id, err := uuid.Parse(filter.SesionCajaID)
		if err != nil {
			return nil, fmt.Errorf("%w: sesion_caja_id: %v", ErrFiltroInvalido, err)
		}
		f.SesionCajaID = &id
	}
	if filter.Desde != "" {
		t, err := time.Parse("2006-01-02", filter.Desde)
		if err != nil {
			return nil, fmt.Errorf("%w: desde (YYYY-MM-DD): %v", ErrFiltroInvalido, err)
		}
		f.Desde = &t
	}
	if filter.Hasta != "" {
		t, err := time.Parse("2006-01-02", filter.Hasta)
		if err != nil {
			return nil, fmt.Errorf("%w: hasta (YYYY-MM-DD): %v", ErrFiltroInvalido, err)
		}
		t = t.AddDate(0, 0, 1)
		f.Hasta = &t
	}

	registros, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}

	resp := &dto.AuditoriaListResponse{
		Data:  make([]dto.RegistroAuditoriaResponse, 0, len(registros)),
		Total: total,
		Page:  f.Page,
		Limit: f.Limit,
	}
	for _, r := range registros {
		detalle := r.Detalle
		if detalle == "" {
			detalle = "{}"
		}
		item := dto.RegistroAuditoriaResponse{
			ID:                 r.ID.String(),
			UsuarioID:          r.UsuarioID.String(),
			PuntoDeVenta:       r.PuntoDeVenta,
			Accion:             r.Accion,
			OperacionIntentada: r.OperacionIntentada,
			TipoOperacion:      r.TipoOperacion,
			Exitoso:            r.Exitoso,
			Detalle:            json.RawMessage(detalle),
			CodigoResultado:    r.CodigoResultado,
			MensajeError:       r.MensajeError,
			IP:                 r.IP,
			UserAgent:          r.UserAgent,
			CreatedAt:          r.CreatedAt.Format(time.RFC3339),
		}
		if r.SesionCajaID != nil {
			sid := r.SesionCajaID.String()
			item.SesionCajaID = &sid
		}
		resp.Data = append(resp.Data, item)
	}
	return resp, nil
}
