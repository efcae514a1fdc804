package router

import (
	"context"
	"fmt"
	"time"

	"distribuidora/internal/config"
	"distribuidora/internal/repository"
	"distribuidora/internal/service"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Servicios is the service graph shared by the HTTP handlers, the worker
// pool and the overdue sweeper.
type Servicios struct {
	Catalogo     *service.CatalogoReferencias
	Auditoria    service.AuditoriaService
	Caja         service.CajaService
	Credito      service.CreditoService
	Conciliacion service.ConciliacionService
}

// NewServicios loads the reference catalog once and wires every service.
// Dependency graph: Service ← Repository ← DB; events leave through emisor.
func NewServicios(ctx context.Context, cfg *config.Config, db *gorm.DB, emisor service.Emisor) (*Servicios, error) {
	loc, err := time.LoadLocation(cfg.ZonaHoraria)
	if err != nil {
		return nil, fmt.Errorf("zona horaria %q: %w", cfg.ZonaHoraria, err)
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	cajaRepo := repository.NewCajaRepository(db)
	cuentaRepo := repository.NewCuentaRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	auditoriaRepo := repository.NewAuditoriaRepository(db)
	tipoRepo := repository.NewTipoOperacionRepository(db)

	catalogo, err := service.CargarCatalogo(ctx, tipoRepo,
		cfg.CreditoDiasVencimiento, decimal.NewFromInt(int64(cfg.CreditoUmbralCriticoPct)))
	if err != nil {
		return nil, fmt.Errorf("catalogo de referencias: %w", err)
	}

	// ── Services ─────────────────────────────────────────────────────────────
	auditoriaSvc := service.NewAuditoriaService(auditoriaRepo, time.Now)
	resolvedor := service.NewResolvedorSesion(cajaRepo, loc, time.Now)
	libro := service.NewLibroMovimientos(cajaRepo, resolvedor, catalogo, auditoriaSvc, time.Now)
	creditoSvc := service.NewCreditoService(cuentaRepo, clienteRepo, libro, catalogo, time.Now)
	cajaSvc := service.NewCajaService(cajaRepo, resolvedor, catalogo)
	conciliacionSvc := service.NewConciliacionService(resolvedor, libro, creditoSvc, auditoriaSvc, catalogo, emisor)

	return &Servicios{
		Catalogo:     catalogo,
		Auditoria:    auditoriaSvc,
		Caja:         cajaSvc,
		Credito:      creditoSvc,
		Conciliacion: conciliacionSvc,
	}, nil
}
