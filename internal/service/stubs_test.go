package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"distribuidora/internal/model"
	"distribuidora/internal/repository"
	"distribuidora/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory CajaRepository ─────────────────────────────────────────────────

type memCajaRepo struct {
	mu          sync.Mutex
	sesiones    map[uuid.UUID]*model.SesionCaja
	movimientos []model.MovimientoCaja
	failCreate  error
}

var _ repository.CajaRepository = (*memCajaRepo)(nil)

func newMemCajaRepo() *memCajaRepo {
	return &memCajaRepo{sesiones: make(map[uuid.UUID]*model.SesionCaja)}
}

func (r *memCajaRepo) DB() *gorm.DB { return nil }

func (r *memCajaRepo) abrir(usuarioID uuid.UUID, pdv int, openedAt time.Time) *model.SesionCaja {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &model.SesionCaja{
		ID:           uuid.New(),
		PuntoDeVenta: pdv,
		UsuarioID:    usuarioID,
		MontoInicial: decimal.NewFromInt(100),
		Estado:       model.SesionAbierta,
		OpenedAt:     openedAt,
	}
	r.sesiones[s.ID] = s
	return s
}

func (r *memCajaRepo) cerrar(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sesiones[id].Estado = model.SesionCerrada
}

func (r *memCajaRepo) BuscarSesionAbierta(ctx context.Context, f repository.SesionFiltro) (*model.SesionCaja, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var candidatas []*model.SesionCaja
	for _, s := range r.sesiones {
		if s.UsuarioID != f.UsuarioID || s.Estado != model.SesionAbierta {
			continue
		}
		if f.PuntoDeVenta != nil && s.PuntoDeVenta != *f.PuntoDeVenta {
			continue
		}
		if f.Desde != nil && s.OpenedAt.Before(*f.Desde) {
			continue
		}
		candidatas = append(candidatas, s)
	}
	if len(candidatas) == 0 {
		return nil, nil
	}
	sort.Slice(candidatas, func(i, j int) bool { return candidatas[i].OpenedAt.After(candidatas[j].OpenedAt) })
	cp := *candidatas[0]
	return &cp, nil
}

func (r *memCajaRepo) FindSesionByID(_ context.Context, id uuid.UUID) (*model.SesionCaja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sesiones[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *memCajaRepo) CreateMovimiento(ctx context.Context, _ *gorm.DB, m *model.MovimientoCaja) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *memCajaRepo) FindMovimientoPorReferencia(ctx context.Context, _ *gorm.DB, referenciaID uuid.UUID, tipo string) (*model.MovimientoCaja, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.movimientos {
		m := r.movimientos[i]
		if m.ReferenciaID != nil && *m.ReferenciaID == referenciaID && m.TipoOperacion == tipo && m.MovimientoOrigenID == nil {
			return &m, nil
		}
	}
	return nil, nil
}

func (r *memCajaRepo) FindCompensacion(_ context.Context, _ *gorm.DB, origenID uuid.UUID) (*model.MovimientoCaja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.movimientos {
		m := r.movimientos[i]
		if m.MovimientoOrigenID != nil && *m.MovimientoOrigenID == origenID {
			return &m, nil
		}
	}
	return nil, nil
}

func (r *memCajaRepo) ListMovimientos(_ context.Context, sesionID uuid.UUID) ([]model.MovimientoCaja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.MovimientoCaja
	for _, m := range r.movimientos {
		if m.SesionCajaID == sesionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memCajaRepo) SumMovimientosByTipo(_ context.Context, sesionID uuid.UUID) (map[string]decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sums := map[string]decimal.Decimal{}
	for _, m := range r.movimientos {
		if m.SesionCajaID == sesionID {
			sums[m.TipoOperacion] = sums[m.TipoOperacion].Add(m.Monto)
		}
	}
	return sums, nil
}

func (r *memCajaRepo) todos() []model.MovimientoCaja {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.MovimientoCaja(nil), r.movimientos...)
}

// ── In-memory CuentaRepository ───────────────────────────────────────────────
// Every method holds the mutex, which gives the conditional updates the same
// all-or-nothing behaviour as the SQL guards.

type memCuentaRepo struct {
	mu      sync.Mutex
	cuentas map[uuid.UUID]*model.CuentaPorCobrar
	pagos   map[uuid.UUID]*model.PagoCuenta

	// trasCrearPago runs once the payment row is stored, outside the lock.
	trasCrearPago func()
}

var _ repository.CuentaRepository = (*memCuentaRepo)(nil)

func newMemCuentaRepo() *memCuentaRepo {
	return &memCuentaRepo{
		cuentas: make(map[uuid.UUID]*model.CuentaPorCobrar),
		pagos:   make(map[uuid.UUID]*model.PagoCuenta),
	}
}

func (r *memCuentaRepo) DB() *gorm.DB { return nil }

func (r *memCuentaRepo) Create(_ context.Context, _ *gorm.DB, c *model.CuentaPorCobrar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existente := range r.cuentas {
		if existente.VentaID == c.VentaID {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *c
	r.cuentas[c.ID] = &cp
	return nil
}

func (r *memCuentaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CuentaPorCobrar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cuentas[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	cp.Pagos = nil
	for _, p := range r.pagos {
		if p.CuentaID == id {
			cp.Pagos = append(cp.Pagos, *p)
		}
	}
	return &cp, nil
}

func (r *memCuentaRepo) FindByVentaID(_ context.Context, _ *gorm.DB, ventaID uuid.UUID) (*model.CuentaPorCobrar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cuentas {
		if c.VentaID == ventaID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memCuentaRepo) Bloquear(ctx context.Context, _ *gorm.DB, id uuid.UUID) (*model.CuentaPorCobrar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cuentas[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *memCuentaRepo) DescontarSaldo(_ context.Context, _ *gorm.DB, id uuid.UUID, monto decimal.Decimal, ahora time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cuentas[id]
	if !ok || c.SaldoPendiente.LessThan(monto) {
		return false, nil
	}
	c.SaldoPendiente = c.SaldoPendiente.Sub(monto)
	if c.SaldoPendiente.IsZero() {
		c.Estado = model.CuentaPagada
	}
	c.UpdatedAt = ahora
	return true, nil
}

func (r *memCuentaRepo) RestaurarSaldo(_ context.Context, _ *gorm.DB, id uuid.UUID, monto decimal.Decimal, ahora time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cuentas[id]
	if !ok || c.SaldoPendiente.Add(monto).GreaterThan(c.MontoOriginal) {
		return false, nil
	}
	c.SaldoPendiente = c.SaldoPendiente.Add(monto)
	if c.FechaVencimiento.Before(ahora) {
		c.Estado = model.CuentaVencida
	} else {
		c.Estado = model.CuentaAbierta
	}
	c.UpdatedAt = ahora
	return true, nil
}

func (r *memCuentaRepo) CreatePago(_ context.Context, _ *gorm.DB, p *model.PagoCuenta) error {
	r.mu.Lock()
	cp := *p
	r.pagos[p.ID] = &cp
	hook := r.trasCrearPago
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (r *memCuentaRepo) FindPagoByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.PagoCuenta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pagos[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *memCuentaRepo) AnularPago(_ context.Context, _ *gorm.DB, id uuid.UUID, motivo string, ahora time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pagos[id]
	if !ok || p.Estado != model.PagoRegistrado {
		return false, nil
	}
	p.Estado = model.PagoAnulado
	p.MotivoAnulacion = &motivo
	p.AnuladoEn = &ahora
	return true, nil
}

func (r *memCuentaRepo) SumSaldoPorCliente(_ context.Context, clienteID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	for _, c := range r.cuentas {
		if c.ClienteID == clienteID && c.Estado != model.CuentaPagada {
			total = total.Add(c.SaldoPendiente)
		}
	}
	return total, nil
}

func (r *memCuentaRepo) MarcarVencidas(_ context.Context, ahora time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.cuentas {
		if c.Estado == model.CuentaAbierta && c.FechaVencimiento.Before(ahora) && c.SaldoPendiente.IsPositive() {
			c.Estado = model.CuentaVencida
			n++
		}
	}
	return n, nil
}

// saldoEsperado recomputes original - SUM(registered payments) for an account.
func (r *memCuentaRepo) saldoEsperado(id uuid.UUID) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.cuentas[id]
	saldo := c.MontoOriginal
	for _, p := range r.pagos {
		if p.CuentaID == id && p.Estado == model.PagoRegistrado {
			saldo = saldo.Sub(p.Monto)
		}
	}
	return saldo
}

func (r *memCuentaRepo) cantidad() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cuentas)
}

// ── In-memory ClienteRepository ──────────────────────────────────────────────

type memClienteRepo struct {
	clientes map[uuid.UUID]*model.Cliente
}

var _ repository.ClienteRepository = (*memClienteRepo)(nil)

func newMemClienteRepo(clientes ...*model.Cliente) *memClienteRepo {
	r := &memClienteRepo{clientes: make(map[uuid.UUID]*model.Cliente)}
	for _, c := range clientes {
		r.clientes[c.ID] = c
	}
	return r
}

func (r *memClienteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cliente, error) {
	c, ok := r.clientes[id]
	if !ok {
		return nil, nil
	}
	return c, nil
}

// ── In-memory AuditoriaRepository ────────────────────────────────────────────

type memAuditoriaRepo struct {
	mu        sync.Mutex
	registros []model.RegistroAuditoria
	fail      bool
}

var _ repository.AuditoriaRepository = (*memAuditoriaRepo)(nil)

func (r *memAuditoriaRepo) Create(_ context.Context, reg *model.RegistroAuditoria) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("db down")
	}
	r.registros = append(r.registros, *reg)
	return nil
}

func (r *memAuditoriaRepo) List(_ context.Context, f repository.AuditoriaFiltro) ([]model.RegistroAuditoria, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.RegistroAuditoria
	for _, reg := range r.registros {
		if f.Accion != "" && reg.Accion != f.Accion {
			continue
		}
		if f.Exitoso != nil && reg.Exitoso != *f.Exitoso {
			continue
		}
		out = append(out, reg)
	}
	return out, int64(len(out)), nil
}

func (r *memAuditoriaRepo) porAccion(accion string) []model.RegistroAuditoria {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.RegistroAuditoria
	for _, reg := range r.registros {
		if reg.Accion == accion {
			out = append(out, reg)
		}
	}
	return out
}

func (r *memAuditoriaRepo) todos() []model.RegistroAuditoria {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.RegistroAuditoria(nil), r.registros...)
}

// ── Emisor capturador ────────────────────────────────────────────────────────

type capturaEmisor struct {
	mu      sync.Mutex
	eventos []string
	err     error
}

func (e *capturaEmisor) Emitir(ctx context.Context, nombre string, _ any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.eventos = append(e.eventos, nombre)
	return e.err
}

func (e *capturaEmisor) nombres() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.eventos...)
}

// ── Fixture ──────────────────────────────────────────────────────────────────

var (
	// 2026-03-10 15:00 America/La_Paz
	loc      = time.FixedZone("BOT", -4*3600)
	ahoraFij = time.Date(2026, 3, 10, 15, 0, 0, 0, loc)
)

func reloj() time.Time { return ahoraFij }

func tiposSembrados() []model.TipoOperacion { return model.TiposOperacionBase() }

type fixture struct {
	caja      *memCajaRepo
	cuentas   *memCuentaRepo
	clientes  *memClienteRepo
	auditRepo *memAuditoriaRepo
	emisor    *capturaEmisor
	catalogo  *service.CatalogoReferencias

	resolvedor service.ResolvedorSesion
	libro      service.LibroMovimientos
	credito    service.CreditoService
	motor      service.ConciliacionService

	cliente *model.Cliente
}

func newFixture(tipos []model.TipoOperacion) *fixture {
	f := &fixture{
		caja:      newMemCajaRepo(),
		cuentas:   newMemCuentaRepo(),
		auditRepo: &memAuditoriaRepo{},
		emisor:    &capturaEmisor{},
		cliente: &model.Cliente{
			ID:            uuid.New(),
			Nombre:        "Almacén Don Pedro",
			LimiteCredito: decimal.NewFromInt(1000),
			Activo:        true,
		},
	}
	f.clientes = newMemClienteRepo(f.cliente)
	f.catalogo = service.NewCatalogoReferencias(tipos, 7, decimal.NewFromInt(80))

	auditoria := service.NewAuditoriaService(f.auditRepo, reloj)
	f.resolvedor = service.NewResolvedorSesion(f.caja, loc, reloj)
	f.libro = service.NewLibroMovimientos(f.caja, f.resolvedor, f.catalogo, auditoria, reloj)
	f.credito = service.NewCreditoService(f.cuentas, f.clientes, f.libro, f.catalogo, reloj)
	f.motor = service.NewConciliacionService(f.resolvedor, f.libro, f.credito, auditoria, f.catalogo, f.emisor)
	return f
}

func (f *fixture) venta(usuarioID uuid.UUID, politica string, total, pagado int64) service.Venta {
	clienteID := f.cliente.ID
	return service.Venta{
		ID:              uuid.New(),
		NumeroDocumento: "V-0001",
		ClienteID:       &clienteID,
		UsuarioID:       usuarioID,
		PoliticaPago:    politica,
		Total:           decimal.NewFromInt(total),
		MontoPagado:     decimal.NewFromInt(pagado),
	}
}

func actorDe(usuarioID uuid.UUID) service.Actor {
	return service.Actor{UsuarioID: usuarioID, IP: "10.0.0.7", UserAgent: "test"}
}

func intPtr(v int) *int { return &v }
