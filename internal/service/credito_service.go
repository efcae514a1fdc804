package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"distribuidora/internal/dto"
	"distribuidora/internal/model"
	"distribuidora/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Compensador reverses the ledger side effect of a payment within the
// transaction that voids it.
type Compensador interface {
	CompensarTx(ctx context.Context, tx *gorm.DB, pago *model.PagoCuenta, actor Actor) (*model.MovimientoCaja, error)
}

// EstadoCredito is the result of the critical-credit check.
type EstadoCredito struct {
	ClienteID     uuid.UUID
	LimiteCredito decimal.Decimal
	SaldoTotal    decimal.Decimal
	Porcentaje    decimal.Decimal
	Disponible    decimal.Decimal
	Umbral        decimal.Decimal
	Critico       bool
}

// AnulacionPago is the outcome of a successful void.
type AnulacionPago struct {
	Pago         *model.PagoCuenta
	Cuenta       *model.CuentaPorCobrar
	Compensacion *model.MovimientoCaja
}

type CreditoService interface {
	// CrearCuenta is idempotent per sale: the bool is false when the account
	// already existed and is returned unchanged.
	CrearCuenta(ctx context.Context, venta Venta) (*model.CuentaPorCobrar, bool, error)
	AplicarPago(ctx context.Context, cuentaID uuid.UUID, req dto.RegistrarPagoRequest, actor Actor) (*model.PagoCuenta, error)
	AnularPago(ctx context.Context, pagoID uuid.UUID, motivo string, actor Actor) (*AnulacionPago, error)
	VerificarCritico(ctx context.Context, clienteID uuid.UUID, umbralPct decimal.Decimal) (*EstadoCredito, error)
	ObtenerCuenta(ctx context.Context, id uuid.UUID) (*dto.CuentaResponse, error)
	MarcarVencidas(ctx context.Context) (int64, error)
}

type creditoService struct {
	repo        repository.CuentaRepository
	clientes    repository.ClienteRepository
	compensador Compensador
	catalogo    *CatalogoReferencias
	ahora       func() time.Time
}

func NewCreditoService(
	repo repository.CuentaRepository,
	clientes repository.ClienteRepository,
	compensador Compensador,
	catalogo *CatalogoReferencias,
	ahora func() time.Time,
) CreditoService {
	if ahora == nil {
		ahora = time.Now
	}
	return &creditoService{
		repo:        repo,
		clientes:    clientes,
		compensador: compensador,
		catalogo:    catalogo,
		ahora:       ahora,
	}
}

// ── CrearCuenta ───────────────────────────────────────────────────────────────

func (s *creditoService) CrearCuenta(ctx context.Context, venta Venta) (*model.CuentaPorCobrar, bool, error) {
	if venta.ClienteID == nil {
		return nil, false, ErrClienteRequerido
	}
	if !venta.Total.GreaterThan(decimal.Zero) {
		return nil, false, ErrMontoInvalido
	}

	existente, err := s.repo.FindByVentaID(ctx, nil, venta.ID)
	if err != nil {
		return nil, false, err
	}
	if existente != nil {
		return existente, false, nil
	}

	ahora := s.ahora()
	cuenta := &model.CuentaPorCobrar{
		ID:               uuid.New(),
		VentaID:          venta.ID,
		ClienteID:        *venta.ClienteID,
		UsuarioID:        venta.UsuarioID,
		MontoOriginal:    venta.Total,
		SaldoPendiente:   venta.Total,
		FechaVencimiento: ahora.AddDate(0, 0, s.catalogo.DiasVencimiento()),
		Estado:           model.CuentaAbierta,
		CreatedAt:        ahora,
		UpdatedAt:        ahora,
	}
	if err := s.repo.Create(ctx, nil, cuenta); err != nil {
		// Another worker won the race on the unique venta_id index.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existente, ferr := s.repo.FindByVentaID(ctx, nil, venta.ID)
			if ferr == nil && existente != nil {
				return existente, false, nil
			}
		}
		return nil, false, fmt.Errorf("crear cuenta por cobrar: %w", err)
	}
	return cuenta, true, nil
}

// ── AplicarPago ───────────────────────────────────────────────────────────────
// The account row is locked for the whole transaction and the balance update
// is conditional, so two concurrent payments cannot both consume the same
// balance.

func (s *creditoService) AplicarPago(ctx context.Context, cuentaID uuid.UUID, req dto.RegistrarPagoRequest, actor Actor) (*model.PagoCuenta, error) {
	if !req.Monto.GreaterThan(decimal.Zero) {
		return nil, ErrMontoInvalido
	}

	var pago *model.PagoCuenta
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		cuenta, err := s.repo.Bloquear(ctx, tx, cuentaID)
		if err != nil {
			return err
		}
		if cuenta == nil {
			return ErrCuentaNoEncontrada
		}
		if req.Monto.GreaterThan(cuenta.SaldoPendiente) {
			return &SobrepagoError{CuentaID: cuentaID, Monto: req.Monto, Saldo: cuenta.SaldoPendiente}
		}

		ahora := s.ahora()
		ok, err := s.repo.DescontarSaldo(ctx, tx, cuentaID, req.Monto, ahora)
		if err != nil {
			return err
		}
		if !ok {
			return &SobrepagoError{CuentaID: cuentaID, Monto: req.Monto, Saldo: cuenta.SaldoPendiente}
		}

		puntoDeVenta := req.PuntoDeVenta
		if puntoDeVenta == nil {
			puntoDeVenta = actor.PuntoDeVenta
		}
		pago = &model.PagoCuenta{
			ID:           uuid.New(),
			CuentaID:     cuentaID,
			Monto:        req.Monto,
			MetodoPagoID: req.MetodoPagoID,
			NumeroRecibo: req.NumeroRecibo,
			Estado:       model.PagoRegistrado,
			UsuarioID:    actor.UsuarioID,
			PuntoDeVenta: puntoDeVenta,
			PagadoEn:     ahora,
		}
		return s.repo.CreatePago(ctx, tx, pago)
	})
	if err != nil {
		return nil, err
	}
	return pago, nil
}

// ── AnularPago ────────────────────────────────────────────────────────────────
// Voids the payment, restores the balance and writes the compensating cash
// movement, all in one transaction. Nothing is committed if any step fails.

func (s *creditoService) AnularPago(ctx context.Context, pagoID uuid.UUID, motivo string, actor Actor) (*AnulacionPago, error) {
	var resultado AnulacionPago
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		pago, err := s.repo.FindPagoByID(ctx, tx, pagoID)
		if err != nil {
			return err
		}
		if pago == nil {
			return ErrPagoNoEncontrado
		}
		if pago.Anulado() {
			return &PagoYaAnuladoError{PagoID: pagoID}
		}

		cuenta, err := s.repo.Bloquear(ctx, tx, pago.CuentaID)
		if err != nil {
			return err
		}
		if cuenta == nil {
			return ErrCuentaNoEncontrada
		}

		ahora := s.ahora()
		ok, err := s.repo.AnularPago(ctx, tx, pagoID, motivo, ahora)
		if err != nil {
			return err
		}
		if !ok {
			return &PagoYaAnuladoError{PagoID: pagoID}
		}

		ok, err = s.repo.RestaurarSaldo(ctx, tx, cuenta.ID, pago.Monto, ahora)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("restaurar saldo de la cuenta %s: excede el monto original", cuenta.ID)
		}

		if s.compensador != nil {
			comp, err := s.compensador.CompensarTx(ctx, tx, pago, actor)
			if err != nil {
				return err
			}
			resultado.Compensacion = comp
		}

		pago.Estado = model.PagoAnulado
		pago.MotivoAnulacion = &motivo
		pago.AnuladoEn = &ahora
		resultado.Pago = pago
		return nil
	})
	if err != nil {
		return nil, err
	}

	cuenta, err := s.repo.FindByID(ctx, resultado.Pago.CuentaID)
	if err != nil {
		log.Warn().Err(err).Str("pago_id", pagoID.String()).Msg("credito: no se pudo releer la cuenta tras anular")
	}
	resultado.Cuenta = cuenta
	return &resultado, nil
}

// ── VerificarCritico ──────────────────────────────────────────────────────────
// porcentaje = SUM(saldo pendiente de cuentas abiertas/vencidas) / limite * 100.
// A customer without a positive limit is never critical.

func (s *creditoService) VerificarCritico(ctx context.Context, clienteID uuid.UUID, umbralPct decimal.Decimal) (*EstadoCredito, error) {
	cliente, err := s.clientes.FindByID(ctx, clienteID)
	if err != nil {
		return nil, err
	}
	if cliente == nil {
		return nil, ErrClienteNoEncontrado
	}
	saldo, err := s.repo.SumSaldoPorCliente(ctx, clienteID)
	if err != nil {
		return nil, err
	}

	estado := &EstadoCredito{
		ClienteID:     clienteID,
		LimiteCredito: cliente.LimiteCredito,
		SaldoTotal:    saldo,
		Porcentaje:    decimal.Zero,
		Disponible:    decimal.Zero,
		Umbral:        umbralPct,
	}
	if !cliente.LimiteCredito.GreaterThan(decimal.Zero) {
		return estado, nil
	}

	estado.Porcentaje = saldo.Div(cliente.LimiteCredito).Mul(decimal.NewFromInt(100)).Round(2)
	if disponible := cliente.LimiteCredito.Sub(saldo); disponible.GreaterThan(decimal.Zero) {
		estado.Disponible = disponible
	}
	estado.Critico = estado.Porcentaje.GreaterThanOrEqual(umbralPct)
	return estado, nil
}

// ── ObtenerCuenta ─────────────────────────────────────────────────────────────

func (s *creditoService) ObtenerCuenta(ctx context.Context, id uuid.UUID) (*dto.CuentaResponse, error) {
	cuenta, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cuenta == nil {
		return nil, ErrCuentaNoEncontrada
	}
	resp := toCuentaResponse(cuenta)
	return &resp, nil
}

// ── MarcarVencidas ────────────────────────────────────────────────────────────

func (s *creditoService) MarcarVencidas(ctx context.Context) (int64, error) {
	return s.repo.MarcarVencidas(ctx, s.ahora())
}
