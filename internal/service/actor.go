package service

import (
	"fmt"
	"strings"

	"distribuidora/internal/dto"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Actor identifies who triggered an operation. It is passed explicitly down
// every call; nothing is read from ambient request state.
type Actor struct {
	UsuarioID    uuid.UUID
	PuntoDeVenta *int
	IP           string
	UserAgent    string
}

// Venta is the part of a committed sale the engine needs.
type Venta struct {
	ID              uuid.UUID
	NumeroDocumento string
	ClienteID       *uuid.UUID
	UsuarioID       uuid.UUID
	PuntoDeVenta    *int // caja indicada explícitamente en la venta, si la hay
	PoliticaPago    string
	Total           decimal.Decimal
	MontoPagado     decimal.Decimal
	MetodoPagoID    *int
}

// VentaDesdeEvento converts the inbound event into a Venta and its Actor.
func VentaDesdeEvento(ev dto.VentaCreadaEvento) (Venta, Actor, error) {
	ventaID, err := uuid.Parse(ev.VentaID)
	if err != nil {
		return Venta{}, Actor{}, fmt.Errorf("venta_id inválido: %w", err)
	}
	usuarioID, err := uuid.Parse(ev.UsuarioID)
	if err != nil {
		return Venta{}, Actor{}, fmt.Errorf("usuario_id inválido: %w", err)
	}
	v := Venta{
		ID:              ventaID,
		NumeroDocumento: ev.NumeroDocumento,
		UsuarioID:       usuarioID,
		PuntoDeVenta:    ev.PuntoDeVenta,
		PoliticaPago:    strings.ToUpper(strings.TrimSpace(ev.PoliticaPago)),
		Total:           ev.Total,
		MontoPagado:     ev.MontoPagado,
		MetodoPagoID:    ev.MetodoPagoID,
	}
	if ev.ClienteID != "" {
		clienteID, err := uuid.Parse(ev.ClienteID)
		if err != nil {
			return Venta{}, Actor{}, fmt.Errorf("cliente_id inválido: %w", err)
		}
		v.ClienteID = &clienteID
	}
	actor := Actor{
		UsuarioID:    usuarioID,
		PuntoDeVenta: ev.PuntoDeVenta,
		IP:           ev.IP,
		UserAgent:    ev.UserAgent,
	}
	return v, actor, nil
}
