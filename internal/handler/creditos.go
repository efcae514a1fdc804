package handler

import (
	"net/http"

	"distribuidora/internal/dto"
	"distribuidora/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type CreditosHandler struct {
	conciliacion service.ConciliacionService
	credito      service.CreditoService
	umbral       decimal.Decimal
}

func NewCreditosHandler(conciliacion service.ConciliacionService, credito service.CreditoService, umbral decimal.Decimal) *CreditosHandler {
	return &CreditosHandler{conciliacion: conciliacion, credito: credito, umbral: umbral}
}

// RegistrarPago godoc
// @Summary Registra un pago contra una cuenta por cobrar
// @Tags creditos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de cuenta"
// @Param body body dto.RegistrarPagoRequest true "Pago"
// @Success 201 {object} dto.PagoResponse
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/cuentas/{id}/pagos [post]
func (h *CreditosHandler) RegistrarPago(c *gin.Context) {
	cuentaID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.RegistrarPagoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	if req.PuntoDeVenta != nil {
		actor.PuntoDeVenta = req.PuntoDeVenta
	}

	resp, err := h.conciliacion.RegistrarPago(c.Request.Context(), cuentaID, req, actor)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// AnularPago godoc
// @Summary Anula un pago y restituye el saldo de la cuenta
// @Tags creditos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de pago"
// @Param body body dto.AnularPagoRequest true "Motivo"
// @Success 200 {object} dto.PagoResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/pagos/{id}/anular [post]
func (h *CreditosHandler) AnularPago(c *gin.Context) {
	pagoID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.AnularPagoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	resp, err := h.conciliacion.AnularPago(c.Request.Context(), pagoID, req.Motivo, actor)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObtenerCuenta godoc
// @Summary Obtiene una cuenta por cobrar con sus pagos
// @Tags creditos
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de cuenta"
// @Success 200 {object} dto.CuentaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/cuentas/{id} [get]
func (h *CreditosHandler) ObtenerCuenta(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.credito.ObtenerCuenta(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EstadoCredito godoc
// @Summary Uso del limite de credito de un cliente
// @Tags creditos
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de cliente"
// @Success 200 {object} dto.EstadoCreditoResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/clientes/{id}/credito [get]
func (h *CreditosHandler) EstadoCredito(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	estado, err := h.credito.VerificarCritico(c.Request.Context(), id, h.umbral)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.EstadoCreditoResponse{
		ClienteID:     estado.ClienteID.String(),
		LimiteCredito: estado.LimiteCredito,
		SaldoTotal:    estado.SaldoTotal,
		Porcentaje:    estado.Porcentaje,
		Disponible:    estado.Disponible,
		Umbral:        estado.Umbral,
		Critico:       estado.Critico,
	})
}
