package handler

import (
	"net/http"
	"strconv"

	"distribuidora/internal/apierror"
	"distribuidora/internal/service"

	"github.com/gin-gonic/gin"
)

type CajaHandler struct{ svc service.CajaService }

func NewCajaHandler(svc service.CajaService) *CajaHandler { return &CajaHandler{svc: svc} }

// SesionActiva godoc
// @Summary Sesion de caja a la que se imputarian los movimientos del usuario
// @Description Aplica la misma resolucion que la conciliacion: punto de venta del dia, luego cualquier caja del dia, luego la ultima abierta.
// @Tags caja
// @Produce json
// @Security BearerAuth
// @Param punto_de_venta query int false "Punto de venta (por defecto el del token)"
// @Success 200 {object} dto.SesionActivaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/caja/sesion-activa [get]
func (h *CajaHandler) SesionActiva(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	pdv := actor.PuntoDeVenta
	if raw := c.Query("punto_de_venta"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, apierror.New("punto_de_venta invalido"))
			return
		}
		pdv = &n
	}

	resp, err := h.svc.SesionActiva(c.Request.Context(), actor.UsuarioID, pdv)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObtenerResumen godoc
// @Summary Totales de una sesion de caja por tipo de operacion
// @Tags caja
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesion"
// @Success 200 {object} dto.ResumenSesionResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/caja/sesiones/{id}/resumen [get]
func (h *CajaHandler) ObtenerResumen(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerResumen(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
