package handler

import (
	"context"
	"net/http"

	"distribuidora/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// EncoladorVentas queues committed sales for reconciliation.
type EncoladorVentas interface {
	EncolarVenta(ctx context.Context, ev dto.VentaCreadaEvento) error
}

type EventosHandler struct{ cola EncoladorVentas }

func NewEventosHandler(cola EncoladorVentas) *EventosHandler { return &EventosHandler{cola: cola} }

// VentaCreada godoc
// @Summary Recibe una venta confirmada para conciliar
// @Description La conciliacion corre en segundo plano; la respuesta solo confirma el encolado.
// @Tags eventos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.VentaCreadaEvento true "Venta confirmada"
// @Success 202 {object} dto.EventoAceptadoResponse
// @Failure 400 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/eventos/ventas [post]
func (h *EventosHandler) VentaCreada(c *gin.Context) {
	var ev dto.VentaCreadaEvento
	if !bindAndValidate(c, &ev) {
		return
	}
	if err := h.cola.EncolarVenta(c.Request.Context(), ev); err != nil {
		log.Error().Err(err).Str("venta_id", ev.VentaID).Msg("eventos: no se pudo encolar la venta")
		responderError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.EventoAceptadoResponse{VentaID: ev.VentaID, Estado: "encolado"})
}
