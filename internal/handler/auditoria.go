package handler

import (
	"net/http"

	"distribuidora/internal/dto"
	"distribuidora/internal/service"

	"github.com/gin-gonic/gin"
)

type AuditoriaHandler struct{ svc service.AuditoriaService }

func NewAuditoriaHandler(svc service.AuditoriaService) *AuditoriaHandler {
	return &AuditoriaHandler{svc: svc}
}

// Listar godoc
// @Summary Lista el registro de auditoria de caja y credito
// @Tags auditoria
// @Produce json
// @Security BearerAuth
// @Param usuario_id query string false "Usuario"
// @Param sesion_caja_id query string false "Sesion de caja"
// @Param accion query string false "Accion (ej. INTENTO_PAGO_SIN_CAJA)"
// @Param exitoso query bool false "Solo exitosos / fallidos"
// @Param desde query string false "Desde (YYYY-MM-DD)"
// @Param hasta query string false "Hasta (YYYY-MM-DD)"
// @Param page query int false "Pagina"
// @Param limit query int false "Tamano de pagina (max 200)"
// @Success 200 {object} dto.AuditoriaListResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/auditoria [get]
func (h *AuditoriaHandler) Listar(c *gin.Context) {
	var filter dto.AuditoriaFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
