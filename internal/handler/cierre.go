package handler

import (
	"net/http"

	"restopos/internal/dto"
	"restopos/internal/middleware"
	"restopos/internal/service"

	"github.com/gin-gonic/gin"
)

type CierreHandler struct{ svc service.CierreService }

func NewCierreHandler(svc service.CierreService) *CierreHandler { return &CierreHandler{svc: svc} }

// Preview godoc
// @Summary Calcula la vista previa del cierre de caja
// @Tags cierres
// @Produce json
// @Security BearerAuth
// @Param X-Caja-ID header string true "ID de la caja"
// @Success 200 {object} dto.CierrePreviewResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/cierres/preview [get]
func (h *CierreHandler) Preview(c *gin.Context) {
	scope, err := middleware.Scope(c)
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := h.svc.Preview(c.Request.Context(), scope)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cerrar godoc
// @Summary Ejecuta el cierre de caja
// @Tags cierres
// @Produce json
// @Security BearerAuth
// @Param X-Caja-ID header string true "ID de la caja"
// @Success 201 {object} dto.CierreResponse
// @Failure 409 {object} apierror.APIError
// @Failure 423 {object} apierror.APIError
// @Router /v1/cierres [post]
func (h *CierreHandler) Cerrar(c *gin.Context) {
	scope, err := middleware.Scope(c)
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := h.svc.Cerrar(c.Request.Context(), scope)
	if err != nil {
		respondError(c, err)
		return
	}
	// An empty window is a safe no-op, not a created resource.
	if resp.ID == "" {
		c.JSON(http.StatusOK, resp)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Historial godoc
// @Summary Lista los cierres anteriores de la caja
// @Tags cierres
// @Produce json
// @Security BearerAuth
// @Param X-Caja-ID header string true "ID de la caja"
// @Param page query int false "Página"
// @Param limit query int false "Tamaño de página"
// @Success 200 {array} dto.CierreListItem
// @Router /v1/cierres [get]
func (h *CierreHandler) Historial(c *gin.Context) {
	scope, err := middleware.Scope(c)
	if err != nil {
		respondError(c, err)
		return
	}
	page, limit := paginacion(c)
	items, total, err := h.svc.Historial(c.Request.Context(), scope, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items, "total": total, "page": page, "limit": limit})
}

// PagoManual godoc
// @Summary Registra un ingreso o egreso manual en la caja
// @Tags pagos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Caja-ID header string true "ID de la caja"
// @Param body body dto.PagoManualRequest true "Movimiento manual"
// @Success 204
// @Failure 422 {object} apierror.APIError
// @Router /v1/pagos/manual [post]
func (h *CierreHandler) PagoManual(c *gin.Context) {
	scope, err := middleware.Scope(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req dto.PagoManualRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.RegistrarPagoManual(c.Request.Context(), scope, req); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
