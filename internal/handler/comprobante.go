package handler

import (
	"net/http"

	"restopos/internal/apierror"
	"restopos/internal/dto"
	"restopos/internal/middleware"
	"restopos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ComprobanteHandler struct{ svc service.ComprobanteService }

func NewComprobanteHandler(svc service.ComprobanteService) *ComprobanteHandler {
	return &ComprobanteHandler{svc: svc}
}

// Listar godoc
// @Summary Lista comprobantes de la sucursal
// @Tags comprobantes
// @Produce json
// @Security BearerAuth
// @Param estado query string false "Filtro por estado"
// @Param page query int false "Página"
// @Param limit query int false "Tamaño de página"
// @Success 200 {object} dto.ComprobanteListResponse
// @Router /v1/comprobantes [get]
func (h *ComprobanteHandler) Listar(c *gin.Context) {
	scope, err := middleware.Scope(c)
	if err != nil {
		respondError(c, err)
		return
	}
	page, limit := paginacion(c)
	resp, err := h.svc.Listar(c.Request.Context(), scope, c.Query("estado"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener godoc
// @Summary Obtiene un comprobante por ID
// @Tags comprobantes
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del comprobante"
// @Success 200 {object} dto.ComprobanteResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/comprobantes/{id} [get]
func (h *ComprobanteHandler) Obtener(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Comprobante no encontrado"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Anular godoc
// @Summary Solicita la anulación de un comprobante
// @Tags comprobantes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del comprobante"
// @Param body body dto.AnularComprobanteRequest true "Motivo de anulación"
// @Success 202 {object} dto.ComprobanteResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/comprobantes/{id}/anular [post]
func (h *ComprobanteHandler) Anular(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	scope, err := middleware.Scope(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req dto.AnularComprobanteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Anular(c.Request.Context(), scope, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	// 202: the cancellation completes asynchronously via the billing worker.
	c.JSON(http.StatusAccepted, resp)
}

// Reemitir godoc
// @Summary Reemite un comprobante anulado con las cantidades restantes
// @Tags comprobantes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del comprobante anulado"
// @Param body body dto.ReemitirComprobanteRequest true "Datos de reemisión"
// @Success 201 {object} dto.ComprobanteResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Failure 423 {object} apierror.APIError
// @Router /v1/comprobantes/{id}/reemitir [post]
func (h *ComprobanteHandler) Reemitir(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	scope, err := middleware.Scope(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req dto.ReemitirComprobanteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Reemitir(c.Request.Context(), scope, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Reintentar godoc
// @Summary Reencola la emisión de un comprobante atascado
// @Tags comprobantes
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del comprobante"
// @Success 202
// @Failure 409 {object} apierror.APIError
// @Router /v1/comprobantes/{id}/reintentar [post]
func (h *ComprobanteHandler) Reintentar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	if err := h.svc.Reintentar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}
