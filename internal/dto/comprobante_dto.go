package dto

import (
	"github.com/shopspring/decimal"

	"restopos/internal/model"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// AnularComprobanteRequest requests cancellation of a fiscal document.
// Motivo is one of the fixed reason codes 01–08.
type AnularComprobanteRequest struct {
	Motivo      string  `json:"motivo"      validate:"required,len=2"`
	Descripcion *string `json:"descripcion" validate:"omitempty,max=500"`
}

// ReemitirComprobanteRequest generates a new document from the remaining
// quantities of a cancelled one. PersonaID is mandatory (and must hold a
// RUC) when tipo is 01 Factura.
type ReemitirComprobanteRequest struct {
	Tipo       string           `json:"tipo"        validate:"required,oneof=01 03 80"`
	PersonaID  *string          `json:"persona_id"  validate:"omitempty,uuid"`
	Moneda     *string          `json:"moneda"      validate:"omitempty,len=3"`
	TipoCambio *decimal.Decimal `json:"tipo_cambio" validate:"omitempty"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ComprobanteItemResponse struct {
	ID               string          `json:"id"`
	Descripcion      string          `json:"descripcion"`
	Cantidad         decimal.Decimal `json:"cantidad"`
	CantidadRestante decimal.Decimal `json:"cantidad_restante"`
	ValorUnitario    decimal.Decimal `json:"valor_unitario"`
	PrecioUnitario   decimal.Decimal `json:"precio_unitario"`
	Descuento        decimal.Decimal `json:"descuento"`
}

type ComprobanteResponse struct {
	ID               string                    `json:"id"`
	Serie            string                    `json:"serie"`
	Numero           int64                     `json:"numero"`
	Tipo             model.TipoComprobante     `json:"tipo"`
	TipoEtiqueta     string                    `json:"tipo_etiqueta"`
	Estado           model.EstadoFacturacion   `json:"estado"`
	PersonaID        *string                   `json:"persona_id"`
	MontoTotal       decimal.Decimal           `json:"monto_total"`
	MontoGravado     decimal.Decimal           `json:"monto_gravado"`
	MontoIGV         decimal.Decimal           `json:"monto_igv"`
	DescuentoTotal   decimal.Decimal           `json:"descuento_total"`
	Moneda           string                    `json:"moneda"`
	TipoCambio       decimal.Decimal           `json:"tipo_cambio"`
	MotivoAnulacion  *string                   `json:"motivo_anulacion"`
	ComprobantePadre *string                   `json:"comprobante_padre_id"`
	FechaEmision     string                    `json:"fecha_emision"`
	Items            []ComprobanteItemResponse `json:"items"`
}

type ComprobanteListResponse struct {
	Data  []ComprobanteResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}
