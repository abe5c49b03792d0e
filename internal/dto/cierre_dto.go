package dto

import (
	"github.com/shopspring/decimal"

	"restopos/internal/model"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// PagoManualRequest registers a manual income/expense movement on a register.
type PagoManualRequest struct {
	Monto       decimal.Decimal `json:"monto"       validate:"required,gt=0"`
	Metodo      string          `json:"metodo"      validate:"required,oneof=CASH YAPE PLIN CARD TRANSFER OTROS"`
	Tipo        string          `json:"tipo"        validate:"required,oneof=INCOME EXPENSE"`
	Descripcion string          `json:"descripcion" validate:"required,min=3"`
	// Imprimir requests a post-commit receipt print; print failure never
	// affects the registered movement.
	Imprimir bool `json:"imprimir"`
}

// ─── Aggregation DTOs ────────────────────────────────────────────────────────

// ResumenPagos is the register-level fold over a payment window.
type ResumenPagos struct {
	TotalIngresos   decimal.Decimal `json:"total_ingresos"`
	TotalEgresos    decimal.Decimal `json:"total_egresos"`
	TotalNeto       decimal.Decimal `json:"total_neto"`
	PagosPendientes decimal.Decimal `json:"pagos_pendientes"`
	PagosPagados    decimal.Decimal `json:"pagos_pagados"`
	SaldoEfectivo   decimal.Decimal `json:"saldo_efectivo"`
	SaldoDigital    decimal.Decimal `json:"saldo_digital"`
	SaldoBancario   decimal.Decimal `json:"saldo_bancario"`
	CantidadPagos   int             `json:"cantidad_pagos"`
}

// ResumenMetodo is one per-method bucket of the method breakdown.
type ResumenMetodo struct {
	Metodo     model.MetodoPago `json:"metodo"`
	Etiqueta   string           `json:"etiqueta"`
	Total      decimal.Decimal  `json:"total"`
	Cantidad   int              `json:"cantidad"`
	// Porcentaje is total / Σ(all totals) × 100 rounded to one decimal;
	// exactly 0 for every bucket when the denominator is 0.
	Porcentaje decimal.Decimal `json:"porcentaje"`
}

// ResumenMetodoUsuario is the per-user per-method income/expense/net split.
type ResumenMetodoUsuario struct {
	Metodo   model.MetodoPago `json:"metodo"`
	Ingresos decimal.Decimal  `json:"ingresos"`
	Egresos  decimal.Decimal  `json:"egresos"`
	Neto     decimal.Decimal  `json:"neto"`
}

// ResumenUsuario is the per-user settlement summary.
type ResumenUsuario struct {
	UsuarioID           string                 `json:"usuario_id"`
	TotalIngresos       decimal.Decimal        `json:"total_ingresos"`
	TotalEgresos        decimal.Decimal        `json:"total_egresos"`
	TotalNeto           decimal.Decimal        `json:"total_neto"`
	CantidadPagos       int                    `json:"cantidad_pagos"`
	CantidadOperaciones int                    `json:"cantidad_operaciones"`
	CantidadPlatos      int                    `json:"cantidad_platos"`
	TieneMesasOcupadas  bool                   `json:"tiene_mesas_ocupadas"`
	MesasOcupadas       int                    `json:"mesas_ocupadas"`
	NombresMesas        []string               `json:"nombres_mesas"`
	Metodos             []ResumenMetodoUsuario `json:"metodos"`
}

// ─── Warnings ────────────────────────────────────────────────────────────────

type TipoAdvertencia string

const (
	AdvertenciaError   TipoAdvertencia = "ERROR"
	AdvertenciaWarning TipoAdvertencia = "WARNING"
	AdvertenciaInfo    TipoAdvertencia = "INFO"
)

// Advertencia informs the caller; it never mutates state.
type Advertencia struct {
	Tipo    TipoAdvertencia `json:"tipo"`
	Mensaje string          `json:"mensaje"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// CierrePreviewResponse is the read-only closure preview. It may be
// recomputed any number of times; the executor never trusts it.
type CierrePreviewResponse struct {
	SucursalID    string           `json:"sucursal_id"`
	CajaID        string           `json:"caja_id"`
	ProximoNumero int              `json:"proximo_numero"`
	Resumen       ResumenPagos     `json:"resumen"`
	Metodos       []ResumenMetodo  `json:"metodos"`
	Usuarios      []ResumenUsuario `json:"usuarios"`
	Advertencias  []Advertencia    `json:"advertencias"`
	PuedeCerrar   bool             `json:"puede_cerrar"`
}

// CierreResponse is the executed-closure result.
type CierreResponse struct {
	ID            string          `json:"id"`
	CajaID        string          `json:"caja_id"`
	NumeroCierre  int             `json:"numero_cierre"`
	TotalIngresos decimal.Decimal `json:"total_ingresos"`
	TotalEgresos  decimal.Decimal `json:"total_egresos"`
	TotalNeto     decimal.Decimal `json:"total_neto"`
	CantidadPagos int             `json:"cantidad_pagos"`
	CerradoEn     string          `json:"cerrado_en"`
	Mensaje       string          `json:"mensaje"`
}

// CierreListItem is one row of the closure history.
type CierreListItem struct {
	ID            string          `json:"id"`
	CajaID        string          `json:"caja_id"`
	NumeroCierre  int             `json:"numero_cierre"`
	UsuarioID     string          `json:"usuario_id"`
	TotalIngresos decimal.Decimal `json:"total_ingresos"`
	TotalEgresos  decimal.Decimal `json:"total_egresos"`
	TotalNeto     decimal.Decimal `json:"total_neto"`
	CerradoEn     string          `json:"cerrado_en"`
}
