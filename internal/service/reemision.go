package service

// reemision.go — pure arithmetic for reissuing a cancelled document.
// Money is rounded to 2 decimals (half-up) at each AGGREGATE, not per line,
// so many small lines cannot compound rounding error.

import (
	"restopos/internal/model"

	"github.com/shopspring/decimal"
)

// TotalesReemision are the tax-itemized totals of a reissued document.
type TotalesReemision struct {
	MontoTotal     decimal.Decimal
	MontoGravado   decimal.Decimal
	MontoIGV       decimal.Decimal
	DescuentoTotal decimal.Decimal
}

// ItemsReemitibles filters the lines with unconsumed quantity.
func ItemsReemitibles(items []model.ComprobanteItem) []model.ComprobanteItem {
	out := make([]model.ComprobanteItem, 0, len(items))
	for _, it := range items {
		if it.CantidadRestante.IsPositive() {
			out = append(out, it)
		}
	}
	return out
}

// CalcularReemision folds the remaining quantities into document totals:
//
//	total    = round2(Σ restante × precioUnitario)   (IGV inclusive)
//	gravado  = round2(Σ restante × valorUnitario)    (IGV exclusive)
//	igv      = round2(Σ restante × (precio − valor))
//	descuento = round2(Σ restante × descuento)
func CalcularReemision(items []model.ComprobanteItem) TotalesReemision {
	total := decimal.Zero
	gravado := decimal.Zero
	igv := decimal.Zero
	descuento := decimal.Zero

	for _, it := range items {
		total = total.Add(it.CantidadRestante.Mul(it.PrecioUnitario))
		gravado = gravado.Add(it.CantidadRestante.Mul(it.ValorUnitario))
		igv = igv.Add(it.CantidadRestante.Mul(it.PrecioUnitario.Sub(it.ValorUnitario)))
		descuento = descuento.Add(it.CantidadRestante.Mul(it.Descuento))
	}

	return TotalesReemision{
		MontoTotal:     total.Round(2),
		MontoGravado:   gravado.Round(2),
		MontoIGV:       igv.Round(2),
		DescuentoTotal: descuento.Round(2),
	}
}

// SerieParaTipo maps a document type to its emission serie.
func SerieParaTipo(t model.TipoComprobante) string {
	switch t {
	case model.ComprobanteFactura:
		return "F001"
	case model.ComprobanteBoleta:
		return "B001"
	case model.ComprobanteNotaDeVenta:
		return "N001"
	}
	return "X001"
}
