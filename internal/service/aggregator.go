package service

// aggregator.go — pure folds over the payment window.
// No state, no side effects: every function may be called repeatedly and
// concurrently against the same data. The closure executor re-runs these
// same folds on its locked snapshot, so preview and execution can never
// disagree about arithmetic.

import (
	"sort"

	"restopos/internal/dto"
	"restopos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var cien = decimal.NewFromInt(100)

// Resumir reduces a payment set into register-level totals. tipoPorCaja maps
// each register id to its cash type for the per-type balance split.
func Resumir(pagos []model.Pago, tipoPorCaja map[uuid.UUID]model.TipoCaja) dto.ResumenPagos {
	r := dto.ResumenPagos{
		TotalIngresos:   decimal.Zero,
		TotalEgresos:    decimal.Zero,
		TotalNeto:       decimal.Zero,
		PagosPendientes: decimal.Zero,
		PagosPagados:    decimal.Zero,
		SaldoEfectivo:   decimal.Zero,
		SaldoDigital:    decimal.Zero,
		SaldoBancario:   decimal.Zero,
	}

	for _, p := range pagos {
		r.CantidadPagos++

		neto := p.Monto
		switch p.Tipo {
		case model.TransaccionIngreso:
			r.TotalIngresos = r.TotalIngresos.Add(p.Monto)
		case model.TransaccionEgreso:
			r.TotalEgresos = r.TotalEgresos.Add(p.Monto)
			neto = p.Monto.Neg()
		}

		switch p.Estado {
		case model.PagoPendiente:
			r.PagosPendientes = r.PagosPendientes.Add(p.Monto)
		case model.PagoPagado:
			r.PagosPagados = r.PagosPagados.Add(p.Monto)
		}

		switch tipoPorCaja[p.CajaID] {
		case model.CajaEfectivo:
			r.SaldoEfectivo = r.SaldoEfectivo.Add(neto)
		case model.CajaDigital:
			r.SaldoDigital = r.SaldoDigital.Add(neto)
		case model.CajaBancaria:
			r.SaldoBancario = r.SaldoBancario.Add(neto)
		}
	}

	r.TotalNeto = r.TotalIngresos.Sub(r.TotalEgresos)
	return r
}

// PorMetodo groups payments by method. Buckets come out in display order and
// empty methods are omitted. Percentages sum to ~100 (one-decimal rounding);
// when the grand total is 0 every percentage is exactly 0.
func PorMetodo(pagos []model.Pago) []dto.ResumenMetodo {
	type bucket struct {
		total decimal.Decimal
		count int
	}
	buckets := make(map[model.MetodoPago]*bucket)
	granTotal := decimal.Zero

	for _, p := range pagos {
		b, ok := buckets[p.Metodo]
		if !ok {
			b = &bucket{total: decimal.Zero}
			buckets[p.Metodo] = b
		}
		b.total = b.total.Add(p.Monto)
		b.count++
		granTotal = granTotal.Add(p.Monto)
	}

	out := make([]dto.ResumenMetodo, 0, len(buckets))
	for _, m := range model.MetodosPago {
		b, ok := buckets[m]
		if !ok {
			continue
		}
		pct := decimal.Zero
		if !granTotal.IsZero() {
			pct = b.total.Div(granTotal).Mul(cien).Round(1)
		}
		out = append(out, dto.ResumenMetodo{
			Metodo:     m,
			Etiqueta:   m.Label(),
			Total:      b.total,
			Cantidad:   b.count,
			Porcentaje: pct,
		})
	}
	return out
}

// PorUsuario folds payments, operations and table occupancy into per-user
// summaries, ordered by user id for stable output.
func PorUsuario(pagos []model.Pago, operaciones []model.Operacion, mesas []model.Mesa) []dto.ResumenUsuario {
	porUsuario := make(map[uuid.UUID]*dto.ResumenUsuario)

	usuario := func(id uuid.UUID) *dto.ResumenUsuario {
		u, ok := porUsuario[id]
		if !ok {
			u = &dto.ResumenUsuario{
				UsuarioID:     id.String(),
				TotalIngresos: decimal.Zero,
				TotalEgresos:  decimal.Zero,
				TotalNeto:     decimal.Zero,
			}
			porUsuario[id] = u
		}
		return u
	}

	// Payments: totals + per-method split.
	metodosPorUsuario := make(map[uuid.UUID]map[model.MetodoPago]*dto.ResumenMetodoUsuario)
	for _, p := range pagos {
		u := usuario(p.UsuarioID)
		u.CantidadPagos++

		mm, ok := metodosPorUsuario[p.UsuarioID]
		if !ok {
			mm = make(map[model.MetodoPago]*dto.ResumenMetodoUsuario)
			metodosPorUsuario[p.UsuarioID] = mm
		}
		rm, ok := mm[p.Metodo]
		if !ok {
			rm = &dto.ResumenMetodoUsuario{
				Metodo:   p.Metodo,
				Ingresos: decimal.Zero,
				Egresos:  decimal.Zero,
				Neto:     decimal.Zero,
			}
			mm[p.Metodo] = rm
		}

		switch p.Tipo {
		case model.TransaccionIngreso:
			u.TotalIngresos = u.TotalIngresos.Add(p.Monto)
			rm.Ingresos = rm.Ingresos.Add(p.Monto)
		case model.TransaccionEgreso:
			u.TotalEgresos = u.TotalEgresos.Add(p.Monto)
			rm.Egresos = rm.Egresos.Add(p.Monto)
		}
	}

	// Operations: distinct-operation and dish counts.
	for _, op := range operaciones {
		u := usuario(op.UsuarioID)
		u.CantidadOperaciones++
		for _, d := range op.Detalles {
			u.CantidadPlatos += d.Cantidad
		}
	}

	// Tables: an OCCUPIED table tied to the user blocks closure.
	for _, m := range mesas {
		if m.Estado != model.MesaOcupada || m.OcupadaPor == nil {
			continue
		}
		u := usuario(*m.OcupadaPor)
		u.TieneMesasOcupadas = true
		u.MesasOcupadas++
		u.NombresMesas = append(u.NombresMesas, m.Nombre)
	}

	out := make([]dto.ResumenUsuario, 0, len(porUsuario))
	for id, u := range porUsuario {
		u.TotalNeto = u.TotalIngresos.Sub(u.TotalEgresos)
		sort.Strings(u.NombresMesas)

		mm := metodosPorUsuario[id]
		for _, m := range model.MetodosPago {
			rm, ok := mm[m]
			if !ok {
				continue
			}
			rm.Neto = rm.Ingresos.Sub(rm.Egresos)
			u.Metodos = append(u.Metodos, *rm)
		}
		out = append(out, *u)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].UsuarioID < out[j].UsuarioID })
	return out
}
