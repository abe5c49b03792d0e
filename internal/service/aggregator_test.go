package service

import (
	"testing"

	"restopos/internal/dto"
	"restopos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pago(caja, usuario uuid.UUID, monto string, metodo model.MetodoPago, tipo model.TipoTransaccion) model.Pago {
	return model.Pago{
		ID:        uuid.New(),
		CajaID:    caja,
		UsuarioID: usuario,
		Monto:     decimal.RequireFromString(monto),
		Metodo:    metodo,
		Tipo:      tipo,
		Estado:    model.PagoPagado,
	}
}

func TestResumir_IngresosEgresosNeto(t *testing.T) {
	caja := uuid.New()
	u := uuid.New()
	pagos := []model.Pago{
		pago(caja, u, "100.00", model.MetodoCash, model.TransaccionIngreso),
		pago(caja, u, "40.00", model.MetodoCash, model.TransaccionEgreso),
		pago(caja, u, "25.50", model.MetodoYape, model.TransaccionIngreso),
	}

	r := Resumir(pagos, map[uuid.UUID]model.TipoCaja{caja: model.CajaEfectivo})

	assert.True(t, r.TotalIngresos.Equal(decimal.RequireFromString("125.50")))
	assert.True(t, r.TotalEgresos.Equal(decimal.RequireFromString("40.00")))
	assert.True(t, r.TotalNeto.Equal(decimal.RequireFromString("85.50")))
	assert.Equal(t, 3, r.CantidadPagos)
	// Net balance lands on the register's cash type; expenses subtract.
	assert.True(t, r.SaldoEfectivo.Equal(decimal.RequireFromString("85.50")))
	assert.True(t, r.SaldoDigital.IsZero())
}

func TestResumir_PendientesYPagados(t *testing.T) {
	caja := uuid.New()
	u := uuid.New()
	pendiente := pago(caja, u, "30.00", model.MetodoCard, model.TransaccionIngreso)
	pendiente.Estado = model.PagoPendiente

	r := Resumir([]model.Pago{
		pendiente,
		pago(caja, u, "70.00", model.MetodoCash, model.TransaccionIngreso),
	}, map[uuid.UUID]model.TipoCaja{caja: model.CajaEfectivo})

	assert.True(t, r.PagosPendientes.Equal(decimal.RequireFromString("30.00")))
	assert.True(t, r.PagosPagados.Equal(decimal.RequireFromString("70.00")))
}

func TestPorMetodo_PorcentajesYOrden(t *testing.T) {
	caja := uuid.New()
	u := uuid.New()
	pagos := []model.Pago{
		pago(caja, u, "50.00", model.MetodoYape, model.TransaccionIngreso),
		pago(caja, u, "100.00", model.MetodoCash, model.TransaccionIngreso),
	}

	metodos := PorMetodo(pagos)

	require.Len(t, metodos, 2)
	// Display order: CASH before YAPE regardless of insertion order.
	assert.Equal(t, model.MetodoCash, metodos[0].Metodo)
	assert.True(t, metodos[0].Total.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, metodos[0].Porcentaje.Equal(decimal.RequireFromString("66.7")))
	assert.Equal(t, model.MetodoYape, metodos[1].Metodo)
	assert.True(t, metodos[1].Porcentaje.Equal(decimal.RequireFromString("33.3")))
}

func TestPorMetodo_EgresosSumanAlTotalDelMetodo(t *testing.T) {
	caja := uuid.New()
	u := uuid.New()
	// Method buckets accumulate absolute amounts: a 20 expense on CASH
	// raises the CASH bucket, it does not cancel income.
	pagos := []model.Pago{
		pago(caja, u, "80.00", model.MetodoCash, model.TransaccionIngreso),
		pago(caja, u, "20.00", model.MetodoCash, model.TransaccionEgreso),
	}

	metodos := PorMetodo(pagos)

	require.Len(t, metodos, 1)
	assert.True(t, metodos[0].Total.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, metodos[0].Porcentaje.Equal(decimal.RequireFromString("100")))
	assert.Equal(t, 2, metodos[0].Cantidad)
}

func TestPorMetodo_TotalCeroSinDivisionPorCero(t *testing.T) {
	caja := uuid.New()
	u := uuid.New()
	ingreso := pago(caja, u, "50.00", model.MetodoCash, model.TransaccionIngreso)
	egreso := pago(caja, u, "50.00", model.MetodoYape, model.TransaccionEgreso)
	egreso.Monto = decimal.RequireFromString("-50.00")

	metodos := PorMetodo([]model.Pago{ingreso, egreso})

	// Grand total is 0 → every percentage is exactly 0, no panic.
	for _, m := range metodos {
		assert.True(t, m.Porcentaje.IsZero(), "metodo %s", m.Metodo)
	}
}

func TestPorMetodo_VacioOmiteMetodosSinPagos(t *testing.T) {
	assert.Empty(t, PorMetodo(nil))
}

func TestPorUsuario_TotalesYMetodos(t *testing.T) {
	caja := uuid.New()
	u1 := uuid.New()
	u2 := uuid.New()

	pagos := []model.Pago{
		pago(caja, u1, "100.00", model.MetodoCash, model.TransaccionIngreso),
		pago(caja, u1, "10.00", model.MetodoCash, model.TransaccionEgreso),
		pago(caja, u2, "40.00", model.MetodoPlin, model.TransaccionIngreso),
	}

	usuarios := PorUsuario(pagos, nil, nil)

	require.Len(t, usuarios, 2)
	porID := make(map[string]dto.ResumenUsuario)
	for _, u := range usuarios {
		porID[u.UsuarioID] = u
	}

	r1 := porID[u1.String()]
	assert.True(t, r1.TotalNeto.Equal(decimal.RequireFromString("90.00")))
	assert.Equal(t, 2, r1.CantidadPagos)
	require.Len(t, r1.Metodos, 1)
	assert.True(t, r1.Metodos[0].Neto.Equal(decimal.RequireFromString("90.00")))

	r2 := porID[u2.String()]
	assert.True(t, r2.TotalNeto.Equal(decimal.RequireFromString("40.00")))
}

func TestPorUsuario_MesasOcupadasBloquean(t *testing.T) {
	caja := uuid.New()
	u := uuid.New()
	pagos := []model.Pago{pago(caja, u, "10.00", model.MetodoCash, model.TransaccionIngreso)}

	mesas := []model.Mesa{
		{ID: uuid.New(), Nombre: "Mesa 7", Estado: model.MesaOcupada, OcupadaPor: &u},
		{ID: uuid.New(), Nombre: "Mesa 2", Estado: model.MesaOcupada, OcupadaPor: &u},
		{ID: uuid.New(), Nombre: "Mesa 9", Estado: model.MesaLibre, OcupadaPor: nil},
	}

	usuarios := PorUsuario(pagos, nil, mesas)

	require.Len(t, usuarios, 1)
	assert.True(t, usuarios[0].TieneMesasOcupadas)
	assert.Equal(t, 2, usuarios[0].MesasOcupadas)
	// Names sorted for stable output.
	assert.Equal(t, []string{"Mesa 2", "Mesa 7"}, usuarios[0].NombresMesas)
}

func TestPorUsuario_OperacionesYPlatos(t *testing.T) {
	caja := uuid.New()
	u := uuid.New()
	pagos := []model.Pago{pago(caja, u, "10.00", model.MetodoCash, model.TransaccionIngreso)}
	ops := []model.Operacion{
		{
			ID:        uuid.New(),
			UsuarioID: u,
			Detalles: []model.OperacionDetalle{
				{Cantidad: 2}, {Cantidad: 3},
			},
		},
	}

	usuarios := PorUsuario(pagos, ops, nil)

	require.Len(t, usuarios, 1)
	assert.Equal(t, 1, usuarios[0].CantidadOperaciones)
	assert.Equal(t, 5, usuarios[0].CantidadPlatos)
}
