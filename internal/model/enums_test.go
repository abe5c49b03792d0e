package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstadoFacturacion_TransicionesLegales(t *testing.T) {
	casos := []struct {
		desde, hacia EstadoFacturacion
		ok           bool
	}{
		{FacturacionProcesando, FacturacionEnviado, true},
		{FacturacionProcesando, FacturacionAceptado, false},
		{FacturacionEnviado, FacturacionAceptado, true},
		{FacturacionEnviado, FacturacionAceptadoConObs, true},
		{FacturacionEnviado, FacturacionRechazado, true},
		{FacturacionEnviado, FacturacionError, true},
		{FacturacionEnviado, FacturacionProcesandoAnulacion, true},
		{FacturacionAceptado, FacturacionProcesandoAnulacion, true},
		{FacturacionAceptado, FacturacionEnviado, false},
		{FacturacionAceptadoConObs, FacturacionProcesandoAnulacion, true},
		// ERROR re-enters the pipeline through SENT, never skips to a verdict.
		{FacturacionError, FacturacionEnviado, true},
		{FacturacionError, FacturacionAceptado, false},
		{FacturacionProcesandoAnulacion, FacturacionAnulacionPendiente, true},
		{FacturacionProcesandoAnulacion, FacturacionErrorAnulacion, true},
		{FacturacionProcesandoAnulacion, FacturacionAnulado, false},
		{FacturacionAnulacionPendiente, FacturacionAnulado, true},
		{FacturacionErrorAnulacion, FacturacionProcesandoAnulacion, true},
	}
	for _, c := range casos {
		assert.Equal(t, c.ok, c.desde.PuedeTransicionar(c.hacia),
			"%s → %s", c.desde, c.hacia)
	}
}

func TestEstadoFacturacion_TerminalesNoSalen(t *testing.T) {
	todos := []EstadoFacturacion{
		FacturacionProcesando, FacturacionEnviado, FacturacionAceptado,
		FacturacionAceptadoConObs, FacturacionRechazado, FacturacionError,
		FacturacionProcesandoAnulacion, FacturacionAnulacionPendiente,
		FacturacionAnulado, FacturacionErrorAnulacion,
	}
	for _, terminal := range []EstadoFacturacion{FacturacionAnulado, FacturacionRechazado} {
		assert.True(t, terminal.EsTerminal())
		for _, destino := range todos {
			assert.False(t, terminal.PuedeTransicionar(destino),
				"%s no debe salir hacia %s", terminal, destino)
		}
	}
	assert.False(t, FacturacionError.EsTerminal())
	assert.False(t, FacturacionErrorAnulacion.EsTerminal())
}

func TestEstadoFacturacion_PuedeAnularse(t *testing.T) {
	assert.True(t, FacturacionAceptado.PuedeAnularse())
	assert.True(t, FacturacionEnviado.PuedeAnularse())
	assert.True(t, FacturacionAceptadoConObs.PuedeAnularse())

	assert.False(t, FacturacionProcesando.PuedeAnularse())
	assert.False(t, FacturacionRechazado.PuedeAnularse())
	assert.False(t, FacturacionAnulado.PuedeAnularse())
	assert.False(t, FacturacionProcesandoAnulacion.PuedeAnularse())
	assert.False(t, FacturacionErrorAnulacion.PuedeAnularse())
}

func TestParseEstadoFacturacion(t *testing.T) {
	e, err := ParseEstadoFacturacion("ACCEPTED_WITH_OBSERVATIONS")
	require.NoError(t, err)
	assert.Equal(t, FacturacionAceptadoConObs, e)

	_, err = ParseEstadoFacturacion("aceptado")
	assert.Error(t, err)
}

func TestParseMetodoPago(t *testing.T) {
	m, err := ParseMetodoPago("YAPE")
	require.NoError(t, err)
	assert.Equal(t, MetodoYape, m)

	_, err = ParseMetodoPago("yape")
	assert.Error(t, err)
	_, err = ParseMetodoPago("")
	assert.Error(t, err)
}

func TestParseMotivoAnulacion(t *testing.T) {
	for _, codigo := range []string{"01", "02", "03", "04", "05", "06", "07", "08"} {
		m, err := ParseMotivoAnulacion(codigo)
		require.NoError(t, err, "código %s", codigo)
		assert.NotEqual(t, codigo, m.Label())
	}
	_, err := ParseMotivoAnulacion("09")
	assert.Error(t, err)
	_, err = ParseMotivoAnulacion("1")
	assert.Error(t, err)
}

func TestTipoComprobante_RequiereRUC(t *testing.T) {
	assert.True(t, ComprobanteFactura.RequiereRUC())
	assert.False(t, ComprobanteBoleta.RequiereRUC())
	assert.False(t, ComprobanteNotaDeVenta.RequiereRUC())
}

func TestMetodoPago_Label(t *testing.T) {
	assert.Equal(t, "Efectivo", MetodoCash.Label())
	assert.Equal(t, "Tarjeta", MetodoCard.Label())
}
