package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"restopos/internal/apierror"
	"restopos/internal/dto"
	"restopos/internal/model"
	"restopos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ─── Fakes ───────────────────────────────────────────────────────────────────

type fakeComprobanteRepo struct {
	docs map[uuid.UUID]*model.Comprobante
}

func newFakeComprobanteRepo() *fakeComprobanteRepo {
	return &fakeComprobanteRepo{docs: make(map[uuid.UUID]*model.Comprobante)}
}

func (f *fakeComprobanteRepo) DB() *gorm.DB { return nil }

func (f *fakeComprobanteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Comprobante, error) {
	c, ok := f.docs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (f *fakeComprobanteRepo) FindByIDLockTx(_ *gorm.DB, id uuid.UUID) (*model.Comprobante, error) {
	return f.FindByID(context.Background(), id)
}

func (f *fakeComprobanteRepo) Update(_ context.Context, c *model.Comprobante) error {
	f.docs[c.ID] = c
	return nil
}

func (f *fakeComprobanteRepo) UpdateTx(_ *gorm.DB, c *model.Comprobante) error {
	f.docs[c.ID] = c
	return nil
}

func (f *fakeComprobanteRepo) CreateTx(_ *gorm.DB, c *model.Comprobante) error {
	c.ID = uuid.New()
	for i := range c.Items {
		c.Items[i].ID = uuid.New()
		c.Items[i].ComprobanteID = c.ID
	}
	f.docs[c.ID] = c
	return nil
}

func (f *fakeComprobanteRepo) ConsumirRestanteTx(_ *gorm.DB, itemIDs []uuid.UUID) error {
	consumir := make(map[uuid.UUID]bool, len(itemIDs))
	for _, id := range itemIDs {
		consumir[id] = true
	}
	for _, c := range f.docs {
		for i := range c.Items {
			if consumir[c.Items[i].ID] {
				c.Items[i].CantidadRestante = decimal.Zero
			}
		}
	}
	return nil
}

func (f *fakeComprobanteRepo) RestablecerRestanteTx(_ *gorm.DB, comprobanteID uuid.UUID) error {
	c, ok := f.docs[comprobanteID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range c.Items {
		c.Items[i].CantidadRestante = c.Items[i].Cantidad
	}
	return nil
}

func (f *fakeComprobanteRepo) NextNumeroTx(_ *gorm.DB, sucursalID uuid.UUID, serie string) (int64, error) {
	var max int64
	for _, c := range f.docs {
		if c.SucursalID == sucursalID && c.Serie == serie && c.Numero > max {
			max = c.Numero
		}
	}
	return max + 1, nil
}

func (f *fakeComprobanteRepo) List(_ context.Context, filtro repository.ComprobanteFilter) ([]model.Comprobante, int64, error) {
	out := make([]model.Comprobante, 0)
	for _, c := range f.docs {
		if c.SucursalID != filtro.SucursalID {
			continue
		}
		if filtro.Estado != "" && string(c.Estado) != filtro.Estado {
			continue
		}
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (f *fakeComprobanteRepo) ListPendingRetries(_ context.Context, now time.Time, limit int) ([]model.Comprobante, error) {
	out := make([]model.Comprobante, 0)
	for _, c := range f.docs {
		if len(out) == limit {
			break
		}
		if c.NextRetryAt != nil && !c.NextRetryAt.After(now) {
			out = append(out, *c)
		}
	}
	return out, nil
}

type fakePersonaRepo struct {
	personas map[uuid.UUID]*model.Persona
}

func (f *fakePersonaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Persona, error) {
	p, ok := f.personas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

// ─── Fixture ─────────────────────────────────────────────────────────────────

type comprobanteFixture struct {
	svc      ComprobanteService
	repo     *fakeComprobanteRepo
	personas *fakePersonaRepo
	scope    dto.RequestScope
}

func newComprobanteFixture(t *testing.T) *comprobanteFixture {
	t.Helper()
	f := &comprobanteFixture{
		repo:     newFakeComprobanteRepo(),
		personas: &fakePersonaRepo{personas: make(map[uuid.UUID]*model.Persona)},
		scope: dto.RequestScope{
			SucursalID: uuid.New(),
			UsuarioID:  uuid.New(),
			CajaID:     uuid.New(),
		},
	}
	f.svc = NewComprobanteService(f.repo, f.personas, nil)
	return f
}

// seedComprobante stores a Boleta of 3 × S/10.00 in the given state.
func (f *comprobanteFixture) seedComprobante(estado model.EstadoFacturacion, restante string) *model.Comprobante {
	c := &model.Comprobante{
		ID:           uuid.New(),
		SucursalID:   f.scope.SucursalID,
		Serie:        "B001",
		Numero:       1,
		Tipo:         model.ComprobanteBoleta,
		Estado:       estado,
		MontoTotal:   decimal.RequireFromString("30.00"),
		MontoGravado: decimal.RequireFromString("25.41"),
		MontoIGV:     decimal.RequireFromString("4.59"),
		Moneda:       "PEN",
		TipoCambio:   decimal.NewFromInt(1),
		FechaEmision: time.Now().UTC(),
		Items: []model.ComprobanteItem{{
			ID:                 uuid.New(),
			OperacionDetalleID: uuid.New(),
			Descripcion:        "Ceviche clásico",
			Cantidad:           decimal.NewFromInt(3),
			CantidadRestante:   decimal.RequireFromString(restante),
			ValorUnitario:      decimal.RequireFromString("8.47"),
			PrecioUnitario:     decimal.RequireFromString("10.00"),
			Descuento:          decimal.Zero,
		}},
	}
	c.Items[0].ComprobanteID = c.ID
	f.repo.docs[c.ID] = c
	return c
}

func (f *comprobanteFixture) seedPersona(tipoDoc model.TipoDocIdentidad) *model.Persona {
	p := &model.Persona{
		ID:              uuid.New(),
		TipoDocumento:   tipoDoc,
		NumeroDocumento: "20123456789",
		NombreRazon:     "Inversiones El Fogón SAC",
	}
	f.personas.personas[p.ID] = p
	return p
}

// ─── Anular ──────────────────────────────────────────────────────────────────

func TestAnular_DesdeAceptado(t *testing.T) {
	f := newComprobanteFixture(t)
	c := f.seedComprobante(model.FacturacionAceptado, "0")
	desc := "cliente pidió factura"

	resp, err := f.svc.Anular(context.Background(), f.scope, c.ID, dto.AnularComprobanteRequest{
		Motivo:      "01",
		Descripcion: &desc,
	})

	require.NoError(t, err)
	assert.Equal(t, model.FacturacionProcesandoAnulacion, resp.Estado)
	require.NotNil(t, resp.MotivoAnulacion)
	assert.Equal(t, "01", *resp.MotivoAnulacion)

	guardado := f.repo.docs[c.ID]
	assert.Equal(t, model.FacturacionProcesandoAnulacion, guardado.Estado)
	require.NotNil(t, guardado.DetalleAnulacion)
	assert.Equal(t, desc, *guardado.DetalleAnulacion)
}

func TestAnular_MotivoDesconocido(t *testing.T) {
	f := newComprobanteFixture(t)
	c := f.seedComprobante(model.FacturacionAceptado, "0")

	_, err := f.svc.Anular(context.Background(), f.scope, c.ID, dto.AnularComprobanteRequest{
		Motivo: "99",
	})

	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, apierror.Status(err))
	assert.Equal(t, model.FacturacionAceptado, f.repo.docs[c.ID].Estado)
}

func TestAnular_EstadoNoAnulable(t *testing.T) {
	f := newComprobanteFixture(t)
	for _, estado := range []model.EstadoFacturacion{
		model.FacturacionRechazado,
		model.FacturacionAnulado,
		model.FacturacionProcesando,
		model.FacturacionProcesandoAnulacion,
	} {
		c := f.seedComprobante(estado, "0")

		_, err := f.svc.Anular(context.Background(), f.scope, c.ID, dto.AnularComprobanteRequest{
			Motivo: "01",
		})

		require.Error(t, err, "estado %s", estado)
		assert.Equal(t, http.StatusConflict, apierror.Status(err), "estado %s", estado)
	}
}

// ─── Reemitir ────────────────────────────────────────────────────────────────

func TestReemitir_DeAnuladoCreaHijo(t *testing.T) {
	f := newComprobanteFixture(t)
	padre := f.seedComprobante(model.FacturacionAnulado, "3")

	resp, err := f.svc.Reemitir(context.Background(), f.scope, padre.ID, dto.ReemitirComprobanteRequest{
		Tipo: "03",
	})

	require.NoError(t, err)
	assert.Equal(t, "B001", resp.Serie)
	assert.EqualValues(t, 2, resp.Numero)
	assert.Equal(t, model.FacturacionProcesando, resp.Estado)
	assert.True(t, resp.MontoTotal.Equal(decimal.RequireFromString("30.00")))
	assert.True(t, resp.MontoIGV.Equal(decimal.RequireFromString("4.59")))
	require.NotNil(t, resp.ComprobantePadre)
	assert.Equal(t, padre.ID.String(), *resp.ComprobantePadre)

	// Parent quantities were consumed in the same transaction.
	assert.True(t, f.repo.docs[padre.ID].Items[0].CantidadRestante.IsZero())
}

func TestReemitir_SegundaVezConflicto(t *testing.T) {
	f := newComprobanteFixture(t)
	padre := f.seedComprobante(model.FacturacionAnulado, "3")

	_, err := f.svc.Reemitir(context.Background(), f.scope, padre.ID, dto.ReemitirComprobanteRequest{Tipo: "03"})
	require.NoError(t, err)

	_, err = f.svc.Reemitir(context.Background(), f.scope, padre.ID, dto.ReemitirComprobanteRequest{Tipo: "03"})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, apierror.Status(err))
}

func TestReemitir_PadreNoAnulado(t *testing.T) {
	f := newComprobanteFixture(t)
	padre := f.seedComprobante(model.FacturacionAceptado, "3")

	_, err := f.svc.Reemitir(context.Background(), f.scope, padre.ID, dto.ReemitirComprobanteRequest{Tipo: "03"})

	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, apierror.Status(err))
}

func TestReemitir_FacturaExigeClienteConRUC(t *testing.T) {
	f := newComprobanteFixture(t)
	padre := f.seedComprobante(model.FacturacionAnulado, "3")

	// Without a client.
	_, err := f.svc.Reemitir(context.Background(), f.scope, padre.ID, dto.ReemitirComprobanteRequest{Tipo: "01"})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, apierror.Status(err))

	// With a DNI client.
	dni := f.seedPersona(model.DocDNI)
	dniID := dni.ID.String()
	_, err = f.svc.Reemitir(context.Background(), f.scope, padre.ID, dto.ReemitirComprobanteRequest{
		Tipo: "01", PersonaID: &dniID,
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, apierror.Status(err))

	// With a RUC client: the Factura goes out as F001-1.
	ruc := f.seedPersona(model.DocRUC)
	rucID := ruc.ID.String()
	resp, err := f.svc.Reemitir(context.Background(), f.scope, padre.ID, dto.ReemitirComprobanteRequest{
		Tipo: "01", PersonaID: &rucID,
	})
	require.NoError(t, err)
	assert.Equal(t, "F001", resp.Serie)
	assert.EqualValues(t, 1, resp.Numero)
	require.NotNil(t, resp.PersonaID)
	assert.Equal(t, rucID, *resp.PersonaID)
}

func TestReemitir_TipoDesconocido(t *testing.T) {
	f := newComprobanteFixture(t)
	padre := f.seedComprobante(model.FacturacionAnulado, "3")

	_, err := f.svc.Reemitir(context.Background(), f.scope, padre.ID, dto.ReemitirComprobanteRequest{Tipo: "07"})

	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, apierror.Status(err))
}

func TestReemitir_RestanteParcial(t *testing.T) {
	f := newComprobanteFixture(t)
	// Only 1 of the 3 units survives into the child.
	padre := f.seedComprobante(model.FacturacionAnulado, "1")

	resp, err := f.svc.Reemitir(context.Background(), f.scope, padre.ID, dto.ReemitirComprobanteRequest{Tipo: "80"})

	require.NoError(t, err)
	assert.Equal(t, "N001", resp.Serie)
	assert.True(t, resp.MontoTotal.Equal(decimal.RequireFromString("10.00")))
	require.Len(t, resp.Items, 1)
	assert.True(t, resp.Items[0].Cantidad.Equal(decimal.NewFromInt(1)))
	assert.True(t, resp.Items[0].CantidadRestante.IsZero())
}

// ─── Reintentar ──────────────────────────────────────────────────────────────

func TestReintentar_SoloDesdeProcesandoOError(t *testing.T) {
	f := newComprobanteFixture(t)

	enError := f.seedComprobante(model.FacturacionError, "0")
	require.NoError(t, f.svc.Reintentar(context.Background(), enError.ID))

	procesando := f.seedComprobante(model.FacturacionProcesando, "0")
	require.NoError(t, f.svc.Reintentar(context.Background(), procesando.ID))

	aceptado := f.seedComprobante(model.FacturacionAceptado, "0")
	err := f.svc.Reintentar(context.Background(), aceptado.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, apierror.Status(err))
}

// ─── Obtener / Listar ────────────────────────────────────────────────────────

func TestObtener_NoEncontrado(t *testing.T) {
	f := newComprobanteFixture(t)

	_, err := f.svc.Obtener(context.Background(), uuid.New())

	require.Error(t, err)
}

func TestListar_FiltroEstadoInvalido(t *testing.T) {
	f := newComprobanteFixture(t)

	_, err := f.svc.Listar(context.Background(), f.scope, "NO_EXISTE", 1, 20)

	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, apierror.Status(err))
}

func TestListar_FiltraPorEstado(t *testing.T) {
	f := newComprobanteFixture(t)
	f.seedComprobante(model.FacturacionAceptado, "0")
	f.seedComprobante(model.FacturacionAnulado, "3")

	resp, err := f.svc.Listar(context.Background(), f.scope, "ACCEPTED", 1, 20)

	require.NoError(t, err)
	assert.EqualValues(t, 1, resp.Total)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, model.FacturacionAceptado, resp.Data[0].Estado)
}
