//go:build integration

package e2e

// e2e_test.go
// End-to-end integration tests using real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v
//
// These tests:
//   T-E2E-1: Manual payments → preview → closure → idempotent re-closure
//   T-E2E-2: Closure numbering survives consecutive closures
//   T-E2E-3: Cancellation request moves the document to PROCESSING_CANCELLATION
//   T-E2E-4: Reissuance from a cancelled document consumes remaining quantities

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"restopos/internal/config"
	"restopos/internal/infra"
	"restopos/internal/model"
	"restopos/internal/router"
	"restopos/internal/worker"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"gorm.io/gorm"
)

const testSecret = "test-secret-key"

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token, cajaID string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if cajaID != "" {
		req.Header.Set("X-Caja-ID", cajaID)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func forgeToken(t *testing.T, usuarioID, sucursalID uuid.UUID, rol string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id":     usuarioID.String(),
		"sucursal_id": sucursalID.String(),
		"device_id":   "dev-e2e-01",
		"rol":         rol,
		"exp":         time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server     *httptest.Server
	db         *gorm.DB
	token      string
	sucursalID uuid.UUID
	usuarioID  uuid.UUID
	caja       *model.Caja
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("restopos_test"),
		tcPostgres.WithUsername("restopos"),
		tcPostgres.WithPassword("restopos"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:            8000,
		Env:             "test",
		JWTSecret:       testSecret,
		DatabaseURL:     pgURL,
		RedisURL:        rdURL,
		SUNATSidecarURL: "http://localhost:9999", // never reached in e2e
		WorkerPoolSize:  1,
		PDFStoragePath:  t.TempDir(),
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	sucursalID := uuid.New()
	usuarioID := uuid.New()
	caja := &model.Caja{
		SucursalID: sucursalID,
		Nombre:     "Caja principal",
		Tipo:       model.CajaEfectivo,
		Saldo:      decimal.Zero,
		Activa:     true,
	}
	require.NoError(t, db.Create(caja).Error)

	cb := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	dispatcher := worker.NewDispatcher(rdb)
	r := router.New(cfg, db, rdb, cb, dispatcher)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testEnv{
		server:     srv,
		db:         db,
		token:      forgeToken(t, usuarioID, sucursalID, "administrador"),
		sucursalID: sucursalID,
		usuarioID:  usuarioID,
		caja:       caja,
	}
}

// ── Tests ────────────────────────────────────────────────────────────────────

// T-E2E-1: manual payments → preview → closure → idempotent re-closure.
func TestE2E_CierreCompleto(t *testing.T) {
	env := setupTestEnv(t)
	cajaID := env.caja.ID.String()

	// 1. Two manual income payments: CASH 100 + YAPE 50
	for _, p := range []map[string]any{
		{"monto": "100.00", "metodo": "CASH", "tipo": "INCOME", "descripcion": "venta mostrador"},
		{"monto": "50.00", "metodo": "YAPE", "tipo": "INCOME", "descripcion": "venta delivery"},
	} {
		resp := do(t, env.server, "POST", "/v1/pagos/manual", jsonBody(t, p), env.token, cajaID)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
	}

	// 2. Preview: percentages and closure number
	prevResp := do(t, env.server, "GET", "/v1/cierres/preview", nil, env.token, cajaID)
	require.Equal(t, http.StatusOK, prevResp.StatusCode)
	var preview struct {
		ProximoNumero int  `json:"proximo_numero"`
		PuedeCerrar   bool `json:"puede_cerrar"`
		Metodos       []struct {
			Metodo     string          `json:"metodo"`
			Total      decimal.Decimal `json:"total"`
			Porcentaje decimal.Decimal `json:"porcentaje"`
		} `json:"metodos"`
	}
	decodeJSON(t, prevResp, &preview)
	assert.Equal(t, 1, preview.ProximoNumero)
	assert.True(t, preview.PuedeCerrar)
	require.Len(t, preview.Metodos, 2)
	assert.Equal(t, "CASH", preview.Metodos[0].Metodo)
	assert.True(t, preview.Metodos[0].Porcentaje.Equal(decimal.RequireFromString("66.7")))
	assert.Equal(t, "YAPE", preview.Metodos[1].Metodo)
	assert.True(t, preview.Metodos[1].Porcentaje.Equal(decimal.RequireFromString("33.3")))

	// 3. Execute closure
	closeResp := do(t, env.server, "POST", "/v1/cierres", nil, env.token, cajaID)
	require.Equal(t, http.StatusCreated, closeResp.StatusCode)
	var cierre struct {
		ID            string          `json:"id"`
		NumeroCierre  int             `json:"numero_cierre"`
		TotalNeto     decimal.Decimal `json:"total_neto"`
		CantidadPagos int             `json:"cantidad_pagos"`
	}
	decodeJSON(t, closeResp, &cierre)
	assert.NotEmpty(t, cierre.ID)
	assert.Equal(t, 1, cierre.NumeroCierre)
	assert.True(t, cierre.TotalNeto.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, 2, cierre.CantidadPagos)

	// Register balance was updated by the closure
	var caja model.Caja
	require.NoError(t, env.db.First(&caja, "id = ?", env.caja.ID).Error)
	assert.True(t, caja.Saldo.Equal(decimal.NewFromInt(150)))

	// 4. Re-closure with an empty window is a safe no-op
	again := do(t, env.server, "POST", "/v1/cierres", nil, env.token, cajaID)
	require.Equal(t, http.StatusOK, again.StatusCode)
	var noop struct {
		ID      string `json:"id"`
		Mensaje string `json:"mensaje"`
	}
	decodeJSON(t, again, &noop)
	assert.Empty(t, noop.ID)
	assert.Equal(t, "No hay pagos pendientes de cierre", noop.Mensaje)
}

// T-E2E-2: consecutive closures number 1, 2 with no gaps.
func TestE2E_NumeracionCierres(t *testing.T) {
	env := setupTestEnv(t)
	cajaID := env.caja.ID.String()

	for expected := 1; expected <= 2; expected++ {
		resp := do(t, env.server, "POST", "/v1/pagos/manual",
			jsonBody(t, map[string]any{
				"monto": "10.00", "metodo": "CASH", "tipo": "INCOME", "descripcion": "venta",
			}), env.token, cajaID)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		closeResp := do(t, env.server, "POST", "/v1/cierres", nil, env.token, cajaID)
		require.Equal(t, http.StatusCreated, closeResp.StatusCode)
		var cierre struct {
			NumeroCierre int `json:"numero_cierre"`
		}
		decodeJSON(t, closeResp, &cierre)
		assert.Equal(t, expected, cierre.NumeroCierre)
	}
}

// T-E2E-3: requesting cancellation on an ACCEPTED document parks it in
// PROCESSING_CANCELLATION with the reason stored.
func TestE2E_AnulacionComprobante(t *testing.T) {
	env := setupTestEnv(t)

	comp := seedComprobante(t, env, model.FacturacionAceptado)

	resp := do(t, env.server, "POST", "/v1/comprobantes/"+comp.ID.String()+"/anular",
		jsonBody(t, map[string]any{"motivo": "01"}), env.token, "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var body struct {
		Estado          string  `json:"estado"`
		MotivoAnulacion *string `json:"motivo_anulacion"`
	}
	decodeJSON(t, resp, &body)
	assert.Equal(t, "PROCESSING_CANCELLATION", body.Estado)
	require.NotNil(t, body.MotivoAnulacion)
	assert.Equal(t, "01", *body.MotivoAnulacion)

	// A rejected document cannot be cancelled
	rejected := seedComprobante(t, env, model.FacturacionRechazado)
	resp = do(t, env.server, "POST", "/v1/comprobantes/"+rejected.ID.String()+"/anular",
		jsonBody(t, map[string]any{"motivo": "01"}), env.token, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

// T-E2E-4: reissuing a cancelled document creates a child from remaining
// quantities and zeroes them so a second reissuance conflicts.
func TestE2E_ReemisionComprobante(t *testing.T) {
	env := setupTestEnv(t)

	comp := seedComprobante(t, env, model.FacturacionAnulado)
	// Cancellation restored the full quantities
	require.NoError(t, env.db.Model(&model.ComprobanteItem{}).
		Where("comprobante_id = ?", comp.ID).
		Update("cantidad_restante", gorm.Expr("cantidad")).Error)

	resp := do(t, env.server, "POST", "/v1/comprobantes/"+comp.ID.String()+"/reemitir",
		jsonBody(t, map[string]any{"tipo": "03"}), env.token, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var hijo struct {
		Serie      string          `json:"serie"`
		Numero     int64           `json:"numero"`
		Estado     string          `json:"estado"`
		MontoTotal decimal.Decimal `json:"monto_total"`
		MontoIGV   decimal.Decimal `json:"monto_igv"`
		PadreID    *string         `json:"comprobante_padre_id"`
	}
	decodeJSON(t, resp, &hijo)
	assert.Equal(t, "B001", hijo.Serie)
	assert.Equal(t, "PROCESSING", hijo.Estado)
	assert.True(t, hijo.MontoTotal.Equal(decimal.NewFromInt(30)))
	require.NotNil(t, hijo.PadreID)
	assert.Equal(t, comp.ID.String(), *hijo.PadreID)

	// Parent quantities were consumed: second reissuance conflicts
	resp = do(t, env.server, "POST", "/v1/comprobantes/"+comp.ID.String()+"/reemitir",
		jsonBody(t, map[string]any{"tipo": "03"}), env.token, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

// seedComprobante inserts a Boleta with one line: 3 × 10.00 (8.47 excl. IGV).
func seedComprobante(t *testing.T, env *testEnv, estado model.EstadoFacturacion) *model.Comprobante {
	t.Helper()
	comp := &model.Comprobante{
		SucursalID:   env.sucursalID,
		Serie:        "B001",
		Numero:       int64(time.Now().UnixNano() % 1_000_000),
		Tipo:         model.ComprobanteBoleta,
		Estado:       estado,
		MontoTotal:   decimal.RequireFromString("30.00"),
		MontoGravado: decimal.RequireFromString("25.41"),
		MontoIGV:     decimal.RequireFromString("4.59"),
		Moneda:       "PEN",
		TipoCambio:   decimal.NewFromInt(1),
		FechaEmision: time.Now().UTC(),
		Items: []model.ComprobanteItem{
			{
				OperacionDetalleID: uuid.New(),
				Descripcion:        "Lomo saltado",
				Cantidad:           decimal.NewFromInt(3),
				CantidadRestante:   decimal.Zero,
				ValorUnitario:      decimal.RequireFromString("8.47"),
				PrecioUnitario:     decimal.RequireFromString("10.00"),
				Descuento:          decimal.Zero,
			},
		},
	}
	require.NoError(t, env.db.Create(comp).Error)
	return comp
}
