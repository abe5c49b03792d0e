package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SUNATItem is one document line as sent to the sidecar.
type SUNATItem struct {
	Descripcion    string  `json:"descripcion"`
	Cantidad       float64 `json:"cantidad"`
	ValorUnitario  float64 `json:"valor_unitario"`
	PrecioUnitario float64 `json:"precio_unitario"`
	Descuento      float64 `json:"descuento"`
}

// SUNATPayload is sent by the worker pool to the SUNAT sidecar, which handles
// the UBL signing and the SOAP exchange with the tax authority.
type SUNATPayload struct {
	RUCEmisor       string      `json:"ruc_emisor"`
	TipoComprobante string      `json:"tipo_comprobante"` // 01 | 03 | 80
	Serie           string      `json:"serie"`
	Numero          int64       `json:"numero"`
	FechaEmision    string      `json:"fecha_emision"` // YYYY-MM-DD
	Moneda          string      `json:"moneda"`
	MontoGravado    float64     `json:"monto_gravado"`
	MontoIGV        float64     `json:"monto_igv"`
	MontoTotal      float64     `json:"monto_total"`
	DescuentoTotal  float64     `json:"descuento_total"`
	TipoDocCliente  string      `json:"tipo_doc_cliente,omitempty"`
	NumDocCliente   string      `json:"num_doc_cliente,omitempty"`
	NombreCliente   string      `json:"nombre_cliente,omitempty"`
	Items           []SUNATItem `json:"items"`
}

// SUNATAnulacionPayload requests a void (comunicación de baja) for an
// already emitted document.
type SUNATAnulacionPayload struct {
	RUCEmisor       string `json:"ruc_emisor"`
	TipoComprobante string `json:"tipo_comprobante"`
	Serie           string `json:"serie"`
	Numero          int64  `json:"numero"`
	Motivo          string `json:"motivo"`
	Descripcion     string `json:"descripcion,omitempty"`
}

// SUNATResponse is returned by the sidecar after the SOAP round trip.
// Estado: ACEPTADO | ACEPTADO_CON_OBSERVACIONES | RECHAZADO.
type SUNATResponse struct {
	Estado        string   `json:"estado"`
	Hash          string   `json:"hash,omitempty"`
	Ticket        string   `json:"ticket,omitempty"` // async void ticket
	Observaciones []string `json:"observaciones,omitempty"`
	CodigoError   string   `json:"codigo_error,omitempty"`
	MensajeError  string   `json:"mensaje_error,omitempty"`
}

const (
	SUNATAceptado       = "ACEPTADO"
	SUNATAceptadoConObs = "ACEPTADO_CON_OBSERVACIONES"
	SUNATRechazado      = "RECHAZADO"
)

// SUNATClient delegates all tax-authority communication to the sidecar so a
// SUNAT outage never takes down the core backend.
type SUNATClient struct {
	sidecarURL string
	httpClient *http.Client
}

func NewSUNATClient(sidecarURL string) *SUNATClient {
	return &SUNATClient{
		sidecarURL: sidecarURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Emitir submits a document for emission and returns the sidecar verdict.
func (c *SUNATClient) Emitir(ctx context.Context, payload SUNATPayload) (*SUNATResponse, error) {
	return c.post(ctx, "/emitir", payload)
}

// Anular submits a void request for an already accepted document.
func (c *SUNATClient) Anular(ctx context.Context, payload SUNATAnulacionPayload) (*SUNATResponse, error) {
	return c.post(ctx, "/anular", payload)
}

func (c *SUNATClient) post(ctx context.Context, path string, payload interface{}) (*SUNATResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("sunat: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sidecarURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("sunat: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sunat: sidecar unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sunat: sidecar returned %d", resp.StatusCode)
	}

	var result SUNATResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("sunat: decode response: %w", err)
	}
	return &result, nil
}
