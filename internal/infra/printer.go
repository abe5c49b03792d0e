package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// PrintRequest is sent to the local print bridge, which knows how to reach
// the thermal printer paired with the given device.
type PrintRequest struct {
	DeviceID string          `json:"device_id"`
	Tipo     string          `json:"tipo"` // cierre | pago
	Payload  json.RawMessage `json:"payload"`
}

// PrinterClient talks to the print bridge running next to the registers.
// Printing is best-effort: a dead printer must never block a cash closure.
type PrinterClient struct {
	bridgeURL  string
	httpClient *http.Client
}

func NewPrinterClient(bridgeURL string) *PrinterClient {
	return &PrinterClient{
		bridgeURL:  bridgeURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Imprimir sends a print job to the bridge for the device's printer.
func (c *PrinterClient) Imprimir(ctx context.Context, req PrintRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("printer: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.bridgeURL+"/print", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("printer: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("printer: bridge unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("printer: bridge returned %d", resp.StatusCode)
	}
	return nil
}
