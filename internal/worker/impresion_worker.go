package worker

// impresion_worker.go
// Processes print jobs from QueueImpresion through the print bridge.
// Printing is best-effort: a dead printer never rolls back the movement or
// closure that requested the ticket. Exhausted jobs land in the DLQ.

import (
	"context"
	"encoding/json"
	"fmt"

	"restopos/internal/infra"
	"restopos/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	ImpresionCierre     = "cierre"
	ImpresionPagoManual = "pago"
)

// ImpresionJobPayload is the job envelope sent to QueueImpresion.
type ImpresionJobPayload struct {
	Tipo         string `json:"tipo"` // cierre | pago
	ReferenciaID string `json:"referencia_id"`
	DeviceID     string `json:"device_id"`
}

// ImpresionWorker renders the ticket content and hands it to the bridge.
type ImpresionWorker struct {
	printer    *infra.PrinterClient
	cierreRepo repository.CierreRepository
	pagoRepo   repository.PagoRepository
	rdb        *redis.Client
}

func NewImpresionWorker(
	printer *infra.PrinterClient,
	cierreRepo repository.CierreRepository,
	pagoRepo repository.PagoRepository,
	rdb *redis.Client,
) *ImpresionWorker {
	return &ImpresionWorker{printer: printer, cierreRepo: cierreRepo, pagoRepo: pagoRepo, rdb: rdb}
}

// Process builds the ticket for the referenced record and prints it.
func (w *ImpresionWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ImpresionJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("impresion_worker: invalid payload")
		return
	}

	refID, err := uuid.Parse(payload.ReferenciaID)
	if err != nil {
		log.Error().Str("referencia_id", payload.ReferenciaID).Msg("impresion_worker: invalid referencia_id")
		return
	}

	contenido, err := w.construirTicket(ctx, payload.Tipo, refID)
	if err != nil {
		log.Error().Err(err).Str("tipo", payload.Tipo).Str("referencia_id", payload.ReferenciaID).
			Msg("impresion_worker: failed to build ticket")
		return
	}

	printErr := withRetry(ctx, 3, func(attempt int) error {
		err := w.printer.Imprimir(ctx, infra.PrintRequest{
			DeviceID: payload.DeviceID,
			Tipo:     payload.Tipo,
			Payload:  contenido,
		})
		if err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("device_id", payload.DeviceID).
				Msg("impresion_worker: print attempt failed, retrying")
		}
		return err
	})

	if printErr != nil {
		log.Error().Err(printErr).Str("device_id", payload.DeviceID).Msg("impresion_worker: print failed after all retries")
		SendToDLQ(ctx, w.rdb, QueueImpresion, "impresion", raw, printErr.Error(), 3)
		return
	}

	log.Info().Str("tipo", payload.Tipo).Str("referencia_id", payload.ReferenciaID).Msg("impresion_worker: ticket printed")
}

func (w *ImpresionWorker) construirTicket(ctx context.Context, tipo string, refID uuid.UUID) (json.RawMessage, error) {
	switch tipo {
	case ImpresionCierre:
		cierre, err := w.cierreRepo.FindByID(ctx, refID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]interface{}{
			"numero_cierre":  cierre.NumeroCierre,
			"caja_id":        cierre.CajaID,
			"total_ingresos": cierre.TotalIngresos,
			"total_egresos":  cierre.TotalEgresos,
			"total_neto":     cierre.TotalNeto,
			"cantidad_pagos": len(cierre.Pagos),
			"cerrado_en":     cierre.CerradoEn,
		})
	case ImpresionPagoManual:
		pago, err := w.pagoRepo.FindByID(ctx, refID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]interface{}{
			"pago_id":     pago.ID,
			"monto":       pago.Monto,
			"metodo":      pago.Metodo.Label(),
			"tipo":        pago.Tipo,
			"descripcion": pago.Descripcion,
			"fecha":       pago.CreatedAt,
		})
	}
	return nil, fmt.Errorf("impresion_worker: tipo de ticket desconocido: %s", tipo)
}
