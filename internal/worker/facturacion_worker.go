package worker

// facturacion_worker.go
// Processes fiscal billing jobs from QueueFacturacion.
// Drives the document state machine against the SUNAT sidecar: emission
// (PROCESSING → SENT → verdict) and cancellation (PROCESSING_CANCELLATION →
// CANCELLATION_PENDING → CANCELLED). All sidecar calls run through the
// shared circuit breaker.

import (
	"context"
	"encoding/json"
	"time"

	"restopos/internal/infra"
	"restopos/internal/model"
	"restopos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	OperacionEmitir = "EMITIR"
	OperacionAnular = "ANULAR"

	// MaxComprobanteRetries bounds sidecar re-attempts per document; beyond
	// it the document parks in ERROR and the job lands in the DLQ.
	MaxComprobanteRetries = 5
)

// FacturacionJobPayload is the job envelope sent to QueueFacturacion.
type FacturacionJobPayload struct {
	ComprobanteID string `json:"comprobante_id"`
	Operacion     string `json:"operacion"` // EMITIR | ANULAR
}

// FacturacionWorker processes billing jobs from QueueFacturacion.
type FacturacionWorker struct {
	sunat     *infra.SUNATClient
	cb        *infra.CircuitBreaker
	repo      repository.ComprobanteRepository
	rucEmisor string
}

func NewFacturacionWorker(
	sunat *infra.SUNATClient,
	cb *infra.CircuitBreaker,
	repo repository.ComprobanteRepository,
	rucEmisor string,
) *FacturacionWorker {
	return &FacturacionWorker{sunat: sunat, cb: cb, repo: repo, rucEmisor: rucEmisor}
}

// Process handles a single billing job.
func (w *FacturacionWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload FacturacionJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("facturacion_worker: invalid payload")
		return
	}

	id, err := uuid.Parse(payload.ComprobanteID)
	if err != nil {
		log.Error().Str("comprobante_id", payload.ComprobanteID).Msg("facturacion_worker: invalid comprobante_id")
		return
	}

	comp, err := w.repo.FindByID(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("comprobante_id", payload.ComprobanteID).Msg("facturacion_worker: comprobante not found")
		return
	}

	switch payload.Operacion {
	case OperacionEmitir:
		w.procesarEmision(ctx, comp)
	case OperacionAnular:
		w.procesarAnulacion(ctx, comp)
	default:
		log.Warn().Str("operacion", payload.Operacion).Msg("facturacion_worker: unknown operation dropped")
	}
}

func (w *FacturacionWorker) procesarEmision(ctx context.Context, comp *model.Comprobante) {
	// A stale job may arrive after the document already moved on.
	if !comp.Estado.PuedeTransicionar(model.FacturacionEnviado) {
		log.Warn().
			Str("comprobante_id", comp.ID.String()).
			Str("estado", string(comp.Estado)).
			Msg("facturacion_worker: document cannot be sent from its current state, skipping")
		return
	}

	comp.Estado = model.FacturacionEnviado
	if err := w.repo.Update(ctx, comp); err != nil {
		log.Error().Err(err).Str("comprobante_id", comp.ID.String()).Msg("facturacion_worker: failed to mark SENT")
		return
	}

	sunatPayload := w.buildEmisionPayload(comp)

	var resp *infra.SUNATResponse
	callErr := withRetry(ctx, 3, func(attempt int) error {
		return w.cb.Execute(func() error {
			r, err := w.sunat.Emitir(ctx, sunatPayload)
			if err != nil {
				log.Warn().
					Err(err).
					Int("attempt", attempt+1).
					Str("comprobante_id", comp.ID.String()).
					Msg("facturacion_worker: emission attempt failed, retrying")
				return err
			}
			resp = r
			return nil
		})
	})

	if callErr != nil {
		w.programarReintento(ctx, comp, callErr)
		return
	}

	w.aplicarVeredicto(ctx, comp, resp)
}

// aplicarVeredicto maps the sidecar verdict onto the state machine.
func (w *FacturacionWorker) aplicarVeredicto(ctx context.Context, comp *model.Comprobante, resp *infra.SUNATResponse) {
	switch resp.Estado {
	case infra.SUNATAceptado:
		comp.Estado = model.FacturacionAceptado
		comp.NextRetryAt = nil
		comp.LastError = nil
	case infra.SUNATAceptadoConObs:
		comp.Estado = model.FacturacionAceptadoConObs
		comp.NextRetryAt = nil
		comp.LastError = nil
	case infra.SUNATRechazado:
		comp.Estado = model.FacturacionRechazado
		comp.NextRetryAt = nil
		if resp.MensajeError != "" {
			msg := resp.MensajeError
			comp.LastError = &msg
		}
	default:
		log.Error().
			Str("comprobante_id", comp.ID.String()).
			Str("estado_sunat", resp.Estado).
			Msg("facturacion_worker: unknown sidecar verdict")
		return
	}

	if err := w.repo.Update(ctx, comp); err != nil {
		log.Error().Err(err).Str("comprobante_id", comp.ID.String()).Msg("facturacion_worker: failed to store verdict")
		return
	}
	log.Info().
		Str("comprobante_id", comp.ID.String()).
		Str("serie_numero", comp.Serie).
		Str("estado", string(comp.Estado)).
		Msg("facturacion_worker: verdict stored")
}

func (w *FacturacionWorker) procesarAnulacion(ctx context.Context, comp *model.Comprobante) {
	if comp.Estado != model.FacturacionProcesandoAnulacion {
		log.Warn().
			Str("comprobante_id", comp.ID.String()).
			Str("estado", string(comp.Estado)).
			Msg("facturacion_worker: document not awaiting cancellation, skipping")
		return
	}

	motivo := ""
	if comp.MotivoAnulacion != nil {
		motivo = string(*comp.MotivoAnulacion)
	}
	descripcion := ""
	if comp.DetalleAnulacion != nil {
		descripcion = *comp.DetalleAnulacion
	}

	var resp *infra.SUNATResponse
	callErr := withRetry(ctx, 3, func(attempt int) error {
		return w.cb.Execute(func() error {
			r, err := w.sunat.Anular(ctx, infra.SUNATAnulacionPayload{
				RUCEmisor:       w.rucEmisor,
				TipoComprobante: string(comp.Tipo),
				Serie:           comp.Serie,
				Numero:          comp.Numero,
				Motivo:          motivo,
				Descripcion:     descripcion,
			})
			if err != nil {
				log.Warn().
					Err(err).
					Int("attempt", attempt+1).
					Str("comprobante_id", comp.ID.String()).
					Msg("facturacion_worker: cancellation attempt failed, retrying")
				return err
			}
			resp = r
			return nil
		})
	})

	if callErr != nil || resp.Estado == infra.SUNATRechazado {
		comp.Estado = model.FacturacionErrorAnulacion
		comp.RetryCount++
		if callErr != nil {
			msg := callErr.Error()
			comp.LastError = &msg
		} else if resp.MensajeError != "" {
			msg := resp.MensajeError
			comp.LastError = &msg
		}
		next := time.Now().Add(computeRetryBackoff(comp.RetryCount))
		comp.NextRetryAt = &next
		_ = w.repo.Update(ctx, comp)
		log.Warn().
			Str("comprobante_id", comp.ID.String()).
			Int("retry_count", comp.RetryCount).
			Msg("facturacion_worker: cancellation failed, scheduled re-attempt")
		return
	}

	// Baja accepted. Mark pending, then confirm and restore the remaining
	// quantities atomically: a CANCELLED document with stale zero restantes
	// would block its own reissuance.
	comp.Estado = model.FacturacionAnulacionPendiente
	comp.NextRetryAt = nil
	comp.LastError = nil
	if err := w.repo.Update(ctx, comp); err != nil {
		log.Error().Err(err).Str("comprobante_id", comp.ID.String()).Msg("facturacion_worker: failed to mark CANCELLATION_PENDING")
		return
	}

	err := w.repo.DB().Transaction(func(tx *gorm.DB) error {
		comp.Estado = model.FacturacionAnulado
		if err := w.repo.UpdateTx(tx, comp); err != nil {
			return err
		}
		return w.repo.RestablecerRestanteTx(tx, comp.ID)
	})
	if err != nil {
		log.Error().Err(err).Str("comprobante_id", comp.ID.String()).Msg("facturacion_worker: failed to finalize cancellation")
		return
	}

	log.Info().
		Str("comprobante_id", comp.ID.String()).
		Str("ticket", resp.Ticket).
		Msg("facturacion_worker: document cancelled, quantities restored")
}

// programarReintento parks a document in ERROR with its next attempt time.
// The retry cron re-enqueues it when due.
func (w *FacturacionWorker) programarReintento(ctx context.Context, comp *model.Comprobante, cause error) {
	comp.Estado = model.FacturacionError
	comp.RetryCount++
	msg := cause.Error()
	comp.LastError = &msg
	next := time.Now().Add(computeRetryBackoff(comp.RetryCount))
	comp.NextRetryAt = &next
	if err := w.repo.Update(ctx, comp); err != nil {
		log.Error().Err(err).Str("comprobante_id", comp.ID.String()).Msg("facturacion_worker: failed to schedule retry")
		return
	}
	log.Warn().
		Str("comprobante_id", comp.ID.String()).
		Int("retry_count", comp.RetryCount).
		Time("next_retry_at", next).
		Msg("facturacion_worker: emission failed, retry scheduled")
}

func (w *FacturacionWorker) buildEmisionPayload(comp *model.Comprobante) infra.SUNATPayload {
	p := infra.SUNATPayload{
		RUCEmisor:       w.rucEmisor,
		TipoComprobante: string(comp.Tipo),
		Serie:           comp.Serie,
		Numero:          comp.Numero,
		FechaEmision:    comp.FechaEmision.Format("2006-01-02"),
		Moneda:          comp.Moneda,
		MontoGravado:    comp.MontoGravado.InexactFloat64(),
		MontoIGV:        comp.MontoIGV.InexactFloat64(),
		MontoTotal:      comp.MontoTotal.InexactFloat64(),
		DescuentoTotal:  comp.DescuentoTotal.InexactFloat64(),
	}
	if comp.Persona != nil {
		p.TipoDocCliente = string(comp.Persona.TipoDocumento)
		p.NumDocCliente = comp.Persona.NumeroDocumento
		p.NombreCliente = comp.Persona.NombreRazon
	}
	for _, it := range comp.Items {
		p.Items = append(p.Items, infra.SUNATItem{
			Descripcion:    it.Descripcion,
			Cantidad:       it.Cantidad.InexactFloat64(),
			ValorUnitario:  it.ValorUnitario.InexactFloat64(),
			PrecioUnitario: it.PrecioUnitario.InexactFloat64(),
			Descuento:      it.Descuento.InexactFloat64(),
		})
	}
	return p
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

// computeRetryBackoff returns the cron-level wait before the next attempt:
// 1m, 2m, 4m … capped at 30m.
func computeRetryBackoff(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	d := time.Duration(1<<uint(retryCount-1)) * time.Minute
	if d > 30*time.Minute {
		d = 30 * time.Minute
	}
	return d
}
