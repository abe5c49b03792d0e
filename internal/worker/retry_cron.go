package worker

// retry_cron.go
// Background goroutine that periodically re-enqueues billing jobs for
// documents stuck in ERROR / CANCELLATION_ERROR (or never picked up from
// PROCESSING) with a next_retry_at in the past. Skips entirely while the
// circuit breaker is open so a downed sidecar is never hammered.

import (
	"context"
	"encoding/json"
	"time"

	"restopos/internal/infra"
	"restopos/internal/model"
	"restopos/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	ComprobanteRepo repository.ComprobanteRepository
	Dispatcher      *Dispatcher
	CB              *infra.CircuitBreaker
	RDB             *redis.Client
}

// StartRetryCron launches a background goroutine that ticks every 30s,
// queries due documents, and re-enqueues their billing jobs.
// It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	// If CB is open, skip entirely — don't hammer a downed sidecar
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return
	}

	now := time.Now()
	comprobantes, err := cfg.ComprobanteRepo.ListPendingRetries(ctx, now, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending retries")
		return
	}

	if len(comprobantes) == 0 {
		return
	}

	log.Info().Int("count", len(comprobantes)).Msg("retry_cron: processing due comprobantes")

	for i := range comprobantes {
		comp := &comprobantes[i]

		if comp.RetryCount >= MaxComprobanteRetries {
			parkExhausted(ctx, cfg, comp)
			continue
		}

		operacion := OperacionEmitir
		if comp.Estado == model.FacturacionErrorAnulacion {
			// CANCELLATION_ERROR re-enters the cancellation leg.
			comp.Estado = model.FacturacionProcesandoAnulacion
			operacion = OperacionAnular
		}

		// Clear the schedule before enqueuing so the next tick cannot
		// double-enqueue a job still sitting in the queue. The worker
		// re-schedules on failure.
		comp.NextRetryAt = nil
		if err := cfg.ComprobanteRepo.Update(ctx, comp); err != nil {
			log.Error().Err(err).Str("comprobante_id", comp.ID.String()).Msg("retry_cron: failed to clear schedule")
			continue
		}

		if err := cfg.Dispatcher.EnqueueFacturacion(ctx, FacturacionJobPayload{
			ComprobanteID: comp.ID.String(),
			Operacion:     operacion,
		}); err != nil {
			log.Error().Err(err).Str("comprobante_id", comp.ID.String()).Msg("retry_cron: failed to enqueue")
			continue
		}

		log.Info().
			Str("comprobante_id", comp.ID.String()).
			Str("operacion", operacion).
			Int("retry_count", comp.RetryCount).
			Msg("retry_cron: billing job re-enqueued")
	}
}

// parkExhausted stops retrying a document and records it in the DLQ for
// manual inspection. The document keeps its error state.
func parkExhausted(ctx context.Context, cfg RetryCronConfig, comp *model.Comprobante) {
	comp.NextRetryAt = nil
	if err := cfg.ComprobanteRepo.Update(ctx, comp); err != nil {
		log.Error().Err(err).Str("comprobante_id", comp.ID.String()).Msg("retry_cron: failed to park document")
		return
	}

	lastError := ""
	if comp.LastError != nil {
		lastError = *comp.LastError
	}
	payload, _ := json.Marshal(FacturacionJobPayload{ComprobanteID: comp.ID.String()})
	SendToDLQ(ctx, cfg.RDB, QueueFacturacion, "facturacion", payload,
		lastError, comp.RetryCount)

	log.Error().
		Str("comprobante_id", comp.ID.String()).
		Int("retries", comp.RetryCount).
		Msg("retry_cron: max retries exceeded, moved to DLQ")
}
