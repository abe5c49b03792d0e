package worker

// email_worker.go
// Processes closure-report jobs from QueueEmail: renders the closure PDF
// and mails it to the configured report address.

import (
	"context"
	"encoding/json"
	"fmt"

	"restopos/internal/dto"
	"restopos/internal/infra"
	"restopos/internal/model"
	"restopos/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	CierreID string `json:"cierre_id"`
}

// ResumirCierreFn folds the closure's payments into the per-method and
// per-user breakdowns used by the report. Injected at wiring time.
type ResumirCierreFn func(pagos []model.Pago) ([]dto.ResumenMetodo, []dto.ResumenUsuario)

// EmailWorker builds and sends the closure report.
type EmailWorker struct {
	mailer      *infra.Mailer
	cierreRepo  repository.CierreRepository
	resumir     ResumirCierreFn
	rdb         *redis.Client
	razonSocial string
	storagePath string
	reportEmail string
}

func NewEmailWorker(
	mailer *infra.Mailer,
	cierreRepo repository.CierreRepository,
	resumir ResumirCierreFn,
	rdb *redis.Client,
	razonSocial, storagePath, reportEmail string,
) *EmailWorker {
	return &EmailWorker{
		mailer:      mailer,
		cierreRepo:  cierreRepo,
		resumir:     resumir,
		rdb:         rdb,
		razonSocial: razonSocial,
		storagePath: storagePath,
		reportEmail: reportEmail,
	}
}

// Process renders the closure PDF and sends it by email.
func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return
	}
	if w.reportEmail == "" {
		log.Debug().Msg("email_worker: no report email configured — skipping")
		return
	}

	cierreID, err := uuid.Parse(payload.CierreID)
	if err != nil {
		log.Error().Str("cierre_id", payload.CierreID).Msg("email_worker: invalid cierre_id")
		return
	}

	cierre, err := w.cierreRepo.FindByID(ctx, cierreID)
	if err != nil {
		log.Error().Err(err).Str("cierre_id", payload.CierreID).Msg("email_worker: cierre not found")
		return
	}

	metodos, usuarios := w.resumir(cierre.Pagos)
	pdfPath, err := infra.GenerarCierrePDF(cierre, metodos, usuarios, w.razonSocial, w.storagePath)
	if err != nil {
		log.Error().Err(err).Str("cierre_id", payload.CierreID).Msg("email_worker: PDF generation failed")
		return
	}

	subject := fmt.Sprintf("%s — Cierre de caja N° %d", w.razonSocial, cierre.NumeroCierre)
	body := fmt.Sprintf(
		"Adjunto el reporte del cierre de caja N° %d.\nIngresos: S/ %s\nEgresos: S/ %s\nNeto: S/ %s",
		cierre.NumeroCierre,
		cierre.TotalIngresos.StringFixed(2),
		cierre.TotalEgresos.StringFixed(2),
		cierre.TotalNeto.StringFixed(2),
	)

	sendErr := withRetry(ctx, 3, func(attempt int) error {
		err := w.mailer.SendReporte(w.reportEmail, subject, body, pdfPath)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).Msg("email_worker: send attempt failed, retrying")
		}
		return err
	})
	if sendErr != nil {
		log.Error().Err(sendErr).Str("to", w.reportEmail).Msg("email_worker: failed to send report")
		SendToDLQ(ctx, w.rdb, QueueEmail, "email", raw, sendErr.Error(), 3)
		return
	}
	log.Info().Str("to", w.reportEmail).Str("pdf", pdfPath).Msg("email_worker: closure report sent")
}
