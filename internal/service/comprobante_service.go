package service

import (
	"context"
	"fmt"
	"time"

	"restopos/internal/apierror"
	"restopos/internal/dto"
	"restopos/internal/model"
	"restopos/internal/repository"
	"restopos/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ComprobanteService interface {
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ComprobanteResponse, error)
	Listar(ctx context.Context, scope dto.RequestScope, estado string, page, limit int) (*dto.ComprobanteListResponse, error)
	// Anular requests cancellation before SUNAT. Legal only from
	// ACCEPTED / SENT / ACCEPTED_WITH_OBSERVATIONS, with one of the fixed
	// 8 reason codes.
	Anular(ctx context.Context, scope dto.RequestScope, id uuid.UUID, req dto.AnularComprobanteRequest) (*dto.ComprobanteResponse, error)
	// Reemitir creates a new document from the remaining quantities of a
	// CANCELLED parent, consuming them in the same transaction.
	Reemitir(ctx context.Context, scope dto.RequestScope, parentID uuid.UUID, req dto.ReemitirComprobanteRequest) (*dto.ComprobanteResponse, error)
	// Reintentar re-enqueues the SUNAT emission of a stuck document.
	Reintentar(ctx context.Context, id uuid.UUID) error
}

type comprobanteService struct {
	repo        repository.ComprobanteRepository
	personaRepo repository.PersonaRepository
	dispatcher  *worker.Dispatcher
}

func NewComprobanteService(
	repo repository.ComprobanteRepository,
	personaRepo repository.PersonaRepository,
	dispatcher *worker.Dispatcher,
) ComprobanteService {
	return &comprobanteService{repo: repo, personaRepo: personaRepo, dispatcher: dispatcher}
}

// ── Obtener / Listar ─────────────────────────────────────────────────────────

func (s *comprobanteService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ComprobanteResponse, error) {
	comp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.Validation("comprobante no encontrado")
	}
	return comprobanteToResponse(comp), nil
}

func (s *comprobanteService) Listar(ctx context.Context, scope dto.RequestScope, estado string, page, limit int) (*dto.ComprobanteListResponse, error) {
	if estado != "" {
		if _, err := model.ParseEstadoFacturacion(estado); err != nil {
			return nil, apierror.Validation(err.Error())
		}
	}
	docs, total, err := s.repo.List(ctx, repository.ComprobanteFilter{
		SucursalID: scope.SucursalID,
		Estado:     estado,
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.ComprobanteResponse, 0, len(docs))
	for i := range docs {
		out = append(out, *comprobanteToResponse(&docs[i]))
	}
	return &dto.ComprobanteListResponse{Data: out, Total: total, Page: page, Limit: limit}, nil
}

// ── Anular ───────────────────────────────────────────────────────────────────

func (s *comprobanteService) Anular(ctx context.Context, scope dto.RequestScope, id uuid.UUID, req dto.AnularComprobanteRequest) (*dto.ComprobanteResponse, error) {
	motivo, err := model.ParseMotivoAnulacion(req.Motivo)
	if err != nil {
		return nil, apierror.Validation(err.Error())
	}

	var comp *model.Comprobante
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		comp, err = s.repo.FindByIDLockTx(tx, id)
		if err != nil {
			return err
		}
		if !comp.Estado.PuedeAnularse() {
			return apierror.State(fmt.Sprintf(
				"el comprobante %s-%d no puede anularse en estado %s",
				comp.Serie, comp.Numero, comp.Estado))
		}

		comp.Estado = model.FacturacionProcesandoAnulacion
		comp.MotivoAnulacion = &motivo
		comp.DetalleAnulacion = req.Descripcion
		return s.repo.UpdateTx(tx, comp)
	})
	if txErr != nil {
		return nil, txErr
	}

	// The cancellation is confirmed asynchronously: the billing worker sends
	// the void request to SUNAT and advances the state machine from there.
	if s.dispatcher != nil {
		_ = s.dispatcher.EnqueueFacturacion(ctx, worker.FacturacionJobPayload{
			ComprobanteID: comp.ID.String(),
			Operacion:     worker.OperacionAnular,
		})
	}

	return comprobanteToResponse(comp), nil
}

// ── Reemitir ─────────────────────────────────────────────────────────────────

func (s *comprobanteService) Reemitir(ctx context.Context, scope dto.RequestScope, parentID uuid.UUID, req dto.ReemitirComprobanteRequest) (*dto.ComprobanteResponse, error) {
	tipo, err := model.ParseTipoComprobante(req.Tipo)
	if err != nil {
		return nil, apierror.Validation(err.Error())
	}

	// Factura demands a RUC client. Rejected before anything is created.
	var personaID *uuid.UUID
	if tipo.RequiereRUC() {
		if req.PersonaID == nil {
			return nil, apierror.Validation("una factura requiere un cliente con RUC")
		}
		pid, err := uuid.Parse(*req.PersonaID)
		if err != nil {
			return nil, apierror.Validation("persona_id inválido")
		}
		persona, err := s.personaRepo.FindByID(ctx, pid)
		if err != nil {
			return nil, apierror.Validation("cliente no encontrado")
		}
		if persona.TipoDocumento != model.DocRUC {
			return nil, apierror.Validation("el cliente de una factura debe tener RUC")
		}
		personaID = &pid
	} else if req.PersonaID != nil {
		pid, err := uuid.Parse(*req.PersonaID)
		if err != nil {
			return nil, apierror.Validation("persona_id inválido")
		}
		personaID = &pid
	}

	moneda := "PEN"
	tipoCambio := decimal.NewFromInt(1)
	if req.Moneda != nil {
		moneda = *req.Moneda
	}
	if req.TipoCambio != nil {
		tipoCambio = *req.TipoCambio
	}

	var hijo *model.Comprobante
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		// The parent lock serializes concurrent reissuance attempts so the
		// same remaining quantity cannot be spent into two children.
		padre, err := s.repo.FindByIDLockTx(tx, parentID)
		if err != nil {
			return err
		}
		if padre.Estado != model.FacturacionAnulado {
			return apierror.State(fmt.Sprintf(
				"solo un comprobante anulado puede reemitirse; estado actual: %s", padre.Estado))
		}

		reemitibles := ItemsReemitibles(padre.Items)
		if len(reemitibles) == 0 {
			return apierror.Conflict("el comprobante no tiene cantidades restantes por reemitir")
		}

		totales := CalcularReemision(reemitibles)

		serie := SerieParaTipo(tipo)
		numero, err := s.repo.NextNumeroTx(tx, padre.SucursalID, serie)
		if err != nil {
			return err
		}

		hijo = &model.Comprobante{
			SucursalID:         padre.SucursalID,
			Serie:              serie,
			Numero:             numero,
			Tipo:               tipo,
			Estado:             model.FacturacionProcesando,
			PersonaID:          personaID,
			MontoTotal:         totales.MontoTotal,
			MontoGravado:       totales.MontoGravado,
			MontoIGV:           totales.MontoIGV,
			DescuentoTotal:     totales.DescuentoTotal,
			Moneda:             moneda,
			TipoCambio:         tipoCambio,
			ComprobantePadreID: &padre.ID,
			FechaEmision:       time.Now().UTC(),
		}
		consumidos := make([]uuid.UUID, 0, len(reemitibles))
		for _, it := range reemitibles {
			hijo.Items = append(hijo.Items, model.ComprobanteItem{
				OperacionDetalleID: it.OperacionDetalleID,
				Descripcion:        it.Descripcion,
				Cantidad:           it.CantidadRestante,
				CantidadRestante:   decimal.Zero,
				ValorUnitario:      it.ValorUnitario,
				PrecioUnitario:     it.PrecioUnitario,
				Descuento:          it.Descuento,
			})
			consumidos = append(consumidos, it.ID)
		}

		if err := s.repo.CreateTx(tx, hijo); err != nil {
			return err
		}
		// Consume the carried-over quantities under the same lock.
		return s.repo.ConsumirRestanteTx(tx, consumidos)
	})
	if txErr != nil {
		return nil, txErr
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.EnqueueFacturacion(ctx, worker.FacturacionJobPayload{
			ComprobanteID: hijo.ID.String(),
			Operacion:     worker.OperacionEmitir,
		})
	}

	return comprobanteToResponse(hijo), nil
}

// ── Reintentar ───────────────────────────────────────────────────────────────

func (s *comprobanteService) Reintentar(ctx context.Context, id uuid.UUID) error {
	comp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return apierror.Validation("comprobante no encontrado")
	}
	switch comp.Estado {
	case model.FacturacionProcesando, model.FacturacionError:
		// re-enqueue below
	default:
		return apierror.State(fmt.Sprintf(
			"el comprobante en estado %s no admite reintento", comp.Estado))
	}
	if s.dispatcher == nil {
		return nil
	}
	return s.dispatcher.EnqueueFacturacion(ctx, worker.FacturacionJobPayload{
		ComprobanteID: comp.ID.String(),
		Operacion:     worker.OperacionEmitir,
	})
}

// ── helpers ──────────────────────────────────────────────────────────────────

func comprobanteToResponse(c *model.Comprobante) *dto.ComprobanteResponse {
	resp := &dto.ComprobanteResponse{
		ID:             c.ID.String(),
		Serie:          c.Serie,
		Numero:         c.Numero,
		Tipo:           c.Tipo,
		TipoEtiqueta:   c.Tipo.Label(),
		Estado:         c.Estado,
		MontoTotal:     c.MontoTotal,
		MontoGravado:   c.MontoGravado,
		MontoIGV:       c.MontoIGV,
		DescuentoTotal: c.DescuentoTotal,
		Moneda:         c.Moneda,
		TipoCambio:     c.TipoCambio,
		FechaEmision:   c.FechaEmision.Format(time.RFC3339),
	}
	if c.PersonaID != nil {
		s := c.PersonaID.String()
		resp.PersonaID = &s
	}
	if c.MotivoAnulacion != nil {
		s := string(*c.MotivoAnulacion)
		resp.MotivoAnulacion = &s
	}
	if c.ComprobantePadreID != nil {
		s := c.ComprobantePadreID.String()
		resp.ComprobantePadre = &s
	}
	for _, it := range c.Items {
		resp.Items = append(resp.Items, dto.ComprobanteItemResponse{
			ID:               it.ID.String(),
			Descripcion:      it.Descripcion,
			Cantidad:         it.Cantidad,
			CantidadRestante: it.CantidadRestante,
			ValorUnitario:    it.ValorUnitario,
			PrecioUnitario:   it.PrecioUnitario,
			Descuento:        it.Descuento,
		})
	}
	return resp
}
