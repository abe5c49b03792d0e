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

// umbralNetoNegativo: a net total below this threshold gets a WARNING in the
// preview. Informational only — it never blocks the closure.
var umbralNetoNegativo = decimal.NewFromInt(-1000)

type CierreService interface {
	// Preview computes the read-only closure preview. Recomputable at will;
	// the executor never trusts it (see Cerrar).
	Preview(ctx context.Context, scope dto.RequestScope) (*dto.CierrePreviewResponse, error)
	// Cerrar executes the closure atomically under the register lock.
	Cerrar(ctx context.Context, scope dto.RequestScope) (*dto.CierreResponse, error)
	RegistrarPagoManual(ctx context.Context, scope dto.RequestScope, req dto.PagoManualRequest) error
	Historial(ctx context.Context, scope dto.RequestScope, page, limit int) ([]dto.CierreListItem, int64, error)
}

type cierreService struct {
	pagoRepo      repository.PagoRepository
	cajaRepo      repository.CajaRepository
	cierreRepo    repository.CierreRepository
	ocupacionRepo repository.OcupacionRepository
	dispatcher    *worker.Dispatcher
}

func NewCierreService(
	pagoRepo repository.PagoRepository,
	cajaRepo repository.CajaRepository,
	cierreRepo repository.CierreRepository,
	ocupacionRepo repository.OcupacionRepository,
	dispatcher *worker.Dispatcher,
) CierreService {
	return &cierreService{
		pagoRepo:      pagoRepo,
		cajaRepo:      cajaRepo,
		cierreRepo:    cierreRepo,
		ocupacionRepo: ocupacionRepo,
		dispatcher:    dispatcher,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Preview ──────────────────────────────────────────────────────────────────

func (s *cierreService) Preview(ctx context.Context, scope dto.RequestScope) (*dto.CierrePreviewResponse, error) {
	if scope.CajaID == uuid.Nil {
		return nil, apierror.Validation("debe seleccionar una caja")
	}

	caja, err := s.cajaRepo.FindByID(ctx, scope.CajaID)
	if err != nil {
		return nil, apierror.Validation("caja no encontrada")
	}

	pagos, err := s.pagoRepo.ListSinCerrar(ctx, scope.CajaID)
	if err != nil {
		return nil, err
	}

	usuarios, err := s.resumenUsuarios(ctx, scope.SucursalID, pagos)
	if err != nil {
		return nil, err
	}

	maxNum, err := s.cierreRepo.MaxNumeroCierre(ctx, scope.CajaID)
	if err != nil {
		return nil, err
	}

	resumen := Resumir(pagos, map[uuid.UUID]model.TipoCaja{caja.ID: caja.Tipo})

	return &dto.CierrePreviewResponse{
		SucursalID:    scope.SucursalID.String(),
		CajaID:        scope.CajaID.String(),
		ProximoNumero: maxNum + 1,
		Resumen:       resumen,
		Metodos:       PorMetodo(pagos),
		Usuarios:      usuarios,
		Advertencias:  generarAdvertencias(usuarios, resumen),
		PuedeCerrar:   puedeCerrarCaja(usuarios),
	}, nil
}

// resumenUsuarios joins the payment window with occupancy facts.
func (s *cierreService) resumenUsuarios(ctx context.Context, sucursalID uuid.UUID, pagos []model.Pago) ([]dto.ResumenUsuario, error) {
	usuarioIDs := make([]uuid.UUID, 0)
	visto := make(map[uuid.UUID]bool)
	for _, p := range pagos {
		if !visto[p.UsuarioID] {
			visto[p.UsuarioID] = true
			usuarioIDs = append(usuarioIDs, p.UsuarioID)
		}
	}

	operaciones, err := s.ocupacionRepo.ListOperaciones(ctx, sucursalID, usuarioIDs)
	if err != nil {
		return nil, err
	}
	mesas, err := s.ocupacionRepo.ListMesasOcupadas(ctx, sucursalID)
	if err != nil {
		return nil, err
	}
	return PorUsuario(pagos, operaciones, mesas), nil
}

// puedeCerrarUsuario: a user holding an open table can never be closed.
// Hard rule, not a warning.
func puedeCerrarUsuario(u dto.ResumenUsuario) bool { return !u.TieneMesasOcupadas }

func puedeCerrarCaja(usuarios []dto.ResumenUsuario) bool {
	for _, u := range usuarios {
		if !puedeCerrarUsuario(u) {
			return false
		}
	}
	return true
}

// generarAdvertencias emits warnings in priority order:
// ERROR (occupied tables) → INFO (no pending payments) → WARNING (soft).
func generarAdvertencias(usuarios []dto.ResumenUsuario, resumen dto.ResumenPagos) []dto.Advertencia {
	adv := make([]dto.Advertencia, 0)

	for _, u := range usuarios {
		if !u.TieneMesasOcupadas {
			continue
		}
		nombres := ""
		for i, n := range u.NombresMesas {
			if i > 0 {
				nombres += ", "
			}
			nombres += n
		}
		adv = append(adv, dto.Advertencia{
			Tipo: dto.AdvertenciaError,
			Mensaje: fmt.Sprintf("El usuario %s tiene %d mesa(s) ocupada(s): %s",
				u.UsuarioID, u.MesasOcupadas, nombres),
		})
	}

	if resumen.PagosPendientes.IsZero() {
		adv = append(adv, dto.Advertencia{
			Tipo:    dto.AdvertenciaInfo,
			Mensaje: "No hay pagos pendientes",
		})
	}

	if resumen.TotalNeto.LessThan(umbralNetoNegativo) {
		adv = append(adv, dto.Advertencia{
			Tipo:    dto.AdvertenciaWarning,
			Mensaje: fmt.Sprintf("Total neto inusualmente negativo: %s", resumen.TotalNeto.StringFixed(2)),
		})
	}

	return adv
}

// ── Cerrar ───────────────────────────────────────────────────────────────────
// Single atomic unit. The preview computed before confirmation is NOT
// trusted: eligibility, totals and the closure number are all recomputed
// here, under the exclusive per-register lock, to close the TOCTOU window
// between preview and confirmation.

func (s *cierreService) Cerrar(ctx context.Context, scope dto.RequestScope) (*dto.CierreResponse, error) {
	if scope.CajaID == uuid.Nil {
		return nil, apierror.Validation("debe seleccionar una caja")
	}

	var resp *dto.CierreResponse
	txErr := runTx(ctx, s.pagoRepo.DB(), func(tx *gorm.DB) error {
		caja, err := s.cajaRepo.LockTx(tx, scope.CajaID)
		if err != nil {
			return err
		}

		pagos, err := s.pagoRepo.ListSinCerrarTx(tx, scope.CajaID)
		if err != nil {
			return err
		}

		// Idempotency: a second closure request that serialized behind the
		// first finds nothing eligible — safe no-op, no record created.
		if len(pagos) == 0 {
			resp = &dto.CierreResponse{
				CajaID:        caja.ID.String(),
				TotalIngresos: decimal.Zero,
				TotalEgresos:  decimal.Zero,
				TotalNeto:     decimal.Zero,
				Mensaje:       "No hay pagos pendientes de cierre",
			}
			return nil
		}

		usuarios, err := s.resumenUsuarios(ctx, scope.SucursalID, pagos)
		if err != nil {
			return err
		}
		if !puedeCerrarCaja(usuarios) {
			return apierror.Conflict("existen mesas ocupadas; no se puede cerrar la caja")
		}

		resumen := Resumir(pagos, map[uuid.UUID]model.TipoCaja{caja.ID: caja.Tipo})

		maxNum, err := s.cierreRepo.MaxNumeroCierreTx(tx, scope.CajaID)
		if err != nil {
			return err
		}

		cierre := &model.CierreCaja{
			CajaID:        caja.ID,
			SucursalID:    scope.SucursalID,
			NumeroCierre:  maxNum + 1,
			UsuarioID:     scope.UsuarioID,
			TotalIngresos: resumen.TotalIngresos,
			TotalEgresos:  resumen.TotalEgresos,
			TotalNeto:     resumen.TotalNeto,
			CerradoEn:     time.Now().UTC(),
		}
		if err := s.cierreRepo.CreateTx(tx, cierre); err != nil {
			return err
		}

		ids := make([]uuid.UUID, 0, len(pagos))
		for _, p := range pagos {
			ids = append(ids, p.ID)
		}
		if err := s.pagoRepo.MarcarCerradosTx(tx, ids, cierre.ID); err != nil {
			return err
		}

		if err := s.cajaRepo.ActualizarSaldoTx(tx, caja.ID, caja.Saldo.Add(resumen.TotalNeto)); err != nil {
			return err
		}

		resp = &dto.CierreResponse{
			ID:            cierre.ID.String(),
			CajaID:        caja.ID.String(),
			NumeroCierre:  cierre.NumeroCierre,
			TotalIngresos: cierre.TotalIngresos,
			TotalEgresos:  cierre.TotalEgresos,
			TotalNeto:     cierre.TotalNeto,
			CantidadPagos: len(pagos),
			CerradoEn:     cierre.CerradoEn.Format(time.RFC3339),
			Mensaje:       fmt.Sprintf("Cierre de caja N° %d realizado correctamente", cierre.NumeroCierre),
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	// Post-commit side effects: closure ticket print + report email.
	// Enqueued after the transaction — their failure never reverses the
	// closure; the workers carry their own retry/backoff.
	if s.dispatcher != nil && resp.ID != "" {
		_ = s.dispatcher.EnqueueImpresion(ctx, worker.ImpresionJobPayload{
			Tipo: worker.ImpresionCierre, ReferenciaID: resp.ID, DeviceID: scope.DeviceID,
		})
		_ = s.dispatcher.EnqueueEmail(ctx, worker.EmailJobPayload{CierreID: resp.ID})
	}

	return resp, nil
}

// ── RegistrarPagoManual ──────────────────────────────────────────────────────
// Manual income/expense movement. The ledger is append-only: corrections are
// new inverse movements, never updates.

func (s *cierreService) RegistrarPagoManual(ctx context.Context, scope dto.RequestScope, req dto.PagoManualRequest) error {
	if scope.CajaID == uuid.Nil {
		return apierror.Validation("debe seleccionar una caja")
	}
	metodo, err := model.ParseMetodoPago(req.Metodo)
	if err != nil {
		return apierror.Validation(err.Error())
	}
	tipo, err := model.ParseTipoTransaccion(req.Tipo)
	if err != nil {
		return apierror.Validation(err.Error())
	}

	pago := &model.Pago{
		CajaID:      scope.CajaID,
		SucursalID:  scope.SucursalID,
		UsuarioID:   scope.UsuarioID,
		Monto:       req.Monto,
		Metodo:      metodo,
		Tipo:        tipo,
		Estado:      model.PagoPagado,
		Descripcion: req.Descripcion,
	}
	if err := s.pagoRepo.Create(ctx, pago); err != nil {
		return err
	}

	// Print runs after the financial mutation committed; a printer failure
	// is reported by the worker but never reverses the movement.
	if req.Imprimir && s.dispatcher != nil {
		_ = s.dispatcher.EnqueueImpresion(ctx, worker.ImpresionJobPayload{
			Tipo: worker.ImpresionPagoManual, ReferenciaID: pago.ID.String(), DeviceID: scope.DeviceID,
		})
	}
	return nil
}

// ── Historial ────────────────────────────────────────────────────────────────

func (s *cierreService) Historial(ctx context.Context, scope dto.RequestScope, page, limit int) ([]dto.CierreListItem, int64, error) {
	cierres, total, err := s.cierreRepo.List(ctx, scope.CajaID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	items := make([]dto.CierreListItem, 0, len(cierres))
	for _, c := range cierres {
		items = append(items, dto.CierreListItem{
			ID:            c.ID.String(),
			CajaID:        c.CajaID.String(),
			NumeroCierre:  c.NumeroCierre,
			UsuarioID:     c.UsuarioID.String(),
			TotalIngresos: c.TotalIngresos,
			TotalEgresos:  c.TotalEgresos,
			TotalNeto:     c.TotalNeto,
			CerradoEn:     c.CerradoEn.Format(time.RFC3339),
		})
	}
	return items, total, nil
}
