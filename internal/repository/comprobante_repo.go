package repository

import (
	"context"
	"time"

	"restopos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ComprobanteFilter struct {
	SucursalID uuid.UUID
	Estado     string
	Page       int
	Limit      int
}

type ComprobanteRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Comprobante, error)
	// FindByIDLockTx loads the document with its items under FOR UPDATE
	// NOWAIT. Serializes concurrent reissuance/cancellation of the same
	// parent; lock busy → ConcurrencyError.
	FindByIDLockTx(tx *gorm.DB, id uuid.UUID) (*model.Comprobante, error)
	Update(ctx context.Context, c *model.Comprobante) error
	UpdateTx(tx *gorm.DB, c *model.Comprobante) error
	CreateTx(tx *gorm.DB, c *model.Comprobante) error
	// ConsumirRestanteTx zeroes the remaining quantity of the given items.
	// Must run inside the transaction that created the child document.
	ConsumirRestanteTx(tx *gorm.DB, itemIDs []uuid.UUID) error
	// RestablecerRestanteTx sets every item's remaining quantity back to its
	// original quantity. Runs when a document reaches CANCELLED, making the
	// full quantities available for reissuance.
	RestablecerRestanteTx(tx *gorm.DB, comprobanteID uuid.UUID) error
	// NextNumeroTx returns the next document number for a serie, computed
	// under the enclosing transaction.
	NextNumeroTx(tx *gorm.DB, sucursalID uuid.UUID, serie string) (int64, error)
	List(ctx context.Context, f ComprobanteFilter) ([]model.Comprobante, int64, error)
	// ListPendingRetries returns documents whose next_retry_at is due,
	// bounded by limit, for the retry cron.
	ListPendingRetries(ctx context.Context, now time.Time, limit int) ([]model.Comprobante, error)
	DB() *gorm.DB
}

type comprobanteRepo struct{ db *gorm.DB }

func NewComprobanteRepository(db *gorm.DB) ComprobanteRepository {
	return &comprobanteRepo{db: db}
}

func (r *comprobanteRepo) DB() *gorm.DB { return r.db }

func (r *comprobanteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Comprobante, error) {
	var c model.Comprobante
	err := r.db.WithContext(ctx).
		Preload("Items").Preload("Persona").
		First(&c, "id = ?", id).Error
	return &c, err
}

func (r *comprobanteRepo) FindByIDLockTx(tx *gorm.DB, id uuid.UUID) (*model.Comprobante, error) {
	var c model.Comprobante
	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"}).
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, traducirErrorLock(err, "otra operación está en curso sobre este comprobante")
	}
	// Items are loaded after the lock is held so the quantities read are the
	// serialized ones.
	if err := tx.Where("comprobante_id = ?", id).Find(&c.Items).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *comprobanteRepo) Update(ctx context.Context, c *model.Comprobante) error {
	return r.db.WithContext(ctx).Omit("Items", "Persona").Save(c).Error
}

func (r *comprobanteRepo) UpdateTx(tx *gorm.DB, c *model.Comprobante) error {
	return tx.Omit("Items", "Persona").Save(c).Error
}

func (r *comprobanteRepo) CreateTx(tx *gorm.DB, c *model.Comprobante) error {
	return tx.Create(c).Error
}

func (r *comprobanteRepo) ConsumirRestanteTx(tx *gorm.DB, itemIDs []uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}
	return tx.Model(&model.ComprobanteItem{}).
		Where("id IN ?", itemIDs).
		Update("cantidad_restante", decimal.Zero).Error
}

func (r *comprobanteRepo) RestablecerRestanteTx(tx *gorm.DB, comprobanteID uuid.UUID) error {
	return tx.Model(&model.ComprobanteItem{}).
		Where("comprobante_id = ?", comprobanteID).
		Update("cantidad_restante", gorm.Expr("cantidad")).Error
}

func (r *comprobanteRepo) NextNumeroTx(tx *gorm.DB, sucursalID uuid.UUID, serie string) (int64, error) {
	var max *int64
	err := tx.Model(&model.Comprobante{}).
		Where("sucursal_id = ? AND serie = ?", sucursalID, serie).
		Select("MAX(numero)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

func (r *comprobanteRepo) List(ctx context.Context, f ComprobanteFilter) ([]model.Comprobante, int64, error) {
	var docs []model.Comprobante
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Comprobante{}).
		Where("sucursal_id = ?", f.SucursalID)
	if f.Estado != "" {
		q = q.Where("estado = ?", f.Estado)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("Items").
		Order("fecha_emision DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&docs).Error
	return docs, total, err
}

func (r *comprobanteRepo) ListPendingRetries(ctx context.Context, now time.Time, limit int) ([]model.Comprobante, error) {
	var docs []model.Comprobante
	err := r.db.WithContext(ctx).
		Where("estado IN ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?",
			[]model.EstadoFacturacion{
				model.FacturacionProcesando, model.FacturacionError,
				model.FacturacionErrorAnulacion,
			}, now).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&docs).Error
	return docs, err
}
