package repository

import (
	"context"

	"restopos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PagoRepository interface {
	Create(ctx context.Context, p *model.Pago) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Pago, error)
	// ListSinCerrar returns the payments of a register not yet frozen into a
	// closure — the aggregation window "since last closure".
	ListSinCerrar(ctx context.Context, cajaID uuid.UUID) ([]model.Pago, error)
	// ListSinCerrarTx is the same select issued inside the closure
	// transaction, after the register lock is held.
	ListSinCerrarTx(tx *gorm.DB, cajaID uuid.UUID) ([]model.Pago, error)
	// MarcarCerradosTx associates the closure id with every included payment.
	// Payments are never deleted.
	MarcarCerradosTx(tx *gorm.DB, ids []uuid.UUID, cierreID uuid.UUID) error
	DB() *gorm.DB
}

type pagoRepo struct{ db *gorm.DB }

func NewPagoRepository(db *gorm.DB) PagoRepository { return &pagoRepo{db: db} }

func (r *pagoRepo) DB() *gorm.DB { return r.db }

func (r *pagoRepo) Create(ctx context.Context, p *model.Pago) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *pagoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Pago, error) {
	var p model.Pago
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *pagoRepo) ListSinCerrar(ctx context.Context, cajaID uuid.UUID) ([]model.Pago, error) {
	return listSinCerrar(r.db.WithContext(ctx), cajaID)
}

func (r *pagoRepo) ListSinCerrarTx(tx *gorm.DB, cajaID uuid.UUID) ([]model.Pago, error) {
	return listSinCerrar(tx, cajaID)
}

func listSinCerrar(db *gorm.DB, cajaID uuid.UUID) ([]model.Pago, error) {
	var pagos []model.Pago
	err := db.
		Where("caja_id = ? AND cierre_id IS NULL", cajaID).
		Order("created_at ASC").
		Find(&pagos).Error
	return pagos, err
}

func (r *pagoRepo) MarcarCerradosTx(tx *gorm.DB, ids []uuid.UUID, cierreID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Model(&model.Pago{}).
		Where("id IN ? AND cierre_id IS NULL", ids).
		Update("cierre_id", cierreID).Error
}
