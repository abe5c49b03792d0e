package repository

import (
	"context"
	"errors"

	"restopos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CierreRepository interface {
	// MaxNumeroCierre returns the highest closure number for a register,
	// or 0 when none exist.
	MaxNumeroCierre(ctx context.Context, cajaID uuid.UUID) (int, error)
	// MaxNumeroCierreTx is the same query inside the closure transaction;
	// recomputed under the register lock to avoid duplicate numbers.
	MaxNumeroCierreTx(tx *gorm.DB, cajaID uuid.UUID) (int, error)
	CreateTx(tx *gorm.DB, c *model.CierreCaja) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CierreCaja, error)
	List(ctx context.Context, cajaID uuid.UUID, page, limit int) ([]model.CierreCaja, int64, error)
}

type cierreRepo struct{ db *gorm.DB }

func NewCierreRepository(db *gorm.DB) CierreRepository { return &cierreRepo{db: db} }

func (r *cierreRepo) MaxNumeroCierre(ctx context.Context, cajaID uuid.UUID) (int, error) {
	return maxNumeroCierre(r.db.WithContext(ctx), cajaID)
}

func (r *cierreRepo) MaxNumeroCierreTx(tx *gorm.DB, cajaID uuid.UUID) (int, error) {
	return maxNumeroCierre(tx, cajaID)
}

func maxNumeroCierre(db *gorm.DB, cajaID uuid.UUID) (int, error) {
	var max *int
	err := db.Model(&model.CierreCaja{}).
		Where("caja_id = ?", cajaID).
		Select("MAX(numero_cierre)").
		Scan(&max).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (r *cierreRepo) CreateTx(tx *gorm.DB, c *model.CierreCaja) error {
	return tx.Create(c).Error
}

func (r *cierreRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CierreCaja, error) {
	var c model.CierreCaja
	err := r.db.WithContext(ctx).Preload("Pagos").First(&c, "id = ?", id).Error
	return &c, err
}

func (r *cierreRepo) List(ctx context.Context, cajaID uuid.UUID, page, limit int) ([]model.CierreCaja, int64, error) {
	var cierres []model.CierreCaja
	var total int64

	q := r.db.WithContext(ctx).Model(&model.CierreCaja{}).Where("caja_id = ?", cajaID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("numero_cierre DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&cierres).Error
	return cierres, total, err
}
