package repository

import (
	"context"

	"restopos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OcupacionRepository exposes the occupancy facts the eligibility evaluator
// consumes: open operations (with dish lines) and occupied tables. The sales
// collaborator owns the writes.
type OcupacionRepository interface {
	ListOperaciones(ctx context.Context, sucursalID uuid.UUID, usuarioIDs []uuid.UUID) ([]model.Operacion, error)
	ListMesasOcupadas(ctx context.Context, sucursalID uuid.UUID) ([]model.Mesa, error)
}

type ocupacionRepo struct{ db *gorm.DB }

func NewOcupacionRepository(db *gorm.DB) OcupacionRepository { return &ocupacionRepo{db: db} }

func (r *ocupacionRepo) ListOperaciones(ctx context.Context, sucursalID uuid.UUID, usuarioIDs []uuid.UUID) ([]model.Operacion, error) {
	var ops []model.Operacion
	q := r.db.WithContext(ctx).Preload("Detalles").Where("sucursal_id = ?", sucursalID)
	if len(usuarioIDs) > 0 {
		q = q.Where("usuario_id IN ?", usuarioIDs)
	}
	err := q.Find(&ops).Error
	return ops, err
}

func (r *ocupacionRepo) ListMesasOcupadas(ctx context.Context, sucursalID uuid.UUID) ([]model.Mesa, error) {
	var mesas []model.Mesa
	err := r.db.WithContext(ctx).
		Where("sucursal_id = ? AND estado = ?", sucursalID, model.MesaOcupada).
		Order("nombre ASC").
		Find(&mesas).Error
	return mesas, err
}
