package repository

import (
	"context"
	"errors"

	"restopos/internal/apierror"
	"restopos/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// pgLockNotAvailable is raised by FOR UPDATE NOWAIT when another transaction
// holds the row lock.
const pgLockNotAvailable = "55P03"

// traducirErrorLock turns a lock-acquisition failure into a ConcurrencyError
// the caller may retry with backoff; everything else passes through.
func traducirErrorLock(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return apierror.Concurrency(msg)
	}
	return err
}

type CajaRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Caja, error)
	ListBySucursal(ctx context.Context, sucursalID uuid.UUID) ([]model.Caja, error)
	// LockTx acquires the exclusive per-register lock (FOR UPDATE NOWAIT).
	// Returns ConcurrencyError when another closure holds it.
	LockTx(tx *gorm.DB, id uuid.UUID) (*model.Caja, error)
	ActualizarSaldoTx(tx *gorm.DB, id uuid.UUID, saldo decimal.Decimal) error
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Caja, error) {
	var c model.Caja
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *cajaRepo) ListBySucursal(ctx context.Context, sucursalID uuid.UUID) ([]model.Caja, error) {
	var cajas []model.Caja
	err := r.db.WithContext(ctx).
		Where("sucursal_id = ? AND activa", sucursalID).
		Order("nombre ASC").
		Find(&cajas).Error
	return cajas, err
}

func (r *cajaRepo) LockTx(tx *gorm.DB, id uuid.UUID) (*model.Caja, error) {
	var c model.Caja
	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"}).
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, traducirErrorLock(err, "otro cierre está en curso para esta caja")
	}
	return &c, nil
}

func (r *cajaRepo) ActualizarSaldoTx(tx *gorm.DB, id uuid.UUID, saldo decimal.Decimal) error {
	return tx.Model(&model.Caja{}).Where("id = ?", id).Update("saldo", saldo).Error
}
