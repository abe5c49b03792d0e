package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Caja is a named till/account bucket within a branch that accumulates
// payments between closures. Balance is mutated ONLY by the closure executor.
type Caja struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SucursalID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Nombre     string          `gorm:"not null"`
	Tipo       TipoCaja        `gorm:"type:varchar(10);not null"`
	Saldo      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Activa     bool            `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Pago is an immutable entry in the payment ledger. A payment belongs to
// exactly one closure once closed; unclosed payments have CierreID = nil.
type Pago struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CajaID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	SucursalID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	UsuarioID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	OperacionID *uuid.UUID      `gorm:"type:uuid;index"`
	Monto       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Metodo      MetodoPago      `gorm:"type:varchar(10);not null"`
	Tipo        TipoTransaccion `gorm:"type:varchar(10);not null"`
	Estado      EstadoPago      `gorm:"type:varchar(10);not null;default:'PAID'"`
	Descripcion string
	// CierreID is set exactly once, by the closure executor. Never cleared.
	CierreID  *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt time.Time
}

// CierreCaja finalizes all eligible payments for a register at a point in
// time. Immutable once created — corrections happen through new payments in
// the next closure window.
type CierreCaja struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CajaID     uuid.UUID `gorm:"type:uuid;not null;index:idx_cierres_caja_numero,unique,priority:1"`
	SucursalID uuid.UUID `gorm:"type:uuid;not null;index"`
	// NumeroCierre is per-register, monotonically increasing, starting at 1.
	NumeroCierre  int             `gorm:"not null;index:idx_cierres_caja_numero,unique,priority:2"`
	UsuarioID     uuid.UUID       `gorm:"type:uuid;not null"`
	TotalIngresos decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalEgresos  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalNeto     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CerradoEn     time.Time       `gorm:"not null"`

	Pagos []Pago `gorm:"foreignKey:CierreID"`
}
