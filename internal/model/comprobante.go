package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Comprobante is a fiscal (or internal) sales document tracked against SUNAT.
// Serie + Numero identify it within its document type (e.g. B001-000123).
type Comprobante struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SucursalID uuid.UUID         `gorm:"type:uuid;not null;index"`
	Serie      string            `gorm:"type:varchar(4);not null"`
	Numero     int64             `gorm:"not null"`
	Tipo       TipoComprobante   `gorm:"type:varchar(2);not null"`
	Estado     EstadoFacturacion `gorm:"type:varchar(30);not null;default:'PROCESSING'"`

	// Client — required (with RUC) for Factura, optional otherwise.
	PersonaID *uuid.UUID `gorm:"type:uuid;index"`
	Persona   *Persona   `gorm:"foreignKey:PersonaID"`

	MontoTotal     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MontoGravado   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MontoIGV       decimal.Decimal `gorm:"type:decimal(12,2);not null;column:monto_igv"`
	DescuentoTotal decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Moneda         string          `gorm:"type:varchar(3);not null;default:'PEN'"`
	TipoCambio     decimal.Decimal `gorm:"type:decimal(8,4);not null;default:1"`

	// Cancellation — reason code is one of the fixed 8 entries.
	MotivoAnulacion  *MotivoAnulacion `gorm:"type:varchar(2)"`
	DetalleAnulacion *string

	// ComprobantePadreID is set when this document was created by reissuing
	// the remaining quantities of a cancelled parent.
	ComprobantePadreID *uuid.UUID `gorm:"type:uuid;index"`

	FechaEmision time.Time `gorm:"not null"`

	// Retry fields — used by the retry cron to re-attempt failed SUNAT calls.
	RetryCount  int        `gorm:"not null;default:0"`
	NextRetryAt *time.Time `gorm:"column:next_retry_at"`
	LastError   *string

	Items []ComprobanteItem `gorm:"foreignKey:ComprobanteID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ComprobanteItem is one line of a fiscal document. CantidadRestante tracks
// the portion not yet carried into a successor document via reissuance;
// it is only meaningful once the parent is CANCELLED.
type ComprobanteItem struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ComprobanteID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	OperacionDetalleID  uuid.UUID       `gorm:"type:uuid;not null"`
	Descripcion         string          `gorm:"not null"`
	Cantidad            decimal.Decimal `gorm:"type:decimal(10,3);not null"`
	CantidadRestante    decimal.Decimal `gorm:"type:decimal(10,3);not null;default:0"`
	// ValorUnitario excludes IGV; PrecioUnitario includes it.
	ValorUnitario  decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	Descuento      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
}

// Persona is a client (natural or juridical person).
type Persona struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TipoDocumento   TipoDocIdentidad `gorm:"type:varchar(10);not null"`
	NumeroDocumento string           `gorm:"type:varchar(15);not null;index"`
	NombreRazon     string           `gorm:"not null"`
	Direccion       *string
	Email           *string
	CreatedAt       time.Time
}
