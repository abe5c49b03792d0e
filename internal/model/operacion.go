package model

import (
	"time"

	"github.com/google/uuid"
)

// Operacion is a table order / sale operation. The settlement core only
// reads it: per-user operation and dish counts, and occupancy blocking.
// CRUD lives with the sales collaborator.
type Operacion struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SucursalID uuid.UUID  `gorm:"type:uuid;not null;index"`
	MesaID     *uuid.UUID `gorm:"type:uuid;index"`
	UsuarioID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	Estado     string     `gorm:"type:varchar(20);not null"`
	CreatedAt  time.Time

	Detalles []OperacionDetalle `gorm:"foreignKey:OperacionID"`
}

// OperacionDetalle is one dish line of an operation.
type OperacionDetalle struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OperacionID uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductoID  uuid.UUID `gorm:"type:uuid;not null"`
	Producto    string    `gorm:"not null"`
	Cantidad    int       `gorm:"not null"`
}

// Mesa is a restaurant table. An OCCUPIED table tied to a user blocks that
// user's closure.
type Mesa struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SucursalID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	Nombre      string     `gorm:"not null"`
	Estado      EstadoMesa `gorm:"type:varchar(10);not null;default:'FREE'"`
	OcupadaPor  *uuid.UUID `gorm:"type:uuid;index"`
	UpdatedAt   time.Time
}
