package dto

import "github.com/google/uuid"

// RequestScope carries the request-scoped identity every service call needs:
// branch, acting user, selected register and device. It is built once by the
// auth middleware from JWT claims + headers and threaded explicitly — there
// is no ambient session/company global anywhere in the codebase.
type RequestScope struct {
	SucursalID uuid.UUID
	UsuarioID  uuid.UUID
	CajaID     uuid.UUID
	DeviceID   string
}
