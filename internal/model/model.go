// Package model defines the records served by the inventory/sales API.
// JSON field names follow the wire format of the upstream service, which is
// Spanish throughout (/productos, /usuarios, /ventas).
package model

import "time"

// Role is the access level attached to a user account.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerador Role = "moderador"
	RoleCliente   Role = "cliente"
)

// Record is implemented by every resource type so the generic store can
// identify records and stamp ids onto fallback values.
type Record[T any] interface {
	RecordID() int64
	WithID(id int64) T
}

// Product is a catalogue entry.
type Product struct {
	ID     int64   `json:"id"`
	Nombre string  `json:"nombre" validate:"required,min=2"`
	Precio float64 `json:"precio" validate:"required,gt=0"`
}

func (p Product) RecordID() int64 { return p.ID }

func (p Product) WithID(id int64) Product {
	p.ID = id
	return p
}

// User is an account known to the API. Accounts are created through
// self-registration; the admin console only edits them.
type User struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre" validate:"required,min=2"`
	Email  string `json:"email"  validate:"required,email"`
	Edad   int    `json:"edad"   validate:"required,min=1,max=120"`
	Rol    Role   `json:"rol"    validate:"required,oneof=admin moderador cliente"`
}

func (u User) RecordID() int64 { return u.ID }

func (u User) WithID(id int64) User {
	u.ID = id
	return u
}

// Sale links a user to a product purchase. Total is normally
// Cantidad * Precio of the product but stays independently editable.
type Sale struct {
	ID         int64     `json:"id"`
	UsuarioID  int64     `json:"usuarioId"  validate:"required,gt=0"`
	ProductoID int64     `json:"productoId" validate:"required,gt=0"`
	Cantidad   int       `json:"cantidad"   validate:"required,gt=0"`
	Total      float64   `json:"total"      validate:"required,gt=0"`
	Fecha      time.Time `json:"fecha"      validate:"required"`
}

func (s Sale) RecordID() int64 { return s.ID }

func (s Sale) WithID(id int64) Sale {
	s.ID = id
	return s
}

// DerivedTotal computes the sale total for a product selection. It is the
// reactive derivation behind the sale form's total field.
func DerivedTotal(p Product, cantidad int) float64 {
	return p.Precio * float64(cantidad)
}
