package entity

import "time"

// Supplier representa un proveedor de medicamentos.
type Supplier struct {
	ID        string
	Code      string // código único
	Name      string
	System    bool // true para el proveedor sintetizado por la migración
	CreatedAt time.Time
	UpdatedAt time.Time
}
