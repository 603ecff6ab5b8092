package entity

import "time"

// Roles de operador. RoleSystem lo sintetiza la migración y nunca inicia sesión.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero"
	RoleVendedor  = "vendedor"
	RoleSystem    = "system"
)

// Estados de operador.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User operador que recibe mercancía, vende o ejecuta herramientas administrativas.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt
	Name         string
	Role         string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAssignableRole indica si role puede asignarse a un operador humano.
func IsAssignableRole(role string) bool {
	switch role {
	case RoleAdmin, RoleBodeguero, RoleVendedor:
		return true
	}
	return false
}

// CanLogin operador activo y no sintetizado.
func (u *User) CanLogin() bool {
	return u.Status == UserStatusActive && u.Role != RoleSystem
}
