package user

import (
	"time"

	"github.com/google/uuid"
)

// Roles separate consignment sellers from warehouse staff.
const (
	RoleSeller = "seller"
	RoleStaff  = "staff"
	RoleAdmin  = "admin"
)

// User represents an account in the system: a consignment seller,
// a warehouse staff member, or an admin.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
