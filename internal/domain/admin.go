package domain

import "time"

// RoleAdmin is the profile role that grants access to the admin shell.
const RoleAdmin = "admin"

// Profile is the account record the admin check reads the role from.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAdmin reports whether the profile may use the admin shell.
func (p Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// AdminAccount holds local credentials when the hosted auth service is not used.
type AdminAccount struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
