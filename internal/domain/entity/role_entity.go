package entity

import "time"

// Authority names used by the route table and the seed data.
const (
	RoleAdmin = "ROLE_ADMIN"
	RoleUser  = "ROLE_USER"
)

// Role represents an authorization role
// Many-to-many with User via users_roles
// Name doubles as the granted authority string.
type Role struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"-"`
}

// Authority returns the authority string granted by this role.
func (r Role) Authority() string {
	return r.Name
}
