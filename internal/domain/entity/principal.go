package entity

// Principal is the authenticated user attached to a request.
// Account state is static: accounts never expire, lock or get disabled.
type Principal struct {
	UserID      int64    `json:"user_id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Authorities []string `json:"authorities"`
}

// NewPrincipal builds a principal from a user loaded with its roles.
func NewPrincipal(u *User) *Principal {
	return &Principal{
		UserID:      u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Authorities: u.Authorities(),
	}
}

func (p *Principal) HasAuthority(authority string) bool {
	if p == nil {
		return false
	}
	for _, a := range p.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

func (p *Principal) AccountNonExpired() bool     { return true }
func (p *Principal) AccountNonLocked() bool      { return true }
func (p *Principal) CredentialsNonExpired() bool { return true }
func (p *Principal) Enabled() bool               { return true }
