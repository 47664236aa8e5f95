package domain

// Role is the capability an authenticated actor carries.
type Role string

const (
	RolePlayer    Role = "player"
	RoleAuthority Role = "authority"
)

// Actor is the authenticated caller of an escrow operation.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// IsAuthority reports whether the actor may settle or cancel wagers.
func (a Actor) IsAuthority() bool {
	return a.Role == RoleAuthority
}

// Valid reports whether the actor carries an id and a known role.
func (a Actor) Valid() bool {
	if a.ID == "" {
		return false
	}
	return a.Role == RolePlayer || a.Role == RoleAuthority
}
