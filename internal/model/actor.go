package model

// Actor is the authenticated caller of an operation, taken from the JWT.
// It is never persisted.
type Actor struct {
	UID      int    `json:"uid"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the actor has the admin role
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// UIDPtr returns the actor id for nullable foreign keys; 0 means system
func (a Actor) UIDPtr() *int {
	if a.UID == 0 {
		return nil
	}
	return IntPtr(a.UID)
}
