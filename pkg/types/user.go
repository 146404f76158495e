package types

type Role string

const (
	RoleResident Role = "resident"
	RoleAdmin    Role = "admin"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID    string
	Email string
	Role  Role
}

func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// CanAccess reports whether the actor may read a record owned by residentID.
func (a *Actor) CanAccess(residentID string) bool {
	if a == nil {
		return false
	}
	return a.IsAdmin() || a.ID == residentID
}
