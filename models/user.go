package models

type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleOrganizer UserRole = "organizer"
	RolePlayer    UserRole = "player"
)

// CanManageTournaments reports whether the role may drive bracket writes.
func (r UserRole) CanManageTournaments() bool {
	return r == RoleAdmin || r == RoleOrganizer
}
