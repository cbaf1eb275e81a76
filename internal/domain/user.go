package domain

// Role determines navigation and action permissions. A user has exactly one.
type Role string

const (
	RoleSales     Role = "sales"
	RoleCTO       Role = "cto"
	RoleDeveloper Role = "developer"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSales, RoleCTO, RoleDeveloper:
		return true
	}
	return false
}

// User represents a system user. The authoritative copy lives server-side;
// the client only ever holds the copy returned by the auth or users endpoints.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// AssignedUser is the denormalized developer snapshot stored on a project.
// It is a weak reference: the id is authoritative, the name is a display
// snapshot that may go stale if the user record changes.
type AssignedUser struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}
