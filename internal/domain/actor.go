package domain

// Role classifies a consultant account.
type Role string

const (
	RoleConsultant Role = "consultant"
	RoleAdmin      Role = "admin"
)

// Actor identifies who is performing an engine operation. It is passed
// explicitly into every call; the engine never reads identity from ambient
// state. Admin is true only for callers carrying the admin capability.
type Actor struct {
	Name  string
	Admin bool
}

// SystemActor attributes transitions performed by the service itself,
// such as scheduler-driven expiry.
var SystemActor = Actor{Name: "system", Admin: true}

// Consultant is a dealership login able to hold and release stock.
type Consultant struct {
	Username     string
	PasswordHash string
	Role         Role
}

// Actor converts the consultant into a request-scoped actor.
func (c Consultant) Actor() Actor {
	return Actor{Name: c.Username, Admin: c.Role == RoleAdmin}
}
