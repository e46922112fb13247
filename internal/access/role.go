package access

import "fmt"

// Role is a closed privilege level. The set is fixed; ParseRole rejects
// anything outside it so unknown roles never reach a policy comparison.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

var roleRanks = map[Role]int{
	RoleUser:       0,
	RoleAdmin:      1,
	RoleSuperAdmin: 2,
}

// ParseRole normalizes and validates a role value coming from storage or a request.
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	if _, ok := roleRanks[role]; !ok {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, raw)
	}
	return role, nil
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank returns the position of the role in the total order user < admin < super_admin.
func (r Role) Rank() int {
	return roleRanks[r]
}

// Outranks reports whether r is strictly higher than other.
// Equal roles never outrank each other.
func (r Role) Outranks(other Role) bool {
	return r.Rank() > other.Rank()
}

func (r Role) String() string { return string(r) }
