package access

import "fmt"

// Policy is the single gate every privilege-sensitive user mutation passes
// through before touching storage. It is stateless: each rule is a pairwise
// rank comparison plus an explicit self exception, so adding a role to the
// hierarchy requires no rule changes.
//
// The last-super-admin cardinality guard is NOT here; it needs a live count
// and lives in the user service.
type Policy struct{}

func NewPolicy() Policy { return Policy{} }

// CanModifyUser permits self-service edits and edits of strictly lower roles.
// A peer cannot edit a peer, and nobody edits a higher role.
func (Policy) CanModifyUser(actorID string, actorRole Role, targetID string, targetRole Role) error {
	if actorID == targetID {
		return nil
	}
	if actorRole.Outranks(targetRole) {
		return nil
	}
	return fmt.Errorf("%w: cannot modify a user of equal or higher role", ErrForbidden)
}

// CanChangeRole permits a role change only when the actor strictly outranks
// both the target's current role and the requested role. Changing one's own
// role is blocked for everyone, super_admin included.
func (Policy) CanChangeRole(actorID string, actorRole Role, targetID string, currentRole, requestedRole Role) error {
	if !requestedRole.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, requestedRole)
	}
	if actorID == targetID {
		return fmt.Errorf("%w: cannot change your own role", ErrForbidden)
	}
	if !actorRole.Outranks(currentRole) {
		return fmt.Errorf("%w: cannot change the role of a user of equal or higher role", ErrForbidden)
	}
	if !actorRole.Outranks(requestedRole) {
		return fmt.Errorf("%w: cannot grant a role equal to or higher than your own", ErrForbidden)
	}
	return nil
}

// CanChangeEmail treats email as a sensitive identity field: only admin or
// higher may change it, regardless of whose account it is.
func (Policy) CanChangeEmail(actorRole Role) error {
	if actorRole.Rank() >= RoleAdmin.Rank() {
		return nil
	}
	return fmt.Errorf("%w: changing email requires admin privileges", ErrForbidden)
}

// CanDeleteUser permits self-deletion and deletion of strictly lower roles.
func (Policy) CanDeleteUser(actorID string, actorRole Role, targetID string, targetRole Role) error {
	if actorID == targetID {
		return nil
	}
	if actorRole.Outranks(targetRole) {
		return nil
	}
	return fmt.Errorf("%w: cannot delete a user of equal or higher role", ErrForbidden)
}
