// Package policy holds the object-level access rules for every resource the
// API exposes. Handlers authenticate at the view level (middleware) and then
// must re-check here before reading or mutating a specific row.
package policy

// Actor is the authenticated caller, as extracted from the access token.
type Actor struct {
	ID      string
	IsAdmin bool
}

// Ownership is the owner scope of a category or transaction. A resource is
// either owned by a specific user or global (shared, ownerless). Global is an
// explicit case here rather than a nil check scattered through handlers.
type Ownership struct {
	ownerID string
	global  bool
}

// OwnedBy returns the ownership scope for a resource belonging to userID.
func OwnedBy(userID string) Ownership {
	return Ownership{ownerID: userID}
}

// Global returns the shared, ownerless scope.
func Global() Ownership {
	return Ownership{global: true}
}

// IsGlobal reports whether the resource has no owner.
func (o Ownership) IsGlobal() bool {
	return o.global
}

// OwnerID returns the owning user id and false for global resources.
func (o Ownership) OwnerID() (string, bool) {
	if o.global {
		return "", false
	}
	return o.ownerID, true
}

// CanAccessUser reports whether actor may read or mutate the user resource
// identified by targetID. Users manage themselves; admins manage everyone.
func CanAccessUser(actor Actor, targetID string) bool {
	return actor.IsAdmin || actor.ID == targetID
}

// CanView reports whether actor may see a resource with the given ownership.
// Global resources are visible to every authenticated user.
func CanView(actor Actor, owner Ownership) bool {
	if actor.IsAdmin || owner.global {
		return true
	}
	return owner.ownerID == actor.ID
}

// CanMutate reports whether actor may update or delete a resource with the
// given ownership. Nobody owns a global resource, so mutating one is
// admin-only.
func CanMutate(actor Actor, owner Ownership) bool {
	if actor.IsAdmin {
		return true
	}
	if owner.global {
		return false
	}
	return owner.ownerID == actor.ID
}

// Decision is the outcome of an access check, carrying enough information for
// the handler to pick the right response.
type Decision int

const (
	// Allow grants the operation.
	Allow Decision = iota
	// Forbid means the resource is visible to the actor but the operation is
	// not permitted (403).
	Forbid
	// Mask means the actor must not learn the resource exists (404).
	Mask
)

// CheckMutation combines visibility and mutation rules. A resource the actor
// cannot even see is masked as not-found; a visible but unowned resource
// (a global category for a non-admin) is forbidden.
func CheckMutation(actor Actor, owner Ownership) Decision {
	if CanMutate(actor, owner) {
		return Allow
	}
	if CanView(actor, owner) {
		return Forbid
	}
	return Mask
}
