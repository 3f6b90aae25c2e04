package domain

// WildcardScope is the literal scope value that dominates all concrete
// scopes for the same (system, perm) pair (§4.2).
const WildcardScope = "*"

// Permission declares that a (system, perm_id) pair exists and whether it
// takes a scope.
type Permission struct {
	SystemID    string
	PermID      string
	HasScope    bool
	Description string
}

// PermissionAssignment grants a permission to exactly one of a group or an
// API token. Scope is nil for unscoped permissions.
type PermissionAssignment struct {
	ID         string
	SystemID   string
	PermID     string
	Scope      *string
	Group      *GroupRef
	APITokenID *string
}

// ScopeOrEmpty returns the scope literal, or "" when unscoped — used for
// the null-as-empty lexicographic ordering required by §4.2/§8.
func (a PermissionAssignment) ScopeOrEmpty() string {
	if a.Scope == nil {
		return ""
	}
	return *a.Scope
}

// EffectivePermission is one entry of the folded result returned by
// perms_of: a perm_id paired with at most one scope (nil for unscoped,
// possibly the wildcard literal for scoped perms where it dominates).
type EffectivePermission struct {
	PermID string
	Scope  *string
}

// ScopeOrEmpty mirrors PermissionAssignment.ScopeOrEmpty for ordering.
func (p EffectivePermission) ScopeOrEmpty() string {
	if p.Scope == nil {
		return ""
	}
	return *p.Scope
}
