// Package policy implements the access-control decisions for user
// management. It is pure: every function takes the acting principal
// explicitly, performs no I/O, and returns a tagged Decision the web layer
// maps onto HTTP statuses.
package policy

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Rejection reasons. The strings double as user-facing messages, so they
// must stay stable for the frontend.
const (
	ReasonAdminRequired   = "Admin access required"
	ReasonOnlyAdminCreate = "Only administrators can create new users"
	ReasonSelfDelete      = "Cannot delete your own account"
	ReasonSelfDeactivate  = "Cannot deactivate your own account"
	ReasonNotSelfNotAdmin = "You do not have permission to update this user"
)

// Principal is the authenticated actor, resolved per request from a
// validated token and passed explicitly through every decision.
type Principal struct {
	Id     int
	Slug   string
	Role   string
	Active bool
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Target identifies the user record a mutation is aimed at.
type Target struct {
	Id   int
	Slug string
}

// Mutation is the set of fields a caller asked to change, before policy
// filtering. Nil pointers mean "not requested".
type Mutation struct {
	Name     *string
	Email    *string
	Password *string
	Role     *string
	Active   *bool
}

// IsEmpty reports whether no field was requested at all.
func (m Mutation) IsEmpty() bool {
	return m.Name == nil && m.Email == nil && m.Password == nil && m.Role == nil && m.Active == nil
}

// Verdict tags a Decision.
type Verdict int

const (
	VerdictAllow Verdict = iota
	VerdictForbidden
	VerdictInvalid
)

// Decision is the outcome of a policy evaluation. For VerdictAllow on the
// update path, Fields holds the admitted subset of the requested mutation.
type Decision struct {
	Verdict Verdict
	Reason  string
	Field   string
	Fields  Mutation
}

func Allow(fields Mutation) Decision {
	return Decision{Verdict: VerdictAllow, Fields: fields}
}

func Forbid(reason string) Decision {
	return Decision{Verdict: VerdictForbidden, Reason: reason}
}

func Invalid(field, reason string) Decision {
	return Decision{Verdict: VerdictInvalid, Field: field, Reason: reason}
}

// CanCreate permits user creation for admins only.
func CanCreate(p Principal) Decision {
	if !p.IsAdmin() {
		return Forbid(ReasonOnlyAdminCreate)
	}
	return Allow(Mutation{})
}

// CanDelete permits deletion for admins targeting anyone but themselves.
func CanDelete(p Principal, t Target) Decision {
	if !p.IsAdmin() {
		return Forbid(ReasonAdminRequired)
	}
	if p.Id == t.Id {
		return Forbid(ReasonSelfDelete)
	}
	return Allow(Mutation{})
}

// CanChangeStatus permits activation changes for admins; an admin may not
// deactivate their own account.
func CanChangeStatus(p Principal, t Target, active bool) Decision {
	if !p.IsAdmin() {
		return Forbid(ReasonAdminRequired)
	}
	if p.Id == t.Id && !active {
		return Forbid(ReasonSelfDeactivate)
	}
	return Allow(Mutation{Active: &active})
}

// FilterUpdate admits the subset of requested fields the principal may
// write. Admins keep the full set. A user editing their own record keeps
// name, email and password; role and active are silently dropped rather
// than rejecting the request (the dedicated status and delete endpoints
// stay all-or-nothing). Anyone else is rejected outright.
func FilterUpdate(p Principal, t Target, requested Mutation) Decision {
	if p.IsAdmin() {
		return Allow(requested)
	}
	if p.Id != t.Id {
		return Forbid(ReasonNotSelfNotAdmin)
	}
	requested.Role = nil
	requested.Active = nil
	return Allow(requested)
}
