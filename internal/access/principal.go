// Package access decides who may do what. Every function here is a pure
// decision over facts the caller has already loaded; nothing in this package
// touches storage.
package access

import "github.com/google/uuid"

type Role int

const (
	RoleAnonymous Role = iota
	RoleMember
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleMember:
		return "member"
	case RoleAdmin:
		return "admin"
	default:
		return "anonymous"
	}
}

// Principal is the caller of an operation. RoleMember means an authenticated
// non-admin account, whether or not it holds a membership.
type Principal struct {
	Role      Role
	AccountID uuid.UUID
}

func Anonymous() Principal {
	return Principal{Role: RoleAnonymous}
}

func Member(accountID uuid.UUID) Principal {
	return Principal{Role: RoleMember, AccountID: accountID}
}

func Admin(accountID uuid.UUID) Principal {
	return Principal{Role: RoleAdmin, AccountID: accountID}
}

func (p Principal) IsAnonymous() bool { return p.Role == RoleAnonymous }
func (p Principal) IsAdmin() bool     { return p.Role == RoleAdmin }

// Owns reports whether the principal is the given account.
func (p Principal) Owns(accountID uuid.UUID) bool {
	return !p.IsAnonymous() && p.AccountID == accountID
}
