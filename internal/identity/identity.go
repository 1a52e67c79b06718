// Package identity defines the credential tagged union handed to the
// validator and the immutable role-bearing identity handed back to the host
// session layer.
//
// A RoleBasedIdentity is IMMUTABLE after construction. Roles are resolved
// once at validation time and never modified afterwards, so identities can be
// shared across request workers without synchronization.
package identity

// Kind identifies the credential variant.
type Kind int

const (
	KindAnonymous Kind = iota
	KindUserName
	KindCertificate
	KindIssued
)

func (k Kind) String() string {
	switch k {
	case KindAnonymous:
		return "anonymous"
	case KindUserName:
		return "username"
	case KindCertificate:
		return "certificate"
	case KindIssued:
		return "issued"
	default:
		return "unknown"
	}
}

// KindFromString parses a credential kind name as it appears in policy
// configuration files. Unknown names map to KindAnonymous, false.
func KindFromString(s string) (Kind, bool) {
	switch s {
	case "anonymous":
		return KindAnonymous, true
	case "username":
		return KindUserName, true
	case "certificate":
		return KindCertificate, true
	case "issued":
		return KindIssued, true
	default:
		return KindAnonymous, false
	}
}

// Credential is the tagged union of per-request credential variants. Each
// variant is handled by exactly one validator arm; there is no implicit
// fallback between variants.
type Credential interface {
	CredentialKind() Kind
}

// Anonymous is the absence of a credential.
type Anonymous struct{}

func (Anonymous) CredentialKind() Kind { return KindAnonymous }

// UserName carries a username/password pair destined for OS logon.
type UserName struct {
	PolicyID string
	User     string
	Password string
}

func (UserName) CredentialKind() Kind { return KindUserName }

// Certificate carries a DER-encoded application certificate.
type Certificate struct {
	PolicyID string
	Der      []byte
}

func (Certificate) CredentialKind() Kind { return KindCertificate }

// IssuedToken carries an opaque bearer/claims token string verified by an
// external authority.
type IssuedToken struct {
	PolicyID string
	Token    string
}

func (IssuedToken) CredentialKind() Kind { return KindIssued }

// LegacyTicket carries a WS-Security-style XML envelope holding a
// receiver-side security ticket. It is an issued-token sub-kind.
type LegacyTicket struct {
	PolicyID string
	Envelope []byte
}

func (LegacyTicket) CredentialKind() Kind { return KindIssued }

// Role is an opaque authorization identifier granted to an identity.
type Role string

const (
	RoleAnonymous         Role = "Anonymous"
	RoleAuthenticatedUser Role = "AuthenticatedUser"
	RoleObserver          Role = "Observer"
	RoleOperator          Role = "Operator"
	RoleEngineer          Role = "Engineer"
	RoleSecurityAdmin     Role = "SecurityAdmin"
	RoleConfigureAdmin    Role = "ConfigureAdmin"
)

// WellKnownRoles lists the role catalog in declaration order. Used to seed
// the write-policy enforcer at startup.
func WellKnownRoles() []Role {
	return []Role{
		RoleAnonymous,
		RoleAuthenticatedUser,
		RoleObserver,
		RoleOperator,
		RoleEngineer,
		RoleSecurityAdmin,
		RoleConfigureAdmin,
	}
}

// RoleBasedIdentity wraps a validated credential's base identity plus its
// ordered, deduplicated role set. A successfully validated credential always
// carries at least one role.
type RoleBasedIdentity struct {
	displayName string
	kind        Kind
	roles       []Role
}

// NewRoleBasedIdentity builds an identity, deduplicating roles while
// preserving first-seen order.
func NewRoleBasedIdentity(displayName string, kind Kind, roles []Role) *RoleBasedIdentity {
	deduped := make([]Role, 0, len(roles))
	seen := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		deduped = append(deduped, r)
	}
	return &RoleBasedIdentity{displayName: displayName, kind: kind, roles: deduped}
}

// DisplayName returns the identity's display name.
func (i *RoleBasedIdentity) DisplayName() string { return i.displayName }

// Kind returns the kind of the credential the identity was derived from.
func (i *RoleBasedIdentity) Kind() Kind { return i.kind }

// Roles returns a copy of the ordered role set.
func (i *RoleBasedIdentity) Roles() []Role {
	out := make([]Role, len(i.roles))
	copy(out, i.roles)
	return out
}

// HasRole reports whether the identity carries the given role.
func (i *RoleBasedIdentity) HasRole(r Role) bool {
	for _, have := range i.roles {
		if have == r {
			return true
		}
	}
	return false
}

// IsAnonymous reports whether the identity was derived from an anonymous
// credential.
func (i *RoleBasedIdentity) IsAnonymous() bool { return i.kind == KindAnonymous }
