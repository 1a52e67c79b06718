// Package auth holds the validator's external trust collaborators: bearer
// token verification, certificate trust checking, claim extraction, and the
// write-policy enforcer.
package auth

// ScopeClaimKey is the only claim consumed internally: a space-separated
// scope list.
const ScopeClaimKey = "scp"

// StringClaim extracts a string claim from verified token claims.
func StringClaim(claims map[string]any, field string) (string, bool) {
	raw, ok := claims[field]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// ScopeClaim extracts the scope list claim. Absence is not an error: a token
// without scopes simply grants no mapped roles.
func ScopeClaim(claims map[string]any) (string, bool) {
	return StringClaim(claims, ScopeClaimKey)
}

// DisplayNameClaim picks a display name for the identity: the "name" claim
// when present, the subject otherwise.
func DisplayNameClaim(claims map[string]any) string {
	if name, ok := StringClaim(claims, "name"); ok {
		return name
	}
	sub, _ := StringClaim(claims, "sub")
	return sub
}
