package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringClaim(t *testing.T) {
	claims := map[string]any{
		"sub":   "alice",
		"empty": "",
		"n":     float64(7),
	}

	got, ok := StringClaim(claims, "sub")
	assert.True(t, ok)
	assert.Equal(t, "alice", got)

	_, ok = StringClaim(claims, "missing")
	assert.False(t, ok)

	_, ok = StringClaim(claims, "empty")
	assert.False(t, ok)

	_, ok = StringClaim(claims, "n")
	assert.False(t, ok)
}

func TestScopeClaim(t *testing.T) {
	scope, ok := ScopeClaim(map[string]any{"scp": "openid UAServer"})
	assert.True(t, ok)
	assert.Equal(t, "openid UAServer", scope)

	_, ok = ScopeClaim(map[string]any{"scope": "openid"})
	assert.False(t, ok)
}

func TestDisplayNameClaimPrefersName(t *testing.T) {
	assert.Equal(t, "Alice", DisplayNameClaim(map[string]any{"name": "Alice", "sub": "u-1"}))
	assert.Equal(t, "u-1", DisplayNameClaim(map[string]any{"sub": "u-1"}))
	assert.Equal(t, "", DisplayNameClaim(map[string]any{}))
}
