package auth

import (
	_ "embed"
	"fmt"
	"log"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/uastack/authgate/internal/identity"
)

//go:embed model.conf
var casbinModelContent string

// WriteObject and WriteAction name the single guarded operation: writing a
// node value.
const (
	WriteObject = "node"
	WriteAction = "write"
)

// RoleID converts a role to its Casbin principal id.
func RoleID(r identity.Role) string {
	return "role:" + string(r)
}

// NewWriteEnforcer creates a Casbin enforcer with the embedded model and an
// in-memory policy derived from the role catalog: every role except
// Anonymous is granted node/write. Policies are static for the process
// lifetime; there is nothing to persist.
func NewWriteEnforcer() (casbin.IEnforcer, error) {
	m, err := model.NewModelFromString(casbinModelContent)
	if err != nil {
		return nil, fmt.Errorf("parse casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}

	for _, role := range identity.WellKnownRoles() {
		if role == identity.RoleAnonymous {
			continue
		}
		if _, err := enforcer.AddPolicy(RoleID(role), WriteObject, WriteAction); err != nil {
			return nil, fmt.Errorf("seed write policy for %s: %w", role, err)
		}
	}
	return enforcer, nil
}

// AllowsWrite checks whether ANY of the identity's roles grants node/write.
//
// Read-only: the enforcer is never mutated on the request path, so concurrent
// checks from unrelated workers need no locking beyond the enforcer's own.
func AllowsWrite(enforcer casbin.IEnforcer, roles []identity.Role) (bool, error) {
	if enforcer == nil {
		return false, fmt.Errorf("casbin enforcer not initialized")
	}
	if len(roles) == 0 {
		log.Printf("write denied: identity has no roles")
		return false, nil
	}

	for _, role := range roles {
		allowed, err := enforcer.Enforce(RoleID(role), WriteObject, WriteAction)
		if err != nil {
			return false, fmt.Errorf("casbin enforce for role %s: %w", role, err)
		}
		if allowed {
			return true, nil
		}
	}
	return false, nil
}
