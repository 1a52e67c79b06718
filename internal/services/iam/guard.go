package iam

import (
	"context"

	"github.com/casbin/casbin/v2"

	"github.com/uastack/authgate/internal/auth"
	"github.com/uastack/authgate/internal/identity"
	"github.com/uastack/authgate/internal/impersonation"
	"github.com/uastack/authgate/internal/status"
	"github.com/uastack/authgate/internal/telemetry"

	"go.opentelemetry.io/otel/attribute"
)

// WritePolicyGuard enforces that write-kind requests carry an authenticated
// identity, and binds OS impersonation contexts to username/password writes.
//
// The host calls BeforeWrite once per inbound write before dispatch and
// OnCompletion exactly once per request afterwards, on every path. That
// completion hook is the sole mechanism releasing an acquired impersonation
// context.
type WritePolicyGuard struct {
	registry *impersonation.Registry
	enforcer casbin.IEnforcer
}

// NewWritePolicyGuard wires the guard. The enforcer is optional; without it
// only the anonymous-identity check applies.
func NewWritePolicyGuard(registry *impersonation.Registry, enforcer casbin.IEnforcer) *WritePolicyGuard {
	return &WritePolicyGuard{registry: registry, enforcer: enforcer}
}

// BeforeWrite validates the write and, for username/password credentials,
// synchronously performs the OS logon and registers the resulting context
// under the request id. The handler that executes the write consumes the
// context via Pending; it is released at request completion regardless of
// how the request ends.
func (g *WritePolicyGuard) BeforeWrite(ctx context.Context, requestID string, ident *identity.RoleBasedIdentity, cred identity.Credential) error {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerIAM, "iam.BeforeWrite",
		attribute.String(telemetry.AttrRequestID, requestID),
	)
	defer span.End()

	if ident == nil || ident.IsAnonymous() {
		err := status.AccessDenied()
		telemetry.RecordError(span, err)
		return err
	}

	if g.enforcer != nil {
		allowed, err := auth.AllowsWrite(g.enforcer, ident.Roles())
		if err != nil {
			serr := status.Internal("write policy check failed: %v", err)
			telemetry.RecordError(span, serr)
			return serr
		}
		if !allowed {
			serr := status.AccessDenied()
			telemetry.RecordError(span, serr)
			return serr
		}
	}

	if u, ok := cred.(identity.UserName); ok {
		if err := g.registry.Acquire(ctx, requestID, u.User, u.Password); err != nil {
			serr := status.IdentityTokenRejected("impersonation logon failed: %v", err)
			telemetry.RecordError(span, serr)
			return serr
		}
		telemetry.AddEvent(span, "impersonation.context.acquired",
			attribute.String(telemetry.AttrRequestID, requestID))
	}
	return nil
}

// Pending exposes the impersonation context bound to a request, if any.
func (g *WritePolicyGuard) Pending(requestID string) (*impersonation.Context, bool) {
	return g.registry.Pending(requestID)
}

// OnCompletion releases the request's impersonation context. It must run
// exactly once per request on success and failure alike; running it for a
// request that never acquired a context is a no-op.
func (g *WritePolicyGuard) OnCompletion(requestID string) {
	g.registry.Release(requestID)
}
