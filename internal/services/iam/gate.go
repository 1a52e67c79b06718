package iam

import (
	"context"
	"net/url"

	"github.com/uastack/authgate/internal/identity"
	"github.com/uastack/authgate/internal/policy"
	"github.com/uastack/authgate/internal/status"
	"github.com/uastack/authgate/internal/telemetry"

	"go.opentelemetry.io/otel/attribute"
)

// MessageSecurityMode is the channel's message protection level.
type MessageSecurityMode int

const (
	SecurityModeInvalid MessageSecurityMode = iota
	SecurityModeNone
	SecurityModeSign
	SecurityModeSignAndEncrypt
)

// SecurityPolicyNone is the channel security policy providing no protection.
const SecurityPolicyNone = "none"

// ChannelSecurity describes the secure channel a session-less request
// arrived on. It is passed explicitly rather than read from ambient state so
// the gate is testable without a live channel.
type ChannelSecurity struct {
	SecurityPolicyURI string
	Mode              MessageSecurityMode
	EndpointURL       string
}

// Encrypted reports whether the channel protects the request: the security
// policy is real or the transport scheme is secure, and the mode is stronger
// than mere integrity signing.
func (c ChannelSecurity) Encrypted() bool {
	policyProtects := c.SecurityPolicyURI != "" && c.SecurityPolicyURI != SecurityPolicyNone
	return (policyProtects || secureScheme(c.EndpointURL)) && c.Mode > SecurityModeSign
}

func secureScheme(endpointURL string) bool {
	u, err := url.Parse(endpointURL)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "https", "wss", "opc.https", "opc.wss":
		return true
	default:
		return false
	}
}

// RequestToken is the per-request authentication token identifier. A valid
// bearer identifier is a non-empty string in the default namespace.
type RequestToken struct {
	NamespaceIndex uint16
	Identifier     any
}

// SessionlessRequestGate validates requests that are not bound to an
// established session. Each step short-circuits on failure.
type SessionlessRequestGate struct {
	policies  []policy.TokenPolicy
	validator *CredentialValidator
}

// NewSessionlessRequestGate creates the gate over the endpoint's policy list.
func NewSessionlessRequestGate(policies []policy.TokenPolicy, validator *CredentialValidator) *SessionlessRequestGate {
	return &SessionlessRequestGate{policies: policies, validator: validator}
}

// Authorize runs the gate sequence:
//
//  1. Channel check — unencrypted channels are rejected outright, regardless
//     of token validity
//  2. Policy discovery — the endpoint must offer a bearer/claims policy
//  3. Endpoint-parameter check — a policy the startup validator-set build
//     skipped (missing configuration or a malformed issuer blob, on either
//     the policy or its validator config) is a fatal configuration
//     rejection, not a retryable error
//  4. Token-identifier shape — non-null string in the default namespace
//  5. Delegate to bearer validation; its result or failure propagates
//     unchanged
func (g *SessionlessRequestGate) Authorize(ctx context.Context, ch ChannelSecurity, tok RequestToken) (*identity.RoleBasedIdentity, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerIAM, "iam.SessionlessAuthorize",
		attribute.String(telemetry.AttrEndpointURL, ch.EndpointURL),
	)
	defer span.End()

	if !ch.Encrypted() {
		err := status.SecurityModeInsufficient()
		telemetry.RecordError(span, err)
		return nil, err
	}

	pol := g.bearerPolicy()
	if pol == nil {
		err := status.Errorf(status.KindMissingCredential, status.CodeIdentityTokenRejected,
			"endpoint offers no bearer token policy")
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String(telemetry.AttrPolicyID, pol.PolicyID))

	// The validator set already resolved the issuer endpoint parameters at
	// startup, falling back from the policy blob to the validator config.
	if _, ok := g.validator.validators.Lookup(pol.PolicyID); !ok {
		serr := status.Errorf(status.KindConfiguration, status.CodeInternal,
			"bearer policy %q has no usable validator configuration", pol.PolicyID)
		telemetry.RecordError(span, serr)
		return nil, serr
	}

	tokenString, ok := tok.Identifier.(string)
	if tok.NamespaceIndex != 0 || !ok || tokenString == "" {
		err := status.IdentityTokenInvalid()
		telemetry.RecordError(span, err)
		return nil, err
	}

	ident, err := g.validator.Validate(ctx, identity.IssuedToken{PolicyID: pol.PolicyID, Token: tokenString}, pol)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return ident, nil
}

// bearerPolicy returns the first Issued policy of the JWT/claims token type.
func (g *SessionlessRequestGate) bearerPolicy() *policy.TokenPolicy {
	for i := range g.policies {
		p := &g.policies[i]
		if p.Kind == identity.KindIssued && p.IssuedTokenType == policy.TokenTypeJWT {
			return p
		}
	}
	return nil
}
