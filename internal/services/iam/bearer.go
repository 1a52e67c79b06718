package iam

import (
	"context"

	"github.com/uastack/authgate/internal/auth"
	"github.com/uastack/authgate/internal/identity"
	"github.com/uastack/authgate/internal/policy"
	"github.com/uastack/authgate/internal/status"
)

// validateBearer verifies an opaque claims token against the external
// authority configured for the policy:
//
//  1. Look up the ValidatorConfig entry matching the policy id (entries with
//     configuration gaps were skipped at startup, so a miss here rejects the
//     token rather than the server)
//  2. Invoke the external verification call with (authority URL, authority
//     certificate, issuer URI, own application URI, token)
//  3. Require the claims-token shape; anything else is an internal
//     inconsistency, not a client fault
//  4. Grant AuthenticatedUser, then union every role reachable through the
//     scope table from the "scp" claim, skipping unmapped tokens silently
func (v *CredentialValidator) validateBearer(ctx context.Context, pol *policy.TokenPolicy, token string) (*identity.RoleBasedIdentity, error) {
	if v.verifier == nil || pol == nil {
		return nil, status.IdentityTokenRejected("bearer tokens are not accepted here")
	}

	entry, ok := v.validators.Lookup(pol.PolicyID)
	if !ok {
		return nil, status.IdentityTokenRejected("no token validator configured for policy %q", pol.PolicyID)
	}

	verified, err := v.verifier.Verify(ctx, auth.VerifyRequest{
		AuthorityURL:         entry.Params.AuthorityURL,
		AuthorityCertificate: entry.Config.AuthorityCertificate,
		IssuerURI:            entry.Config.IssuerURI,
		ApplicationURI:       v.applicationURI,
		Token:                token,
	})
	if err != nil {
		return nil, status.IdentityTokenRejected("token verification failed: %v", err)
	}

	claimsToken, ok := verified.(*auth.ClaimsToken)
	if !ok {
		return nil, status.Internal("verified token has unexpected shape %T", verified)
	}

	granted := []identity.Role{identity.RoleAuthenticatedUser}
	if scopes, ok := auth.ScopeClaim(claimsToken.Claims); ok {
		granted = append(granted, v.mapper.MapScopes(scopes)...)
	}

	return identity.NewRoleBasedIdentity(claimsToken.DisplayName, identity.KindIssued, granted), nil
}
