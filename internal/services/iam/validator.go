package iam

import (
	"context"
	"crypto/x509"
	"log"

	"github.com/uastack/authgate/internal/auth"
	"github.com/uastack/authgate/internal/identity"
	"github.com/uastack/authgate/internal/impersonation"
	"github.com/uastack/authgate/internal/policy"
	"github.com/uastack/authgate/internal/roles"
	"github.com/uastack/authgate/internal/status"
	"github.com/uastack/authgate/internal/telemetry"

	"go.opentelemetry.io/otel/attribute"
)

// CredentialValidator validates per-request credentials and converts them to
// role-bearing identities. It dispatches on the concrete credential variant;
// there is no implicit fallback between variants.
//
// All collaborators are injected and the validator itself is stateless, so a
// single instance serves arbitrary concurrent workers.
type CredentialValidator struct {
	trust          auth.TrustValidator
	verifier       auth.TokenVerifier
	tickets        TicketAuthenticator
	logon          impersonation.LogonProvider
	validators     *policy.ValidatorSet
	mapper         *roles.Mapper
	applicationURI string
}

// NewCredentialValidator wires the validator. Nil collaborators disable the
// corresponding credential arm: validation of that variant fails as an
// unsupported combination.
func NewCredentialValidator(
	trust auth.TrustValidator,
	verifier auth.TokenVerifier,
	tickets TicketAuthenticator,
	logon impersonation.LogonProvider,
	validators *policy.ValidatorSet,
	mapper *roles.Mapper,
	applicationURI string,
) *CredentialValidator {
	return &CredentialValidator{
		trust:          trust,
		verifier:       verifier,
		tickets:        tickets,
		logon:          logon,
		validators:     validators,
		mapper:         mapper,
		applicationURI: applicationURI,
	}
}

// Validate dispatches on the credential variant. pol is the endpoint policy
// the credential was presented under; Issued variants require it.
func (v *CredentialValidator) Validate(ctx context.Context, cred identity.Credential, pol *policy.TokenPolicy) (*identity.RoleBasedIdentity, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerIAM, "iam.Validate",
		attribute.String(telemetry.AttrCredentialKind, cred.CredentialKind().String()),
	)
	defer span.End()

	ident, err := v.validate(ctx, cred, pol)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int(telemetry.AttrIdentityRoles, len(ident.Roles())))
	return ident, nil
}

func (v *CredentialValidator) validate(ctx context.Context, cred identity.Credential, pol *policy.TokenPolicy) (*identity.RoleBasedIdentity, error) {
	switch c := cred.(type) {
	case identity.Anonymous, *identity.Anonymous:
		return v.validateAnonymous(), nil
	case identity.UserName:
		return v.validateUserName(ctx, c)
	case identity.Certificate:
		return v.validateCertificate(c)
	case identity.IssuedToken:
		return v.validateBearer(ctx, pol, c.Token)
	case identity.LegacyTicket:
		return v.validateTicket(c.Envelope)
	default:
		return nil, status.IdentityTokenRejected("unsupported identity token %T", cred)
	}
}

// validateAnonymous always succeeds and grants only the Anonymous role,
// independent of the configured tables.
func (v *CredentialValidator) validateAnonymous() *identity.RoleBasedIdentity {
	return identity.NewRoleBasedIdentity("", identity.KindAnonymous,
		[]identity.Role{identity.RoleAnonymous})
}

// validateUserName verifies the pair through the OS logon provider, then
// releases the probe handle immediately; the write-policy guard acquires a
// fresh, request-bound context when the identity attempts a write.
func (v *CredentialValidator) validateUserName(ctx context.Context, c identity.UserName) (*identity.RoleBasedIdentity, error) {
	if v.logon == nil {
		return nil, status.IdentityTokenRejected("username tokens are not accepted here")
	}

	probe, err := v.logon.Logon(ctx, c.User, c.Password)
	if err != nil {
		return nil, status.IdentityTokenRejected("logon failed for %q", c.User)
	}
	if cerr := probe.Close(); cerr != nil {
		log.Printf("iam: closing logon probe for %q: %v", c.User, cerr)
	}

	granted := append([]identity.Role{identity.RoleAuthenticatedUser}, v.mapper.MapUser(c.User)...)
	return identity.NewRoleBasedIdentity(c.User, identity.KindUserName, granted), nil
}

// validateCertificate delegates the trust decision to the injected trust
// validator. Untrusted certificates fail with the certificate subject in the
// message.
func (v *CredentialValidator) validateCertificate(c identity.Certificate) (*identity.RoleBasedIdentity, error) {
	if v.trust == nil {
		return nil, status.IdentityTokenRejected("certificate tokens are not accepted here")
	}

	cert, err := x509.ParseCertificate(c.Der)
	if err != nil {
		return nil, status.CertificateInvalid("unparseable certificate")
	}
	if err := v.trust.Validate(cert); err != nil {
		return nil, status.CertificateInvalid(cert.Subject.String())
	}

	return identity.NewRoleBasedIdentity(cert.Subject.CommonName, identity.KindCertificate,
		[]identity.Role{identity.RoleAuthenticatedUser}), nil
}
