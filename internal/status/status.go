// Package status defines the typed validation results surfaced to the host
// server. Every credential-validation failure is an *Error carrying a failure
// kind, a symbolic status code, and a message rendered from the code's
// template. Callers decide whether to propagate or translate; nothing here is
// retried.
package status

import (
	"errors"
	"fmt"
)

// Kind classifies a validation failure. It determines how the host reacts:
// configuration gaps are logged and the affected policy skipped, everything
// else is returned to the client at the point of failure.
type Kind int

const (
	// KindConfiguration marks a startup-time configuration gap (missing trust
	// list, missing validator entry). The affected policy is skipped and the
	// server continues.
	KindConfiguration Kind = iota + 1

	// KindSecurityPolicyViolation marks a session-less request arriving over
	// an unencrypted channel.
	KindSecurityPolicyViolation

	// KindInvalidCredential marks an untrusted, unparseable, or expired
	// certificate, bearer token, or ticket.
	KindInvalidCredential

	// KindMissingCredential marks a write without authentication or a
	// session-less request with no bearer policy configured.
	KindMissingCredential

	// KindInternalInconsistency marks a verified token that is not of the
	// expected shape.
	KindInternalInconsistency
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindSecurityPolicyViolation:
		return "security_policy_violation"
	case KindInvalidCredential:
		return "invalid_credential"
	case KindMissingCredential:
		return "missing_credential"
	case KindInternalInconsistency:
		return "internal_inconsistency"
	default:
		return "unknown"
	}
}

// Code is the symbolic status code surfaced to the host.
type Code string

const (
	CodeAccessDenied             Code = "AccessDenied"
	CodeSecurityModeInsufficient Code = "SecurityModeInsufficient"
	CodeIdentityTokenRejected    Code = "IdentityTokenRejected"
	CodeIdentityTokenInvalid     Code = "IdentityTokenInvalid"
	CodeCertificateInvalid       Code = "CertificateInvalid"
	CodeInternal                 Code = "InternalError"
)

// messageTemplates maps each code to its default localized message template.
var messageTemplates = map[Code]string{
	CodeAccessDenied:             "access denied: write requests require an authenticated identity",
	CodeSecurityModeInsufficient: "security mode insufficient: session-less requests require an encrypted channel",
	CodeIdentityTokenRejected:    "identity token rejected",
	CodeIdentityTokenInvalid:     "identity token invalid",
	CodeCertificateInvalid:       "certificate invalid: issuer certificate is missing or not trusted",
	CodeInternal:                 "internal error during identity validation",
}

// MessageTemplate returns the default message template for a code.
func MessageTemplate(code Code) string {
	return messageTemplates[code]
}

// Error is the validation result returned from every validation function.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Kind, e.Code, e.Message)
}

// Errorf builds an *Error with a formatted message.
func Errorf(kind Kind, code Code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// New builds an *Error carrying the code's default message template.
func New(kind Kind, code Code) *Error {
	return &Error{Kind: kind, Code: code, Message: MessageTemplate(code)}
}

// AccessDenied reports a write attempted without authentication.
func AccessDenied() *Error {
	return New(KindMissingCredential, CodeAccessDenied)
}

// SecurityModeInsufficient reports a session-less request over an
// unencrypted channel.
func SecurityModeInsufficient() *Error {
	return New(KindSecurityPolicyViolation, CodeSecurityModeInsufficient)
}

// IdentityTokenRejected reports a bad credential of any kind.
func IdentityTokenRejected(format string, args ...any) *Error {
	return Errorf(KindInvalidCredential, CodeIdentityTokenRejected, format, args...)
}

// IdentityTokenInvalid reports a malformed per-request token identifier.
func IdentityTokenInvalid() *Error {
	return New(KindInvalidCredential, CodeIdentityTokenInvalid)
}

// CertificateInvalid reports a missing or untrusted certificate. The subject
// of the offending certificate is carried in the message.
func CertificateInvalid(subject string) *Error {
	return Errorf(KindInvalidCredential, CodeCertificateInvalid,
		"%q is not a trusted certificate", subject)
}

// Internal reports an unexpected token shape after verification.
func Internal(format string, args ...any) *Error {
	return Errorf(KindInternalInconsistency, CodeInternal, format, args...)
}

// FromError extracts the *Error from err's chain, if any.
func FromError(err error) (*Error, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// CodeOf returns the status code for err, or CodeInternal when err carries no
// typed status.
func CodeOf(err error) Code {
	if se, ok := FromError(err); ok {
		return se.Code
	}
	return CodeInternal
}
