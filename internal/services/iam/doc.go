// Package iam implements the authentication core of the server: credential
// validation, session-less request gating, and the write-access policy.
//
// It provides:
//
//   - CredentialValidator: exhaustive dispatch over the credential tagged
//     union, producing an immutable RoleBasedIdentity or a typed failure
//   - SessionlessRequestGate: channel-security and bearer-token checks for
//     requests with no established session
//   - WritePolicyGuard: pre-dispatch hook rejecting unauthenticated writes
//     and binding OS impersonation contexts to request ids
//
// Request flow:
//
//	validation → CredentialValidator.Validate() → RoleBasedIdentity (roles resolved once)
//	write      → WritePolicyGuard.BeforeWrite() → impersonation context registered
//	completion → WritePolicyGuard.OnCompletion() → context released, unconditionally
//
// Roles are resolved exactly once at validation time and stored in the
// identity; nothing on the request path mutates shared state except the
// impersonation registry, which owns its own lock.
package iam
