package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/xenitab/go-oidc-middleware/oidctoken"
	"github.com/xenitab/go-oidc-middleware/options"
)

// VerifyRequest carries the verification parameters for one bearer token:
// the external authority's URL and signing certificate reference, the issuer
// URI expected in the token, and this server's own application URI (the
// required audience).
type VerifyRequest struct {
	AuthorityURL         string
	AuthorityCertificate string
	IssuerURI            string
	ApplicationURI       string
	Token                string
}

// VerifiedToken is the result of an external verification call. The
// validator only accepts the claims-token shape; any other implementation
// reaching it is an internal inconsistency.
type VerifiedToken interface {
	verifiedToken()
}

// ClaimsToken is a verified bearer/claims token.
type ClaimsToken struct {
	Subject     string
	DisplayName string
	Claims      map[string]any
}

func (*ClaimsToken) verifiedToken() {}

// TokenVerifier verifies an opaque bearer token against an external
// authority. Calls are synchronous and may block on network or cryptography;
// they run on the calling request's worker. A caller wanting a deadline wraps
// the context externally.
type TokenVerifier interface {
	Verify(ctx context.Context, req VerifyRequest) (VerifiedToken, error)
}

// OIDCVerifier verifies tokens through the authority's OIDC discovery and
// JWKS endpoints. One token handler is built per (authority, issuer,
// audience) tuple and cached for the process lifetime; JWKS loading is lazy
// so construction never blocks startup on the authority being reachable.
//
// The authority certificate reference is accepted for interface completeness
// but unused here: signing keys come from the authority's JWKS.
type OIDCVerifier struct {
	mu       sync.Mutex
	handlers map[string]*oidctoken.TokenHandler[map[string]any]
}

// NewOIDCVerifier creates an empty verifier.
func NewOIDCVerifier() *OIDCVerifier {
	return &OIDCVerifier{handlers: make(map[string]*oidctoken.TokenHandler[map[string]any])}
}

func (v *OIDCVerifier) handler(req VerifyRequest) (*oidctoken.TokenHandler[map[string]any], error) {
	issuer := req.IssuerURI
	if issuer == "" {
		// Absent issuer means the authority's defaults apply.
		issuer = req.AuthorityURL
	}
	key := issuer + "|" + req.ApplicationURI

	v.mu.Lock()
	defer v.mu.Unlock()

	if h, ok := v.handlers[key]; ok {
		return h, nil
	}

	opts := []options.Option{
		options.WithIssuer(issuer),
		options.WithLazyLoadJwks(true),
	}
	if req.ApplicationURI != "" {
		opts = append(opts, options.WithRequiredAudience(req.ApplicationURI))
	}

	h, err := oidctoken.New[map[string]any](nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize token handler for issuer %s: %w", issuer, err)
	}
	v.handlers[key] = h
	return h, nil
}

// Verify parses and verifies the token, returning its claims.
func (v *OIDCVerifier) Verify(ctx context.Context, req VerifyRequest) (VerifiedToken, error) {
	h, err := v.handler(req)
	if err != nil {
		return nil, err
	}

	claims, err := h.ParseToken(ctx, req.Token)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}

	sub, _ := StringClaim(claims, "sub")
	return &ClaimsToken{
		Subject:     sub,
		DisplayName: DisplayNameClaim(claims),
		Claims:      claims,
	}, nil
}
