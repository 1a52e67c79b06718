package auth

import (
	"crypto/sha1"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
)

// TrustValidator decides whether an application certificate chains to a
// trusted issuer. Implementations may block on revocation or chain checks.
type TrustValidator interface {
	Validate(cert *x509.Certificate) error
}

// TrustListValidator validates certificates against a static root pool and
// caches the per-thumbprint decision in an LRU so repeated presentations of
// the same certificate skip chain building.
type TrustListValidator struct {
	roots *x509.CertPool
	cache *lru.Cache[string, error]
}

// NewTrustListValidator creates a validator over the given root pool.
func NewTrustListValidator(roots *x509.CertPool, cacheSize int) (*TrustListValidator, error) {
	if cacheSize <= 0 {
		cacheSize = 128
	}
	cache, err := lru.New[string, error](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create trust decision cache: %w", err)
	}
	return &TrustListValidator{roots: roots, cache: cache}, nil
}

// Validate checks the certificate chain against the trust list.
func (v *TrustListValidator) Validate(cert *x509.Certificate) error {
	thumb := thumbprint(cert)
	if decision, ok := v.cache.Get(thumb); ok {
		return decision
	}

	_, err := cert.Verify(x509.VerifyOptions{
		Roots:     v.roots,
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	})
	v.cache.Add(thumb, err)
	return err
}

func thumbprint(cert *x509.Certificate) string {
	sum := sha1.Sum(cert.Raw)
	return hex.EncodeToString(sum[:])
}

// LoadTrustList reads every PEM certificate under dir into a root pool. A
// missing or empty trust list is a configuration error reported to the
// caller; the caller decides whether to skip the affected policy or refuse to
// start.
func LoadTrustList(dir string) (*x509.CertPool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read trust list %s: %w", dir, err)
	}

	pool := x509.NewCertPool()
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read trust list entry %s: %w", entry.Name(), err)
		}
		if pool.AppendCertsFromPEM(raw) {
			loaded++
		}
	}
	if loaded == 0 {
		return nil, fmt.Errorf("trust list %s holds no usable certificates", dir)
	}
	return pool, nil
}
