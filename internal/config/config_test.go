package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uastack/authgate/internal/identity"
)

func TestLoadRequiresApplicationURI(t *testing.T) {
	t.Setenv("APPLICATION_URI", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APPLICATION_URI")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APPLICATION_URI", "urn:app:server")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "urn:app:server", cfg.ApplicationURI)
	assert.Equal(t, "localhost:8085", cfg.ServerAddr)
	assert.Equal(t, 10, cfg.MaxDBConnections)
	assert.Equal(t, 128, cfg.TrustCacheSize)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "authgate", cfg.Observability.ServiceName)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APPLICATION_URI", "urn:app:server")
	t.Setenv("DATABASE_URL", "postgres://localhost/authgate")
	t.Setenv("MAX_DB_CONNECTIONS", "25")
	t.Setenv("SERVER_ADDR", ":9090")
	t.Setenv("TRUST_LIST_PATH", "/etc/authgate/trust")
	t.Setenv("TRUST_CACHE_SIZE", "512")
	t.Setenv("DEBUG", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/authgate", cfg.DatabaseURL)
	assert.Equal(t, 25, cfg.MaxDBConnections)
	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, "/etc/authgate/trust", cfg.TrustListPath)
	assert.Equal(t, 512, cfg.TrustCacheSize)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "collector:4318", cfg.Observability.OTLPEndpoint)
}

func TestLoadIgnoresUnparsableNumbers(t *testing.T) {
	t.Setenv("APPLICATION_URI", "urn:app:server")
	t.Setenv("MAX_DB_CONNECTIONS", "lots")
	t.Setenv("DEBUG", "yep")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.MaxDBConnections)
	assert.False(t, cfg.Debug)
}

func writePolicyFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policies.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadPolicies(t *testing.T) {
	path := writePolicyFile(t, `{
		"policies": [
			{"policyId": "anon", "kind": "anonymous"},
			{"policyId": "jwt", "kind": "issued",
			 "issuedTokenType": "urn:ietf:params:oauth:token-type:jwt",
			 "issuerEndpointUrl": "{\"authority\": \"https://sts.example.com\"}"}
		],
		"validators": [
			{"policyId": "jwt", "issuerUri": "https://sts.example.com"}
		]
	}`)

	policies, validators, err := LoadPolicies(path)
	require.NoError(t, err)

	require.Len(t, policies, 2)
	assert.Equal(t, identity.KindAnonymous, policies[0].Kind)
	assert.Equal(t, identity.KindIssued, policies[1].Kind)
	assert.Equal(t, "urn:ietf:params:oauth:token-type:jwt", policies[1].IssuedTokenType)

	require.Len(t, validators, 1)
	assert.Equal(t, "jwt", validators[0].PolicyID)
	assert.Equal(t, "https://sts.example.com", validators[0].IssuerURI)
}

func TestLoadPoliciesRejectsUnknownKind(t *testing.T) {
	path := writePolicyFile(t, `{"policies": [{"policyId": "x", "kind": "kerberos"}]}`)

	_, _, err := LoadPolicies(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kerberos")
}

func TestLoadPoliciesRejectsBadJSON(t *testing.T) {
	path := writePolicyFile(t, `{"policies": [`)

	_, _, err := LoadPolicies(path)
	assert.Error(t, err)
}

func TestLoadPoliciesMissingFile(t *testing.T) {
	_, _, err := LoadPolicies(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
