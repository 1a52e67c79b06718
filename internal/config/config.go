// Package config loads the subsystem configuration from environment
// variables and the policy file. Loading happens once during startup; the
// result is read-only afterwards.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/uastack/authgate/internal/identity"
	"github.com/uastack/authgate/internal/policy"
)

// Config holds the application configuration.
type Config struct {
	// ApplicationURI is this server's own application URI, used as the
	// required audience during bearer verification.
	ApplicationURI string

	// DatabaseURL is the role-mapping store DSN. Empty means the built-in
	// seed tables are used instead of a store.
	DatabaseURL string

	// MaxDBConnections caps the store connection pool.
	MaxDBConnections int

	// ServerAddr is the diagnostics server bind address.
	ServerAddr string

	// PolicyPath points at the JSON policy file (token policies plus
	// validator configurations). Empty means no issued-token policies.
	PolicyPath string

	// TrustListPath is the directory of PEM-encoded issuer certificates.
	TrustListPath string

	// TrustCacheSize bounds the certificate trust-decision cache.
	TrustCacheSize int

	// Debug enables verbose logging.
	Debug bool

	// Observability configures trace export.
	Observability ObservabilityConfig
}

// ObservabilityConfig holds trace-export settings.
type ObservabilityConfig struct {
	OTLPEndpoint string
	ServiceName  string
	Insecure     bool
}

// Load reads configuration from environment variables with fallback defaults.
func Load() (*Config, error) {
	cfg := &Config{
		ApplicationURI:   getEnv("APPLICATION_URI", ""),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		MaxDBConnections: getEnvInt("MAX_DB_CONNECTIONS", 10),
		ServerAddr:       getEnv("SERVER_ADDR", "localhost:8085"),
		PolicyPath:       getEnv("POLICY_PATH", ""),
		TrustListPath:    getEnv("TRUST_LIST_PATH", ""),
		TrustCacheSize:   getEnvInt("TRUST_CACHE_SIZE", 128),
		Debug:            getEnvBool("DEBUG", false),
		Observability: ObservabilityConfig{
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "authgate"),
			Insecure:     getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		},
	}

	if cfg.ApplicationURI == "" {
		return nil, fmt.Errorf("APPLICATION_URI is required")
	}
	return cfg, nil
}

// policyFile is the on-disk shape of the policy configuration.
type policyFile struct {
	Policies []struct {
		PolicyID          string `json:"policyId"`
		Kind              string `json:"kind"`
		IssuedTokenType   string `json:"issuedTokenType,omitempty"`
		IssuerEndpointURL string `json:"issuerEndpointUrl,omitempty"`
	} `json:"policies"`
	Validators []struct {
		PolicyID             string `json:"policyId"`
		IssuerURI            string `json:"issuerUri,omitempty"`
		AuthorityCertificate string `json:"authorityCertificate,omitempty"`
		IssuerEndpointURL    string `json:"issuerEndpointUrl,omitempty"`
	} `json:"validators"`
}

// LoadPolicies parses the policy file into the parallel policy and validator
// lists. An unknown credential kind is a hard error: a typo here must not
// silently drop a policy.
func LoadPolicies(path string) ([]policy.TokenPolicy, []policy.ValidatorConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read policy file: %w", err)
	}

	var file policyFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, nil, fmt.Errorf("parse policy file %s: %w", path, err)
	}

	policies := make([]policy.TokenPolicy, 0, len(file.Policies))
	for _, p := range file.Policies {
		kind, ok := identity.KindFromString(p.Kind)
		if !ok {
			return nil, nil, fmt.Errorf("policy %s: unknown credential kind %q", p.PolicyID, p.Kind)
		}
		policies = append(policies, policy.TokenPolicy{
			PolicyID:          p.PolicyID,
			Kind:              kind,
			IssuedTokenType:   p.IssuedTokenType,
			IssuerEndpointURL: p.IssuerEndpointURL,
		})
	}

	validators := make([]policy.ValidatorConfig, 0, len(file.Validators))
	for _, v := range file.Validators {
		validators = append(validators, policy.ValidatorConfig{
			PolicyID:             v.PolicyID,
			IssuerURI:            v.IssuerURI,
			AuthorityCertificate: v.AuthorityCertificate,
			IssuerEndpointURL:    v.IssuerEndpointURL,
		})
	}
	return policies, validators, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}
