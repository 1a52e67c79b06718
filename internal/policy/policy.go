// Package policy holds the token-policy and validator configuration built
// once during single-threaded startup and read without synchronization for
// the remainder of the process.
package policy

import (
	_ "embed"
	"fmt"
	"log"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/uastack/authgate/internal/identity"
)

// TokenTypeJWT is the issued-token type URN for bearer/claims tokens. The
// session-less gate only matches Issued policies of this type.
const TokenTypeJWT = "urn:ietf:params:oauth:token-type:jwt"

// TokenPolicy describes one accepted credential shape on an endpoint.
type TokenPolicy struct {
	// PolicyID identifies the policy within its endpoint.
	PolicyID string

	// Kind is the credential kind the policy accepts.
	Kind identity.Kind

	// IssuedTokenType narrows Issued-kind policies to a token type URN.
	IssuedTokenType string

	// IssuerEndpointURL is, for Issued kinds, a structured JSON blob carrying
	// the external authority parameters.
	IssuerEndpointURL string
}

// IssuedTokenParams is the decoded form of an Issued policy's endpoint blob.
type IssuedTokenParams struct {
	AuthorityURL         string `mapstructure:"authority"`
	IssuerURI            string `mapstructure:"issuer"`
	AuthorityCertificate string `mapstructure:"authorityCertificate"`
	TokenType            string `mapstructure:"tokenType"`
}

//go:embed issuer_params.schema.json
var issuerParamsSchema string

var paramsSchema = mustCompileParamsSchema()

func mustCompileParamsSchema() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(issuerParamsSchema))
	if err != nil {
		panic(fmt.Sprintf("policy: embedded schema unreadable: %v", err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("issuer_params.schema.json", doc); err != nil {
		panic(fmt.Sprintf("policy: embedded schema rejected: %v", err))
	}
	sch, err := c.Compile("issuer_params.schema.json")
	if err != nil {
		panic(fmt.Sprintf("policy: embedded schema does not compile: %v", err))
	}
	return sch
}

// ParseIssuerParams validates the endpoint-parameter blob against the
// embedded schema and decodes it. A malformed blob is a configuration fault,
// never a retryable request error.
func ParseIssuerParams(blob string) (*IssuedTokenParams, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("issuer endpoint parameters are not valid JSON: %w", err)
	}
	if err := paramsSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("issuer endpoint parameters rejected by schema: %w", err)
	}

	var params IssuedTokenParams
	if err := mapstructure.Decode(doc, &params); err != nil {
		return nil, fmt.Errorf("decode issuer endpoint parameters: %w", err)
	}
	return &params, nil
}

// ValidatorConfig is the startup-time verification configuration for one
// Issued-kind policy.
type ValidatorConfig struct {
	PolicyID             string
	IssuerURI            string
	AuthorityCertificate string
	IssuerEndpointURL    string
}

// Entry pairs a validator configuration with its parsed endpoint parameters.
type Entry struct {
	Config ValidatorConfig
	Params *IssuedTokenParams
}

// ValidatorSet maps policy id to its validator entry. Populated once at
// startup, read-only thereafter.
type ValidatorSet struct {
	entries map[string]*Entry
}

// NewValidatorSet builds the set from the parallel policy and config lists.
// An Issued policy with no matching config entry, or with an unparsable
// endpoint blob, is logged and skipped; the remaining policies stay usable.
func NewValidatorSet(policies []TokenPolicy, configs []ValidatorConfig) *ValidatorSet {
	byID := make(map[string]ValidatorConfig, len(configs))
	for _, c := range configs {
		byID[c.PolicyID] = c
	}

	set := &ValidatorSet{entries: make(map[string]*Entry)}
	for _, p := range policies {
		if p.Kind != identity.KindIssued {
			continue
		}
		cfg, ok := byID[p.PolicyID]
		if !ok {
			log.Printf("policy %s: no validator configuration, skipping", p.PolicyID)
			continue
		}
		blob := p.IssuerEndpointURL
		if blob == "" {
			blob = cfg.IssuerEndpointURL
		}
		params, err := ParseIssuerParams(blob)
		if err != nil {
			log.Printf("policy %s: %v, skipping", p.PolicyID, err)
			continue
		}
		set.entries[p.PolicyID] = &Entry{Config: cfg, Params: params}
	}
	return set
}

// Lookup returns the entry for a policy id.
func (s *ValidatorSet) Lookup(policyID string) (*Entry, bool) {
	e, ok := s.entries[policyID]
	return e, ok
}

// Len returns the number of usable entries.
func (s *ValidatorSet) Len() int { return len(s.entries) }
