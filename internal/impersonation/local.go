package impersonation

import (
	"context"
	"fmt"
)

// LocalProvider is a development logon provider that checks credentials
// against a static account table instead of the OS. Deployments wire a real
// provider; tests and the diagnostics server use this one.
type LocalProvider struct {
	accounts map[string]string // username → password
}

// NewLocalProvider creates a provider accepting the given accounts.
func NewLocalProvider(accounts map[string]string) *LocalProvider {
	return &LocalProvider{accounts: accounts}
}

// Logon validates the pair against the account table and returns a context
// with an inert handle.
func (p *LocalProvider) Logon(_ context.Context, username, password string) (*Context, error) {
	want, ok := p.accounts[username]
	if !ok || want != password {
		return nil, fmt.Errorf("unknown user or bad password")
	}
	return NewContext(username, nopHandle{}), nil
}

type nopHandle struct{}

func (nopHandle) Close() error { return nil }
