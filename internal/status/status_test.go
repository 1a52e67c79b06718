package status

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	err := CertificateInvalid("CN=app.example.com")
	assert.Equal(t, KindInvalidCredential, err.Kind)
	assert.Equal(t, CodeCertificateInvalid, err.Code)
	assert.Contains(t, err.Error(), "CN=app.example.com")
	assert.Contains(t, err.Error(), "invalid_credential")
}

func TestNewUsesTemplate(t *testing.T) {
	err := AccessDenied()
	assert.Equal(t, MessageTemplate(CodeAccessDenied), err.Message)

	err = SecurityModeInsufficient()
	assert.Equal(t, KindSecurityPolicyViolation, err.Kind)
	assert.Equal(t, MessageTemplate(CodeSecurityModeInsufficient), err.Message)
}

func TestFromErrorUnwrapsChain(t *testing.T) {
	inner := IdentityTokenRejected("bad signature")
	wrapped := fmt.Errorf("validate: %w", inner)

	se, ok := FromError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeIdentityTokenRejected, se.Code)

	_, ok = FromError(errors.New("plain"))
	assert.False(t, ok)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeIdentityTokenInvalid, CodeOf(IdentityTokenInvalid()))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("untyped")))
}
