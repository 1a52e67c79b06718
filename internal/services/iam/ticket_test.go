package iam

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uastack/authgate/internal/identity"
	"github.com/uastack/authgate/internal/status"
)

func ticketEnvelopeXML(payload []byte) []byte {
	return []byte(fmt.Sprintf(
		`<RequestEnvelope>
			<Security>
				<BinarySecurityToken ValueType="urn:example:ticket" EncodingType="base64">%s</BinarySecurityToken>
			</Security>
		</RequestEnvelope>`,
		base64.StdEncoding.EncodeToString(payload)))
}

func TestDecodeTicketEnvelope(t *testing.T) {
	ticket, root, err := decodeTicketEnvelope(ticketEnvelopeXML([]byte("ticket-bytes")))
	require.NoError(t, err)

	assert.Equal(t, "RequestEnvelope", root)
	assert.Equal(t, "urn:example:ticket", ticket.ValueType)
	assert.Equal(t, []byte("ticket-bytes"), ticket.Raw)
}

func TestDecodeTicketEnvelopeMissingToken(t *testing.T) {
	_, root, err := decodeTicketEnvelope([]byte(`<RequestEnvelope><Security/></RequestEnvelope>`))
	require.Error(t, err)
	assert.Equal(t, "RequestEnvelope", root)
}

func TestDecodeTicketEnvelopeBadBase64(t *testing.T) {
	raw := []byte(`<Env><Security><BinarySecurityToken>%%not-base64%%</BinarySecurityToken></Security></Env>`)
	_, root, err := decodeTicketEnvelope(raw)
	require.Error(t, err)
	assert.Equal(t, "Env", root)
}

func TestDecodeTicketEnvelopeNotXML(t *testing.T) {
	_, root, err := decodeTicketEnvelope([]byte("plain text"))
	require.Error(t, err)
	assert.Empty(t, root)
}

func TestValidateTicketAccepted(t *testing.T) {
	tickets := &fakeTickets{eligible: true, name: "svc-account"}
	v := newTestValidator(nil, nil, tickets, nil)

	ident, err := v.Validate(context.Background(),
		identity.LegacyTicket{Envelope: ticketEnvelopeXML([]byte("ticket-bytes"))}, nil)
	require.NoError(t, err)

	assert.Equal(t, "svc-account", ident.DisplayName())
	assert.Equal(t, identity.KindIssued, ident.Kind())
	assert.Equal(t, []identity.Role{identity.RoleAuthenticatedUser}, ident.Roles())

	require.NotNil(t, tickets.seen)
	assert.Equal(t, []byte("ticket-bytes"), tickets.seen.Raw)
}

func TestValidateTicketIneligibleNamesRootElement(t *testing.T) {
	v := newTestValidator(nil, nil, &fakeTickets{eligible: false}, nil)

	_, err := v.Validate(context.Background(),
		identity.LegacyTicket{Envelope: ticketEnvelopeXML([]byte("x"))}, nil)
	require.Error(t, err)

	se, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, status.CodeIdentityTokenRejected, se.Code)
	assert.Contains(t, se.Message, "RequestEnvelope")
}

func TestValidateTicketAuthenticationFailure(t *testing.T) {
	tickets := &fakeTickets{eligible: true, err: errors.New("ticket expired")}
	v := newTestValidator(nil, nil, tickets, nil)

	_, err := v.Validate(context.Background(),
		identity.LegacyTicket{Envelope: ticketEnvelopeXML([]byte("x"))}, nil)
	require.Error(t, err)
	assert.Equal(t, status.CodeIdentityTokenRejected, status.CodeOf(err))
}

func TestValidateTicketUndecodableEnvelope(t *testing.T) {
	v := newTestValidator(nil, nil, &fakeTickets{eligible: true}, nil)

	_, err := v.Validate(context.Background(),
		identity.LegacyTicket{Envelope: []byte(`<Env><Security/></Env>`)}, nil)
	require.Error(t, err)

	se, ok := status.FromError(err)
	require.True(t, ok)
	assert.Contains(t, se.Message, "Env")
}

func TestValidateTicketWithoutAuthenticator(t *testing.T) {
	v := newTestValidator(nil, nil, nil, nil)

	_, err := v.Validate(context.Background(),
		identity.LegacyTicket{Envelope: ticketEnvelopeXML([]byte("x"))}, nil)
	require.Error(t, err)
	assert.Equal(t, status.CodeIdentityTokenRejected, status.CodeOf(err))
}
