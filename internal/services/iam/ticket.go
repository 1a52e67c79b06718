package iam

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"io"

	"github.com/uastack/authgate/internal/identity"
	"github.com/uastack/authgate/internal/status"
)

// SecurityTicket is the receiver-side ticket extracted from a legacy
// WS-Security-style envelope.
type SecurityTicket struct {
	// ValueType identifies the ticket scheme.
	ValueType string

	// Raw is the decoded ticket payload.
	Raw []byte
}

// TicketAuthenticator validates legacy security tickets through an external
// authority. Eligible filters tickets the authenticator can handle at all;
// Authenticate performs the actual validation and yields the account name the
// ticket was issued to.
type TicketAuthenticator interface {
	Eligible(t *SecurityTicket) bool
	Authenticate(t *SecurityTicket) (string, error)
}

// ticketEnvelope mirrors the WS-Security envelope layout: a Security header
// carrying one base64-encoded BinarySecurityToken.
type ticketEnvelope struct {
	XMLName  xml.Name
	Security struct {
		BinarySecurityToken struct {
			ValueType    string `xml:"ValueType,attr"`
			EncodingType string `xml:"EncodingType,attr"`
			Value        string `xml:",chardata"`
		} `xml:"BinarySecurityToken"`
	} `xml:"Security"`
}

// rootElementName scans for the document's root element so rejection
// messages can name it even when full decoding fails.
func rootElementName(raw []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	for {
		tok, err := dec.Token()
		if err != nil {
			return ""
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local
		}
	}
}

// decodeTicketEnvelope extracts the security ticket from the raw envelope
// bytes. The decoder reads from an in-memory reader and holds no OS
// resource, so there is nothing further to release on the error paths.
func decodeTicketEnvelope(raw []byte) (*SecurityTicket, string, error) {
	root := rootElementName(raw)

	dec := xml.NewDecoder(bytes.NewReader(raw))
	var env ticketEnvelope
	if err := dec.Decode(&env); err != nil && err != io.EOF {
		return nil, root, err
	}

	encoded := env.Security.BinarySecurityToken.Value
	if encoded == "" {
		return nil, root, errEmptyTicket
	}
	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, root, err
	}

	return &SecurityTicket{
		ValueType: env.Security.BinarySecurityToken.ValueType,
		Raw:       payload,
	}, root, nil
}

var errEmptyTicket = xml.UnmarshalError("envelope carries no security ticket")

// validateTicket decodes the envelope and validates the ticket through the
// external authenticator, but only when the authenticator reports it as
// eligible. Every failure names the decoded document's root element.
func (v *CredentialValidator) validateTicket(envelope []byte) (*identity.RoleBasedIdentity, error) {
	if v.tickets == nil {
		return nil, status.IdentityTokenRejected("ticket tokens are not accepted here")
	}

	ticket, root, err := decodeTicketEnvelope(envelope)
	if err != nil {
		return nil, status.IdentityTokenRejected("cannot decode security envelope %q: %v", root, err)
	}
	if !v.tickets.Eligible(ticket) {
		return nil, status.IdentityTokenRejected("ticket in envelope %q is not eligible for validation", root)
	}

	name, err := v.tickets.Authenticate(ticket)
	if err != nil {
		return nil, status.IdentityTokenRejected("ticket in envelope %q rejected: %v", root, err)
	}

	return identity.NewRoleBasedIdentity(name, identity.KindIssued,
		[]identity.Role{identity.RoleAuthenticatedUser}), nil
}
