/*
Package issuecredential is package for Aries issue-credential/1.0 protocol
messages. The anoncreds data (offer, request, credential) travel as base64
attachments and their content belongs to the credential engine.

	https://github.com/hyperledger/aries-rfcs/tree/main/features/0036-issue-credential
*/
package issuecredential

import (
	"github.com/findy-network/findy-a2a/std/common"
	"github.com/findy-network/findy-a2a/std/decorator"
)

// Offer is sent by the Issuer to the potential Holder. It describes the
// credential they intend to offer.
type Offer struct {
	common.Header
	Comment           string                 `json:"comment,omitempty"`
	CredentialPreview *PreviewCredential     `json:"credential_preview,omitempty"`
	OffersAttach      []decorator.Attachment `json:"offers~attach"`
	Thread            *decorator.Thread      `json:"~thread,omitempty"`
}

// Request is sent by the Holder as an answer to the Offer.
type Request struct {
	common.Header
	Comment        string                 `json:"comment,omitempty"`
	RequestsAttach []decorator.Attachment `json:"requests~attach"`
	Thread         *decorator.Thread      `json:"~thread,omitempty"`
}

// Issue carries the issued credential.
type Issue struct {
	common.Header
	Comment           string                 `json:"comment,omitempty"`
	CredentialsAttach []decorator.Attachment `json:"credentials~attach"`
	Thread            *decorator.Thread      `json:"~thread,omitempty"`
}

// PreviewCredential is the human readable content of the offered credential.
type PreviewCredential struct {
	Type       string      `json:"@type,omitempty"`
	Attributes []Attribute `json:"attributes"`
}

type Attribute struct {
	Name     string `json:"name"`
	MimeType string `json:"mime-type,omitempty"`
	Value    string `json:"value"`
}

// PreviewCredentialType is the type of the credential preview block.
const PreviewCredentialType = "https://didcomm.org/issue-credential/1.0/credential-preview"

// NewPreview builds the preview block from attribute values.
func NewPreview(values map[string]string) *PreviewCredential {
	p := &PreviewCredential{Type: PreviewCredentialType}
	for name, v := range values {
		p.Attributes = append(p.Attributes, Attribute{Name: name, Value: v})
	}
	return p
}
