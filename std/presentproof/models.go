/*
Package presentproof is package for Aries present-proof/1.0 protocol
messages. The proof request and the proof are base64 attachments.

	https://github.com/hyperledger/aries-rfcs/tree/main/features/0037-present-proof
*/
package presentproof

import (
	"github.com/findy-network/findy-a2a/std/common"
	"github.com/findy-network/findy-a2a/std/decorator"
)

// Request is the request-presentation message of the verifier.
type Request struct {
	common.Header
	Comment              string                 `json:"comment,omitempty"`
	RequestPresentations []decorator.Attachment `json:"request_presentations~attach"`
	Thread               *decorator.Thread      `json:"~thread,omitempty"`
}

// Presentation is the prover's disclosed proof.
type Presentation struct {
	common.Header
	Comment              string                 `json:"comment,omitempty"`
	PresentationAttaches []decorator.Attachment `json:"presentations~attach"`
	Thread               *decorator.Thread      `json:"~thread,omitempty"`
}
