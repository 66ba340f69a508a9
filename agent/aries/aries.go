/*
Package aries decodes plaintext envelopes to the typed protocol messages. The
set of known messages is closed: Decode switches by the type URI and returns
one of the std message structs. Before decoding the JSON shape of the message
is validated against the base schema and the schema of its message name.
*/
package aries

import (
	"strings"

	"github.com/findy-network/findy-a2a/agent/didcomm"
	"github.com/findy-network/findy-a2a/agent/fault"
	"github.com/findy-network/findy-a2a/agent/pltype"
	"github.com/findy-network/findy-a2a/std/common"
	"github.com/findy-network/findy-a2a/std/connection"
	"github.com/findy-network/findy-a2a/std/issuecredential"
	"github.com/findy-network/findy-a2a/std/payment"
	"github.com/findy-network/findy-a2a/std/presentproof"
	"github.com/findy-network/findy-a2a/std/trustping"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Validate checks the JSON shape of the envelope. Unknown types only get the
// base check.
func Validate(e *didcomm.Envelope) (err error) {
	defer err2.Handle(&err, "validate")

	if e.Packed() {
		return fault.Invalid("cannot validate packed envelope")
	}
	data := e.JSON()
	try.To(validate(base, data))

	mt := try.To1(pltype.ParseType(try.To1(e.Type())))
	if s, ok := schemas[key(mt)]; ok {
		try.To(validate(s, data))
	}
	return nil
}

// Decode validates and decodes the envelope to its typed message. The result
// is a pointer to a struct from the std packages.
func Decode(e *didcomm.Envelope) (m didcomm.Message, err error) {
	defer err2.Handle(&err, "decode")

	try.To(Validate(e))
	mt := try.To1(pltype.ParseType(try.To1(e.Type())))

	switch key(mt) {
	case key2(pltype.ProtocolConnection, pltype.HandlerInvitation):
		m = &connection.Invitation{}
	case key2(pltype.ProtocolConnection, pltype.HandlerRequest):
		m = &connection.Request{}
	case key2(pltype.ProtocolConnection, pltype.HandlerResponse):
		m = &connection.Response{}
	case key2(pltype.ProtocolIssueCredential, pltype.HandlerIssueCredentialOffer):
		m = &issuecredential.Offer{}
	case key2(pltype.ProtocolIssueCredential, pltype.HandlerIssueCredentialRequest):
		m = &issuecredential.Request{}
	case key2(pltype.ProtocolIssueCredential, pltype.HandlerIssueCredentialIssue):
		m = &issuecredential.Issue{}
	case key2(pltype.ProtocolPresentProof, pltype.HandlerPresentProofRequest):
		m = &presentproof.Request{}
	case key2(pltype.ProtocolPresentProof, pltype.HandlerPresentProofPresentation):
		m = &presentproof.Presentation{}
	case key2(pltype.ProtocolRouting, pltype.HandlerForward):
		m = &common.Forward{}
	case key2(pltype.ProtocolPayment, pltype.HandlerReceipt):
		m = &payment.Receipt{}
	case key2(pltype.ProtocolTrustPing, pltype.HandlerPing):
		m = &trustping.Ping{}
	case key2(pltype.ProtocolTrustPing, pltype.HandlerPingResponse):
		m = &trustping.Response{}
	default:
		return nil, fault.Invalid("unknown message type %s", mt)
	}
	try.To(e.As(m))
	return m, nil
}

// DecodeAs decodes and checks that the message is type T.
func DecodeAs[T didcomm.Message](e *didcomm.Envelope) (t T, err error) {
	m, err := Decode(e)
	if err != nil {
		return t, err
	}
	t, ok := m.(T)
	if !ok {
		id, _ := e.ID()
		return t, fault.Invalid("message %s is %T", id, m)
	}
	return t, nil
}

func key(mt pltype.MessageType) string {
	return strings.ToLower(mt.Family + "/" + mt.Name)
}

func key2(family, name string) string {
	return family + "/" + name
}
