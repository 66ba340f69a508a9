/*
Package pltype is the message type registry. It has the type URI constants of
all the protocols the core speaks and the parser which splits a type URI to
its doc base, protocol family, version and message name.
*/
package pltype

// Doc bases of the type URIs. Every protocol is accepted under both.
const (
	Aries       = "did:sov:BzCbsNYhMrjHiqZDTUASHg;spec" // legacy Aries doc URI
	DIDOrgAries = "https://didcomm.org"
)

// Connection protocol constants
const (
	ProtocolConnection = "connections"
	ProtocolVersion1   = "1.0"

	HandlerInvitation = "invitation"
	HandlerRequest    = "request"
	HandlerResponse   = "response"

	AriesConnection           = Aries + "/" + ProtocolConnection
	AriesConnectionInvitation = AriesConnection + "/1.0/" + HandlerInvitation
	AriesConnectionRequest    = AriesConnection + "/1.0/" + HandlerRequest
	AriesConnectionResponse   = AriesConnection + "/1.0/" + HandlerResponse

	DIDOrgAriesConnection           = DIDOrgAries + "/" + ProtocolConnection
	DIDOrgAriesConnectionInvitation = DIDOrgAriesConnection + "/1.0/" + HandlerInvitation
	DIDOrgAriesConnectionRequest    = DIDOrgAriesConnection + "/1.0/" + HandlerRequest
	DIDOrgAriesConnectionResponse   = DIDOrgAriesConnection + "/1.0/" + HandlerResponse
)

// Issue Credential protocol constants
const (
	ProtocolIssueCredential       = "issue-credential"
	HandlerIssueCredentialOffer   = "offer-credential"
	HandlerIssueCredentialRequest = "request-credential"
	HandlerIssueCredentialIssue   = "issue-credential"

	IssueCredential        = Aries + "/" + ProtocolIssueCredential
	IssueCredentialOffer   = IssueCredential + "/1.0/" + HandlerIssueCredentialOffer
	IssueCredentialRequest = IssueCredential + "/1.0/" + HandlerIssueCredentialRequest
	IssueCredentialIssue   = IssueCredential + "/1.0/" + HandlerIssueCredentialIssue

	DIDOrgIssueCredential        = DIDOrgAries + "/" + ProtocolIssueCredential
	DIDOrgIssueCredentialOffer   = DIDOrgIssueCredential + "/1.0/" + HandlerIssueCredentialOffer
	DIDOrgIssueCredentialRequest = DIDOrgIssueCredential + "/1.0/" + HandlerIssueCredentialRequest
	DIDOrgIssueCredentialIssue   = DIDOrgIssueCredential + "/1.0/" + HandlerIssueCredentialIssue
)

// Present Proof protocol constants
const (
	ProtocolPresentProof            = "present-proof"
	HandlerPresentProofRequest      = "request-presentation"
	HandlerPresentProofPresentation = "presentation"

	PresentProof             = Aries + "/" + ProtocolPresentProof
	PresentProofRequest      = PresentProof + "/1.0/" + HandlerPresentProofRequest
	PresentProofPresentation = PresentProof + "/1.0/" + HandlerPresentProofPresentation

	DIDOrgPresentProof             = DIDOrgAries + "/" + ProtocolPresentProof
	DIDOrgPresentProofRequest      = DIDOrgPresentProof + "/1.0/" + HandlerPresentProofRequest
	DIDOrgPresentProofPresentation = DIDOrgPresentProof + "/1.0/" + HandlerPresentProofPresentation
)

// Routing protocol constants
const (
	ProtocolRouting = "routing"
	HandlerForward  = "forward"

	RoutingForward       = Aries + "/" + ProtocolRouting + "/1.0/" + HandlerForward
	DIDOrgRoutingForward = DIDOrgAries + "/" + ProtocolRouting + "/1.0/" + HandlerForward
)

// Payment protocol constants
const (
	ProtocolPayment = "payments"
	HandlerReceipt  = "receipt"

	PaymentReceipt       = Aries + "/" + ProtocolPayment + "/1.0/" + HandlerReceipt
	DIDOrgPaymentReceipt = DIDOrgAries + "/" + ProtocolPayment + "/1.0/" + HandlerReceipt
)

// Trust ping protocol constants
const (
	ProtocolTrustPing   = "trust_ping"
	HandlerPing         = "ping"
	HandlerPingResponse = "ping_response"

	TrustPing         = Aries + "/" + ProtocolTrustPing
	TrustPingPing     = TrustPing + "/1.0/" + HandlerPing
	TrustPingResponse = TrustPing + "/1.0/" + HandlerPingResponse

	DIDOrgTrustPing         = DIDOrgAries + "/" + ProtocolTrustPing
	DIDOrgTrustPingPing     = DIDOrgTrustPing + "/1.0/" + HandlerPing
	DIDOrgTrustPingResponse = DIDOrgTrustPing + "/1.0/" + HandlerPingResponse
)

// default doc base for the outbound messages
var outBase = DIDOrgAries

// SetOutbound sets the doc base used when we build outbound type strings.
// Must be called before the agent is started.
func SetOutbound(base string) {
	outBase = base
}

// Outbound converts the type to the configured outbound doc base.
func Outbound(t string) string {
	mt, err := ParseType(t)
	if err != nil {
		return t
	}
	mt.Doc = outBase
	return mt.String()
}

// Both returns the type under both doc bases. It's used to declare supported
// types of the handlers.
func Both(types ...string) []string {
	all := make([]string, 0, 2*len(types))
	for _, t := range types {
		mt, err := ParseType(t)
		if err != nil {
			all = append(all, t)
			continue
		}
		mt.Doc = Aries
		all = append(all, mt.String())
		mt.Doc = DIDOrgAries
		all = append(all, mt.String())
	}
	return all
}
