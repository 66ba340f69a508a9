// Package connection has the messages of the Aries connections/1.0 protocol.
//
//	https://github.com/hyperledger/aries-rfcs/tree/main/features/0160-connection-protocol
package connection

import (
	"github.com/findy-network/findy-a2a/std/common"
	"github.com/findy-network/findy-a2a/std/decorator"
)

// Invitation is sent out of band by the inviter. RecipientKeys has the
// inviter's connection key.
type Invitation struct {
	common.Header
	Label           string   `json:"label,omitempty"`
	RecipientKeys   []string `json:"recipientKeys"`
	ServiceEndpoint string   `json:"serviceEndpoint"`
	RoutingKeys     []string `json:"routingKeys,omitempty"`
	ImageURL        string   `json:"imageUrl,omitempty"`
}

// Request is sent by the invitee to the connection key of the invitation.
type Request struct {
	common.Header
	Label      string            `json:"label,omitempty"`
	Connection Connection        `json:"connection"`
	Thread     *decorator.Thread `json:"~thread,omitempty"`
}

// Response is the inviter's answer to the Request and it's threaded to it.
type Response struct {
	common.Header
	Connection Connection        `json:"connection"`
	Thread     *decorator.Thread `json:"~thread,omitempty"`
}

// Connection is the DID and the DID document of the sender.
type Connection struct {
	DID    string  `json:"DID"`
	DIDDoc *DIDDoc `json:"DIDDoc,omitempty"`
}
