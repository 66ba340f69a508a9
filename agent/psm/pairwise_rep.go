package psm

import "strings"

const ConnectionRecord = "ConnectionRecord"

// ConnectionState is the state of the pairwise connection.
type ConnectionState int

const (
	ConnectionInvited ConnectionState = iota
	ConnectionNegotiating
	ConnectionConnected
)

func (s ConnectionState) String() string {
	switch s {
	case ConnectionInvited:
		return "Invited"
	case ConnectionNegotiating:
		return "Negotiating"
	case ConnectionConnected:
		return "Connected"
	default:
		return "Unknown"
	}
}

// ParseConnectionState is the reverse of String, case is ignored.
func ParseConnectionState(s string) (ConnectionState, bool) {
	for st := ConnectionInvited; st <= ConnectionConnected; st++ {
		if strings.EqualFold(st.String(), s) {
			return st, true
		}
	}
	return 0, false
}

type ConnectionTrigger int

const (
	TriggerInvitationAccept ConnectionTrigger = iota
	TriggerRequest
	TriggerResponse
)

func (t ConnectionTrigger) String() string {
	switch t {
	case TriggerInvitationAccept:
		return "InvitationAccept"
	case TriggerRequest:
		return "Request"
	case TriggerResponse:
		return "Response"
	default:
		return "Unknown"
	}
}

// Either party may see the next message first, so both triggers are legal
// in Invited and in Negotiating. The state never goes back.
var connectionMachine = machine[ConnectionState, ConnectionTrigger]{
	ConnectionInvited: {
		TriggerInvitationAccept: ConnectionNegotiating,
		TriggerRequest:          ConnectionNegotiating,
	},
	ConnectionNegotiating: {
		TriggerRequest:  ConnectionConnected,
		TriggerResponse: ConnectionConnected,
	},
}

// Endpoint is the peer's service endpoint from its DID doc or invitation.
type Endpoint struct {
	URI         string   `json:"uri"`
	Verkeys     []string `json:"verkeys,omitempty"`
	RoutingKeys []string `json:"routing_keys,omitempty"`
}

// ConnectionRep is the pairwise relationship. MyVk and TheirVk are set at or
// after Negotiating.
type ConnectionRep struct {
	Base
	Role          Role            `json:"role"`
	ConnectionKey string          `json:"connection_key,omitempty"`
	MyDID         string          `json:"my_did,omitempty"`
	MyVk          string          `json:"my_vk,omitempty"`
	TheirDID      string          `json:"their_did,omitempty"`
	TheirVk       string          `json:"their_vk,omitempty"`
	Alias         string          `json:"alias,omitempty"`
	TheirLabel    string          `json:"their_label,omitempty"`
	Endpoint      Endpoint        `json:"endpoint"`
	AutoAccept    bool            `json:"auto_accept,omitempty"`
	MultiParty    bool            `json:"multi_party,omitempty"`
	State         ConnectionState `json:"state"`
}

// NewConnectionRep creates a connection rep in Invited state.
func NewConnectionRep(role Role) *ConnectionRep {
	return &ConnectionRep{Base: newBase(), Role: role}
}

func (r *ConnectionRep) RecordType() string {
	return ConnectionRecord
}

func (r *ConnectionRep) Tags() map[string]string {
	t := map[string]string{
		TagState:         r.State.String(),
		TagRole:          string(r.Role),
		TagConnectionKey: r.ConnectionKey,
		TagMyVk:          r.MyVk,
		TagTheirVk:       r.TheirVk,
		TagMyDID:         r.MyDID,
		TagTheirDID:      r.TheirDID,
	}
	if r.AutoAccept {
		t[TagAutoAccept] = boolTag(true)
	}
	if r.MultiParty {
		t[TagMultiParty] = boolTag(true)
	}
	return r.tags(t)
}

// Fire moves the rep to the next state by the trigger.
func (r *ConnectionRep) Fire(t ConnectionTrigger) (err error) {
	r.State, err = connectionMachine.next(ConnectionRecord, r.State, t)
	if err == nil {
		r.touch()
	}
	return err
}

// AutoAccepts tells if the AutoAcceptConnection tag is "true".
func (r *ConnectionRep) AutoAccepts() bool {
	return r.Tags()[TagAutoAccept] == boolTag(true)
}

// Clone makes a fresh rep of the multi-party invitation for a new invitee.
// The connection key stays only in the invitation so that it resolves to one
// rep.
func (r *ConnectionRep) Clone() *ConnectionRep {
	c := *r
	c.Base = newBase()
	c.MultiParty = false
	c.ConnectionKey = ""
	for k, v := range r.CustomTags {
		c.SetTag(k, v)
	}
	c.SetTag(TagInvitationRecord, r.ID)
	return &c
}
