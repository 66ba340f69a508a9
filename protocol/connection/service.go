/*
Package connection implements the connections/1.0 protocol: the Service has
the operations of both sides of the handshake and the Handler dispatches the
inbound connection messages to it.

The inviter creates an invitation whose record stays in Invited until the
invitee's request arrives. The invitee's record is created at Negotiating when
it accepts the invitation. The request moves the inviter to Negotiating, and
the response, or the inviter's accept, moves each side to Connected.
*/
package connection

import (
	"context"

	"github.com/findy-network/findy-a2a/agent/comm"
	"github.com/findy-network/findy-a2a/agent/didcomm"
	"github.com/findy-network/findy-a2a/agent/fault"
	"github.com/findy-network/findy-a2a/agent/pltype"
	"github.com/findy-network/findy-a2a/agent/psm"
	"github.com/findy-network/findy-a2a/agent/storage/api"
	"github.com/findy-network/findy-a2a/agent/wallet"
	"github.com/findy-network/findy-a2a/std/common"
	"github.com/findy-network/findy-a2a/std/connection"
	"github.com/findy-network/findy-a2a/std/decorator"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Service has the connection operations. Endpoint and RoutingKeys are ours,
// and they go to the invitations and DID docs we send.
type Service struct {
	Sender      *comm.Sender
	Label       string
	Endpoint    string
	RoutingKeys []string
}

// InvitationConfig has the options of a new invitation.
type InvitationConfig struct {
	Alias      string
	AutoAccept bool
	MultiParty bool
}

// CreateInvitation creates a connection key and an inviter record in
// Invited state for it.
func (s *Service) CreateInvitation(
	ctx context.Context,
	ac *comm.Context,
	cfg InvitationConfig,
) (
	inv *connection.Invitation,
	rep *psm.ConnectionRep,
	err error,
) {
	defer err2.Handle(&err, "create invitation")

	key := try.To1(ac.Wallet.CreateKey(ctx))
	rep = psm.NewConnectionRep(psm.RoleInviter)
	rep.ConnectionKey = key
	rep.Alias = cfg.Alias
	rep.AutoAccept = cfg.AutoAccept
	rep.MultiParty = cfg.MultiParty
	try.To(ac.Store.Add(ctx, rep))

	inv = &connection.Invitation{
		Header: common.Header{
			Type: pltype.Outbound(pltype.AriesConnectionInvitation),
			ID:   didcomm.NewID(),
		},
		Label:           s.Label,
		RecipientKeys:   []string{key},
		ServiceEndpoint: s.Endpoint,
		RoutingKeys:     s.RoutingKeys,
	}
	glog.V(1).Infoln("invitation", inv.ID, "for connection", rep.ID)
	return inv, rep, nil
}

// AcceptInvitation creates an invitee record in Negotiating state with a new
// pairwise DID and sends the request to the inviter.
func (s *Service) AcceptInvitation(
	ctx context.Context,
	ac *comm.Context,
	inv *connection.Invitation,
	alias string,
) (
	rep *psm.ConnectionRep,
	err error,
) {
	defer err2.Handle(&err, "accept invitation")

	if len(inv.RecipientKeys) == 0 || inv.ServiceEndpoint == "" {
		return nil, fault.Invalid("invitation %s has no service", inv.ID)
	}
	rep = psm.NewConnectionRep(psm.RoleInvitee)
	rep.MyDID, rep.MyVk = try.To2(wallet.CreateDID(ctx, ac.Wallet))
	rep.Alias = alias
	rep.TheirLabel = inv.Label
	rep.Endpoint = psm.Endpoint{
		URI:         inv.ServiceEndpoint,
		Verkeys:     inv.RecipientKeys,
		RoutingKeys: inv.RoutingKeys,
	}
	try.To(rep.Fire(psm.TriggerInvitationAccept))

	reqID := didcomm.NewID()
	req := &connection.Request{
		Header: common.Header{
			Type: pltype.Outbound(pltype.AriesConnectionRequest),
			ID:   reqID,
		},
		Label: s.Label,
		Connection: connection.Connection{
			DID:    rep.MyDID,
			DIDDoc: connection.NewDIDDoc(rep.MyDID, rep.MyVk, s.Endpoint, s.RoutingKeys),
		},
		Thread: decorator.NewThread(reqID, inv.ID),
	}
	rep.SetTag(psm.TagThreadID, req.ID)
	try.To(ac.Store.Add(ctx, rep))

	out := try.To1(comm.NewOutgoing(req, nil))
	out.Connection = rep
	try.To(s.Sender.Send(ctx, ac, out))
	return rep, nil
}

// ProcessRequest stores the invitee's DID and endpoint to the bound
// connection, which must be Invited and becomes Negotiating. For a multi-party
// invitation a new record is cloned per request. Returns the connection
// which the request now belongs to.
func (s *Service) ProcessRequest(
	ctx context.Context,
	ac *comm.Context,
	req *connection.Request,
) (
	rep *psm.ConnectionRep,
	err error,
) {
	defer err2.Handle(&err, "process request")

	rep = try.To1(bound(ac, psm.RoleInviter))
	isNew := false
	if rep.MultiParty {
		rep = rep.Clone()
		isNew = true
	}
	theirVk := req.Connection.DIDDoc.Verkey()
	uri, keys, routing := req.Connection.DIDDoc.Endpoint()
	if theirVk == "" || uri == "" {
		return nil, fault.Invalid("request %s has no DID doc service", req.ID)
	}
	if rep.State != psm.ConnectionInvited {
		return nil, fault.New(fault.RecordInInvalidState,
			"connection %s already got a request", rep.ID)
	}
	try.To(rep.Fire(psm.TriggerRequest))

	rep.TheirDID = req.Connection.DID
	rep.TheirVk = theirVk
	rep.TheirLabel = req.Label
	rep.Endpoint = psm.Endpoint{URI: uri, Verkeys: keys, RoutingKeys: routing}
	rep.MyDID, rep.MyVk = try.To2(wallet.CreateDID(ctx, ac.Wallet))
	rep.SetTag(psm.TagThreadID, decorator.CheckThread(req.Thread, req.ID).ID)

	if isNew {
		try.To(ac.Store.Add(ctx, rep))
	} else {
		try.To(ac.Store.Update(ctx, rep))
	}
	ac.Connection = rep
	ac.Record = rep
	glog.V(1).Infoln("connection", rep.ID, "request from", rep.TheirDID)
	return rep, nil
}

// AcceptRequest sends the response to the Negotiating inviter connection and
// moves it to Connected. The record is stored only after the send succeeded.
func (s *Service) AcceptRequest(ctx context.Context, ac *comm.Context, connectionID string) (err error) {
	defer err2.Handle(&err, "accept request")

	rep := try.To1(api.Get[psm.ConnectionRep](ctx, ac.Store, connectionID))
	if rep.Role != psm.RoleInviter || rep.State != psm.ConnectionNegotiating {
		return fault.New(fault.RecordInInvalidState,
			"connection %s is %s in %s", rep.ID, rep.Role, rep.State)
	}
	try.To(rep.Fire(psm.TriggerRequest))

	res := &connection.Response{
		Header: common.Header{
			Type: pltype.Outbound(pltype.AriesConnectionResponse),
			ID:   didcomm.NewID(),
		},
		Connection: connection.Connection{
			DID:    rep.MyDID,
			DIDDoc: connection.NewDIDDoc(rep.MyDID, rep.MyVk, s.Endpoint, s.RoutingKeys),
		},
		Thread: &decorator.Thread{ID: rep.Tag(psm.TagThreadID)},
	}
	out := try.To1(comm.NewOutgoing(res, nil))
	out.Connection = rep
	try.To(s.Sender.Send(ctx, ac, out))

	try.To(ac.Store.Update(ctx, rep))
	glog.V(1).Infoln("connection", rep.ID, "connected as inviter")
	return nil
}

// ProcessResponse stores the inviter's DID and endpoint to the bound
// invitee connection and moves it to Connected.
func (s *Service) ProcessResponse(
	ctx context.Context,
	ac *comm.Context,
	res *connection.Response,
) (
	rep *psm.ConnectionRep,
	err error,
) {
	defer err2.Handle(&err, "process response")

	rep = try.To1(bound(ac, psm.RoleInvitee))
	if res.Thread == nil || res.Thread.ID != rep.Tag(psm.TagThreadID) {
		return nil, fault.Invalid("response %s is not threaded to our request", res.ID)
	}
	theirVk := res.Connection.DIDDoc.Verkey()
	uri, keys, routing := res.Connection.DIDDoc.Endpoint()
	if theirVk == "" || uri == "" {
		return nil, fault.Invalid("response %s has no DID doc service", res.ID)
	}
	try.To(rep.Fire(psm.TriggerResponse))

	rep.TheirDID = res.Connection.DID
	rep.TheirVk = theirVk
	rep.Endpoint = psm.Endpoint{URI: uri, Verkeys: keys, RoutingKeys: routing}
	try.To(ac.Store.Update(ctx, rep))
	ac.Record = rep
	glog.V(1).Infoln("connection", rep.ID, "connected as invitee")
	return rep, nil
}

// Get returns the connection.
func (s *Service) Get(ctx context.Context, ac *comm.Context, id string) (*psm.ConnectionRep, error) {
	return api.Get[psm.ConnectionRep](ctx, ac.Store, id)
}

// List returns the connections in the state, or all if state is nil.
func (s *Service) List(ctx context.Context, ac *comm.Context, state *psm.ConnectionState) ([]*psm.ConnectionRep, error) {
	var q api.Query
	if state != nil {
		q = api.Eq(psm.TagState, state.String())
	}
	return api.Search[psm.ConnectionRep](ctx, ac.Store, q)
}

// Delete removes the connection record. Connections are never removed
// otherwise.
func (s *Service) Delete(ctx context.Context, ac *comm.Context, id string) error {
	return ac.Store.Delete(ctx, psm.ConnectionRecord, id)
}

func bound(ac *comm.Context, role psm.Role) (*psm.ConnectionRep, error) {
	if _, err := ac.Bound(); err != nil {
		return nil, err
	}
	if ac.Connection.Role != role {
		return nil, fault.New(fault.RecordInInvalidState,
			"connection %s is %s", ac.Connection.ID, ac.Connection.Role)
	}
	return ac.Connection, nil
}
