// Package verifier has the verifier side of the present-proof protocol.
package verifier

import (
	"context"

	"github.com/findy-network/findy-a2a/agent/comm"
	"github.com/findy-network/findy-a2a/agent/didcomm"
	"github.com/findy-network/findy-a2a/agent/fault"
	"github.com/findy-network/findy-a2a/agent/pltype"
	"github.com/findy-network/findy-a2a/agent/psm"
	"github.com/findy-network/findy-a2a/agent/storage/api"
	"github.com/findy-network/findy-a2a/agent/vc"
	"github.com/findy-network/findy-a2a/std/common"
	"github.com/findy-network/findy-a2a/std/decorator"
	"github.com/findy-network/findy-a2a/std/presentproof"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

type Verifier struct {
	Engine vc.Engine
	Sender *comm.Sender
}

// CreateRequest sends the proof request to the connection. The new verifier
// record is Requested.
func (v *Verifier) CreateRequest(
	ctx context.Context,
	ac *comm.Context,
	connectionID, requestJSON, comment string,
) (
	rep *psm.PresentProofRep,
	err error,
) {
	defer err2.Handle(&err, "create proof request")

	conn := try.To1(api.Get[psm.ConnectionRep](ctx, ac.Store, connectionID))
	if conn.State != psm.ConnectionConnected {
		return nil, fault.New(fault.RecordInInvalidState,
			"connection %s is %s", conn.ID, conn.State)
	}
	msg := &presentproof.Request{
		Header: common.Header{
			Type: pltype.Outbound(pltype.PresentProofRequest),
			ID:   didcomm.NewID(),
		},
		Comment:              comment,
		RequestPresentations: decorator.NewAttachment("libindy-request-presentation-0", []byte(requestJSON)),
	}
	rep = psm.NewPresentProofRep(psm.RoleVerifier, conn.ID)
	rep.ThreadID = msg.ID
	rep.RequestJSON = requestJSON
	try.To(ac.Store.Add(ctx, rep))
	ac.Record = rep

	out := try.To1(comm.NewOutgoing(msg, nil))
	out.Connection = conn
	try.To(v.Sender.Send(ctx, ac, out))
	glog.V(1).Infoln("proof request", rep.ID, "sent to", conn.ID)
	return rep, nil
}

// ProcessPresentation verifies the proof and stores the result. A verified
// proof is Accepted and others are Rejected.
func (v *Verifier) ProcessPresentation(
	ctx context.Context,
	ac *comm.Context,
	pres *presentproof.Presentation,
) (
	rep *psm.PresentProofRep,
	err error,
) {
	defer err2.Handle(&err, "process presentation")

	conn := try.To1(ac.Bound())
	thid := decorator.CheckThread(pres.Thread, pres.ID).ID
	rep = try.To1(psm.FindByThread[psm.PresentProofRep](ctx, ac.Store, conn.ID, thid, psm.RoleVerifier))
	proofJSON := string(try.To1(decorator.FirstAttachment(pres.PresentationAttaches)))

	ok := try.To1(v.Engine.VerifyProof(ctx, rep.RequestJSON, proofJSON))
	trigger := psm.TriggerProofAccept
	if !ok {
		trigger = psm.TriggerProofReject
	}
	try.To(rep.Fire(trigger))
	rep.ProofJSON = proofJSON
	rep.Verified = ok
	try.To(ac.Store.Update(ctx, rep))
	ac.Record = rep
	glog.V(1).Infoln("proof", rep.ID, "verified:", ok)
	return rep, nil
}
