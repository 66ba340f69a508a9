/*
Package prover has the prover side of the present-proof protocol. The
received request waits for an explicit accept or reject.
*/
package prover

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

type Prover struct {
	Engine vc.Engine
	Sender *comm.Sender
}

// ProcessRequest stores the proof request as a prover record in Requested
// state. A redelivered request returns the record of its thread.
func (p *Prover) ProcessRequest(ctx context.Context, ac *comm.Context, req *presentproof.Request) (rep *psm.PresentProofRep, err error) {
	defer err2.Handle(&err, "process proof request")

	conn := try.To1(ac.Bound())
	data := try.To1(decorator.FirstAttachment(req.RequestPresentations))

	thid := decorator.CheckThread(req.Thread, req.ID).ID
	rep = try.To1(psm.LookupThread[psm.PresentProofRep](ctx, ac.Store, conn.ID, thid, psm.RoleProver))
	if rep != nil {
		glog.V(1).Infoln("proof request", req.ID, "already received as", rep.ID)
		ac.Record = rep
		return rep, nil
	}

	rep = psm.NewPresentProofRep(psm.RoleProver, conn.ID)
	rep.ThreadID = thid
	rep.RequestJSON = string(data)
	try.To(ac.Store.Add(ctx, rep))
	ac.Record = rep
	glog.V(1).Infoln("proof request", rep.ID, "from", conn.ID)
	return rep, nil
}

// AcceptRequest creates the proof and sends the presentation. The record is
// Accepted after the send.
func (p *Prover) AcceptRequest(ctx context.Context, ac *comm.Context, id string) (rep *psm.PresentProofRep, err error) {
	defer err2.Handle(&err, "accept proof request")

	rep = try.To1(prover(ctx, ac, id))
	try.To(rep.Fire(psm.TriggerProofAccept))
	conn := try.To1(api.Get[psm.ConnectionRep](ctx, ac.Store, rep.ConnectionID))

	rep.ProofJSON = try.To1(p.Engine.CreateProof(ctx, rep.RequestJSON))
	msg := &presentproof.Presentation{
		Header: common.Header{
			Type: pltype.Outbound(pltype.PresentProofPresentation),
			ID:   didcomm.NewID(),
		},
		PresentationAttaches: decorator.NewAttachment("libindy-presentation-0", []byte(rep.ProofJSON)),
		Thread:               &decorator.Thread{ID: rep.ThreadID},
	}
	out := try.To1(comm.NewOutgoing(msg, nil))
	out.Connection = conn
	try.To(p.Sender.Send(ctx, ac, out))

	try.To(ac.Store.Update(ctx, rep))
	ac.Record = rep
	return rep, nil
}

// RejectRequest rejects the proof request.
func (p *Prover) RejectRequest(ctx context.Context, ac *comm.Context, id string) (err error) {
	defer err2.Handle(&err, "reject proof request")

	rep := try.To1(prover(ctx, ac, id))
	try.To(rep.Fire(psm.TriggerProofReject))
	return ac.Store.Update(ctx, rep)
}

func prover(ctx context.Context, ac *comm.Context, id string) (*psm.PresentProofRep, error) {
	rep, err := api.Get[psm.PresentProofRep](ctx, ac.Store, id)
	if err != nil {
		return nil, err
	}
	if rep.Role != psm.RoleProver {
		return nil, fault.New(fault.RecordInInvalidState, "proof %s is %s", rep.ID, rep.Role)
	}
	return rep, nil
}
