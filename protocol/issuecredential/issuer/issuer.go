/*
Package issuer has the issuer side of the issue-credential protocol. The
issuer offers, receives the holder's request and then issues or rejects it by
an explicit call, which leaves room for a manual review.
*/
package issuer

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
	"github.com/findy-network/findy-a2a/std/issuecredential"
	"github.com/findy-network/findy-common-go/dto"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

type Issuer struct {
	Engine vc.Engine
	Sender *comm.Sender
}

// Offer has the content of a new credential offer. Payment asks the holder
// to pay for the credential.
type Offer struct {
	ConnectionID string
	CredDefID    string
	Values       map[string]string
	Comment      string
	Payment      *comm.PaymentTerms
}

// CreateOffer creates the issuer record in Offered state and sends the offer
// to the connection.
func (i *Issuer) CreateOffer(ctx context.Context, ac *comm.Context, o Offer) (rep *psm.IssueCredRep, err error) {
	defer err2.Handle(&err, "create offer")

	conn := try.To1(connected(ctx, ac, o.ConnectionID))
	offerJSON := try.To1(i.Engine.CreateOffer(ctx, o.CredDefID))

	msg := &issuecredential.Offer{
		Header: common.Header{
			Type: pltype.Outbound(pltype.IssueCredentialOffer),
			ID:   didcomm.NewID(),
		},
		Comment:           o.Comment,
		CredentialPreview: issuecredential.NewPreview(o.Values),
		OffersAttach:      decorator.NewAttachment("libindy-cred-offer-0", []byte(offerJSON)),
	}
	rep = psm.NewIssueCredRep(psm.RoleIssuer, conn.ID)
	rep.ThreadID = msg.ID
	rep.CredDefID = o.CredDefID
	rep.OfferJSON = offerJSON
	rep.ValuesJSON = dto.ToJSON(o.Values)
	try.To(ac.Store.Add(ctx, rep))
	ac.Record = rep

	out := try.To1(comm.NewOutgoing(msg, nil))
	out.Connection = conn
	out.Payment = o.Payment
	try.To(i.Sender.Send(ctx, ac, out))
	glog.V(1).Infoln("credential offer", rep.ID, "sent to", conn.ID)
	return rep, nil
}

// ProcessRequest stores the holder's request to the offer's record, which
// becomes Requested. Nothing is issued here.
func (i *Issuer) ProcessRequest(ctx context.Context, ac *comm.Context, req *issuecredential.Request) (rep *psm.IssueCredRep, err error) {
	defer err2.Handle(&err, "process request")

	conn := try.To1(ac.Bound())
	thid := decorator.CheckThread(req.Thread, req.ID).ID
	rep = try.To1(psm.FindByThread[psm.IssueCredRep](ctx, ac.Store, conn.ID, thid, psm.RoleIssuer))
	data := try.To1(decorator.FirstAttachment(req.RequestsAttach))
	try.To(rep.Fire(psm.TriggerCredRequest))
	rep.RequestJSON = string(data)
	try.To(ac.Store.Update(ctx, rep))
	ac.Record = rep
	glog.V(1).Infoln("credential", rep.ID, "requested")
	return rep, nil
}

// IssueCredential creates the credential of the Requested record and sends
// it to the holder. The record is Issued after the send.
func (i *Issuer) IssueCredential(ctx context.Context, ac *comm.Context, id string) (rep *psm.IssueCredRep, err error) {
	defer err2.Handle(&err, "issue credential")

	rep = try.To1(api.Get[psm.IssueCredRep](ctx, ac.Store, id))
	if rep.Role != psm.RoleIssuer {
		return nil, fault.New(fault.RecordInInvalidState, "credential %s is %s", rep.ID, rep.Role)
	}
	try.To(rep.Fire(psm.TriggerCredIssue))
	conn := try.To1(connected(ctx, ac, rep.ConnectionID))

	issued := try.To1(i.Engine.CreateCredential(ctx, rep.OfferJSON, rep.RequestJSON, rep.ValuesJSON))
	rep.RevocationID = issued.RevocationID
	rep.RevocationRegistryID = issued.RevocationRegistryID

	msg := &issuecredential.Issue{
		Header: common.Header{
			Type: pltype.Outbound(pltype.IssueCredentialIssue),
			ID:   didcomm.NewID(),
		},
		CredentialsAttach: decorator.NewAttachment("libindy-cred-0", []byte(issued.CredentialJSON)),
		Thread:            &decorator.Thread{ID: rep.ThreadID},
	}
	out := try.To1(comm.NewOutgoing(msg, nil))
	out.Connection = conn
	try.To(i.Sender.Send(ctx, ac, out))

	try.To(ac.Store.Update(ctx, rep))
	ac.Record = rep
	glog.V(1).Infoln("credential", rep.ID, "issued")
	return rep, nil
}

// RejectRequest rejects the offered or requested credential.
func (i *Issuer) RejectRequest(ctx context.Context, ac *comm.Context, id string) (err error) {
	defer err2.Handle(&err, "reject request")

	rep := try.To1(api.Get[psm.IssueCredRep](ctx, ac.Store, id))
	try.To(rep.Fire(psm.TriggerCredReject))
	return ac.Store.Update(ctx, rep)
}

// Revoke revokes the issued credential.
func (i *Issuer) Revoke(ctx context.Context, ac *comm.Context, id string) (err error) {
	defer err2.Handle(&err, "revoke")

	rep := try.To1(api.Get[psm.IssueCredRep](ctx, ac.Store, id))
	if rep.Role != psm.RoleIssuer {
		return fault.New(fault.RecordInInvalidState, "credential %s is %s", rep.ID, rep.Role)
	}
	try.To(rep.Fire(psm.TriggerCredRevoke))
	try.To(i.Engine.Revoke(ctx, rep.RevocationRegistryID, rep.RevocationID))
	return ac.Store.Update(ctx, rep)
}

func connected(ctx context.Context, ac *comm.Context, id string) (*psm.ConnectionRep, error) {
	conn, err := api.Get[psm.ConnectionRep](ctx, ac.Store, id)
	if err != nil {
		return nil, err
	}
	if conn.State != psm.ConnectionConnected {
		return nil, fault.New(fault.RecordInInvalidState,
			"connection %s is %s", conn.ID, conn.State)
	}
	return conn, nil
}
