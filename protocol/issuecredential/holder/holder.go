/*
Package holder has the holder side of the issue-credential protocol. An offer
is answered with a request right away, and the issued credential is stored to
the credential engine's wallet.
*/
package holder

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

type Holder struct {
	Engine vc.Engine
}

// offer fields we need from the engine's offer JSON
type offerIDs struct {
	CredDefID string `json:"cred_def_id"`
	SchemaID  string `json:"schema_id"`
}

// ProcessOffer stores the offer as a new holder record and builds the
// credential request for it. The record is Requested when the request is
// returned. The caller sends the request on the bound connection. A
// redelivered offer returns the record of its thread and no request, unless
// the record is still Offered.
func (h *Holder) ProcessOffer(
	ctx context.Context,
	ac *comm.Context,
	offer *issuecredential.Offer,
) (
	rep *psm.IssueCredRep,
	req *issuecredential.Request,
	err error,
) {
	defer err2.Handle(&err, "process offer")

	conn := try.To1(ac.Bound())
	offerJSON := string(try.To1(decorator.FirstAttachment(offer.OffersAttach)))
	var ids offerIDs
	dto.FromJSONStr(offerJSON, &ids)
	if ids.CredDefID == "" {
		return nil, nil, fault.Invalid("offer %s has no cred def", offer.ID)
	}

	thid := decorator.CheckThread(offer.Thread, offer.ID).ID
	rep = try.To1(psm.LookupThread[psm.IssueCredRep](ctx, ac.Store, conn.ID, thid, psm.RoleHolder))
	switch {
	case rep == nil:
		rep = psm.NewIssueCredRep(psm.RoleHolder, conn.ID)
		rep.ThreadID = thid
		rep.CredDefID = ids.CredDefID
		rep.SchemaID = ids.SchemaID
		rep.OfferJSON = offerJSON
		if offer.CredentialPreview != nil {
			values := make(map[string]string, len(offer.CredentialPreview.Attributes))
			for _, a := range offer.CredentialPreview.Attributes {
				values[a.Name] = a.Value
			}
			rep.ValuesJSON = dto.ToJSON(values)
		}
		try.To(ac.Store.Add(ctx, rep))
	case rep.State != psm.CredentialOffered:
		glog.V(1).Infoln("offer", offer.ID, "already received as", rep.ID)
		ac.Record = rep
		return rep, nil, nil
	default:
		// the request of the earlier delivery failed
		glog.V(1).Infoln("offer", offer.ID, "retried with", rep.ID)
	}
	ac.Record = rep

	credDefJSON := try.To1(credDef(ctx, ac, rep.CredDefID))
	requested := try.To1(h.Engine.CreateRequest(ctx, conn.MyDID, offerJSON, credDefJSON))
	try.To(rep.Fire(psm.TriggerCredRequest))
	rep.RequestJSON = requested.RequestJSON
	rep.RequestMetadataJSON = requested.MetadataJSON
	try.To(ac.Store.Update(ctx, rep))

	req = &issuecredential.Request{
		Header: common.Header{
			Type: pltype.Outbound(pltype.IssueCredentialRequest),
			ID:   didcomm.NewID(),
		},
		RequestsAttach: decorator.NewAttachment("libindy-cred-request-0", []byte(requested.RequestJSON)),
		Thread:         &decorator.Thread{ID: rep.ThreadID},
	}
	glog.V(1).Infoln("credential", rep.ID, "requested from", conn.ID)
	return rep, req, nil
}

// ProcessCredential stores the issued credential and the record becomes
// Issued.
func (h *Holder) ProcessCredential(ctx context.Context, ac *comm.Context, issue *issuecredential.Issue) (rep *psm.IssueCredRep, err error) {
	defer err2.Handle(&err, "process credential")

	conn := try.To1(ac.Bound())
	thid := decorator.CheckThread(issue.Thread, issue.ID).ID
	rep = try.To1(psm.FindByThread[psm.IssueCredRep](ctx, ac.Store, conn.ID, thid, psm.RoleHolder))
	credJSON := string(try.To1(decorator.FirstAttachment(issue.CredentialsAttach)))

	try.To(rep.Fire(psm.TriggerCredIssue))
	credDefJSON := try.To1(credDef(ctx, ac, rep.CredDefID))
	rep.CredentialID = try.To1(h.Engine.StoreCredential(ctx, rep.RequestMetadataJSON, credJSON, credDefJSON))
	try.To(ac.Store.Update(ctx, rep))
	ac.Record = rep
	glog.V(1).Infoln("credential", rep.ID, "stored as", rep.CredentialID)
	return rep, nil
}

// RejectOffer rejects the offered credential.
func (h *Holder) RejectOffer(ctx context.Context, ac *comm.Context, id string) (err error) {
	defer err2.Handle(&err, "reject offer")

	rep := try.To1(api.Get[psm.IssueCredRep](ctx, ac.Store, id))
	if rep.Role != psm.RoleHolder {
		return fault.New(fault.RecordInInvalidState, "credential %s is %s", rep.ID, rep.Role)
	}
	try.To(rep.Fire(psm.TriggerCredReject))
	return ac.Store.Update(ctx, rep)
}

func credDef(ctx context.Context, ac *comm.Context, id string) (string, error) {
	ledger, err := ac.Pool(ctx)
	if err != nil {
		return "", err
	}
	return ledger.CredDef(ctx, id)
}
