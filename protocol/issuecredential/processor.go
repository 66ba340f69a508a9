/*
Package issuecredential implements the issue-credential/1.0 protocol. The
issuer and holder subpackages have the operations of each role. Handler
dispatches the inbound messages to them.
*/
package issuecredential

import (
	"context"

	"github.com/findy-network/findy-a2a/agent/aries"
	"github.com/findy-network/findy-a2a/agent/comm"
	"github.com/findy-network/findy-a2a/agent/didcomm"
	"github.com/findy-network/findy-a2a/agent/fault"
	"github.com/findy-network/findy-a2a/agent/pltype"
	"github.com/findy-network/findy-a2a/agent/psm"
	"github.com/findy-network/findy-a2a/agent/storage/api"
	"github.com/findy-network/findy-a2a/protocol/issuecredential/holder"
	"github.com/findy-network/findy-a2a/protocol/issuecredential/issuer"
	"github.com/findy-network/findy-a2a/std/issuecredential"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

type Handler struct {
	Issuer *issuer.Issuer
	Holder *holder.Holder
}

func (h *Handler) SupportedTypes() []string {
	return pltype.Both(
		pltype.IssueCredentialOffer,
		pltype.IssueCredentialRequest,
		pltype.IssueCredentialIssue,
	)
}

// Process handles the offer by replying with the request. The request and
// the credential are only stored. A redelivered offer gets no reply.
func (h *Handler) Process(ctx context.Context, ac *comm.Context, env *didcomm.Envelope) (_ *comm.Outgoing, err error) {
	defer err2.Handle(&err, "issue credential handler")

	try.To1(comm.CheckSupported(h, env))

	switch m := try.To1(aries.Decode(env)).(type) {
	case *issuecredential.Offer:
		_, req := try.To2(h.Holder.ProcessOffer(ctx, ac, m))
		if req == nil {
			return nil, nil
		}
		return comm.NewOutgoing(req, env)
	case *issuecredential.Request:
		try.To1(h.Issuer.ProcessRequest(ctx, ac, m))
	case *issuecredential.Issue:
		try.To1(h.Holder.ProcessCredential(ctx, ac, m))
	default:
		return nil, fault.Invalid("%T is not an issue credential message", m)
	}
	return nil, nil
}

// Get returns the credential record.
func Get(ctx context.Context, ac *comm.Context, id string) (*psm.IssueCredRep, error) {
	return api.Get[psm.IssueCredRep](ctx, ac.Store, id)
}

// List returns the credential records of the connection, or all if the
// connection id is empty.
func List(ctx context.Context, ac *comm.Context, connectionID string) ([]*psm.IssueCredRep, error) {
	var q api.Query
	if connectionID != "" {
		q = api.Eq(psm.TagConnectionID, connectionID)
	}
	return api.Search[psm.IssueCredRep](ctx, ac.Store, q)
}
