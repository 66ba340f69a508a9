/*
Package presentproof implements the present-proof/1.0 protocol. The prover
and verifier subpackages have the operations of each role. Handler stores the
inbound requests and verifies the inbound presentations.
*/
package presentproof

import (
	"context"

	"github.com/findy-network/findy-a2a/agent/aries"
	"github.com/findy-network/findy-a2a/agent/comm"
	"github.com/findy-network/findy-a2a/agent/didcomm"
	"github.com/findy-network/findy-a2a/agent/fault"
	"github.com/findy-network/findy-a2a/agent/pltype"
	"github.com/findy-network/findy-a2a/agent/psm"
	"github.com/findy-network/findy-a2a/agent/storage/api"
	"github.com/findy-network/findy-a2a/protocol/presentproof/prover"
	"github.com/findy-network/findy-a2a/protocol/presentproof/verifier"
	"github.com/findy-network/findy-a2a/std/presentproof"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

type Handler struct {
	Prover   *prover.Prover
	Verifier *verifier.Verifier
}

func (h *Handler) SupportedTypes() []string {
	return pltype.Both(
		pltype.PresentProofRequest,
		pltype.PresentProofPresentation,
	)
}

func (h *Handler) Process(ctx context.Context, ac *comm.Context, env *didcomm.Envelope) (_ *comm.Outgoing, err error) {
	defer err2.Handle(&err, "present proof handler")

	try.To1(comm.CheckSupported(h, env))

	switch m := try.To1(aries.Decode(env)).(type) {
	case *presentproof.Request:
		try.To1(h.Prover.ProcessRequest(ctx, ac, m))
	case *presentproof.Presentation:
		try.To1(h.Verifier.ProcessPresentation(ctx, ac, m))
	default:
		return nil, fault.Invalid("%T is not a present proof message", m)
	}
	return nil, nil
}

// Get returns the proof record.
func Get(ctx context.Context, ac *comm.Context, id string) (*psm.PresentProofRep, error) {
	return api.Get[psm.PresentProofRep](ctx, ac.Store, id)
}

// List returns the proof records of the connection, or all if the
// connection id is empty.
func List(ctx context.Context, ac *comm.Context, connectionID string) ([]*psm.PresentProofRep, error) {
	var q api.Query
	if connectionID != "" {
		q = api.Eq(psm.TagConnectionID, connectionID)
	}
	return api.Search[psm.PresentProofRep](ctx, ac.Store, q)
}
