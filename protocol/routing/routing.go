/*
Package routing implements the routing/1.0 forward handler. The handler
binds the connection which owns the forward's recipient key and pushes the
inner packed message back to the context's pending queue, where the
processing loop unpacks and dispatches it. Nested forwards unwrap one layer
per round.
*/
package routing

import (
	"context"

	"github.com/findy-network/findy-a2a/agent/aries"
	"github.com/findy-network/findy-a2a/agent/comm"
	"github.com/findy-network/findy-a2a/agent/didcomm"
	"github.com/findy-network/findy-a2a/agent/pltype"
	"github.com/findy-network/findy-a2a/std/common"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

type Handler struct{}

func (Handler) SupportedTypes() []string {
	return pltype.Both(pltype.RoutingForward)
}

// Process handles the forward. There must be exactly one connection owning
// the to key. It never returns an outgoing message.
func (h Handler) Process(ctx context.Context, ac *comm.Context, env *didcomm.Envelope) (_ *comm.Outgoing, err error) {
	defer err2.Handle(&err, "forward")

	try.To1(comm.CheckSupported(h, env))
	fwd := try.To1(aries.DecodeAs[*common.Forward](env))

	conn := try.To1(comm.ResolveByKey(ctx, ac.Store, fwd.To))
	ac.Connection = conn
	payload := try.To1(fwd.Payload())

	glog.V(1).Infof("forward to %s (connection %s), %d bytes", fwd.To, conn.ID, len(payload))
	ac.Enqueue(payload)
	return nil, nil
}
