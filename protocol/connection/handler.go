package connection

import (
	"context"

	"github.com/findy-network/findy-a2a/agent/aries"
	"github.com/findy-network/findy-a2a/agent/comm"
	"github.com/findy-network/findy-a2a/agent/didcomm"
	"github.com/findy-network/findy-a2a/agent/fault"
	"github.com/findy-network/findy-a2a/agent/pltype"
	"github.com/findy-network/findy-a2a/std/connection"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Handler dispatches the inbound connection messages to the Service.
type Handler struct {
	Service *Service
}

func (h *Handler) SupportedTypes() []string {
	return pltype.Both(
		pltype.AriesConnectionInvitation,
		pltype.AriesConnectionRequest,
		pltype.AriesConnectionResponse,
	)
}

func (h *Handler) Process(ctx context.Context, ac *comm.Context, env *didcomm.Envelope) (_ *comm.Outgoing, err error) {
	defer err2.Handle(&err, "connection handler")

	try.To1(comm.CheckSupported(h, env))

	switch m := try.To1(aries.Decode(env)).(type) {
	case *connection.Invitation:
		try.To1(h.Service.AcceptInvitation(ctx, ac, m, ""))
	case *connection.Request:
		rep := try.To1(h.Service.ProcessRequest(ctx, ac, m))
		if rep.AutoAccepts() {
			if err := h.Service.AcceptRequest(ctx, ac, rep.ID); err != nil {
				glog.Errorf("auto-accept of connection %s: %v", rep.ID, err)
				return nil, err
			}
		}
	case *connection.Response:
		try.To1(h.Service.ProcessResponse(ctx, ac, m))
	default:
		return nil, fault.Invalid("%T is not a connection message", m)
	}
	return nil, nil
}
