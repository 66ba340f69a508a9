/*
Package trustping implements trust_ping/1.0. A ping checks that the other end
of a connection is alive and that the keys work both ways. The protocol has
no records: the response is only reported to the Pong callback.
*/
package trustping

import (
	"context"

	"github.com/findy-network/findy-a2a/agent/aries"
	"github.com/findy-network/findy-a2a/agent/comm"
	"github.com/findy-network/findy-a2a/agent/didcomm"
	"github.com/findy-network/findy-a2a/agent/fault"
	"github.com/findy-network/findy-a2a/agent/pltype"
	"github.com/findy-network/findy-a2a/agent/psm"
	"github.com/findy-network/findy-a2a/agent/storage/api"
	"github.com/findy-network/findy-a2a/std/common"
	"github.com/findy-network/findy-a2a/std/trustping"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

type Service struct {
	Sender *comm.Sender
}

// Ping sends a ping to the connected connection and returns the ping's id,
// which is the thread id of the response.
func (s *Service) Ping(ctx context.Context, ac *comm.Context, connectionID, comment string) (_ string, err error) {
	defer err2.Handle(&err, "ping")

	conn := try.To1(api.Get[psm.ConnectionRep](ctx, ac.Store, connectionID))
	if conn.State != psm.ConnectionConnected {
		return "", fault.New(fault.RecordInInvalidState,
			"connection %s is %s", conn.ID, conn.State)
	}
	ping := &trustping.Ping{
		Header: common.Header{
			Type: pltype.Outbound(pltype.TrustPingPing),
			ID:   didcomm.NewID(),
		},
		Comment: comment,
	}
	out := try.To1(comm.NewOutgoing(ping, nil))
	out.Connection = conn
	try.To(s.Sender.Send(ctx, ac, out))
	return ping.ID, nil
}

// Handler answers the pings and reports the responses to Pong, if it's set.
type Handler struct {
	Pong func(connectionID, threadID string)
}

func (h *Handler) SupportedTypes() []string {
	return pltype.Both(pltype.TrustPingPing, pltype.TrustPingResponse)
}

func (h *Handler) Process(_ context.Context, ac *comm.Context, env *didcomm.Envelope) (_ *comm.Outgoing, err error) {
	defer err2.Handle(&err, "trust ping handler")

	try.To1(comm.CheckSupported(h, env))
	conn := try.To1(ac.Bound())

	switch m := try.To1(aries.Decode(env)).(type) {
	case *trustping.Ping:
		glog.V(1).Infoln("ping", m.ID, "from", conn.ID)
		if !m.WantsResponse() {
			return nil, nil
		}
		return comm.NewOutgoing(&trustping.Response{
			Header: common.Header{
				Type: pltype.Outbound(pltype.TrustPingResponse),
				ID:   didcomm.NewID(),
			},
		}, env)
	case *trustping.Response:
		thid := env.ThreadID()
		glog.V(1).Infoln("ping response", thid, "from", conn.ID)
		if h.Pong != nil {
			h.Pong(conn.ID, thid)
		}
	default:
		return nil, fault.Invalid("%T is not a trust ping message", m)
	}
	return nil, nil
}
