package comm

import (
	"context"
	"encoding/json"
	"time"

	"github.com/findy-network/findy-a2a/agent/didcomm"
	"github.com/findy-network/findy-a2a/agent/fault"
	"github.com/findy-network/findy-a2a/agent/pltype"
	"github.com/findy-network/findy-a2a/agent/psm"
	"github.com/findy-network/findy-a2a/agent/trans"
	"github.com/findy-network/findy-a2a/std/common"
	"github.com/findy-network/findy-a2a/std/decorator"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// PaymentTerms asks the outbound pipeline to attach a payment request.
type PaymentTerms struct {
	Amount   uint64
	Currency string
	Method   string
	Label    string
}

// Outgoing is a plaintext message to send. InReplyTo is the inbound message
// it answers, and it's used for the thread correlation. Connection overrides
// the context's bound connection.
type Outgoing struct {
	Message    *didcomm.Envelope
	InReplyTo  *didcomm.Envelope
	Connection *psm.ConnectionRep
	Payment    *PaymentTerms
}

// NewOutgoing marshals the message to a new outgoing.
func NewOutgoing(m didcomm.Message, inReplyTo *didcomm.Envelope) (*Outgoing, error) {
	env, err := didcomm.NewMessage(m)
	if err != nil {
		return nil, err
	}
	return &Outgoing{Message: env, InReplyTo: inReplyTo}, nil
}

// OutgoingDecorator can read and add decorators to the outgoing message
// before it's packed.
type OutgoingDecorator interface {
	Decorate(ctx context.Context, ac *Context, out *Outgoing) error
}

// OutgoingFunc is an adapter for functions.
type OutgoingFunc func(ctx context.Context, ac *Context, out *Outgoing) error

func (f OutgoingFunc) Decorate(ctx context.Context, ac *Context, out *Outgoing) error {
	return f(ctx, ac, out)
}

// Sender is the outbound pipeline: decorate, pack, wrap to forwards and send.
type Sender struct {
	Transport  trans.Transport
	Decorators []OutgoingDecorator
}

// Send sends the message to the connection. Decorators are run in their
// order. Every routing key wraps the packed message to a forward. There is
// exactly one transport call and its error is returned as is.
func (s *Sender) Send(ctx context.Context, ac *Context, out *Outgoing) (err error) {
	defer err2.Handle(&err, "send")

	conn := out.Connection
	if conn == nil {
		conn = ac.Connection
	}
	if conn == nil {
		return fault.NotFound("no connection to send to")
	}
	if out.Message == nil || out.Message.Packed() {
		return fault.Invalid("outgoing message must be plaintext")
	}
	for _, d := range s.Decorators {
		try.To(d.Decorate(ctx, ac, out))
	}

	recipients := theirKeys(conn)
	if len(recipients) == 0 || conn.Endpoint.URI == "" {
		return fault.New(fault.RecordInInvalidState,
			"connection %s has no endpoint", conn.ID)
	}
	msg := out.Message.JSON()
	if glog.V(5) {
		glog.Infof("outbound to %s:\n%s", conn.Endpoint.URI, msg)
	}
	packed := try.To1(ac.Wallet.Pack(ctx, recipients, conn.MyVk, msg))

	to := recipients[0]
	for _, rk := range conn.Endpoint.RoutingKeys {
		fwd := common.NewForward(pltype.Outbound(pltype.RoutingForward),
			didcomm.NewID(), to, packed)
		packed = try.To1(ac.Wallet.Pack(ctx, []string{rk}, "",
			try.To1(json.Marshal(fwd))))
		to = rk
	}
	t, _ := out.Message.Type()
	glog.V(1).Infoln("send", t, "to", conn.Endpoint.URI)
	return s.Transport.Send(ctx, conn.Endpoint.URI, packed)
}

func theirKeys(c *psm.ConnectionRep) []string {
	if c.TheirVk != "" {
		return []string{c.TheirVk}
	}
	return c.Endpoint.Verkeys
}

// ThreadCorrelator threads the reply to the inbound message unless the reply
// is already threaded.
var ThreadCorrelator = OutgoingFunc(func(_ context.Context, _ *Context, out *Outgoing) error {
	if out.InReplyTo == nil || out.Message.HasDecorator(decorator.NameThread) {
		return nil
	}
	return didcomm.ThreadFrom(out.Message, out.InReplyTo)
})

// Timing stamps the out time.
var Timing = OutgoingFunc(func(_ context.Context, _ *Context, out *Outgoing) error {
	now := time.Now().UTC()
	return out.Message.AddDecorator(decorator.NameTiming, decorator.Timing{OutTime: &now})
})
