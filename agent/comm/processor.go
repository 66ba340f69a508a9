package comm

import (
	"context"
	"errors"

	"github.com/findy-network/findy-a2a/agent/didcomm"
	"github.com/findy-network/findy-a2a/agent/fault"
	"github.com/findy-network/findy-a2a/agent/psm"
	"github.com/findy-network/findy-a2a/agent/storage/api"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// DefaultMaxDepth is the default limit of the unwrapped layers of one
// delivery.
const DefaultMaxDepth = 16

// Processor drains the context's pending queue: unpack, bind the connection,
// dispatch, run the middleware and send the reply. Middleware errors are only
// logged. Forward handlers push the
// inner messages back to the queue, so nested forwards are unwrapped here one
// layer per round.
type Processor struct {
	Registry   *Registry
	Middleware []Middleware
	Sender     *Sender
	MaxDepth   int
}

// Dispatch gives the plaintext envelope to the first handler supporting its
// type.
func (p *Processor) Dispatch(ctx context.Context, ac *Context, env *didcomm.Envelope) (out *Outgoing, err error) {
	defer err2.Handle(&err, "dispatch")

	t := try.To1(env.Type())
	h := try.To1(p.Registry.Find(t))
	glog.V(1).Infoln("dispatch", t)
	return h.Process(ctx, ac, env)
}

// Process handles one packed wire message and everything it unwraps to.
func (p *Processor) Process(ctx context.Context, ac *Context, data []byte) (err error) {
	defer err2.Handle(&err, "process")

	maxDepth := p.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	ac.Enqueue(data)
	for round := 0; ; round++ {
		next, ok := ac.Dequeue()
		if !ok {
			return nil
		}
		if round >= maxDepth {
			return fault.Invalid("more than %d nested messages", maxDepth)
		}
		try.To(p.processOne(ctx, ac, next))
	}
}

func (p *Processor) processOne(ctx context.Context, ac *Context, data []byte) (err error) {
	packed := try.To1(didcomm.New(data, true))
	u := try.To1(ac.Wallet.Unpack(ctx, packed.Raw()))
	glog.V(3).Infof("unpacked to %s from %q", u.RecipientKey, u.SenderKey)

	try.To(p.bind(ctx, ac, u.RecipientKey))

	env := try.To1(didcomm.New(u.Message, false))
	if glog.V(5) {
		glog.Infof("inbound:\n%s", u.Message)
	}
	ac.Record = nil
	out := try.To1(p.Dispatch(ctx, ac, env))
	for _, m := range p.Middleware {
		// the message is handled, so a failing middleware doesn't stop the reply
		if err := m.Process(ctx, ac, env); err != nil {
			glog.Errorf("middleware %T: %v", m, err)
		}
	}
	if out != nil {
		if out.InReplyTo == nil {
			out.InReplyTo = env
		}
		try.To(p.Sender.Send(ctx, ac, out))
	}
	return nil
}

// bind binds the connection owning the recipient key. If no connection owns
// it, the current binding stays.
func (p *Processor) bind(ctx context.Context, ac *Context, recipientKey string) error {
	c, err := ResolveByKey(ctx, ac.Store, recipientKey)
	switch {
	case errors.Is(err, fault.ErrRecordNotFound):
		return nil
	case err != nil:
		return err
	}
	glog.V(3).Infoln("bound connection", c.ID, "by", recipientKey)
	ac.Connection = c
	return nil
}

// ResolveByKey finds the one connection whose own verkey or connection key is
// the key. No match fails with RecordNotFound and more than one match fails
// with api.ErrAmbiguous.
func ResolveByKey(ctx context.Context, s api.Store, key string) (*psm.ConnectionRep, error) {
	if key == "" {
		return nil, fault.NotFound("empty key")
	}
	return api.SearchOne[psm.ConnectionRep](ctx, s, api.Or(
		api.Eq(psm.TagMyVk, key),
		api.Eq(psm.TagConnectionKey, key),
	))
}
