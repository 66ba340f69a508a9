package didcomm

import (
	"encoding/json"

	"github.com/findy-network/findy-a2a/agent/fault"
	"github.com/findy-network/findy-a2a/std/decorator"
	"github.com/google/uuid"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Message is implemented by all the typed protocol messages.
type Message interface {
	MsgID() string
	MsgType() string
}

// As is a typed version of Envelope.As.
func As[T any](e *Envelope) (v T, err error) {
	err = e.As(&v)
	return v, err
}

// NewMessage marshals a typed message to an unpacked envelope.
func NewMessage(m Message) (e *Envelope, err error) {
	defer err2.Handle(&err, "new message")

	data := try.To1(json.Marshal(m))
	return New(data, false)
}

// NewID returns a fresh message id.
func NewID() string {
	return uuid.New().String()
}

// ThreadFrom threads reply to the conversation of inbound. The reply must
// not have a ~thread yet.
func ThreadFrom(reply, inbound *Envelope) (err error) {
	defer err2.Handle(&err, "thread from")

	if reply.packed || inbound.packed {
		return fault.Invalid("cannot thread packed envelope")
	}
	if reply.HasDecorator(decorator.NameThread) {
		return fault.Invalid("message is already threaded")
	}
	inID := try.To1(inbound.ID())
	th := decorator.ReplyThread(inID, inbound.Thread())
	return reply.AddDecorator(decorator.NameThread, th)
}
