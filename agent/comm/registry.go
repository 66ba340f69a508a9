package comm

import (
	"context"
	"errors"
	"strings"

	"github.com/findy-network/findy-a2a/agent/didcomm"
	"github.com/findy-network/findy-a2a/agent/fault"
)

var ErrNoPool = errors.New("no ledger pool")

// Handler is a protocol handler. It declares the message types it
// processes. Process may return an outgoing reply which the Processor sends.
type Handler interface {
	SupportedTypes() []string
	Process(ctx context.Context, ac *Context, env *didcomm.Envelope) (*Outgoing, error)
}

// Middleware is run for every dispatched inbound message after its handler.
type Middleware interface {
	Process(ctx context.Context, ac *Context, env *didcomm.Envelope) error
}

// Registry is the ordered list of handlers. It's built at startup and read
// only after that.
type Registry struct {
	handlers []Handler
}

func NewRegistry(handlers ...Handler) *Registry {
	return &Registry{handlers: handlers}
}

// Add appends the handler. Not safe after the processing has started.
func (r *Registry) Add(h Handler) {
	r.handlers = append(r.handlers, h)
}

// Find returns the first handler supporting the type. Matching ignores case.
func (r *Registry) Find(msgType string) (Handler, error) {
	for _, h := range r.handlers {
		if Supports(h, msgType) {
			return h, nil
		}
	}
	return nil, fault.Invalid("unsupported message type %s", msgType)
}

// Supports tells if the type is in the handler's supported types.
func Supports(h Handler, msgType string) bool {
	for _, t := range h.SupportedTypes() {
		if strings.EqualFold(t, msgType) {
			return true
		}
	}
	return false
}

// CheckSupported is for the handlers: it fails with InvalidMessage if the
// envelope's type isn't one of the supported.
func CheckSupported(h Handler, env *didcomm.Envelope) (string, error) {
	t, err := env.Type()
	if err != nil {
		return "", err
	}
	if !Supports(h, t) {
		return "", fault.Invalid("unsupported message type %s", t)
	}
	return t, nil
}
