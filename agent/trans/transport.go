/*
Package trans has the outbound transports. A transport delivers packed bytes
to an endpoint URI. It does no retries; failures are returned to the caller.
*/
package trans

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/golang/glog"
)

// MediaType is the content type of the packed agent messages.
const MediaType = "application/ssi-agent-wire"

//go:generate mockgen -package trans -source transport.go -destination mock_transport.go Transport

// Transport sends data to the endpoint.
type Transport interface {
	Send(ctx context.Context, endpoint string, data []byte) error
}

// Mux selects the transport by the endpoint URI scheme.
type Mux struct {
	l       sync.RWMutex
	schemes map[string]Transport
}

// NewMux creates a mux with the HTTP transport for http and https, and the
// WebSocket transport for ws and wss.
func NewMux(h *HTTP, ws *WebSocket) *Mux {
	m := &Mux{schemes: make(map[string]Transport)}
	if h != nil {
		m.Handle("http", h)
		m.Handle("https", h)
	}
	if ws != nil {
		m.Handle("ws", ws)
		m.Handle("wss", ws)
	}
	return m
}

// Handle sets the transport for the scheme.
func (m *Mux) Handle(scheme string, t Transport) {
	m.l.Lock()
	defer m.l.Unlock()
	m.schemes[strings.ToLower(scheme)] = t
}

func (m *Mux) Send(ctx context.Context, endpoint string, data []byte) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("endpoint %q: %w", endpoint, err)
	}
	m.l.RLock()
	t, ok := m.schemes[strings.ToLower(u.Scheme)]
	m.l.RUnlock()
	if !ok {
		return fmt.Errorf("no transport for scheme %q", u.Scheme)
	}
	glog.V(3).Infof("===== outgoing %s (%d bytes)", endpoint, len(data))
	return t.Send(ctx, endpoint, data)
}
