package agency

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/findy-network/findy-a2a/agent/trans"
	"github.com/golang/glog"
)

type delivery struct {
	endpoint string
	data     []byte
}

// Agency hosts agents by their endpoints. It's a transport for them: messages
// to the hosted endpoints are queued and delivered by Flush or Run, the rest
// go to Remote.
type Agency struct {
	Remote trans.Transport

	l       sync.RWMutex
	agents  map[string]*Agent
	pending []delivery
	wake    chan struct{}
}

func NewAgency(remote trans.Transport) *Agency {
	return &Agency{
		Remote: remote,
		agents: make(map[string]*Agent),
		wake:   make(chan struct{}, 1),
	}
}

func key(endpoint string) string {
	return strings.TrimSuffix(endpoint, "/")
}

// Add hosts the agent at its endpoint.
func (ag *Agency) Add(a *Agent) {
	ag.l.Lock()
	defer ag.l.Unlock()
	ag.agents[key(a.Endpoint)] = a
}

// Agent returns the agent hosted at the endpoint.
func (ag *Agency) Agent(endpoint string) (a *Agent, ok bool) {
	ag.l.RLock()
	defer ag.l.RUnlock()
	a, ok = ag.agents[key(endpoint)]
	return a, ok
}

func (ag *Agency) Count() int {
	ag.l.RLock()
	defer ag.l.RUnlock()
	return len(ag.agents)
}

// Send queues the message when the endpoint is ours and sends it with Remote
// otherwise.
func (ag *Agency) Send(ctx context.Context, endpoint string, data []byte) error {
	if _, ok := ag.Agent(endpoint); !ok {
		if ag.Remote == nil {
			return fmt.Errorf("no transport for %s", endpoint)
		}
		return ag.Remote.Send(ctx, endpoint, data)
	}
	glog.V(3).Infoln("local delivery to", endpoint)

	ag.l.Lock()
	ag.pending = append(ag.pending, delivery{endpoint: endpoint, data: data})
	ag.l.Unlock()

	select {
	case ag.wake <- struct{}{}:
	default:
	}
	return nil
}

func (ag *Agency) next() (d delivery, ok bool) {
	ag.l.Lock()
	defer ag.l.Unlock()
	if len(ag.pending) == 0 {
		return d, false
	}
	d = ag.pending[0]
	ag.pending = ag.pending[1:]
	return d, true
}

// Flush delivers the queued messages until the queue is empty. The messages
// sent while processing are delivered too. Every message is tried and the
// first error is returned.
func (ag *Agency) Flush(ctx context.Context) (err error) {
	for {
		d, ok := ag.next()
		if !ok {
			return err
		}
		a, _ := ag.Agent(d.endpoint)
		if rerr := a.Receive(ctx, d.data); rerr != nil {
			glog.Errorf("%s: %v", a.Label, rerr)
			if err == nil {
				err = rerr
			}
		}
	}
}

// Run delivers the local messages until the context is done.
func (ag *Agency) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ag.wake:
			_ = ag.Flush(ctx)
		}
	}
}
