/*
Package agency wires the agents together. New builds one agent from its
collaborators: the handler registry, the middleware and the outbound
pipeline are composed here explicitly and nowhere else. Agency hosts many
agents in one process and delivers the messages between them without the
network.
*/
package agency

import (
	"context"
	"sync"

	"github.com/findy-network/findy-a2a/agent/bus"
	"github.com/findy-network/findy-a2a/agent/comm"
	"github.com/findy-network/findy-a2a/agent/storage/api"
	"github.com/findy-network/findy-a2a/agent/trans"
	"github.com/findy-network/findy-a2a/agent/vc"
	"github.com/findy-network/findy-a2a/agent/wallet"
	"github.com/findy-network/findy-a2a/agent/wallet/packager"
	"github.com/findy-network/findy-a2a/protocol/connection"
	"github.com/findy-network/findy-a2a/protocol/issuecredential"
	"github.com/findy-network/findy-a2a/protocol/issuecredential/holder"
	"github.com/findy-network/findy-a2a/protocol/issuecredential/issuer"
	"github.com/findy-network/findy-a2a/protocol/payment"
	"github.com/findy-network/findy-a2a/protocol/presentproof"
	"github.com/findy-network/findy-a2a/protocol/presentproof/prover"
	"github.com/findy-network/findy-a2a/protocol/presentproof/verifier"
	"github.com/findy-network/findy-a2a/protocol/routing"
	"github.com/findy-network/findy-a2a/protocol/trustping"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Config has the collaborators of one agent. Store and Transport are
// required. Wallet defaults to a packager wallet in the Store. Without an Engine
// the credential and proof protocols aren't registered, and without
// Payments the agent cannot pay.
type Config struct {
	Label       string
	Endpoint    string
	RoutingKeys []string
	MaxDepth    int

	Store     api.Store
	Wallet    wallet.Crypto
	Transport trans.Transport
	Station   *bus.Station

	Ledger         vc.Ledger
	Engine         vc.Engine
	Payments       vc.PaymentProvider
	PaymentAddress string

	// Pong gets the trust ping responses.
	Pong func(connectionID, threadID string)
}

// Agent is one wired agent. The services are for the controller side, the
// inbound messages go through Receive. Receive and Do run one at a time.
type Agent struct {
	Label    string
	Endpoint string

	Processor   *comm.Processor
	Sender      *comm.Sender
	Connections *connection.Service
	Issuer      *issuer.Issuer
	Holder      *holder.Holder
	Prover      *prover.Prover
	Verifier    *verifier.Verifier
	Payments    *payment.Service
	TrustPing   *trustping.Service

	l      sync.Mutex
	store  api.Store
	wallet wallet.Crypto
	ledger vc.Ledger
}

// New builds the agent. The payment address is created when Payments is set
// and no address is given.
func New(ctx context.Context, cfg Config) (a *Agent, err error) {
	defer err2.Handle(&err, "new agent")

	store := cfg.Store
	if cfg.Station != nil {
		store = bus.Store(store, cfg.Station)
	}
	w := cfg.Wallet
	if w == nil {
		w = try.To1(packager.New(store))
	}
	address := cfg.PaymentAddress
	if cfg.Payments != nil && address == "" {
		address = try.To1(cfg.Payments.CreateAddress(ctx))
	}

	a = &Agent{
		Label:    cfg.Label,
		Endpoint: cfg.Endpoint,
		store:    store,
		wallet:   w,
		ledger:   cfg.Ledger,
	}
	a.Sender = &comm.Sender{
		Transport: cfg.Transport,
		Decorators: []comm.OutgoingDecorator{
			comm.ThreadCorrelator,
			&payment.Decorator{Address: address},
			comm.Timing,
		},
	}
	a.TrustPing = &trustping.Service{Sender: a.Sender}
	a.Connections = &connection.Service{
		Sender:      a.Sender,
		Label:       cfg.Label,
		Endpoint:    cfg.Endpoint,
		RoutingKeys: cfg.RoutingKeys,
	}

	registry := comm.NewRegistry(
		routing.Handler{},
		&connection.Handler{Service: a.Connections},
		payment.Handler{},
		&trustping.Handler{Pong: cfg.Pong},
	)
	if cfg.Engine != nil {
		a.Issuer = &issuer.Issuer{Engine: cfg.Engine, Sender: a.Sender}
		a.Holder = &holder.Holder{Engine: cfg.Engine}
		a.Prover = &prover.Prover{Engine: cfg.Engine, Sender: a.Sender}
		a.Verifier = &verifier.Verifier{Engine: cfg.Engine, Sender: a.Sender}
		registry.Add(&issuecredential.Handler{Issuer: a.Issuer, Holder: a.Holder})
		registry.Add(&presentproof.Handler{Prover: a.Prover, Verifier: a.Verifier})
	}
	if cfg.Payments != nil {
		a.Payments = &payment.Service{
			Provider: cfg.Payments,
			Sender:   a.Sender,
			Address:  address,
		}
	}
	a.Processor = &comm.Processor{
		Registry:   registry,
		Middleware: []comm.Middleware{payment.Middleware{}},
		Sender:     a.Sender,
		MaxDepth:   cfg.MaxDepth,
	}
	glog.V(1).Infof("agent %s at %s", cfg.Label, cfg.Endpoint)
	return a, nil
}

// Context returns a fresh context for one inbound message or one controller
// operation.
func (a *Agent) Context() *comm.Context {
	var open comm.PoolOpener
	if a.ledger != nil {
		open = func(context.Context) (vc.Ledger, error) { return a.ledger, nil }
	}
	return comm.NewContext(a.wallet, a.store, open)
}

// Receive processes one packed wire message. It waits for the message or the
// controller operation in progress.
func (a *Agent) Receive(ctx context.Context, data []byte) error {
	a.l.Lock()
	defer a.l.Unlock()

	glog.V(3).Infof("%s received %d bytes", a.Label, len(data))
	return a.Processor.Process(ctx, a.Context(), data)
}

// Do runs the controller operation with a fresh context, serialized with the
// inbound messages. The operation must not wait for a message to this agent.
func (a *Agent) Do(ctx context.Context, op func(ctx context.Context, ac *comm.Context) error) error {
	a.l.Lock()
	defer a.l.Unlock()

	return op(ctx, a.Context())
}

// Store returns the agent's record store.
func (a *Agent) Store() api.Store {
	return a.store
}
