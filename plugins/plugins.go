/*
Package plugins is a registry of the verifiable credential backends. A backend
offers the ledger client, the credential engine and the payment provider of
the agent. The agent command refers to the backend only by name, so the
implementations register themselves at init time and no direct import of them
is needed in the wiring code.
*/
package plugins

import (
	"fmt"
	"sort"
	"sync"

	"github.com/findy-network/findy-a2a/agent/vc"
	"github.com/golang/glog"
)

// Plugin is a verifiable credential backend. Engine returns a new engine for
// every wallet, the ledger and the payments are shared.
type Plugin interface {
	Ledger() vc.Ledger
	Engine() vc.Engine
	Payments() vc.PaymentProvider
}

// Factory builds a new backend instance.
type Factory func() Plugin

type RegisteredPlugins map[string]Factory

type Map struct {
	sync.RWMutex
	ory RegisteredPlugins
}

var mem = Map{ory: make(RegisteredPlugins)}

func AddPlugin(name string, f Factory) {
	mem.Lock()
	defer mem.Unlock()
	if _, ok := mem.ory[name]; ok {
		panic("plugin with the name:" + name + "already exists")
	}
	mem.ory[name] = f
}

// GetPlugin builds the named backend.
func GetPlugin(name string) (Plugin, error) {
	mem.RLock()
	defer mem.RUnlock()
	glog.V(3).Infoln("getting plugin", name)
	f, ok := mem.ory[name]
	if !ok {
		return nil, fmt.Errorf("no plugin %q", name)
	}
	return f(), nil
}

// Names returns the registered plugin names in order.
func Names() []string {
	mem.RLock()
	defer mem.RUnlock()
	names := make([]string, 0, len(mem.ory))
	for n := range mem.ory {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
