/*
Package comm is the message processing core. It has the agent Context of one
inbound delivery, the handler Registry, the Processor which drains the
pending queue of the context and dispatches the messages, and the Sender which
is the outbound pipeline.
*/
package comm

import (
	"container/list"
	"context"
	"sync"

	"github.com/findy-network/findy-a2a/agent/fault"
	"github.com/findy-network/findy-a2a/agent/psm"
	"github.com/findy-network/findy-a2a/agent/storage/api"
	"github.com/findy-network/findy-a2a/agent/vc"
	"github.com/findy-network/findy-a2a/agent/wallet"
)

// PoolOpener opens the ledger pool. It's called at most once per context,
// and only when a handler needs the ledger.
type PoolOpener func(ctx context.Context) (vc.Ledger, error)

// Context is the state of one top-level inbound delivery or one outbound
// call. It's owned by one goroutine at the time; only the pending queue is
// safe for concurrent use. Wallet, store and pool are borrowed and never
// closed here.
type Context struct {
	Wallet wallet.Crypto
	Store  api.Store

	// Connection is the bound connection of the current message.
	Connection *psm.ConnectionRep

	// Record is the rep the last handler stored, if any.
	Record api.Record

	scratch map[string]string
	pending queue

	poolLk   sync.Mutex
	openPool PoolOpener
	pool     vc.Ledger
}

func NewContext(w wallet.Crypto, s api.Store, openPool PoolOpener) *Context {
	return &Context{
		Wallet:   w,
		Store:    s,
		scratch:  make(map[string]string),
		openPool: openPool,
	}
}

// Pool returns the ledger pool. It's opened lazily and kept for the rest of
// the context.
func (c *Context) Pool(ctx context.Context) (vc.Ledger, error) {
	c.poolLk.Lock()
	defer c.poolLk.Unlock()

	if c.pool != nil {
		return c.pool, nil
	}
	if c.openPool == nil {
		return nil, ErrNoPool
	}
	p, err := c.openPool(ctx)
	if err != nil {
		return nil, err
	}
	c.pool = p
	return p, nil
}

// Bound returns the bound connection. It fails with RecordNotFound if there
// is none.
func (c *Context) Bound() (*psm.ConnectionRep, error) {
	if c.Connection == nil {
		return nil, fault.NotFound("no connection bound")
	}
	return c.Connection, nil
}

// Set sets a scratch value.
func (c *Context) Set(key, value string) {
	c.scratch[key] = value
}

// Get returns a scratch value.
func (c *Context) Get(key string) (string, bool) {
	v, ok := c.scratch[key]
	return v, ok
}

// Enqueue adds packed data to the pending queue.
func (c *Context) Enqueue(data []byte) {
	c.pending.push(data)
}

// Dequeue takes the next pending data in FIFO order.
func (c *Context) Dequeue() ([]byte, bool) {
	return c.pending.pop()
}

// Pending returns the length of the pending queue.
func (c *Context) Pending() int {
	return c.pending.len()
}

type queue struct {
	lk sync.Mutex
	l  list.List
}

func (q *queue) push(data []byte) {
	q.lk.Lock()
	defer q.lk.Unlock()
	q.l.PushBack(data)
}

func (q *queue) pop() ([]byte, bool) {
	q.lk.Lock()
	defer q.lk.Unlock()

	e := q.l.Front()
	if e == nil {
		return nil, false
	}
	q.l.Remove(e)
	return e.Value.([]byte), true
}

func (q *queue) len() int {
	q.lk.Lock()
	defer q.lk.Unlock()
	return q.l.Len()
}
