package comm

import (
	"context"
	"errors"
	"flag"
	"os"
	"testing"

	"github.com/findy-network/findy-a2a/agent/didcomm"
	"github.com/findy-network/findy-a2a/agent/fault"
	"github.com/findy-network/findy-a2a/agent/psm"
	"github.com/findy-network/findy-a2a/agent/storage/api"
	"github.com/findy-network/findy-a2a/agent/storage/bolt"
	"github.com/findy-network/findy-a2a/agent/trans"
	"github.com/findy-network/findy-a2a/agent/vc"
	"github.com/findy-network/findy-a2a/agent/wallet/packager"
	"github.com/findy-network/findy-a2a/std/common"
	"github.com/findy-network/findy-a2a/std/decorator"
	"github.com/golang/mock/gomock"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

const (
	pingType = "https://didcomm.org/trust_ping/1.0/ping"
	pongType = "https://didcomm.org/trust_ping/1.0/ping_response"
)

var (
	testDir string
	store   *bolt.Store
)

func TestMain(m *testing.M) {
	setUp()
	code := m.Run()
	tearDown()
	os.Exit(code)
}

func setUp() {
	try.To(flag.Set("logtostderr", "true"))
	try.To(flag.Set("stderrthreshold", "WARNING"))
	try.To(flag.Set("v", "5"))
	flag.Parse()

	testDir = try.To1(os.MkdirTemp("", "comm_test"))
	store = try.To1(bolt.Open(bolt.Config{FileName: "comm", FilePath: testDir}))
}

func tearDown() {
	_ = store.Close()
	os.RemoveAll(testDir)
}

type ping struct {
	common.Header
	Comment string `json:"comment,omitempty"`
}

// pingHandler answers pings and counts them.
type pingHandler struct {
	types []string
	count int
	conn  *psm.ConnectionRep
}

func (h *pingHandler) SupportedTypes() []string { return h.types }

func (h *pingHandler) Process(_ context.Context, ac *Context, env *didcomm.Envelope) (*Outgoing, error) {
	if _, err := CheckSupported(h, env); err != nil {
		return nil, err
	}
	h.count++
	h.conn = ac.Connection
	return NewOutgoing(&ping{Header: common.Header{Type: pongType, ID: didcomm.NewID()}}, nil)
}

type otherHandler struct{}

func (otherHandler) SupportedTypes() []string { return []string{"https://didcomm.org/x/1.0/y"} }
func (otherHandler) Process(context.Context, *Context, *didcomm.Envelope) (*Outgoing, error) {
	return nil, errors.New("should not be called")
}

func newPing(t *testing.T) *didcomm.Envelope {
	return try.To1(didcomm.NewMessage(&ping{Header: common.Header{Type: pingType, ID: "ping-1"}}))
}

func TestRegistryFind(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	first := &pingHandler{types: []string{pingType}}
	second := &pingHandler{types: []string{pingType}}
	r := NewRegistry(otherHandler{}, first)
	r.Add(second)

	h := try.To1(r.Find("HTTPS://DIDCOMM.ORG/trust_ping/1.0/PING"))
	assert.That(h == Handler(first))

	_, err := r.Find("https://didcomm.org/unknown/1.0/msg")
	assert.That(errors.Is(err, fault.ErrInvalidMessage))

	_, err = CheckSupported(first, try.To1(didcomm.NewString(`{"@id":"1","@type":"https://didcomm.org/x/1.0/y"}`, false)))
	assert.That(errors.Is(err, fault.ErrInvalidMessage))
}

func TestContext(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	opened := 0
	ac := NewContext(nil, nil, func(context.Context) (vc.Ledger, error) {
		opened++
		return nil, errors.New("pool down")
	})
	_, err := ac.Pool(ctx)
	assert.Error(err)
	_, err = ac.Pool(ctx)
	assert.Error(err)
	assert.Equal(opened, 2)

	_, err = NewContext(nil, nil, nil).Pool(ctx)
	assert.That(errors.Is(err, ErrNoPool))

	ac.Set("k", "v")
	v, ok := ac.Get("k")
	assert.That(ok)
	assert.Equal(v, "v")

	ac.Enqueue([]byte("1"))
	ac.Enqueue([]byte("2"))
	assert.Equal(ac.Pending(), 2)
	d, _ := ac.Dequeue()
	assert.Equal(string(d), "1")
	d, _ = ac.Dequeue()
	assert.Equal(string(d), "2")
	_, ok = ac.Dequeue()
	assert.That(!ok)
}

// newPair creates two wallets and the connection rep of ours to theirs.
func newPair(ctx context.Context, routingKeys ...string) (our, their *packager.Wallet, conn *psm.ConnectionRep) {
	our, their = try.To1(packager.New(nil)), try.To1(packager.New(nil))
	conn = psm.NewConnectionRep(psm.RoleInviter)
	conn.MyVk = try.To1(our.CreateKey(ctx))
	conn.TheirVk = try.To1(their.CreateKey(ctx))
	conn.Endpoint = psm.Endpoint{URI: "http://their/a2a", RoutingKeys: routingKeys}
	conn.State = psm.ConnectionConnected
	return our, their, conn
}

func TestProcess(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	our, their, conn := newPair(ctx)
	try.To(store.Add(ctx, conn))

	// they send a ping to us
	data := try.To1(their.Pack(ctx, []string{conn.MyVk}, conn.TheirVk, newPing(t).JSON()))

	var sent []byte
	tr := trans.NewMockTransport(ctrl)
	tr.EXPECT().Send(ctx, "http://their/a2a", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, d []byte) error {
			sent = d
			return nil
		})

	h := &pingHandler{types: []string{pingType}}
	p := &Processor{
		Registry: NewRegistry(h),
		Sender:   &Sender{Transport: tr, Decorators: []OutgoingDecorator{ThreadCorrelator, Timing}},
	}
	ac := NewContext(our, store, nil)
	assert.NoError(p.Process(ctx, ac, data))
	assert.Equal(h.count, 1)
	assert.Equal(h.conn.ID, conn.ID)

	u := try.To1(their.Unpack(ctx, sent))
	assert.Equal(u.SenderKey, conn.MyVk)
	reply := try.To1(didcomm.New(u.Message, false))
	assert.Equal(try.To1(reply.Type()), pongType)
	assert.Equal(reply.Thread().ID, "ping-1")
	assert.That(reply.HasDecorator(decorator.NameTiming))
}

func TestProcessErrors(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	our, their, conn := newPair(ctx)
	try.To(store.Add(ctx, conn))

	tr := trans.NewMockTransport(ctrl)
	tr.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

	p := &Processor{
		Registry: NewRegistry(&pingHandler{types: []string{pingType}}),
		Sender:   &Sender{Transport: tr},
	}

	// transport failure propagates
	data := try.To1(their.Pack(ctx, []string{conn.MyVk}, conn.TheirVk, newPing(t).JSON()))
	err := p.Process(ctx, NewContext(our, store, nil), data)
	assert.Error(err)

	// unsupported type
	unknown := []byte(`{"@id":"1","@type":"https://didcomm.org/unknown/1.0/x"}`)
	data = try.To1(their.Pack(ctx, []string{conn.MyVk}, "", unknown))
	err = p.Process(ctx, NewContext(our, store, nil), data)
	assert.That(errors.Is(err, fault.ErrInvalidMessage))

	// not for us
	data = try.To1(their.Pack(ctx, []string{conn.TheirVk}, "", unknown))
	err = p.Process(ctx, NewContext(our, store, nil), data)
	assert.That(errors.Is(err, packager.ErrNoKey))
}

func TestMaxDepth(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	our, their, conn := newPair(ctx)
	try.To(store.Add(ctx, conn))
	data := try.To1(their.Pack(ctx, []string{conn.MyVk}, "", newPing(t).JSON()))

	// a handler which keeps pushing the same data back
	loop := &loopHandler{data: data}
	p := &Processor{Registry: NewRegistry(loop), MaxDepth: 3}
	err := p.Process(ctx, NewContext(our, store, nil), data)
	assert.That(errors.Is(err, fault.ErrInvalidMessage))
	assert.Equal(loop.count, 3)
}

type loopHandler struct {
	data  []byte
	count int
}

func (h *loopHandler) SupportedTypes() []string { return []string{pingType} }

func (h *loopHandler) Process(_ context.Context, ac *Context, _ *didcomm.Envelope) (*Outgoing, error) {
	h.count++
	ac.Enqueue(h.data)
	return nil, nil
}

func TestSendForward(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	mediator := try.To1(packager.New(nil))
	rk1 := try.To1(mediator.CreateKey(ctx))
	rk2 := try.To1(mediator.CreateKey(ctx))
	our, their, conn := newPair(ctx, rk1, rk2)

	var sent []byte
	tr := trans.NewMockTransport(ctrl)
	tr.EXPECT().Send(ctx, conn.Endpoint.URI, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, d []byte) error {
			sent = d
			return nil
		}).Times(1)

	s := &Sender{Transport: tr}
	ac := NewContext(our, store, nil)
	ac.Connection = conn
	out := try.To1(NewOutgoing(&ping{Header: common.Header{Type: pingType, ID: "p"}}, nil))
	assert.NoError(s.Send(ctx, ac, out))

	// outermost is to rk2 and it forwards to rk1
	u := try.To1(mediator.Unpack(ctx, sent))
	assert.Equal(u.RecipientKey, rk2)
	assert.Equal(u.SenderKey, "")
	fwd := try.To1(didcomm.As[common.Forward](try.To1(didcomm.New(u.Message, false))))
	assert.Equal(fwd.To, rk1)

	u = try.To1(mediator.Unpack(ctx, try.To1(fwd.Payload())))
	assert.Equal(u.RecipientKey, rk1)
	fwd = try.To1(didcomm.As[common.Forward](try.To1(didcomm.New(u.Message, false))))
	assert.Equal(fwd.To, conn.TheirVk)

	u = try.To1(their.Unpack(ctx, try.To1(fwd.Payload())))
	assert.Equal(u.SenderKey, conn.MyVk)
	m := try.To1(didcomm.As[ping](try.To1(didcomm.New(u.Message, false))))
	assert.Equal(m.ID, "p")
}

func TestSendErrors(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	s := &Sender{Transport: trans.NewMux(nil, nil)}
	out := try.To1(NewOutgoing(&ping{Header: common.Header{Type: pingType, ID: "p"}}, nil))

	err := s.Send(ctx, NewContext(try.To1(packager.New(nil)), store, nil), out)
	assert.That(errors.Is(err, fault.ErrRecordNotFound))

	out.Connection = psm.NewConnectionRep(psm.RoleInviter)
	err = s.Send(ctx, NewContext(try.To1(packager.New(nil)), store, nil), out)
	assert.That(errors.Is(err, fault.ErrRecordInInvalidState))

	failing := OutgoingFunc(func(context.Context, *Context, *Outgoing) error {
		return errors.New("decorator failed")
	})
	s.Decorators = []OutgoingDecorator{failing}
	out.Connection.Endpoint.URI = "http://x"
	out.Connection.TheirVk = "vk"
	assert.Error(s.Send(ctx, NewContext(try.To1(packager.New(nil)), store, nil), out))
}

func TestThreadCorrelator(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	in := newPing(t)
	out := try.To1(NewOutgoing(&ping{Header: common.Header{Type: pongType, ID: "r"}}, in))
	assert.NoError(ThreadCorrelator.Decorate(ctx, nil, out))
	assert.Equal(out.Message.Thread().ID, "ping-1")

	// already threaded stays as is
	try.To(out.Message.AddDecorator(decorator.NameThread, decorator.NewThread("own", "")))
	assert.NoError(ThreadCorrelator.Decorate(ctx, nil, out))
	assert.Equal(out.Message.Thread().ID, "own")
}

func TestResolveByKey(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	a := psm.NewConnectionRep(psm.RoleInviter)
	a.ConnectionKey = "resolve-key"
	try.To(store.Add(ctx, a))

	c := try.To1(ResolveByKey(ctx, store, "resolve-key"))
	assert.Equal(c.ID, a.ID)

	_, err := ResolveByKey(ctx, store, "")
	assert.That(errors.Is(err, fault.ErrRecordNotFound))

	b := psm.NewConnectionRep(psm.RoleInvitee)
	b.MyVk = "resolve-key"
	try.To(store.Add(ctx, b))
	_, err = ResolveByKey(ctx, store, "resolve-key")
	assert.That(errors.Is(err, api.ErrAmbiguous))
}
