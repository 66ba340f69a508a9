package connection

import (
	"context"
	"errors"
	"flag"
	"os"
	"testing"

	"github.com/findy-network/findy-a2a/agent/comm"
	"github.com/findy-network/findy-a2a/agent/didcomm"
	"github.com/findy-network/findy-a2a/agent/fault"
	"github.com/findy-network/findy-a2a/agent/pltype"
	"github.com/findy-network/findy-a2a/agent/psm"
	"github.com/findy-network/findy-a2a/agent/storage/bolt"
	"github.com/findy-network/findy-a2a/agent/wallet/packager"
	"github.com/findy-network/findy-a2a/std/common"
	"github.com/findy-network/findy-a2a/std/connection"
	"github.com/findy-network/findy-a2a/std/decorator"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

var testDir string

func TestMain(m *testing.M) {
	setUp()
	code := m.Run()
	tearDown()
	os.Exit(code)
}

func setUp() {
	try.To(flag.Set("logtostderr", "true"))
	try.To(flag.Set("stderrthreshold", "WARNING"))
	try.To(flag.Set("v", "1"))
	flag.Parse()

	testDir = try.To1(os.MkdirTemp("", "connection_test"))
}

func tearDown() {
	os.RemoveAll(testDir)
}

// outbox keeps the sent messages until they are delivered.
type outbox struct {
	data [][]byte
	fail error
}

func (o *outbox) Send(_ context.Context, _ string, data []byte) error {
	if o.fail != nil {
		return o.fail
	}
	o.data = append(o.data, data)
	return nil
}

type agent struct {
	w     *packager.Wallet
	store *bolt.Store
	proc  *comm.Processor
	svc   *Service
	out   *outbox
}

func newAgent(t *testing.T, name string) *agent {
	store := try.To1(bolt.Open(bolt.Config{FileName: t.Name() + name, FilePath: testDir}))
	t.Cleanup(func() { _ = store.Close() })

	a := &agent{w: try.To1(packager.New(store)), store: store, out: &outbox{}}
	sender := &comm.Sender{
		Transport:  a.out,
		Decorators: []comm.OutgoingDecorator{comm.ThreadCorrelator},
	}
	a.svc = &Service{Sender: sender, Label: name, Endpoint: "http://" + name + "/a2a"}
	a.proc = &comm.Processor{
		Registry: comm.NewRegistry(&Handler{Service: a.svc}),
		Sender:   sender,
	}
	return a
}

func (a *agent) ac() *comm.Context {
	return comm.NewContext(a.w, a.store, nil)
}

// deliver processes the oldest message from the sender's outbox.
func (a *agent) deliver(ctx context.Context, from *agent) error {
	assert.That(len(from.out.data) > 0, "outbox is empty")
	data := from.out.data[0]
	from.out.data = from.out.data[1:]
	return a.proc.Process(ctx, a.ac(), data)
}

func (a *agent) get(ctx context.Context, id string) *psm.ConnectionRep {
	return try.To1(a.svc.Get(ctx, a.ac(), id))
}

func TestConnectAutoAccept(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	inviter, invitee := newAgent(t, "inviter"), newAgent(t, "invitee")

	inv, invRep := try.To2(inviter.svc.CreateInvitation(ctx, inviter.ac(),
		InvitationConfig{AutoAccept: true}))
	assert.Equal(invRep.State, psm.ConnectionInvited)
	assert.Equal(inv.RecipientKeys[0], invRep.ConnectionKey)
	assert.Equal(inv.ServiceEndpoint, "http://inviter/a2a")

	eeRep := try.To1(invitee.svc.AcceptInvitation(ctx, invitee.ac(), inv, "alias"))
	assert.Equal(eeRep.State, psm.ConnectionNegotiating)
	assert.NotEmpty(eeRep.MyVk)
	assert.SLen(invitee.out.data, 1)

	assert.NoError(inviter.deliver(ctx, invitee))
	erRep := inviter.get(ctx, invRep.ID)
	assert.Equal(erRep.State, psm.ConnectionConnected)
	assert.SLen(inviter.out.data, 1)

	assert.NoError(invitee.deliver(ctx, inviter))
	eeRep = invitee.get(ctx, eeRep.ID)
	assert.Equal(eeRep.State, psm.ConnectionConnected)

	assert.Equal(erRep.MyDID, eeRep.TheirDID)
	assert.Equal(erRep.TheirDID, eeRep.MyDID)
	assert.Equal(erRep.MyVk, eeRep.TheirVk)
	assert.Equal(erRep.TheirVk, eeRep.MyVk)
	assert.Equal(erRep.TheirLabel, "invitee")
	assert.Equal(eeRep.TheirLabel, "inviter")
	assert.Equal(eeRep.Endpoint.URI, "http://inviter/a2a")
	assert.Equal(erRep.Tag(psm.TagThreadID), eeRep.Tag(psm.TagThreadID))
}

func TestConnectManualAccept(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	inviter, invitee := newAgent(t, "inviter"), newAgent(t, "invitee")

	inv, invRep := try.To2(inviter.svc.CreateInvitation(ctx, inviter.ac(), InvitationConfig{}))
	eeRep := try.To1(invitee.svc.AcceptInvitation(ctx, invitee.ac(), inv, ""))

	assert.NoError(inviter.deliver(ctx, invitee))
	assert.Equal(inviter.get(ctx, invRep.ID).State, psm.ConnectionNegotiating)
	assert.SLen(inviter.out.data, 0)

	// response before accept is not possible, and accept on invitee fails
	err := invitee.svc.AcceptRequest(ctx, invitee.ac(), eeRep.ID)
	assert.That(errors.Is(err, fault.ErrRecordInInvalidState))

	assert.NoError(inviter.svc.AcceptRequest(ctx, inviter.ac(), invRep.ID))
	assert.Equal(inviter.get(ctx, invRep.ID).State, psm.ConnectionConnected)

	err = inviter.svc.AcceptRequest(ctx, inviter.ac(), invRep.ID)
	assert.That(errors.Is(err, fault.ErrRecordInInvalidState))

	assert.NoError(invitee.deliver(ctx, inviter))
	assert.Equal(invitee.get(ctx, eeRep.ID).State, psm.ConnectionConnected)

	connected := psm.ConnectionConnected
	assert.SLen(try.To1(inviter.svc.List(ctx, inviter.ac(), &connected)), 1)
	assert.NoError(inviter.svc.Delete(ctx, inviter.ac(), invRep.ID))
	_, err = inviter.svc.Get(ctx, inviter.ac(), invRep.ID)
	assert.That(errors.Is(err, fault.ErrRecordNotFound))
}

func TestRequestTwice(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	inviter, invitee := newAgent(t, "inviter"), newAgent(t, "invitee")

	inv, invRep := try.To2(inviter.svc.CreateInvitation(ctx, inviter.ac(), InvitationConfig{}))
	try.To1(invitee.svc.AcceptInvitation(ctx, invitee.ac(), inv, ""))
	packed := invitee.out.data[0]

	assert.NoError(inviter.deliver(ctx, invitee))
	assert.Equal(inviter.get(ctx, invRep.ID).State, psm.ConnectionNegotiating)

	// the request again doesn't connect without the response
	err := inviter.proc.Process(ctx, inviter.ac(), packed)
	assert.That(errors.Is(err, fault.ErrRecordInInvalidState))
	assert.Equal(inviter.get(ctx, invRep.ID).State, psm.ConnectionNegotiating)
	assert.SLen(inviter.out.data, 0)
}

func TestAutoAcceptSendFails(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	inviter, invitee := newAgent(t, "inviter"), newAgent(t, "invitee")

	inv, invRep := try.To2(inviter.svc.CreateInvitation(ctx, inviter.ac(),
		InvitationConfig{AutoAccept: true}))
	try.To1(invitee.svc.AcceptInvitation(ctx, invitee.ac(), inv, ""))

	sendErr := errors.New("connection refused")
	inviter.out.fail = sendErr
	err := inviter.deliver(ctx, invitee)
	assert.That(errors.Is(err, sendErr))
	assert.Equal(inviter.get(ctx, invRep.ID).State, psm.ConnectionNegotiating)
}

func TestMultiParty(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	inviter := newAgent(t, "inviter")
	ee1, ee2 := newAgent(t, "invitee1"), newAgent(t, "invitee2")

	inv, invRep := try.To2(inviter.svc.CreateInvitation(ctx, inviter.ac(),
		InvitationConfig{AutoAccept: true, MultiParty: true}))
	for _, ee := range []*agent{ee1, ee2} {
		rep := try.To1(ee.svc.AcceptInvitation(ctx, ee.ac(), inv, ""))
		assert.NoError(inviter.deliver(ctx, ee))
		assert.NoError(ee.deliver(ctx, inviter))
		assert.Equal(ee.get(ctx, rep.ID).State, psm.ConnectionConnected)
	}
	assert.Equal(inviter.get(ctx, invRep.ID).State, psm.ConnectionInvited)

	connected := psm.ConnectionConnected
	clones := try.To1(inviter.svc.List(ctx, inviter.ac(), &connected))
	assert.SLen(clones, 2)
	for _, c := range clones {
		assert.Equal(c.Tag(psm.TagInvitationRecord), invRep.ID)
		assert.That(c.AutoAccepts())
	}
}

func TestHandler(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	inviter, invitee := newAgent(t, "inviter"), newAgent(t, "invitee")
	h := &Handler{Service: invitee.svc}

	// invitation as a message
	inv, _ := try.To2(inviter.svc.CreateInvitation(ctx, inviter.ac(), InvitationConfig{}))
	env := try.To1(didcomm.NewMessage(inv))
	out, err := h.Process(ctx, invitee.ac(), env)
	assert.NoError(err)
	assert.That(out == nil)
	assert.SLen(invitee.out.data, 1)

	// other protocol
	ping := try.To1(didcomm.NewString(`{"@id":"1","@type":"https://didcomm.org/trust_ping/1.0/ping"}`, false))
	_, err = h.Process(ctx, invitee.ac(), ping)
	assert.That(errors.Is(err, fault.ErrInvalidMessage))

	// request without bound connection
	req := &connection.Request{
		Header: common.Header{Type: pltype.DIDOrgAriesConnectionRequest, ID: "r1"},
		Connection: connection.Connection{
			DID:    "did",
			DIDDoc: connection.NewDIDDoc("did", "vk", "http://x", nil),
		},
	}
	_, err = h.Process(ctx, inviter.ac(), try.To1(didcomm.NewMessage(req)))
	assert.That(errors.Is(err, fault.ErrRecordNotFound))
}

func TestResponseThread(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	inviter, invitee := newAgent(t, "inviter"), newAgent(t, "invitee")
	inv, _ := try.To2(inviter.svc.CreateInvitation(ctx, inviter.ac(), InvitationConfig{}))
	rep := try.To1(invitee.svc.AcceptInvitation(ctx, invitee.ac(), inv, ""))

	ac := invitee.ac()
	ac.Connection = rep
	res := &connection.Response{
		Header: common.Header{Type: pltype.AriesConnectionResponse, ID: "res"},
		Connection: connection.Connection{
			DID:    "did",
			DIDDoc: connection.NewDIDDoc("did", "vk", "http://x", nil),
		},
		Thread: decorator.NewThread("other", ""),
	}
	_, err := invitee.svc.ProcessResponse(ctx, ac, res)
	assert.That(errors.Is(err, fault.ErrInvalidMessage))
	assert.Equal(invitee.get(ctx, rep.ID).State, psm.ConnectionNegotiating)
}
