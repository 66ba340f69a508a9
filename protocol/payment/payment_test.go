package payment

import (
	"context"
	"errors"
	"flag"
	"os"
	"testing"

	"github.com/findy-network/findy-a2a/agent/comm"
	"github.com/findy-network/findy-a2a/agent/didcomm"
	"github.com/findy-network/findy-a2a/agent/fault"
	"github.com/findy-network/findy-a2a/agent/psm"
	"github.com/findy-network/findy-a2a/agent/storage/api"
	"github.com/findy-network/findy-a2a/agent/storage/bolt"
	"github.com/findy-network/findy-a2a/agent/wallet"
	"github.com/findy-network/findy-a2a/agent/wallet/packager"
	"github.com/findy-network/findy-a2a/plugins/memvc"
	"github.com/findy-network/findy-a2a/std/common"
	"github.com/findy-network/findy-a2a/std/decorator"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

const noteType = "https://didcomm.org/basicmessage/1.0/message"

var (
	testDir  string
	payments *memvc.Payments
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
	try.To(flag.Set("v", "1"))
	flag.Parse()

	testDir = try.To1(os.MkdirTemp("", "payment_test"))
	payments = memvc.NewPayments()
}

func tearDown() {
	os.RemoveAll(testDir)
}

type note struct {
	common.Header
	Content string `json:"content"`
}

// noteHandler stores a record for every note like the protocol handlers do.
type noteHandler struct{}

func (noteHandler) SupportedTypes() []string { return []string{noteType} }

func (noteHandler) Process(ctx context.Context, ac *comm.Context, _ *didcomm.Envelope) (*comm.Outgoing, error) {
	conn, err := ac.Bound()
	if err != nil {
		return nil, err
	}
	rep := psm.NewPresentProofRep(psm.RoleProver, conn.ID)
	if err := ac.Store.Add(ctx, rep); err != nil {
		return nil, err
	}
	ac.Record = rep
	return nil, nil
}

type outbox struct{ data [][]byte }

func (o *outbox) Send(_ context.Context, _ string, data []byte) error {
	o.data = append(o.data, data)
	return nil
}

type agent struct {
	w      *packager.Wallet
	store  *bolt.Store
	conn   *psm.ConnectionRep
	out    *outbox
	sender *comm.Sender
	proc   *comm.Processor
	svc    *Service
}

func newAgent(t *testing.T, name string) *agent {
	ctx := context.Background()
	store := try.To1(bolt.Open(bolt.Config{FileName: t.Name() + name, FilePath: testDir}))
	t.Cleanup(func() { _ = store.Close() })

	a := &agent{w: try.To1(packager.New(store)), store: store, out: &outbox{}}
	address := try.To1(payments.CreateAddress(ctx))
	a.sender = &comm.Sender{
		Transport:  a.out,
		Decorators: []comm.OutgoingDecorator{&Decorator{Address: address}},
	}
	a.svc = &Service{Provider: payments, Sender: a.sender, Address: address}
	a.proc = &comm.Processor{
		Registry:   comm.NewRegistry(noteHandler{}, Handler{}),
		Middleware: []comm.Middleware{Middleware{}},
		Sender:     a.sender,
	}
	return a
}

func connect(t *testing.T) (a, b *agent) {
	ctx := context.Background()
	a, b = newAgent(t, "a"), newAgent(t, "b")
	for _, x := range []*agent{a, b} {
		x.conn = psm.NewConnectionRep(psm.RoleInviter)
		x.conn.MyDID, x.conn.MyVk = try.To2(wallet.CreateDID(ctx, x.w))
		x.conn.State = psm.ConnectionConnected
	}
	a.conn.TheirDID, a.conn.TheirVk = b.conn.MyDID, b.conn.MyVk
	b.conn.TheirDID, b.conn.TheirVk = a.conn.MyDID, a.conn.MyVk
	a.conn.Endpoint.URI, b.conn.Endpoint.URI = "http://b", "http://a"
	try.To(a.store.Add(ctx, a.conn))
	try.To(b.store.Add(ctx, b.conn))
	return a, b
}

func (a *agent) ac() *comm.Context {
	return comm.NewContext(a.w, a.store, nil)
}

func (a *agent) deliver(ctx context.Context, from *agent) error {
	assert.That(len(from.out.data) > 0, "outbox is empty")
	data := from.out.data[0]
	from.out.data = from.out.data[1:]
	return a.proc.Process(ctx, a.ac(), data)
}

// sendNote sends a note which asks the payment.
func (a *agent) sendNote(ctx context.Context, amount uint64) {
	out := try.To1(comm.NewOutgoing(&note{Header: common.Header{Type: noteType, ID: didcomm.NewID()}}, nil))
	out.Connection = a.conn
	out.Payment = &comm.PaymentTerms{Amount: amount, Currency: "TOK", Label: "note"}
	try.To(a.sender.Send(ctx, a.ac(), out))
}

func TestPayment(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	payee, payer := connect(t)
	payments.Mint(payer.svc.Address, 100)

	payee.sendNote(ctx, 30)
	payeeRep := try.To1(List(ctx, payee.ac(), payee.conn.ID))[0]
	assert.Equal(payeeRep.State, psm.PaymentRequested)
	assert.Equal(payeeRep.Method, DefaultMethod)

	assert.NoError(payer.deliver(ctx, payee))
	payerRep := try.To1(List(ctx, payer.ac(), payer.conn.ID))[0]
	assert.Equal(payerRep.State, psm.PaymentRequestReceived)
	assert.Equal(payerRep.ReferenceID, payeeRep.ReferenceID)
	assert.Equal(payerRep.Amount, uint64(30))
	assert.Equal(payerRep.Currency, "TOK")
	assert.Equal(payerRep.Address, payee.svc.Address)

	// the note's record is tagged with the payment
	tagged := try.To1(api.Search[psm.PresentProofRep](ctx, payer.store,
		api.Eq(psm.TagPaymentRecordID, payerRep.ID)))
	assert.SLen(tagged, 1)

	payerRep = try.To1(payer.svc.MakePayment(ctx, payer.ac(), payerRep.ID))
	assert.Equal(payerRep.State, psm.PaymentPaid)
	assert.Equal(try.To1(payments.Balance(ctx, payer.svc.Address)), uint64(70))
	assert.Equal(try.To1(payments.Balance(ctx, payee.svc.Address)), uint64(30))

	assert.NoError(payee.deliver(ctx, payer))
	payeeRep = try.To1(Get(ctx, payee.ac(), payeeRep.ID))
	assert.Equal(payeeRep.State, psm.PaymentReceiptReceived)
	assert.Equal(payeeRep.TransactionID, payerRep.TransactionID)

	_, err := payer.svc.MakePayment(ctx, payer.ac(), payerRep.ID)
	assert.That(errors.Is(err, fault.ErrRecordInInvalidState))
}

func TestRedeliveredPaymentRequest(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	payee, payer := connect(t)

	payee.sendNote(ctx, 5)
	assert.SLen(payee.out.data, 1)
	packed := payee.out.data[0]

	assert.NoError(payer.deliver(ctx, payee))
	assert.NoError(payer.proc.Process(ctx, payer.ac(), packed))
	payerReps := try.To1(List(ctx, payer.ac(), payer.conn.ID))
	assert.SLen(payerReps, 1)
	assert.Equal(payerReps[0].State, psm.PaymentRequestReceived)
	assert.Equal(payerReps[0].Amount, uint64(5))
}

func TestInsufficientFunds(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	payee, payer := connect(t)
	payments.Mint(payer.svc.Address, 10)

	payee.sendNote(ctx, 11)
	assert.NoError(payer.deliver(ctx, payee))
	payerRep := try.To1(List(ctx, payer.ac(), payer.conn.ID))[0]

	_, err := payer.svc.MakePayment(ctx, payer.ac(), payerRep.ID)
	assert.That(errors.Is(err, fault.ErrPaymentInsufficientFunds))
	assert.Equal(try.To1(Get(ctx, payer.ac(), payerRep.ID)).State, psm.PaymentRequestReceived)
	assert.SLen(payer.out.data, 0)
}

func TestNoPaymentRequest(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	a, b := connect(t)

	out := try.To1(comm.NewOutgoing(&note{Header: common.Header{Type: noteType, ID: "n1"}}, nil))
	out.Connection = a.conn
	try.To(a.sender.Send(ctx, a.ac(), out))
	assert.SLen(try.To1(List(ctx, a.ac(), "")), 0)

	assert.NoError(b.deliver(ctx, a))
	assert.SLen(try.To1(List(ctx, b.ac(), "")), 0)

	// decorator without details id
	env := try.To1(didcomm.NewMessage(&note{Header: common.Header{Type: noteType, ID: "n2"}}))
	try.To(env.AddDecorator(decorator.NamePaymentRequest, decorator.PaymentRequest{Method: "sov"}))
	err := Middleware{}.Process(ctx, b.ac(), env)
	assert.That(errors.Is(err, fault.ErrInvalidMessage))
}

func TestUnknownReceipt(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	a, _ := connect(t)
	env := try.To1(didcomm.NewString(`{"@id":"r","@type":"https://didcomm.org/payments/1.0/receipt",`+
		`"~payment_receipt":{"request_id":"nope","transaction_id":"tx","amount":1}}`, false))
	_, err := Handler{}.Process(ctx, a.ac(), env)
	assert.That(errors.Is(err, fault.ErrRecordNotFound))
}
