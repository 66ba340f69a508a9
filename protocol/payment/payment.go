/*
Package payment implements the payment requests between the agents. The payee
asks a payment by setting PaymentTerms to an outgoing message, and Decorator
attaches the ~payment_request to it. On the payer side Middleware sees the
decorator in any inbound message and stores the request. The payer pays by
MakePayment, which sends the payments/1.0/receipt message, and the payee's
Handler finishes its request with it.
*/
package payment

import (
	"context"

	"github.com/findy-network/findy-a2a/agent/aries"
	"github.com/findy-network/findy-a2a/agent/comm"
	"github.com/findy-network/findy-a2a/agent/didcomm"
	"github.com/findy-network/findy-a2a/agent/fault"
	"github.com/findy-network/findy-a2a/agent/pltype"
	"github.com/findy-network/findy-a2a/agent/psm"
	"github.com/findy-network/findy-a2a/agent/storage/api"
	"github.com/findy-network/findy-a2a/agent/vc"
	"github.com/findy-network/findy-a2a/std/common"
	"github.com/findy-network/findy-a2a/std/decorator"
	"github.com/findy-network/findy-a2a/std/payment"
	"github.com/findy-network/findy-common-go/dto"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// DefaultMethod is used when neither the terms nor the decorator have one.
const DefaultMethod = "sov"

// tagger is a stored rep which takes custom tags.
type tagger interface {
	api.Record
	SetTag(name, value string)
}

// Middleware stores the payment request of an inbound message. It runs for
// every dispatched message and does nothing without the decorator or when the
// request is already stored.
type Middleware struct{}

func (Middleware) Process(ctx context.Context, ac *comm.Context, env *didcomm.Envelope) (err error) {
	if !env.HasDecorator(decorator.NamePaymentRequest) {
		return nil
	}
	defer err2.Handle(&err, "payment request")

	var pr decorator.PaymentRequest
	try.To(env.Decorator(decorator.NamePaymentRequest, &pr))
	if pr.Details.ID == "" {
		return fault.Invalid("payment request has no details id")
	}

	connID := ""
	if ac.Connection != nil {
		connID = ac.Connection.ID
	}
	stored := try.To1(api.Search[psm.PaymentRep](ctx, ac.Store, api.And(
		api.Eq(psm.TagConnectionID, connID),
		api.Eq(psm.TagReferenceID, pr.Details.ID),
	)))
	if len(stored) > 0 {
		glog.V(1).Infoln("payment request", pr.Details.ID, "already received as", stored[0].ID)
		return nil
	}

	rep := psm.NewPaymentRep(connID)
	rep.ReferenceID = pr.Details.ID
	rep.Method = pr.Method
	rep.Address = pr.PayeeID
	rep.Amount = pr.Details.Total.Amount.Value
	rep.Currency = pr.Details.Total.Amount.Currency
	rep.DetailsJSON = dto.ToJSON(pr.Details)
	try.To(rep.Fire(psm.TriggerRequestReceived))
	try.To(ac.Store.Add(ctx, rep))
	glog.V(1).Infoln("payment request", rep.ID, "amount", rep.Amount, rep.Currency)

	try.To(tagRecord(ctx, ac, rep.ID))
	return nil
}

// Decorator attaches the payment request of the outgoing message's terms.
// Address is our payee address.
type Decorator struct {
	Address string
	Method  string
}

func (d *Decorator) Decorate(ctx context.Context, ac *comm.Context, out *comm.Outgoing) (err error) {
	if out.Payment == nil {
		return nil
	}
	defer err2.Handle(&err, "payment decorator")

	conn := out.Connection
	if conn == nil {
		conn = try.To1(ac.Bound())
	}
	method := out.Payment.Method
	if method == "" {
		method = d.Method
	}
	if method == "" {
		method = DefaultMethod
	}

	rep := psm.NewPaymentRep(conn.ID)
	rep.ReferenceID = didcomm.NewID()
	rep.Method = method
	rep.Address = d.Address
	rep.Amount = out.Payment.Amount
	rep.Currency = out.Payment.Currency
	pr := decorator.PaymentRequest{
		Method: method,
		Details: decorator.PaymentDetails{
			ID: rep.ReferenceID,
			Total: decorator.PaymentItem{
				Label: out.Payment.Label,
				Amount: decorator.PaymentAmount{
					Currency: rep.Currency,
					Value:    rep.Amount,
				},
			},
		},
		PayeeID: d.Address,
	}
	rep.DetailsJSON = dto.ToJSON(pr.Details)
	try.To(rep.Fire(psm.TriggerRequestSent))
	try.To(ac.Store.Add(ctx, rep))
	try.To(out.Message.AddDecorator(decorator.NamePaymentRequest, pr))

	try.To(tagRecord(ctx, ac, rep.ID))
	return nil
}

// Service is the payer's side. Address is our payment address.
type Service struct {
	Provider vc.PaymentProvider
	Sender   *comm.Sender
	Address  string
}

// MakePayment pays the received request and sends the receipt to the payee.
// The request is Paid when the transfer is done even if the receipt send
// fails.
func (s *Service) MakePayment(ctx context.Context, ac *comm.Context, id string) (rep *psm.PaymentRep, err error) {
	defer err2.Handle(&err, "make payment")

	rep = try.To1(api.Get[psm.PaymentRep](ctx, ac.Store, id))
	try.To(rep.Fire(psm.TriggerPaymentSent))
	conn := try.To1(api.Get[psm.ConnectionRep](ctx, ac.Store, rep.ConnectionID))

	balance := try.To1(s.Provider.Balance(ctx, s.Address))
	if balance < rep.Amount {
		return nil, fault.New(fault.PaymentInsufficientFunds,
			"balance %d is less than %d", balance, rep.Amount)
	}
	rep.TransactionID = try.To1(s.Provider.Transfer(ctx, s.Address, rep.Address, rep.Amount))
	try.To(ac.Store.Update(ctx, rep))
	glog.V(1).Infoln("payment", rep.ID, "paid in", rep.TransactionID)

	msg := &payment.Receipt{
		Header: common.Header{
			Type: pltype.Outbound(pltype.PaymentReceipt),
			ID:   didcomm.NewID(),
		},
		Receipt: decorator.PaymentReceipt{
			RequestID:      rep.ReferenceID,
			SelectedMethod: rep.Method,
			TransactionID:  rep.TransactionID,
			PayeeID:        rep.Address,
			Amount:         rep.Amount,
		},
	}
	out := try.To1(comm.NewOutgoing(msg, nil))
	out.Connection = conn
	try.To(s.Sender.Send(ctx, ac, out))
	return rep, nil
}

// Get returns the payment record.
func Get(ctx context.Context, ac *comm.Context, id string) (*psm.PaymentRep, error) {
	return api.Get[psm.PaymentRep](ctx, ac.Store, id)
}

// List returns the payment records of the connection, or all if the
// connection id is empty.
func List(ctx context.Context, ac *comm.Context, connectionID string) ([]*psm.PaymentRep, error) {
	var q api.Query
	if connectionID != "" {
		q = api.Eq(psm.TagConnectionID, connectionID)
	}
	return api.Search[psm.PaymentRep](ctx, ac.Store, q)
}

// Handler processes the receipts of our payment requests.
type Handler struct{}

func (h Handler) SupportedTypes() []string {
	return pltype.Both(pltype.PaymentReceipt)
}

func (h Handler) Process(ctx context.Context, ac *comm.Context, env *didcomm.Envelope) (_ *comm.Outgoing, err error) {
	defer err2.Handle(&err, "payment receipt")

	try.To1(comm.CheckSupported(h, env))
	r := try.To1(aries.DecodeAs[*payment.Receipt](env))

	rep := try.To1(api.SearchOne[psm.PaymentRep](ctx, ac.Store,
		api.Eq(psm.TagReferenceID, r.Receipt.RequestID)))
	if r.Receipt.Amount < rep.Amount {
		return nil, fault.Invalid("receipt amount %d is less than %d", r.Receipt.Amount, rep.Amount)
	}
	try.To(rep.Fire(psm.TriggerReceiptReceived))
	rep.TransactionID = r.Receipt.TransactionID
	try.To(ac.Store.Update(ctx, rep))
	ac.Record = rep
	glog.V(1).Infoln("payment", rep.ID, "receipt", rep.TransactionID)
	return nil, nil
}

// tagRecord tags the record of the current message with the payment id.
func tagRecord(ctx context.Context, ac *comm.Context, paymentID string) error {
	r, ok := ac.Record.(tagger)
	if !ok {
		return nil
	}
	r.SetTag(psm.TagPaymentRecordID, paymentID)
	return ac.Store.Update(ctx, r)
}
