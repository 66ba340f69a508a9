package psm

const PaymentRecord = "PaymentRecord"

type PaymentState int

const (
	PaymentNone PaymentState = iota
	PaymentRequested
	PaymentRequestReceived
	PaymentPaid
	PaymentReceiptReceived
)

func (s PaymentState) String() string {
	switch s {
	case PaymentNone:
		return "None"
	case PaymentRequested:
		return "Requested"
	case PaymentRequestReceived:
		return "RequestReceived"
	case PaymentPaid:
		return "Paid"
	case PaymentReceiptReceived:
		return "ReceiptReceived"
	default:
		return "Unknown"
	}
}

type PaymentTrigger int

const (
	TriggerRequestSent PaymentTrigger = iota
	TriggerRequestReceived
	TriggerPaymentSent
	TriggerReceiptReceived
)

func (t PaymentTrigger) String() string {
	switch t {
	case TriggerRequestSent:
		return "RequestSent"
	case TriggerRequestReceived:
		return "RequestReceived"
	case TriggerPaymentSent:
		return "PaymentSent"
	case TriggerReceiptReceived:
		return "ReceiptReceived"
	default:
		return "Unknown"
	}
}

var paymentMachine = machine[PaymentState, PaymentTrigger]{
	PaymentNone: {
		TriggerRequestSent:     PaymentRequested,
		TriggerRequestReceived: PaymentRequestReceived,
	},
	PaymentRequested: {
		TriggerReceiptReceived: PaymentReceiptReceived,
	},
	PaymentRequestReceived: {
		TriggerPaymentSent: PaymentPaid,
	},
}

// PaymentRep is a payment request, either sent (payee) or received (payer).
// ReferenceID is the id of the request details and it's how the receipt
// finds the rep.
type PaymentRep struct {
	Base
	ConnectionID  string       `json:"connection_id,omitempty"`
	ReferenceID   string       `json:"reference_id"`
	Method        string       `json:"method"`
	Address       string       `json:"address"`
	Amount        uint64       `json:"amount"`
	Currency      string       `json:"currency,omitempty"`
	DetailsJSON   string       `json:"details_json,omitempty"`
	TransactionID string       `json:"transaction_id,omitempty"`
	State         PaymentState `json:"state"`
}

func NewPaymentRep(connectionID string) *PaymentRep {
	return &PaymentRep{Base: newBase(), ConnectionID: connectionID}
}

func (r *PaymentRep) RecordType() string {
	return PaymentRecord
}

func (r *PaymentRep) Tags() map[string]string {
	return r.tags(map[string]string{
		TagState:        r.State.String(),
		TagConnectionID: r.ConnectionID,
		TagReferenceID:  r.ReferenceID,
	})
}

func (r *PaymentRep) Fire(t PaymentTrigger) (err error) {
	r.State, err = paymentMachine.next(PaymentRecord, r.State, t)
	if err == nil {
		r.touch()
	}
	return err
}
