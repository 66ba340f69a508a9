/*
Package decorator has the DIDComm decorator blocks we support. A decorator is
a named JSON block beside the message fields. Its key in the message is the
name prefixed with '~', e.g. "~thread".
*/
package decorator

import (
	"encoding/base64"
	"errors"
	"time"
)

// Decorator names without the '~' prefix.
const (
	NameThread         = "thread"
	NameTiming         = "timing"
	NameTransport      = "transport"
	NamePaymentRequest = "payment_request"
	NamePaymentReceipt = "payment_receipt"
)

// Prefix is the JSON key prefix of all decorators.
const Prefix = "~"

// Key returns the JSON key for the decorator name.
func Key(name string) string {
	return Prefix + name
}

// Thread is the message threading decorator. ID is the thread the message
// belongs to and PID is the parent thread if the thread was started inside of
// another one.
type Thread struct {
	ID             string         `json:"thid,omitempty"`
	PID            string         `json:"pthid,omitempty"`
	SenderOrder    int            `json:"sender_order,omitempty"`
	ReceivedOrders map[string]int `json:"received_orders,omitempty"`
}

// Timing is the ~timing decorator. We only stamp outgoing messages.
type Timing struct {
	InTime      *time.Time `json:"in_time,omitempty"`
	OutTime     *time.Time `json:"out_time,omitempty"`
	StaleTime   *time.Time `json:"stale_time,omitempty"`
	ExpiresTime *time.Time `json:"expires_time,omitempty"`
	DelayMilli  int        `json:"delay_milli,omitempty"`
}

// Transport is the ~transport decorator.
type Transport struct {
	ReturnRoute string `json:"return_route,omitempty"`
}

const (
	ReturnRouteNone   = "none"
	ReturnRouteAll    = "all"
	ReturnRouteThread = "thread"
)

// Attachment is an element of the "<name>~attach" arrays.
type Attachment struct {
	ID       string         `json:"@id,omitempty"`
	MimeType string         `json:"mime-type,omitempty"`
	Data     AttachmentData `json:"data"`
}

type AttachmentData struct {
	Base64 string `json:"base64,omitempty"`
}

// ErrNoAttachment is returned when an attachment array is empty.
var ErrNoAttachment = errors.New("no attachment")

// NewAttachment builds one element attachment array of JSON data.
func NewAttachment(id string, data []byte) []Attachment {
	return []Attachment{{
		ID:       id,
		MimeType: "application/json",
		Data:     AttachmentData{Base64: base64.StdEncoding.EncodeToString(data)},
	}}
}

// FirstAttachment decodes the data of the first attachment.
func FirstAttachment(a []Attachment) ([]byte, error) {
	if len(a) == 0 {
		return nil, ErrNoAttachment
	}
	return base64.StdEncoding.DecodeString(a[0].Data.Base64)
}

// PaymentRequest is the ~payment_request decorator. It follows the W3C
// payment request shape: a method, the details with the total amount, and
// the payee address.
type PaymentRequest struct {
	Method  string         `json:"method"`
	Details PaymentDetails `json:"details"`
	PayeeID string         `json:"payeeId,omitempty"`
}

type PaymentDetails struct {
	ID           string        `json:"id"`
	Total        PaymentItem   `json:"total"`
	DisplayItems []PaymentItem `json:"displayItems,omitempty"`
}

type PaymentItem struct {
	Label  string        `json:"label,omitempty"`
	Amount PaymentAmount `json:"amount"`
}

type PaymentAmount struct {
	Currency string `json:"currency,omitempty"`
	Value    uint64 `json:"value"`
}

// PaymentReceipt is the ~payment_receipt decorator.
type PaymentReceipt struct {
	RequestID      string `json:"request_id"`
	SelectedMethod string `json:"selected_method,omitempty"`
	TransactionID  string `json:"transaction_id"`
	PayeeID        string `json:"payeeId,omitempty"`
	Amount         uint64 `json:"amount"`
}
