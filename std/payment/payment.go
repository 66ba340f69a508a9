// Package payment has the payments/1.0 receipt message. The payer sends it
// to the payee after the transfer.
package payment

import (
	"github.com/findy-network/findy-a2a/std/common"
	"github.com/findy-network/findy-a2a/std/decorator"
)

type Receipt struct {
	common.Header
	Receipt decorator.PaymentReceipt `json:"~payment_receipt"`
	Thread  *decorator.Thread        `json:"~thread,omitempty"`
}
