// Package trustping has the trust_ping/1.0 messages.
package trustping

import (
	"github.com/findy-network/findy-a2a/std/common"
	"github.com/findy-network/findy-a2a/std/decorator"
)

type Ping struct {
	common.Header
	Comment           string            `json:"comment,omitempty"`
	ResponseRequested *bool             `json:"response_requested,omitempty"`
	Thread            *decorator.Thread `json:"~thread,omitempty"`
}

// WantsResponse is true unless the response is explicitly not requested.
func (p *Ping) WantsResponse() bool {
	return p.ResponseRequested == nil || *p.ResponseRequested
}

type Response struct {
	common.Header
	Comment string            `json:"comment,omitempty"`
	Thread  *decorator.Thread `json:"~thread,omitempty"`
}
