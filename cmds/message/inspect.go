// Package message has the commands to look into the wire messages.
package message

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/findy-network/findy-a2a/agent/aries"
	"github.com/findy-network/findy-a2a/agent/didcomm"
	"github.com/findy-network/findy-a2a/agent/pltype"
	"github.com/findy-network/findy-a2a/cmds"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// InspectCmd prints the headers of the message in the file. A packed message
// is first unpacked with the wallet of the agent which Cmd names.
type InspectCmd struct {
	cmds.Cmd
	File   string
	Packed bool
}

func (c InspectCmd) Validate() error {
	if c.File == "" {
		return errors.New("file cannot be empty")
	}
	if c.Packed {
		return c.Cmd.Validate()
	}
	return nil
}

func (c InspectCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "inspect")

	data := try.To1(os.ReadFile(c.File))
	res := &InspectResult{}
	if c.Packed {
		ctx := context.Background()
		a, done := try.To2(c.Open(ctx))
		defer done()
		u := try.To1(a.Context().Wallet.Unpack(ctx, data))
		data = u.Message
		res.SenderKey, res.RecipientKey = u.SenderKey, u.RecipientKey
	}

	e := try.To1(didcomm.New(data, false))
	res.Type = try.To1(e.Type())
	res.ID = try.To1(e.ID())
	mt := try.To1(pltype.ParseType(res.Type))
	res.Protocol = mt.Protocol()
	res.ThreadID = e.ThreadID()
	if th := e.Thread(); th != nil {
		res.ParentThreadID = th.PID
	}
	res.Decorators = e.Decorators()
	if err := aries.Validate(e); err != nil {
		res.Invalid = err.Error()
	}

	cmds.Fprintln(w, "type:", res.Type)
	cmds.Fprintln(w, "id:", res.ID)
	cmds.Fprintln(w, "thread:", res.ThreadID, res.ParentThreadID)
	cmds.Fprintln(w, "decorators:", strings.Join(res.Decorators, ", "))
	if res.SenderKey != "" || res.RecipientKey != "" {
		cmds.Fprintln(w, "from:", res.SenderKey, "to:", res.RecipientKey)
	}
	if res.Invalid != "" {
		cmds.Fprintln(w, "invalid:", res.Invalid)
	}
	return res, nil
}

type InspectResult struct {
	Type           string   `json:"type"`
	Protocol       string   `json:"protocol"`
	ID             string   `json:"id"`
	ThreadID       string   `json:"thid"`
	ParentThreadID string   `json:"pthid,omitempty"`
	Decorators     []string `json:"decorators,omitempty"`
	SenderKey      string   `json:"sender_key,omitempty"`
	RecipientKey   string   `json:"recipient_key,omitempty"`
	Invalid        string   `json:"invalid,omitempty"`
}

func (r *InspectResult) JSON() ([]byte, error) {
	return json.Marshal(r)
}
