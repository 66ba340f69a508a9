/*
Package connection has the offline connection commands: the invitation and the
listing of the connections of one hosted agent.
*/
package connection

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/findy-network/findy-a2a/agent/comm"
	"github.com/findy-network/findy-a2a/agent/psm"
	"github.com/findy-network/findy-a2a/cmds"
	conn "github.com/findy-network/findy-a2a/protocol/connection"
	"github.com/findy-network/findy-a2a/std/connection"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

type InvitationCmd struct {
	cmds.Cmd
	Alias      string
	AutoAccept bool
	MultiParty bool
}

func (c InvitationCmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	if c.HostAddr == "" {
		return errors.New("host address cannot be empty")
	}
	return nil
}

// Exec creates the invitation and its connection record and prints the
// invitation JSON.
func (c InvitationCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "invitation")

	ctx := context.Background()
	a, done := try.To2(c.Open(ctx))
	defer done()

	var (
		inv *connection.Invitation
		rep *psm.ConnectionRep
	)
	try.To(a.Do(ctx, func(ctx context.Context, ac *comm.Context) (err error) {
		inv, rep, err = a.Connections.CreateInvitation(ctx, ac, conn.InvitationConfig{
			Alias:      c.Alias,
			AutoAccept: c.AutoAccept,
			MultiParty: c.MultiParty,
		})
		return err
	}))
	res := &InvitationResult{Invitation: inv, ConnectionID: rep.ID}
	cmds.Fprintln(w, string(try.To1(json.MarshalIndent(inv, "", "  "))))
	return res, nil
}

type InvitationResult struct {
	*connection.Invitation
	ConnectionID string `json:"-"`
}

func (r *InvitationResult) JSON() ([]byte, error) {
	return json.Marshal(r.Invitation)
}
