package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/findy-network/findy-a2a/agent/comm"
	"github.com/findy-network/findy-a2a/agent/psm"
	"github.com/findy-network/findy-a2a/cmds"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// ListCmd lists the agent's connections. State filters them when it's set.
type ListCmd struct {
	cmds.Cmd
	State string
}

func (c ListCmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	if c.State != "" {
		if _, ok := psm.ParseConnectionState(c.State); !ok {
			return fmt.Errorf("unknown connection state %q", c.State)
		}
	}
	return nil
}

func (c ListCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "list connections")

	ctx := context.Background()
	a, done := try.To2(c.Open(ctx))
	defer done()

	var state *psm.ConnectionState
	if c.State != "" {
		st, _ := psm.ParseConnectionState(c.State)
		state = &st
	}
	var reps []*psm.ConnectionRep
	try.To(a.Do(ctx, func(ctx context.Context, ac *comm.Context) (err error) {
		reps, err = a.Connections.List(ctx, ac, state)
		return err
	}))
	for _, rep := range reps {
		cmds.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			rep.ID, rep.State, rep.Role, rep.TheirLabel, rep.Alias)
	}
	return ListResult(reps), nil
}

type ListResult []*psm.ConnectionRep

func (r ListResult) JSON() ([]byte, error) {
	return json.Marshal(r)
}
