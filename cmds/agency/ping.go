package agency

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/findy-network/findy-a2a/cmds"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

type PingCmd struct {
	BaseAddr string
	Timeout  time.Duration
}

func (c PingCmd) Validate() error {
	if c.BaseAddr == "" {
		return errors.New("server url cannot be empty")
	}
	return nil
}

// Exec gets the version of the running agency.
func (c PingCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "ping")

	timeout := c.Timeout
	if timeout == 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	url := strings.TrimSuffix(c.BaseAddr, "/") + "/version"
	req := try.To1(http.NewRequestWithContext(ctx, http.MethodGet, url, nil))
	resp := try.To1(http.DefaultClient.Do(req))
	defer resp.Body.Close()

	body := try.To1(io.ReadAll(resp.Body))
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %s", resp.Status, body)
	}
	cmds.Fprintln(w, "ping ok.",
		"\nserver's host address:", c.BaseAddr,
		"\nversion info:", string(body))
	return nil, nil
}
