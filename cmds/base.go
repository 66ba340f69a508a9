/*
Package cmds has the commands of the CLI as plain structs. Each command is
validated and then executed with an output writer, which lets the CLI and
the tests run them the same way.
*/
package cmds

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/findy-network/findy-a2a/agent/agency"
	"github.com/findy-network/findy-a2a/agent/storage/bolt"
	"github.com/findy-network/findy-a2a/agent/utils"
	"github.com/findy-network/findy-a2a/plugins"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

const storageKeyLength = 32

var ErrInvalid = errors.New("invalid command, check arguments")

type Result interface {
	JSON() ([]byte, error)
}

type Command interface {
	Validate() error
	Exec(w io.Writer) (r Result, err error)
}

// Cmd is the base of the commands working on one agent's store. The agency
// must not be running, the store file is locked by it.
type Cmd struct {
	StoragePath string
	StorageName string
	StorageKey  string
	AgentName   string
	VCPlugin    string

	// HostAddr is the scheme, host and port of the agency, e.g.
	// http://localhost:8080. It's only needed for the endpoints.
	HostAddr string
}

func (c Cmd) Validate() error {
	if c.StorageName == "" {
		return errors.New("storage name cannot be empty")
	}
	if c.AgentName == "" {
		return errors.New("agent name cannot be empty")
	}
	return ValidateKey(c.StorageKey)
}

// Open opens the agent's store and builds the agent on it. The agent sends
// nothing: its transport is an agency without a remote.
func (c Cmd) Open(ctx context.Context) (a *agency.Agent, done func(), err error) {
	defer err2.Handle(&err, "open agent")

	utils.Settings.SetStorage(c.StoragePath, c.StorageName)
	if c.HostAddr != "" {
		utils.Settings.SetHostAddr(c.HostAddr)
	}
	store := try.To1(bolt.Open(bolt.Config{
		Key:      c.StorageKey,
		FileName: utils.Settings.StorageFileName(c.AgentName),
		FilePath: c.StoragePath,
	}))
	cfg := agency.Config{
		Label:     c.AgentName,
		Endpoint:  utils.Settings.Endpoint(c.AgentName),
		Store:     store,
		Transport: agency.NewAgency(nil),
	}
	if c.VCPlugin != "" {
		p, err := plugins.GetPlugin(c.VCPlugin)
		if err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		cfg.Ledger, cfg.Engine = p.Ledger(), p.Engine()
	}
	a, err = agency.New(ctx, cfg)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return a, func() { _ = store.Close() }, nil
}

// ValidateKey checks the hex encoded storage key. Empty is valid.
func ValidateKey(k string) error {
	if k == "" {
		return nil
	}
	b, err := hex.DecodeString(k)
	if err != nil {
		return fmt.Errorf("storage key is not hex: %w", err)
	}
	if len(b) != storageKeyLength {
		return fmt.Errorf("storage key must be %d bytes", storageKeyLength)
	}
	return nil
}

// ValidateTime checks the time of the day for the schedules. Both "15:04"
// and "15:04:05" are accepted.
func ValidateTime(t string) error {
	if _, err := time.Parse("15:04", t); err == nil {
		return nil
	}
	_, err := time.Parse("15:04:05", t)
	return err
}

// Fprintln is fmt.Fprintln but it allows writer to be nil.
func Fprintln(w io.Writer, a ...any) {
	if w != nil {
		_, _ = fmt.Fprintln(w, a...)
	}
}

// Fprintf is fmt.Fprintf but it allows writer to be nil.
func Fprintf(w io.Writer, format string, a ...any) {
	if w != nil {
		_, _ = fmt.Fprintf(w, format, a...)
	}
}
