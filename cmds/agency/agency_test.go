package agency

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/findy-network/findy-a2a/agent/agency"
	"github.com/findy-network/findy-a2a/agent/utils"
	"github.com/findy-network/findy-a2a/server"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

func TestCmd_Validate(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	c := DefaultValues
	assert.NoError(c.Validate())

	tests := []struct {
		name string
		edit func(c *Cmd)
	}{
		{"no service", func(c *Cmd) { c.ServiceName = "" }},
		{"no host", func(c *Cmd) { c.HostAddr = "" }},
		{"no port", func(c *Cmd) { c.ServerPort = 0 }},
		{"bad key", func(c *Cmd) { c.StorageKey = "abc" }},
		{"bad backup time", func(c *Cmd) { c.BackupPath = "/tmp"; c.BackupTime = "25:00" }},
		{"no depth", func(c *Cmd) { c.MaxDepth = 0 }},
		{"no agents", func(c *Cmd) { c.Agents = nil }},
		{"bad agent", func(c *Cmd) { c.Agents = []string{"a/b"} }},
		{"no plugin", func(c *Cmd) { c.VCPlugin = "indy" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()

			c := DefaultValues
			c.Agents = append([]string(nil), DefaultValues.Agents...)
			tt.edit(&c)
			assert.Error(c.Validate())
		})
	}
}

func TestSetupAndBackup(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	dir := try.To1(os.MkdirTemp("", "cmds_agency_test"))
	defer os.RemoveAll(dir)

	c := DefaultValues
	c.StoragePath = dir
	c.BackupPath = dir
	c.HostPort = 9090
	c.Agents = []string{"alice", "bob"}
	assert.NoError(c.Validate())
	defer c.closeAll()

	try.To(c.Setup(context.Background()))
	assert.Equal(c.ag.Count(), 2)
	a, ok := c.ag.Agent("http://localhost:9090/a2a/alice")
	assert.That(ok)
	assert.INotNil(a.Issuer)
	assert.INotNil(a.Payments)

	c.Backup()
	files := try.To1(filepath.Glob(filepath.Join(dir, "findy-a2a_*_*.bolt")))
	assert.SLen(files, 2)
}

func TestPing(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	s := &server.Server{Agency: agency.NewAgency(nil), Service: "a2a"}
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	var out bytes.Buffer
	cmd := PingCmd{BaseAddr: srv.URL, Timeout: time.Second}
	assert.NoError(cmd.Validate())
	try.To1(cmd.Exec(&out))
	assert.That(strings.Contains(out.String(), utils.Version))

	assert.Error(PingCmd{}.Validate())
	_, err := PingCmd{BaseAddr: srv.URL + "/nope/"}.Exec(nil)
	assert.Error(err)
}
