package server

import (
	"bytes"
	"context"
	"flag"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/findy-network/findy-a2a/agent/agency"
	"github.com/findy-network/findy-a2a/agent/psm"
	"github.com/findy-network/findy-a2a/agent/storage/bolt"
	"github.com/findy-network/findy-a2a/agent/trans"
	"github.com/findy-network/findy-a2a/agent/utils"
	"github.com/findy-network/findy-a2a/protocol/connection"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

var testDir string

func TestMain(m *testing.M) {
	setUp()
	code := m.Run()
	tearDown()
	os.Exit(code)
}

func setUp() {
	try.To(flag.Set("logtostderr", "true"))
	try.To(flag.Set("stderrthreshold", "WARNING"))
	try.To(flag.Set("v", "1"))
	flag.Parse()

	testDir = try.To1(os.MkdirTemp("", "server_test"))
}

func tearDown() {
	os.RemoveAll(testDir)
}

type host struct {
	srv   *httptest.Server
	ag    *agency.Agency
	agent *agency.Agent
}

// newHost starts a server hosting one agent. With ws the agent's endpoint
// has the ws scheme.
func newHost(t *testing.T, name string, ws bool) *host {
	remote := trans.NewMux(&trans.HTTP{Timeout: 5 * time.Second},
		&trans.WebSocket{HandshakeTimeout: 5 * time.Second})
	h := &host{ag: agency.NewAgency(remote)}
	s := &Server{Agency: h.ag, Service: "a2a"}
	h.srv = httptest.NewServer(s.Handler())
	t.Cleanup(h.srv.Close)
	s.HostAddr = h.srv.URL

	store := try.To1(bolt.Open(bolt.Config{FileName: t.Name() + name, FilePath: testDir}))
	t.Cleanup(func() { _ = store.Close() })

	endpoint := h.srv.URL + "/a2a/" + name
	if ws {
		endpoint = "ws" + strings.TrimPrefix(endpoint, "http")
	}
	h.agent = try.To1(agency.New(context.Background(), agency.Config{
		Label:     name,
		Endpoint:  endpoint,
		Store:     store,
		Transport: h.ag,
	}))
	h.ag.Add(h.agent)
	return h
}

func (h *host) connection(id string) *psm.ConnectionRep {
	ctx := context.Background()
	return try.To1(h.agent.Connections.Get(ctx, h.agent.Context(), id))
}

func TestHTTPConnection(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	alice := newHost(t, "alice", false)
	bob := newHost(t, "bob", false)

	inv, ab := try.To2(alice.agent.Connections.CreateInvitation(ctx, alice.agent.Context(),
		connection.InvitationConfig{AutoAccept: true}))
	ba := try.To1(bob.agent.Connections.AcceptInvitation(ctx, bob.agent.Context(), inv, "alice"))

	// the http round trips are synchronous
	assert.Equal(bob.connection(ba.ID).State, psm.ConnectionConnected)
	assert.Equal(alice.connection(ab.ID).State, psm.ConnectionConnected)
	assert.Equal(alice.connection(ab.ID).TheirDID, ba.MyDID)
}

func TestWebSocketConnection(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	alice := newHost(t, "alice", true)
	bob := newHost(t, "bob", false)

	inv, ab := try.To2(alice.agent.Connections.CreateInvitation(ctx, alice.agent.Context(),
		connection.InvitationConfig{AutoAccept: true}))
	assert.That(strings.HasPrefix(inv.ServiceEndpoint, "ws://"))
	ba := try.To1(bob.agent.Connections.AcceptInvitation(ctx, bob.agent.Context(), inv, "alice"))

	deadline := time.Now().Add(5 * time.Second)
	for bob.connection(ba.ID).State != psm.ConnectionConnected {
		if time.Now().After(deadline) {
			t.Fatal("connection not ready")
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(alice.connection(ab.ID).State, psm.ConnectionConnected)
}

func TestRequests(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	alice := newHost(t, "alice", false)
	url := alice.srv.URL

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{"version", http.MethodGet, "/version", "", http.StatusOK},
		{"no agent", http.MethodPost, "/a2a/carol", "{}", http.StatusNotFound},
		{"wrong method", http.MethodGet, "/a2a/alice", "", http.StatusMethodNotAllowed},
		{"garbage", http.MethodPost, "/a2a/alice", "not packed", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()

			req := try.To1(http.NewRequest(tt.method, url+tt.path, bytes.NewBufferString(tt.body)))
			resp := try.To1(http.DefaultClient.Do(req))
			defer resp.Body.Close()
			assert.Equal(resp.StatusCode, tt.code)
			if tt.path == "/version" {
				assert.Equal(string(try.To1(io.ReadAll(resp.Body))), utils.Version)
			}
		})
	}
}
