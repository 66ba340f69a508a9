/*
Package server encapsulates http server entry points. It's the inbound side
of the agency: the packed messages are POSTed, or written to a websocket, to
the endpoint of the hosted agent.
*/
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/findy-network/findy-a2a/agent/agency"
	"github.com/findy-network/findy-a2a/agent/trans"
	"github.com/findy-network/findy-a2a/agent/utils"
	"github.com/golang/glog"
	"github.com/gorilla/websocket"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// maxBody is the limit of one inbound message.
const maxBody = 10 << 20

// Server maps the request paths to the agents of the agency. HostAddr is
// the scheme, host and port of the agent endpoints.
type Server struct {
	Agency   *agency.Agency
	HostAddr string
	Service  string

	upgrader websocket.Upgrader
}

// Handler returns the mux with the inbound and the version handlers.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(fmt.Sprintf("/%s/", s.Service), s.protocolTransport)
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		if glog.V(5) {
			glog.Info("/version requested")
		}
		_, _ = w.Write([]byte(utils.Version))
	})
	return mux
}

// StartHTTPServer starts the http server with utils.Settings. The function
// blocks when it success.
func StartHTTPServer(ag *agency.Agency) error {
	s := &Server{
		Agency:   ag,
		HostAddr: utils.Settings.HostAddr(),
		Service:  utils.Settings.ServiceName(),
	}
	port := utils.Settings.ServerPort()
	if glog.V(1) {
		glog.Info(utils.Settings.VersionInfo())
		glog.Infof("HTTP Server on port: %v with handle pattern: \"/%s/\"",
			port, s.Service)
	}
	server := http.Server{
		Addr:              fmt.Sprintf(":%v", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: utils.Settings.Timeout(),
	}
	return server.ListenAndServe()
}

func errorResponse(w http.ResponseWriter, code int) {
	glog.V(2).Info("Returning ", code)
	http.Error(w, http.StatusText(code), code)
}

// agent finds the agent by the request path. Websocket endpoints are looked
// up with the ws scheme too.
func (s *Server) agent(path string) (*agency.Agent, bool) {
	if a, ok := s.Agency.Agent(s.HostAddr + path); ok {
		return a, true
	}
	ws := "ws" + strings.TrimPrefix(s.HostAddr, "http")
	return s.Agency.Agent(ws + path)
}

func (s *Server) protocolTransport(w http.ResponseWriter, r *http.Request) {
	a, ok := s.agent(r.URL.Path)
	if !ok {
		glog.V(3).Infoln("------ no agent for path:", r.URL.Path)
		errorResponse(w, http.StatusNotFound)
		return
	}
	if websocket.IsWebSocketUpgrade(r) {
		s.serveWS(w, r, a)
		return
	}
	if r.Method != http.MethodPost {
		errorResponse(w, http.StatusMethodNotAllowed)
		return
	}

	if glog.V(1) {
		glog.Infof("===== Aries TRANSPORT %s %s =====", r.Method, r.URL.Path)
	}
	if err := receive(r, a); err != nil {
		glog.Error("inbound error: ", err)
		errorResponse(w, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", trans.MediaType)
	w.WriteHeader(http.StatusAccepted)
}

func receive(r *http.Request, a *agency.Agent) (err error) {
	defer err2.Handle(&err, "receive")

	data := try.To1(io.ReadAll(io.LimitReader(r.Body, maxBody)))
	return a.Receive(r.Context(), data)
}

// serveWS receives messages until the peer closes. Every message is
// processed alone and its error only logged.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request, a *agency.Agent) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.Warningln("ws upgrade:", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxBody)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				glog.Warningln("ws read:", err)
			}
			return
		}
		glog.V(3).Infof("===== ws message %s (%d bytes)", r.URL.Path, len(data))
		if err := a.Receive(context.Background(), data); err != nil {
			glog.Error("inbound ws error: ", err)
		}
	}
}
