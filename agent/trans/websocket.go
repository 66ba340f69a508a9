package trans

import (
	"context"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// WebSocket sends each message over a new connection: dial, write one binary
// message, close.
type WebSocket struct {
	HandshakeTimeout time.Duration
}

func (w *WebSocket) Send(ctx context.Context, endpoint string, data []byte) (err error) {
	defer err2.Handle(&err, "call ws")

	dialer := websocket.Dialer{
		HandshakeTimeout: w.HandshakeTimeout,
	}
	conn, _ := try.To2(dialer.DialContext(ctx, endpoint, nil))
	defer func() {
		closeErr := conn.Close()
		if closeErr != nil {
			glog.Warningln("ws close: ", closeErr)
		}
	}()

	if deadline, ok := ctx.Deadline(); ok {
		try.To(conn.SetWriteDeadline(deadline))
	}
	try.To(conn.WriteMessage(websocket.BinaryMessage, data))
	return conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
