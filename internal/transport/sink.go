package transport

import (
	"time"

	"github.com/gorilla/websocket"
)

// heartbeatInterval mirrors the teacher's WebSocketClient heartbeat
// cadence, applied here to the server's outbound side instead.
const heartbeatInterval = 10 * time.Second

// wsSink adapts a *websocket.Conn to broadcast.Sink. Unlike the
// teacher's client-side WebSocketClient, this is server-side and has no
// reconnect loop of its own — a dead connection is simply dropped from
// the Broadcaster's registry by the caller.
type wsSink struct {
	conn *websocket.Conn
	done chan struct{}
}

func newWSSink(conn *websocket.Conn) *wsSink {
	s := &wsSink{conn: conn, done: make(chan struct{})}
	go s.heartbeat()
	return s
}

func (s *wsSink) SendJSON(v interface{}) error {
	return s.conn.WriteJSON(v)
}

func (s *wsSink) Close() error {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	return s.conn.Close()
}

func (s *wsSink) heartbeat() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
