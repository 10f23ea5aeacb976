package transport

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/broadcast"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// controlMessage is the inbound subscribe_tokens/unsubscribe_tokens
// envelope clients send over the same connection they receive events on.
type controlMessage struct {
	Action string   `json:"action"`
	Tokens []string `json:"tokens"`
}

const (
	actionSubscribe   = "subscribe_tokens"
	actionUnsubscribe = "unsubscribe_tokens"
)

// WebSocketHandler upgrades connections, registers them with the
// Broadcaster, and relays subscribe_tokens/unsubscribe_tokens control
// messages for the connection's lifetime.
func WebSocketHandler(b *broadcast.Broadcaster, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.WithError(err, "websocket upgrade failed")
			return
		}

		id := uuid.New().String()
		sink := newWSSink(conn)
		b.OnConnect(id, sink)

		defer func() {
			b.OnDisconnect(id)
			sink.Close()
		}()

		for {
			var msg controlMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			switch msg.Action {
			case actionSubscribe:
				b.Subscribe(id, msg.Tokens)
			case actionUnsubscribe:
				b.Unsubscribe(id, msg.Tokens)
			default:
				log.Infow("ignoring unknown control message", "connection_id", id, "action", msg.Action)
			}
		}
	}
}
