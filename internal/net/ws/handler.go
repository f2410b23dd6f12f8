package ws

import (
	"encoding/json"
	nethttp "net/http"

	"github.com/gorilla/websocket"
)

type clientMessage struct {
	Type     string  `json:"type"`
	Sequence *uint64 `json:"sequence"`
}

// Handler upgrades observer connections and serves them from a Hub.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *nethttp.Request) bool {
				return true
			},
		},
	}
}

// ServeHTTP sends the latest keyframe, then keeps reading keyframe
// requests until the observer disconnects.
func (h *Handler) ServeHTTP(w nethttp.ResponseWriter, r *nethttp.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.logger.Printf("[observer] upgrade failed: %v", err)
		return
	}
	sub := h.hub.subscribe(conn)

	if source := h.hub.current(); source != nil {
		if frame, ok := source.Latest(); ok {
			if !h.hub.send(sub, keyframeMessage(frame)) {
				return
			}
		}
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			h.hub.unsubscribe(sub)
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.hub.logger.Printf("[observer] discarding malformed message from %d: %v", sub.id, err)
			continue
		}
		switch msg.Type {
		case "keyframeRequest":
			if msg.Sequence == nil {
				continue
			}
			reply := Message{Ver: ProtocolVersion, Type: TypeNack, Sequence: *msg.Sequence, Reason: "expired"}
			if source := h.hub.current(); source != nil {
				if frame, ok := source.KeyframeBySequence(*msg.Sequence); ok {
					reply = keyframeMessage(frame)
				}
			}
			if !h.hub.send(sub, reply) {
				return
			}
		default:
			h.hub.logger.Printf("[observer] unknown message type %q from %d", msg.Type, sub.id)
		}
	}
}
