package signaling

import (
	"log/slog"

	"github.com/gorilla/websocket"
)

// Hub is the central brain of the signaling server. It owns every
// connection from registration to teardown: one Serve call runs per
// connection, and cleanup happens exactly once no matter how the
// receive loop ends.
type Hub struct {
	registry *Registry
	router   *Router
	logger   *slog.Logger
}

// NewHub creates a hub with a fresh, empty registry.
func NewHub(logger *slog.Logger) *Hub {
	registry := NewRegistry()
	return &Hub{
		registry: registry,
		router:   NewRouter(registry, logger),
		logger:   logger,
	}
}

// Stats reports live room and participant counts.
func (h *Hub) Stats() (rooms, members int) {
	return h.registry.Stats()
}

// Serve registers the client in roomName and pumps its messages until
// the transport goes away. It blocks; run it from the connection's own
// goroutine, alongside the client's WritePump.
//
// Faults are isolated per the relay's contract: an undecodable frame
// drops that frame and keeps reading, a transport error ends the loop,
// and either way the deferred teardown removes the participant and
// broadcasts a single peer-leave to the room.
func (h *Hub) Serve(c *Client, roomName string) {
	c.setupRead()

	m, failed := h.router.Connect(roomName, c.ID, c.Name, c)
	defer h.drop(m)
	h.dropAll(failed)

	h.logger.Info("participant joined", "room", roomName, "id", c.ID, "name", c.Name)

	for {
		data, err := c.NextMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				h.logger.Warn("read failed", "id", c.ID, "error", err)
			}
			return
		}

		in, err := DecodeInbound(data)
		if err != nil {
			h.logger.Debug("dropping undecodable frame", "id", c.ID, "error", err)
			continue
		}

		h.dropAll(h.router.Dispatch(m, in))
	}
}

// drop runs the disconnect path for one member.
func (h *Hub) drop(m *Member) {
	h.dropAll([]*Member{m})
}

// dropAll disconnects members, folding in any further members whose
// connections turn out dead while the room is being notified. The
// per-member once guard keeps the chain finite.
func (h *Hub) dropAll(members []*Member) {
	for len(members) > 0 {
		m := members[0]
		members = append(members[1:], h.router.Disconnect(m)...)
	}
}
