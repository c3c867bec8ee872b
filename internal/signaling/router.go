package signaling

import "log/slog"

// Router turns one inbound message into zero or more deliveries,
// consulting the registry for targets. It owns the dispatch table and
// nothing else: no goroutines, no transport knowledge beyond Conn.
//
// Dispatch reports the members whose connections failed while
// delivering; the hub runs the disconnect path for each. A failed
// recipient never aborts delivery to the rest of the room and never
// surfaces as an error to the sender.
type Router struct {
	registry *Registry
	logger   *slog.Logger
}

// NewRouter creates a router over the given registry.
func NewRouter(registry *Registry, logger *slog.Logger) *Router {
	return &Router{registry: registry, logger: logger}
}

// Connect registers a new participant: a peer-join event goes to the
// rest of the room, then the newcomer gets a room-state snapshot of the
// peers that were already there.
func (rt *Router) Connect(roomName, id, name string, conn Conn) (*Member, []*Member) {
	m := rt.registry.Join(roomName, id, name, conn)

	failed := rt.broadcast(m, encodePeerJoin(m.ID, m.Name))
	if err := m.conn.WriteText(encodeRoomState(rt.peersExcept(m), m.ID, m.Name)); err != nil {
		failed = append(failed, m)
	}
	return m, failed
}

// Dispatch routes a single message from m. Unknown types are dropped
// without touching the connection.
func (rt *Router) Dispatch(m *Member, in Inbound) []*Member {
	switch in.Kind() {
	case KindJoin:
		return rt.handleJoin(m)
	case KindGetPeers:
		return rt.handleGetPeers(m)
	case KindChat:
		return rt.handleChat(m, in)
	case KindSignal:
		return rt.handleSignal(m, in)
	case KindControl:
		return rt.broadcast(m, in.WithFrom(m.ID))
	case KindPing:
		if err := m.conn.WriteText(encodePong()); err != nil {
			return []*Member{m}
		}
	case KindUnknown:
		rt.logger.Debug("dropping message with unknown type", "type", in.Type, "from", m.ID)
	}
	return nil
}

// Disconnect removes m from its room, tells the remaining members, and
// closes the connection. Only the first call for a member does any of
// this; later calls are no-ops.
func (rt *Router) Disconnect(m *Member) []*Member {
	var failed []*Member
	m.gone.Do(func() {
		rt.registry.remove(m)
		failed = rt.broadcast(m, encodePeerLeave(m.ID))
		m.conn.Close()
		rt.logger.Info("participant left", "room", m.room, "id", m.ID)
	})
	return failed
}

// handleJoin re-announces an already-registered participant. Identity
// is fixed at connect time, so this amounts to a fresh peer-join event
// for the room and a fresh snapshot for the sender.
func (rt *Router) handleJoin(m *Member) []*Member {
	failed := rt.broadcast(m, encodePeerJoin(m.ID, m.Name))
	if err := m.conn.WriteText(encodeRoomState(rt.peersExcept(m), m.ID, m.Name)); err != nil {
		failed = append(failed, m)
	}
	return failed
}

func (rt *Router) handleGetPeers(m *Member) []*Member {
	if err := m.conn.WriteText(encodeRoomState(rt.peersExcept(m), m.ID, m.Name)); err != nil {
		return []*Member{m}
	}
	return nil
}

// handleChat broadcasts to the entire room, sender included, so the
// sender sees its own message echoed and clients render everything
// through one code path.
func (rt *Router) handleChat(m *Member, in Inbound) []*Member {
	data := encodeChat(m.ID, m.Name, in.Text)

	var failed []*Member
	for _, t := range rt.registry.BroadcastTargets(m.room, "") {
		if err := t.conn.WriteText(data); err != nil {
			failed = append(failed, t)
		}
	}
	return failed
}

// handleSignal relays an opaque offer/answer/candidate payload to one
// named target, tagged with the sender's id. A missing or departed
// target drops the message silently; relay is best effort.
func (rt *Router) handleSignal(m *Member, in Inbound) []*Member {
	if in.Target == "" {
		rt.logger.Debug("signal without target", "from", m.ID, "type", in.Type)
		return nil
	}
	target, ok := rt.registry.Find(m.room, in.Target)
	if !ok {
		return nil
	}
	if err := target.conn.WriteText(in.WithFrom(m.ID)); err != nil {
		return []*Member{target}
	}
	return nil
}

// broadcast sends data to every member of m's room except m itself.
func (rt *Router) broadcast(m *Member, data []byte) []*Member {
	var failed []*Member
	for _, t := range rt.registry.BroadcastTargets(m.room, m.ID) {
		if err := t.conn.WriteText(data); err != nil {
			failed = append(failed, t)
		}
	}
	return failed
}

// peersExcept snapshots m's room without m itself, for room-state
// replies.
func (rt *Router) peersExcept(m *Member) []PeerInfo {
	all := rt.registry.Participants(m.room)
	peers := make([]PeerInfo, 0, len(all))
	for _, p := range all {
		if p.UserID == m.ID {
			continue
		}
		peers = append(peers, p)
	}
	return peers
}
