package signaling

import "sync"

// Registry maps room names to their current members. It is the only
// shared mutable state in the relay. A single mutex serializes joins,
// leaves and snapshot reads, so two connections racing to create the
// same room always land in one room object, and a broadcast never sees
// a half-mutated member set.
//
// Every operation is total: absent rooms and ids yield empty results,
// never errors. Send failures are the caller's problem.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*room)}
}

// Join registers the participant under roomName, creating the room if
// absent. A colliding id replaces the earlier record; the displaced
// connection is not closed here, that is the caller's call to make.
func (r *Registry) Join(roomName, id, name string, conn Conn) *Member {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomName]
	if !ok {
		rm = &room{name: roomName, members: make(map[string]*Member)}
		r.rooms[roomName] = rm
	}

	m := &Member{ID: id, Name: name, conn: conn, room: roomName}
	rm.members[id] = m
	return m
}

// Leave removes the participant if present and deletes the room the
// moment it empties. Absent rooms and ids are no-ops.
func (r *Registry) Leave(roomName, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomName]
	if !ok {
		return
	}
	delete(rm.members, id)
	if len(rm.members) == 0 {
		delete(r.rooms, roomName)
	}
}

// remove deletes m only if it is still the registered record for its
// id. A member displaced by a colliding join must not tear down its
// replacement during late cleanup.
func (r *Registry) remove(m *Member) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[m.room]
	if !ok || rm.members[m.ID] != m {
		return
	}
	delete(rm.members, m.ID)
	if len(rm.members) == 0 {
		delete(r.rooms, m.room)
	}
}

// Participants returns a consistent membership snapshot. Nobody is
// filtered out here; callers drop "self" as needed.
func (r *Registry) Participants(roomName string) []PeerInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomName]
	if !ok {
		return nil
	}
	peers := make([]PeerInfo, 0, len(rm.members))
	for _, m := range rm.members {
		peers = append(peers, PeerInfo{UserID: m.ID, Name: m.Name})
	}
	return peers
}

// Find resolves a logical id to its live member for unicast relay.
func (r *Registry) Find(roomName, id string) (*Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomName]
	if !ok {
		return nil, false
	}
	m, ok := rm.members[id]
	return m, ok
}

// BroadcastTargets returns every member of the room except excludeID.
// Pass an empty excludeID to address the whole room.
func (r *Registry) BroadcastTargets(roomName, excludeID string) []*Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomName]
	if !ok {
		return nil
	}
	targets := make([]*Member, 0, len(rm.members))
	for id, m := range rm.members {
		if id == excludeID {
			continue
		}
		targets = append(targets, m)
	}
	return targets
}

// Stats reports the number of live rooms and members, for the health
// endpoint.
func (r *Registry) Stats() (rooms, members int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rm := range r.rooms {
		members += len(rm.members)
	}
	return len(r.rooms), members
}
