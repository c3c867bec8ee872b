package signaling

import "sync"

// Conn is the write side of one participant's transport. The core only
// needs to push text frames and close dead peers, so tests substitute
// an in-memory implementation that records what was sent.
type Conn interface {
	WriteText(data []byte) error
	Close() error
}

// Member ties a participant identity to its live connection. The
// registry holds a non-owning reference to the connection; closing it
// is the hub's job, never the registry's.
type Member struct {
	ID   string
	Name string

	conn Conn
	room string

	// gone guards the teardown path. Every way a member can die
	// (transport fault, failed send, normal close) funnels through it,
	// so the room sees exactly one peer-leave.
	gone sync.Once
}

// room is a registry-internal bucket. All access goes through the
// registry mutex; a room never outlives its last member.
type room struct {
	name    string
	members map[string]*Member
}
