package signaling

import (
	"encoding/json"
	"fmt"
)

// Kind enumerates every message type the relay understands. Dispatch
// switches over this closed set, so adding a message kind means adding
// a case, not another string comparison.
type Kind int

const (
	KindUnknown Kind = iota
	KindJoin
	KindGetPeers
	KindChat
	KindSignal
	KindControl
	KindPing
)

// kindNames maps wire-level type strings to kinds. Two naming families
// exist among deployed clients ("join"/"hello", "chat"/"chat-message",
// "signal"/"webrtc-*"); both are accepted.
var kindNames = map[string]Kind{
	"join":          KindJoin,
	"hello":         KindJoin,
	"get-peers":     KindGetPeers,
	"chat":          KindChat,
	"chat-message":  KindChat,
	"signal":        KindSignal,
	"webrtc-offer":  KindSignal,
	"webrtc-answer": KindSignal,
	"webrtc-ice":    KindSignal,
	"control":       KindControl,
	"ping":          KindPing,
}

// KindOf resolves a wire type string. Unrecognized strings map to
// KindUnknown; the router drops those without closing the connection.
func KindOf(t string) Kind {
	return kindNames[t]
}

// Inbound is one decoded client message. Only the fields the router
// needs are pulled out; the original payload is kept so signal and
// control messages can be relayed verbatim.
type Inbound struct {
	Type   string          `json:"type"`
	ID     string          `json:"id,omitempty"`
	Name   string          `json:"name,omitempty"`
	Text   string          `json:"text,omitempty"`
	Target string          `json:"target,omitempty"`
	Signal json.RawMessage `json:"signal,omitempty"`

	raw []byte
}

// DecodeInbound parses a client frame. A payload that is not a JSON
// object or has no type is a per-message fault; the caller drops it
// and keeps reading.
func DecodeInbound(data []byte) (Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return Inbound{}, fmt.Errorf("decode inbound: %w", err)
	}
	if in.Type == "" {
		return Inbound{}, fmt.Errorf("decode inbound: missing type")
	}
	in.raw = data
	return in, nil
}

// Kind returns the dispatch kind for this message.
func (in Inbound) Kind() Kind {
	return KindOf(in.Type)
}

// WithFrom returns the original payload with a "from" field set to the
// sender's id. All other fields pass through untouched; the relay never
// interprets signaling payloads.
func (in Inbound) WithFrom(id string) []byte {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(in.raw, &fields); err != nil {
		return in.raw
	}
	fields["from"], _ = json.Marshal(id)
	out, _ := json.Marshal(fields)
	return out
}

// PeerInfo identifies one room member in state snapshots.
type PeerInfo struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

type roomStateMsg struct {
	Type   string     `json:"type"`
	Peers  []PeerInfo `json:"peers"`
	SelfID string     `json:"selfId"`
	Name   string     `json:"name,omitempty"`
}

type presenceMsg struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Name   string `json:"name,omitempty"`
}

type chatMsg struct {
	Type string `json:"type"`
	From string `json:"from"`
	Name string `json:"name"`
	Text string `json:"text"`
}

type pongMsg struct {
	Type string `json:"type"`
}

func encodeRoomState(peers []PeerInfo, selfID, name string) []byte {
	if peers == nil {
		peers = []PeerInfo{}
	}
	b, _ := json.Marshal(roomStateMsg{Type: "room-state", Peers: peers, SelfID: selfID, Name: name})
	return b
}

func encodePeerJoin(id, name string) []byte {
	b, _ := json.Marshal(presenceMsg{Type: "peer-join", UserID: id, Name: name})
	return b
}

func encodePeerLeave(id string) []byte {
	b, _ := json.Marshal(presenceMsg{Type: "peer-leave", UserID: id})
	return b
}

func encodeChat(from, name, text string) []byte {
	b, _ := json.Marshal(chatMsg{Type: "chat-message", From: from, Name: name, Text: text})
	return b
}

func encodePong() []byte {
	b, _ := json.Marshal(pongMsg{Type: "pong"})
	return b
}
