package signaling

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. 64 KB is enough for
	// WebRTC SDP bodies.
	maxMessageSize = 64 * 1024

	// Outbound frames queued per connection before the peer is
	// considered too slow to live.
	sendBuffer = 256
)

// ErrConnDown reports a send against a closed or hopelessly backed-up
// connection. The router treats the recipient as disconnected.
var ErrConnDown = errors.New("signaling: connection down")

// Client wraps a single websocket connection (a peer). All writes go
// through the buffered send channel and one WritePump goroutine, so
// WriteText never blocks and a slow peer cannot stall anyone else's
// broadcast.
type Client struct {
	// ID is assigned at connect time and never changes.
	ID string

	// Name is the display name extracted from the connection request.
	Name string

	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

// NewClient wraps an upgraded websocket connection.
func NewClient(id, name string, conn *websocket.Conn) *Client {
	return &Client{
		ID:   id,
		Name: name,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// WriteText queues a text frame for delivery. It fails immediately when
// the connection is closed or the peer has stopped draining its buffer;
// the caller treats either case as a dead peer.
func (c *Client) WriteText(data []byte) error {
	select {
	case <-c.done:
		return ErrConnDown
	default:
	}
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrConnDown
	default:
		return ErrConnDown
	}
}

// Close is idempotent and safe from any goroutine. Closing the
// underlying socket unblocks the read loop, which drives teardown.
func (c *Client) Close() error {
	c.once.Do(func() {
		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
	})
	return nil
}

// NextMessage blocks for the next frame from the peer.
func (c *Client) NextMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

// setupRead arms the read limit, deadline and pong handler before the
// hub starts the receive loop.
func (c *Client) setupRead() {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
}

// WritePump pumps queued frames onto the websocket connection and keeps
// it alive with periodic pings.
//
// A goroutine running WritePump is started for each connection. The
// application ensures that there is at most one writer to a connection
// by executing all writes from this goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
