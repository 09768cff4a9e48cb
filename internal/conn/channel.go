package conn

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// channel is one dialed websocket with its two pumps. The read pump owns
// reads, the write pump owns data writes; stop may run from anywhere.
type channel struct {
	id        string
	ep        Endpoint
	ws        *websocket.Conn
	send      chan []byte
	quit      chan struct{}
	done      chan struct{}
	writeWait time.Duration

	stopOnce sync.Once
}

func (c *channel) stop() {
	c.stopOnce.Do(func() {
		close(c.quit)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeWait))
		_ = c.ws.Close()
	})
}

func (c *channel) stopped() bool {
	select {
	case <-c.quit:
		return true
	default:
		return false
	}
}

func (c *channel) enqueue(b []byte) bool {
	if c.stopped() {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

func (c *channel) readPump(deliver func(*channel, []byte)) error {
	defer c.stop()
	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			if c.stopped() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		if mt != websocket.TextMessage {
			continue
		}
		deliver(c, data)
	}
}

func (c *channel) writePump(pingInterval time.Duration) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer c.stop()

	for {
		select {
		case <-c.quit:
			return nil
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return err
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

func (c *channel) write(mt int, data []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeWait))
	if err := c.ws.WriteMessage(mt, data); err != nil {
		if errors.Is(err, websocket.ErrCloseSent) || c.stopped() {
			return nil
		}
		return fmt.Errorf("write: %w", err)
	}
	return nil
}
