package ws

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/GriffinCanCode/AgentOS/uihost/internal/infrastructure/monitoring"
)

// ErrConnectionClosed is returned when writing to a closed connection
var ErrConnectionClosed = errors.New("connection closed")

const writeTimeout = 10 * time.Second

// Conn is one browser connection. It implements navigation.Connection;
// writes are serialized so circuits may invoke from any goroutine.
type Conn struct {
	ID string

	ws        *websocket.Conn
	metrics   *monitoring.Metrics
	writeMu   sync.Mutex
	connected atomic.Bool
}

func newConn(ws *websocket.Conn, metrics *monitoring.Metrics) *Conn {
	c := &Conn{
		ID:      uuid.New().String(),
		ws:      ws,
		metrics: metrics,
	}
	c.connected.Store(true)
	return c
}

// Connected implements navigation.Connection
func (c *Conn) Connected() bool {
	return c.connected.Load()
}

// InvokeAsync implements navigation.Connection by sending an invoke frame;
// it does not wait for the browser.
func (c *Conn) InvokeAsync(identifier string, args ...any) error {
	return c.Send(ServerMessage{Type: TypeInvoke, Identifier: identifier, Args: args})
}

// Send writes one frame
func (c *Conn) Send(msg ServerMessage) error {
	if !c.Connected() {
		return ErrConnectionClosed
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}

	data, err := sonic.Marshal(msg)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	c.metrics.RecordWSMessage("out", msg.Type)
	return nil
}

func (c *Conn) sendError(message string) error {
	return c.Send(ServerMessage{Type: TypeError, Message: message})
}

// Close marks the connection closed and closes the socket
func (c *Conn) Close() error {
	if !c.connected.CompareAndSwap(true, false) {
		return nil
	}
	return c.ws.Close()
}
