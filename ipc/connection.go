package ipc

import (
	"errors"
	"log/slog"
	"net"
	"sync"
)

// ErrFatal marks a handler error that must end the connection. Other
// handler errors are logged and the loop keeps reading.
var ErrFatal = errors.New("fatal handler error")

// Handler processes a received envelope. Return nil to send no reply.
type Handler func(env Envelope) (*Envelope, error)

// Connection is a single robot framework process talking to the decision
// core. The player label is filled in after the hello handshake.
type Connection struct {
	conn     net.Conn
	handlers map[string]Handler
	writeMu  sync.Mutex
	Player   string
}

func NewConnection(conn net.Conn, handlers map[string]Handler) *Connection {
	if handlers == nil {
		handlers = make(map[string]Handler)
	}
	return &Connection{
		conn:     conn,
		handlers: handlers,
	}
}

func (c *Connection) RegisterHandler(msgType string, handler Handler) {
	c.handlers[msgType] = handler
}

func (c *Connection) Send(msgType string, data any) error {
	env, err := NewEnvelope(msgType, data)
	if err != nil {
		return err
	}
	return c.write(env)
}

func (c *Connection) write(env Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return WriteEnvelope(c.conn, env)
}

// ReadLoop blocks until the connection closes, errors, or a handler fails
// fatally. It owns the conn lifetime so callers don't need to track cleanup.
func (c *Connection) ReadLoop() error {
	defer c.conn.Close()

	for {
		env, err := ReadEnvelope(c.conn)
		if err != nil {
			slog.Info("connection read ended", "player", c.Player, "error", err)
			return nil
		}

		handler, ok := c.handlers[env.Type]
		if !ok {
			slog.Warn("no handler for message type", "type", env.Type)
			continue
		}

		resp, err := handler(env)
		if errors.Is(err, ErrFatal) {
			slog.Error("fatal handler error, closing connection", "type", env.Type, "player", c.Player, "error", err)
			c.sendError(ErrorMessage{Message: err.Error(), Fatal: true})
			return err
		}
		if err != nil {
			slog.Error("handler error", "type", env.Type, "error", err)
			c.sendError(ErrorMessage{Message: err.Error()})
			continue
		}

		if resp != nil {
			if err := c.write(*resp); err != nil {
				slog.Error("failed to send response", "type", resp.Type, "error", err)
				return err
			}
			slog.Debug("sent response", "type", resp.Type, "player", c.Player)
		}
	}
}

// sendError tells the framework a handler failed.
func (c *Connection) sendError(msg ErrorMessage) {
	if err := c.Send(TypeError, msg); err != nil {
		slog.Warn("failed to send error reply", "player", c.Player, "error", err)
	}
}
