package mpdprotocol

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Conn is a single connection to a server without any synchronization.
// Only one goroutine may use a Conn at a time; Client wraps a Conn to share
// it safely. Client.ThreadUnsafeConnection hands out its Conn to callers
// that synchronize on their own, e.g. to batch several commands.
type Conn struct {
	transport Transport
	baseLog   *slog.Logger
	logger    *slog.Logger
	status    *ConnectionStatus

	host      string
	port      int
	password  string
	sessionID string
	connected bool
}

// NewConn creates an unconnected Conn. Without WithTransport it dials with
// a TCPTransport.
func NewConn(opts ...Option) *Conn {
	o := buildOptions(opts)
	t := o.transport
	if t == nil {
		t = NewTCPTransport(WithLogger(o.logger), WithTimeout(o.timeout))
	}
	return &Conn{
		transport: t,
		baseLog:   o.logger,
		logger:    o.logger,
		status:    NewConnectionStatus(),
	}
}

// SetPassword sets the password sent by the next Connect.
func (c *Conn) SetPassword(password string) {
	c.password = password
}

// Connect opens the transport, reads the greeting, authenticates when a
// password is set and lists the available commands. The connection status
// is replaced in one step once all of that succeeded.
func (c *Conn) Connect(ctx context.Context, host string, port int) error {
	if c.connected {
		return ErrAlreadyConnected
	}

	greeting, err := c.transport.Open(ctx, host, port)
	if err != nil {
		return err
	}
	version, err := ParseGreeting(greeting)
	if err != nil {
		c.transport.Close()
		return NewConnectionError("unexpected server greeting", err)
	}

	c.sessionID = uuid.NewString()
	c.logger = c.baseLog.With(slog.String("session", c.sessionID))
	c.host, c.port = host, port
	c.connected = true

	if c.password != "" {
		if _, err := c.send(ctx, NewPasswordCommand(c.password)); err != nil {
			c.Disconnect()
			return err
		}
	}

	commands, err := c.listCommands(ctx)
	if err != nil {
		c.Disconnect()
		return err
	}
	c.status.replace(version, commands)

	c.logger.Debug("conn.connect",
		slog.String("addr", Address(host, port)),
		slog.String("version", version.String()),
		slog.Int("commands", len(commands)),
	)
	return nil
}

// listCommands runs the introspection command. A server refusing it (for
// example before authentication) leaves the command set unknown.
func (c *Conn) listCommands(ctx context.Context) ([]string, error) {
	result, err := c.send(ctx, NewCommandsCommand())
	var ack *ProtocolError
	if errors.As(err, &ack) {
		c.logger.Debug("conn.commands.refused", slog.String("err", ack.Error()))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	commands := result.Values(FieldCommand)
	if commands == nil {
		commands = []string{}
	}
	return commands, nil
}

// Disconnect closes the transport and resets the connection status. It is a
// no-op when not connected.
func (c *Conn) Disconnect() error {
	if !c.connected {
		return nil
	}
	err := c.transport.Close()
	c.status.Reset()
	c.connected = false
	c.host, c.port = "", 0
	c.logger.Debug("conn.disconnect")
	c.logger = c.baseLog
	c.sessionID = ""
	return err
}

// Send sends cmd and returns its result. A transport failure disconnects
// the Conn, since the stream can no longer be trusted.
func (c *Conn) Send(ctx context.Context, cmd Command) (CommandResult, error) {
	if !c.connected {
		return CommandResult{}, ErrNotConnected
	}
	return c.send(ctx, cmd)
}

func (c *Conn) send(ctx context.Context, cmd Command) (CommandResult, error) {
	start := time.Now()
	raw, err := c.transport.Send(ctx, cmd)
	if err != nil {
		var ack *ProtocolError
		if !errors.As(err, &ack) {
			c.Disconnect()
		}
		c.logger.Debug("conn.send.fail",
			slog.String("command", cmd.Name),
			slog.String("err", err.Error()),
		)
		return CommandResult{}, err
	}
	c.logger.Debug("conn.send",
		slog.String("command", cmd.Name),
		slog.Int("bytes", len(raw)),
		slog.Duration("took", time.Since(start)),
	)
	return NewCommandResult(cmd, raw), nil
}

// interrupt aborts an in-flight Open or Send if the transport supports it and
// stays in effect until resetInterrupt. It is the only Conn method safe to
// call concurrently with the others.
func (c *Conn) interrupt() {
	if i, ok := c.transport.(Interrupter); ok {
		i.Interrupt()
	}
}

// resetInterrupt rearms a transport stopped by interrupt.
func (c *Conn) resetInterrupt() {
	if i, ok := c.transport.(Interrupter); ok {
		i.ResetInterrupt()
	}
}

// Status returns the connection status.
func (c *Conn) Status() *ConnectionStatus {
	return c.status
}

// IsConnected reports whether the Conn is connected.
func (c *Conn) IsConnected() bool {
	return c.connected
}

// HostAddress returns the connected host, empty when not connected.
func (c *Conn) HostAddress() string {
	return c.host
}

// HostPort returns the connected port, 0 when not connected.
func (c *Conn) HostPort() int {
	return c.port
}

// SessionID returns the id assigned to the current connection for log
// correlation, empty when not connected.
func (c *Conn) SessionID() string {
	return c.sessionID
}
