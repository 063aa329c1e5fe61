package mpdprotocol

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// State is the lifecycle state of a Client.
type State int32

// Client states.
const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateCancelled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// endpoint is the address of the current connection.
type endpoint struct {
	host string
	port int
}

// Client is a connection to a media server that is safe for concurrent use.
//
// All command traffic, including the introspection performed by Connect, goes
// through one critical section, so at most one command is on the wire at any
// time. State queries (State, Version, HostAddress, IsCommandAvailable, ...)
// read atomic snapshots and never wait for a command in flight.
//
// Cancel is the only way to unblock a goroutine stuck in a slow Send from
// another goroutine. After Cancel every Send fails with ErrCancelled until the
// next successful Connect.
type Client struct {
	// mu serializes Connect, Disconnect and Send.
	mu     sync.Mutex
	conn   *Conn
	status *ConnectionStatus
	logger *slog.Logger

	state atomic.Int32

	// Cancel bumps epoch; a successful Connect records the epoch it started
	// at in cleared. The client is cancelled while the two differ.
	epoch   atomic.Uint64
	cleared atomic.Uint64

	inflight atomic.Bool
	current  atomic.Pointer[endpoint]
	last     atomic.Pointer[CommandResult]

	defaultsMu      sync.Mutex
	defaultHost     string
	defaultPort     int
	defaultPassword string
}

// NewClient creates a disconnected client.
func NewClient(opts ...Option) *Client {
	o := buildOptions(opts)
	conn := NewConn(opts...)
	return &Client{
		conn:   conn,
		status: conn.Status(),
		logger: o.logger,
	}
}

// SetDefaultAddress sets the endpoint used by ConnectDefault.
func (c *Client) SetDefaultAddress(host string, port int) {
	c.defaultsMu.Lock()
	defer c.defaultsMu.Unlock()
	c.defaultHost, c.defaultPort = host, port
}

// SetDefaultPassword sets the password sent by subsequent connects. It does
// not affect a connection that is already open.
func (c *Client) SetDefaultPassword(password string) {
	c.defaultsMu.Lock()
	defer c.defaultsMu.Unlock()
	c.defaultPassword = password
}

func (c *Client) defaults() (string, int, string) {
	c.defaultsMu.Lock()
	defer c.defaultsMu.Unlock()
	return c.defaultHost, c.defaultPort, c.defaultPassword
}

// Connect connects to host and port. A host starting with "/" or "@" names a
// unix socket and port is ignored.
//
// Connect fails with ErrAlreadyConnected while connected. A cancelled client
// drops its stale connection and reconnects; success clears the cancellation.
// If Cancel is called while Connect is running, Connect returns ErrCancelled
// and the client stays cancelled.
func (c *Client) Connect(ctx context.Context, host string, port int) error {
	if err := validateEndpoint(host, port); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.State() {
	case StateConnected:
		return ErrAlreadyConnected
	case StateCancelled:
		c.conn.Disconnect()
		c.current.Store(nil)
	}

	// Rearm before reading the epoch: a Cancel landing after the read
	// interrupts this attempt, including its dial.
	c.conn.resetInterrupt()
	start := c.epoch.Load()
	c.state.Store(int32(StateConnecting))

	_, _, password := c.defaults()
	c.conn.SetPassword(password)

	if err := c.conn.Connect(ctx, host, port); err != nil {
		if c.epoch.Load() != start {
			c.state.Store(int32(StateCancelled))
			return fmt.Errorf("%w: %w", ErrCancelled, err)
		}
		c.state.Store(int32(StateDisconnected))
		return err
	}

	c.current.Store(&endpoint{host: host, port: port})
	c.last.Store(nil)
	c.cleared.Store(start)
	if !c.state.CompareAndSwap(int32(StateConnecting), int32(StateConnected)) || c.epoch.Load() != start {
		c.state.Store(int32(StateCancelled))
		return ErrCancelled
	}

	c.logger.Info("client.connect",
		slog.String("addr", Address(host, port)),
		slog.String("version", c.status.Version().String()),
		slog.String("session", c.conn.SessionID()),
	)
	return nil
}

// ConnectDefault connects to the endpoint set with SetDefaultAddress.
func (c *Client) ConnectDefault(ctx context.Context) error {
	host, port, _ := c.defaults()
	if host == "" {
		return ErrNoDefaultAddress
	}
	return c.Connect(ctx, host, port)
}

func validateEndpoint(host string, port int) error {
	if host == "" {
		return fmt.Errorf("%w: empty host", ErrInvalidArgument)
	}
	if !IsSocketPath(host) && (port <= 0 || port > 65535) {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidArgument, port)
	}
	return nil
}

// Disconnect closes the connection and resets the connection status. It is
// a no-op when already disconnected. Disconnecting while another goroutine
// has a command in flight fails with ErrStateConflict; Cancel first to abort
// that command.
func (c *Client) Disconnect() error {
	if c.inflight.Load() && !c.cancelled() {
		return fmt.Errorf("%w: command in flight", ErrStateConflict)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() == StateDisconnected {
		return nil
	}
	err := c.conn.Disconnect()
	c.current.Store(nil)
	c.last.Store(nil)
	c.state.Store(int32(StateDisconnected))
	c.logger.Info("client.disconnect")
	return err
}

// Cancel makes any in-flight Send fail with ErrCancelled and rejects every
// later Send until the next successful Connect. It never blocks and does not
// close the connection.
func (c *Client) Cancel() {
	c.epoch.Add(1)
	for {
		s := c.state.Load()
		if s != int32(StateConnected) && s != int32(StateConnecting) {
			break
		}
		if c.state.CompareAndSwap(s, int32(StateCancelled)) {
			break
		}
	}
	c.conn.interrupt()
	c.logger.Debug("client.cancel")
}

func (c *Client) cancelled() bool {
	return c.epoch.Load() != c.cleared.Load()
}

// Send sends cmd and returns its result, which also becomes the result
// returned by LastResult.
func (c *Client) Send(ctx context.Context, cmd Command) (CommandResult, error) {
	if c.cancelled() {
		return CommandResult{}, ErrCancelled
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	epoch := c.epoch.Load()
	if epoch != c.cleared.Load() {
		return CommandResult{}, ErrCancelled
	}
	if c.State() != StateConnected {
		return CommandResult{}, ErrNotConnected
	}

	c.inflight.Store(true)
	result, err := c.conn.Send(ctx, cmd)
	c.inflight.Store(false)

	if c.epoch.Load() != epoch {
		return CommandResult{}, ErrCancelled
	}
	if err != nil {
		if !c.conn.IsConnected() {
			c.state.CompareAndSwap(int32(StateConnected), int32(StateDisconnected))
			c.current.Store(nil)
			c.last.Store(nil)
			c.logger.Warn("client.connection.lost", slog.String("err", err.Error()))
		}
		return CommandResult{}, err
	}

	c.last.Store(&result)
	return result, nil
}

// SendLine parses a command line typed by a user and sends it.
func (c *Client) SendLine(ctx context.Context, line string) (CommandResult, error) {
	cmd, err := NewCommandParser().Parse(line)
	if err != nil {
		return CommandResult{}, err
	}
	return c.Send(ctx, cmd)
}

// Ping sends the ping command.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Send(ctx, NewPingCommand())
	return err
}

// LastResult returns the result of the most recent successful Send. The
// second value is false when there is none on the current connection.
func (c *Client) LastResult() (CommandResult, bool) {
	if r := c.last.Load(); r != nil {
		return *r, true
	}
	return CommandResult{}, false
}

// Entries returns the song entries of the most recent result. It is empty
// when there is no result.
func (c *Client) Entries() *ObjectResponse[Entry] {
	r, _ := c.LastResult()
	return NewEntryResponse(r)
}

// Directories returns the directories of the most recent result.
func (c *Client) Directories() *ObjectResponse[Directory] {
	r, _ := c.LastResult()
	return NewDirectoryResponse(r)
}

// IsCommandAvailable reports whether the server advertised command. See
// ConnectionStatus.IsCommandAvailable.
func (c *Client) IsCommandAvailable(command string) (bool, error) {
	return c.status.IsCommandAvailable(command)
}

// IsProtocolVersionSupported reports whether the server speaks at least
// major.minor. It is true for any version while never connected.
func (c *Client) IsProtocolVersionSupported(major, minor int) bool {
	return c.status.IsProtocolVersionSupported(major, minor)
}

// ConnectionStatus returns the live connection status.
func (c *Client) ConnectionStatus() *ConnectionStatus {
	return c.status
}

// Version returns the server's protocol version, zero when not connected.
func (c *Client) Version() Version {
	return c.status.Version()
}

// State returns the lifecycle state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// IsConnected reports whether the client is connected and not cancelled.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// HostAddress returns the host of the current connection, empty when
// disconnected.
func (c *Client) HostAddress() string {
	if ep := c.current.Load(); ep != nil {
		return ep.host
	}
	return ""
}

// HostPort returns the port of the current connection, 0 when disconnected.
func (c *Client) HostPort() int {
	if ep := c.current.Load(); ep != nil {
		return ep.port
	}
	return 0
}

// ThreadUnsafeConnection returns the underlying connection. Commands sent on
// it bypass the client's lock, so callers must make sure no other goroutine
// uses the Client at the same time.
func (c *Client) ThreadUnsafeConnection() *Conn {
	return c.conn
}
