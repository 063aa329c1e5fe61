package mpdprotocol

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync/atomic"
	"time"
)

// Transport is the raw request/response link to a server. Implementations
// need not be safe for concurrent use except for Interrupt (see
// Interrupter); Conn calls them from one goroutine at a time.
type Transport interface {
	// Open dials host:port (or the unix socket named by host) and returns
	// the server greeting line.
	Open(ctx context.Context, host string, port int) (greeting string, err error)

	// Send writes cmd and returns the response body up to, but excluding,
	// the OK terminator. A server-reported failure is a *ProtocolError.
	Send(ctx context.Context, cmd Command) (string, error)

	// Close tears the link down. It is safe to call when not open.
	Close() error
}

// Interrupter is implemented by transports that can abort an in-flight
// Open or Send from another goroutine. Interrupt must not block. An
// interrupted transport fails every Open and Send until ResetInterrupt.
type Interrupter interface {
	Interrupt()
	ResetInterrupt()
}

// aLongTimeAgo is a deadline in the past, used to make blocked I/O return
// immediately.
var aLongTimeAgo = time.Unix(1, 0)

// TCPTransport speaks the protocol over TCP or a unix domain socket.
type TCPTransport struct {
	timeout time.Duration
	logger  *slog.Logger

	conn   net.Conn
	reader *bufio.Reader

	// active mirrors conn and dialing holds the cancel func of an Open in
	// progress, both for Interrupt, which runs on other goroutines.
	active      atomic.Pointer[net.Conn]
	dialing     atomic.Pointer[context.CancelFunc]
	interrupted atomic.Bool
}

// NewTCPTransport creates a transport. WithTimeout and WithLogger apply.
func NewTCPTransport(opts ...Option) *TCPTransport {
	o := buildOptions(opts)
	return &TCPTransport{timeout: o.timeout, logger: o.logger}
}

// Open implements Transport.
func (t *TCPTransport) Open(ctx context.Context, host string, port int) (string, error) {
	if t.conn != nil {
		return "", ErrAlreadyConnected
	}

	// Create a context with timeout for the connection
	connectCtx, cancel := context.WithTimeout(ctx, ConnectionTimeout)
	defer cancel()
	t.dialing.Store(&cancel)
	defer t.dialing.Store(nil)
	// An Interrupt that ran before dialing was published must still win.
	if t.interrupted.Load() {
		cancel()
	}

	network := "tcp"
	if IsSocketPath(host) {
		network = "unix"
	}
	addr := Address(host, port)

	var d net.Dialer
	conn, err := d.DialContext(connectCtx, network, addr)
	if err != nil {
		return "", t.ioError(ctx, "failed to connect to "+addr, err)
	}

	t.conn = conn
	t.reader = bufio.NewReader(conn)
	t.active.Store(&conn)

	stop := t.watch(connectCtx)
	greeting, err := t.readLine()
	stop()
	if err != nil {
		t.Close()
		return "", t.ioError(ctx, "failed to read greeting", err)
	}

	t.logger.Debug("transport.open", slog.String("network", network), slog.String("addr", addr))
	return greeting, nil
}

// Send implements Transport.
func (t *TCPTransport) Send(ctx context.Context, cmd Command) (string, error) {
	if t.conn == nil {
		return "", ErrNotConnected
	}
	if _, ok := ctx.Deadline(); !ok && t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	stop := t.watch(ctx)
	defer stop()

	if _, err := io.WriteString(t.conn, cmd.FormatLine()); err != nil {
		t.Close()
		return "", t.ioError(ctx, "failed to send command", err)
	}

	var body strings.Builder
	for {
		line, err := t.readLine()
		if err != nil {
			t.Close()
			return "", t.ioError(ctx, "failed to read response", err)
		}
		switch {
		case line == OKLine:
			return body.String(), nil
		case strings.HasPrefix(line, AckPrefix):
			ack, err := ParseAck(line)
			if err != nil {
				return "", err
			}
			return "", ack
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
}

// watch applies ctx's deadline to the socket and interrupts blocked I/O when
// ctx is cancelled. The returned func must be called once I/O is done.
func (t *TCPTransport) watch(ctx context.Context) func() {
	conn := t.conn
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Time{})
	}
	// An Interrupt racing with the deadline reset above must still win.
	if t.interrupted.Load() {
		conn.SetDeadline(aLongTimeAgo)
	}
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(aLongTimeAgo)
	})
	return func() { stop() }
}

// readLine reads one line without its terminator.
func (t *TCPTransport) readLine() (string, error) {
	var line []byte
	for {
		chunk, err := t.reader.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > MaxLineLength {
			return "", ErrLineTooLong
		}
		if err == nil {
			break
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return "", err
		}
	}
	return strings.TrimRight(string(line), "\r\n"), nil
}

// ioError classifies a failed read or write: context expiry wins over the
// socket error it caused.
func (t *TCPTransport) ioError(ctx context.Context, msg string, err error) error {
	if errors.Is(err, ErrLineTooLong) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return NewConnectionError(msg, ctxErr)
	}
	// The socket deadline can fire just before the context's own timer.
	if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) && !t.interrupted.Load() {
		return NewConnectionError(msg, context.DeadlineExceeded)
	}
	return NewConnectionError(msg, err)
}

// Interrupt implements Interrupter. A dial in progress is abandoned and any
// blocked read or write returns with a timeout error; the transport must be
// reset and reopened afterwards.
func (t *TCPTransport) Interrupt() {
	t.interrupted.Store(true)
	if cancel := t.dialing.Load(); cancel != nil {
		(*cancel)()
	}
	if conn := t.active.Load(); conn != nil {
		(*conn).SetDeadline(aLongTimeAgo)
	}
}

// ResetInterrupt implements Interrupter.
func (t *TCPTransport) ResetInterrupt() {
	t.interrupted.Store(false)
}

// Close implements Transport.
func (t *TCPTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	t.active.Store(nil)
	err := t.conn.Close()
	t.conn = nil
	t.reader = nil
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return NewConnectionError("failed to close", err)
	}
	t.logger.Debug("transport.close")
	return nil
}
