// =============================================================================
// repl.go - REPL Loop
// =============================================================================
//
// The REPL reads a line, decides whether it is a local dot-command or a
// server command, runs it and prints the outcome. Server commands go
// through the thread-safe mpdprotocol.Client, so the signal handler can
// call Cancel from its own goroutine while a command is running.
//
// After a cancelled command the client rejects every send until it
// reconnects. The REPL does that transparently before the next server
// command, reusing the endpoint of the cancelled connection.
//
// =============================================================================

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/mpdcomm/mpdcomm/mpdprotocol"
)

// session is the state shared by the REPL loop and the signal handler.
type session struct {
	client *mpdprotocol.Client
	editor *LineEditor
	out    io.Writer

	// reverse is toggled by .reverse and by config reloads.
	reverse atomic.Bool

	// busy is set while a command or connect is on the wire, which is when
	// Ctrl-C cancels instead of exiting.
	busy atomic.Bool
}

func newSession(client *mpdprotocol.Client, editor *LineEditor, out io.Writer) *session {
	return &session{client: client, editor: editor, out: out}
}

// prompt returns the REPL prompt, which shows the state when not connected.
func (s *session) prompt() string {
	if state := s.client.State(); state != mpdprotocol.StateConnected {
		return fmt.Sprintf("mpd (%s)> ", state)
	}
	return "mpd> "
}

// GO CONCEPT: Atomic Flags Across Goroutines
// ------------------------------------------
// The signal handler runs on its own goroutine and must know whether a
// command is running right now. A plain bool written by one goroutine and
// read by another is a data race. atomic.Bool makes each Load and Store
// indivisible, with no lock that the signal handler could block on.
//
// Compare with Python: threading.Event plays the same role, with set(),
// clear() and is_set() in place of Store and Load.

// run calls fn with busy set.
func (s *session) run(fn func() error) error {
	s.busy.Store(true)
	defer s.busy.Store(false)
	return fn()
}

// runREPL runs the loop until .quit or end of input.
func runREPL(sess *session) {
	for {
		line, err := sess.editor.GetLine(sess.prompt())
		if err != nil {
			if !errors.Is(err, io.EOF) {
				fmt.Fprintf(sess.out, "Error: %v\n", err)
			}
			fmt.Fprintln(sess.out)
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if isDotCommand(line) {
			if quit := sess.runDotCommand(line); quit {
				return
			}
			continue
		}
		sess.runServerCommand(line)
	}
}

// runDotCommand handles a local command and reports whether the REPL should
// exit.
func (s *session) runDotCommand(line string) bool {
	dc, err := parseDotCommand(line)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return false
	}

	switch dc.name {
	case "quit":
		return true
	case "help":
		printHelp(s.out, strings.Join(dc.args, " "))
	case "connect":
		s.connectCommand(dc.args)
	case "disconnect":
		if err := s.client.Disconnect(); err != nil {
			renderError(s.out, err)
			break
		}
		fmt.Fprintln(s.out, "Disconnected")
	case "status":
		s.printStatus()
	case "commands":
		s.printCommands()
	case "reverse":
		on := !s.reverse.Load()
		s.reverse.Store(on)
		fmt.Fprintf(s.out, "Reverse listing %s\n", onOff(on))
	case "last":
		result, ok := s.client.LastResult()
		if !ok {
			fmt.Fprintln(s.out, "No result yet")
			break
		}
		renderResult(s.out, result, s.reverse.Load())
	case "size":
		fmt.Fprintf(s.out, "%d songs, %d directories\n",
			s.client.Entries().Size(), s.client.Directories().Size())
	default:
		fmt.Fprintf(s.out, "Error: Unknown command '.%s'. Type .help to see available commands.\n", dc.name)
	}
	return false
}

// runServerCommand sends line to the server and prints the result.
func (s *session) runServerCommand(line string) {
	cmd, err := translateCommand(line)
	if err != nil {
		renderError(s.out, err)
		return
	}

	ctx := context.Background()
	if s.client.State() == mpdprotocol.StateCancelled {
		if err := s.reconnect(ctx); err != nil {
			renderError(s.out, err)
			return
		}
	}

	var result mpdprotocol.CommandResult
	err = s.run(func() error {
		var err error
		result, err = s.client.Send(ctx, cmd)
		return err
	})
	if err != nil {
		renderError(s.out, err)
		s.explainFailure(cmd, err)
		return
	}
	renderResult(s.out, result, s.reverse.Load())
}

// explainFailure adds a hint after a failed command when the cause is
// likely to puzzle a user.
func (s *session) explainFailure(cmd mpdprotocol.Command, err error) {
	var ack *mpdprotocol.ProtocolError
	switch {
	case errors.As(err, &ack) && ack.Code == mpdprotocol.AckPermission:
		if ok, _ := s.client.IsCommandAvailable(cmd.Name); !ok {
			fmt.Fprintf(s.out, "'%s' is not allowed on this connection; send the password first.\n", cmd.Name)
		}
	case errors.Is(err, mpdprotocol.ErrCancelled), errors.Is(err, mpdprotocol.ErrNotConnected):
	case s.client.State() == mpdprotocol.StateDisconnected:
		fmt.Fprintln(s.out, "Connection lost. Use .connect to reconnect.")
	}
}

// reconnect reopens the connection after a cancel, to the same endpoint
// when there is one.
func (s *session) reconnect(ctx context.Context) error {
	host, port := s.client.HostAddress(), s.client.HostPort()
	return s.run(func() error {
		if host == "" {
			return s.client.ConnectDefault(ctx)
		}
		fmt.Fprintf(s.out, "Reconnecting to %s...\n", mpdprotocol.Address(host, port))
		return s.client.Connect(ctx, host, port)
	})
}

// connectDefault connects to the configured server.
func (s *session) connectDefault(ctx context.Context) error {
	err := s.run(func() error { return s.client.ConnectDefault(ctx) })
	if err == nil {
		s.printConnected()
	}
	return err
}

// connectCommand implements .connect [host [port]].
func (s *session) connectCommand(args []string) {
	if len(args) > 2 {
		fmt.Fprintln(s.out, "Usage: .connect [host [port]]")
		return
	}
	if s.client.State() != mpdprotocol.StateDisconnected {
		if err := s.client.Disconnect(); err != nil {
			renderError(s.out, err)
			return
		}
	}

	ctx := context.Background()
	if len(args) == 0 {
		if err := s.connectDefault(ctx); err != nil {
			renderError(s.out, err)
		}
		return
	}

	host, port := args[0], mpdprotocol.DefaultPort
	if len(args) == 2 {
		p, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(s.out, "Error: invalid port '%s'\n", args[1])
			return
		}
		port = p
	}
	if err := checkEndpoint(host); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}

	err := s.run(func() error { return s.client.Connect(ctx, host, port) })
	if err != nil {
		renderError(s.out, err)
		return
	}
	s.printConnected()
}

func (s *session) printConnected() {
	fmt.Fprintf(s.out, "Connected to %s (MPD %s)\n",
		mpdprotocol.Address(s.client.HostAddress(), s.client.HostPort()), s.client.Version())
}

// printStatus implements .status.
func (s *session) printStatus() {
	fmt.Fprintf(s.out, "State:    %s\n", s.client.State())
	host := s.client.HostAddress()
	if host == "" {
		return
	}
	fmt.Fprintf(s.out, "Server:   %s\n", mpdprotocol.Address(host, s.client.HostPort()))
	fmt.Fprintf(s.out, "Protocol: %s\n", s.client.Version())
	// The REPL goroutine is the only one that connects, so reading the
	// session id here does not race with a new connection.
	if id := s.client.ThreadUnsafeConnection().SessionID(); id != "" {
		fmt.Fprintf(s.out, "Session:  %s\n", id)
	}
}

// printCommands implements .commands, four names per line.
func (s *session) printCommands() {
	if !s.client.IsConnected() {
		fmt.Fprintln(s.out, "Error: not connected (use .connect)")
		return
	}
	names := s.client.ConnectionStatus().AvailableCommands()
	if names == nil {
		fmt.Fprintln(s.out, "The server did not list its commands.")
		return
	}
	for i, name := range names {
		sep := " "
		if i%4 == 3 || i == len(names)-1 {
			sep = "\n"
		}
		fmt.Fprintf(s.out, "%-20s%s", name, sep)
	}
	fmt.Fprintf(s.out, "%d commands\n", len(names))
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
