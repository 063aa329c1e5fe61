package mpdprotocol

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// fakeServer speaks the server side of the protocol on a TCP or unix socket.
// Each accepted connection gets the greeting, then every command line is
// answered with whatever handler returns, which must include the OK or ACK
// terminator.
type fakeServer struct {
	listener net.Listener
	greeting string
	handler  func(cmd string) string

	mu       sync.Mutex
	conns    []net.Conn
	received []string
	accepted int

	wg sync.WaitGroup
}

func startFakeServer(t *testing.T, handler func(cmd string) string) *fakeServer {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	return serve(t, listener, handler)
}

func startFakeUnixServer(t *testing.T, handler func(cmd string) string) (*fakeServer, string) {
	t.Helper()
	// Short path: unix socket paths are limited to about 100 bytes.
	dir, err := os.MkdirTemp("/tmp", "mpd-test-")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	path := filepath.Join(dir, "s.sock")

	listener, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	return serve(t, listener, handler), path
}

func serve(t *testing.T, listener net.Listener, handler func(cmd string) string) *fakeServer {
	t.Helper()
	if handler == nil {
		handler = defaultFakeHandler
	}
	s := &fakeServer{listener: listener, greeting: "OK MPD 0.23.5\n", handler: handler}
	s.wg.Add(1)
	go s.acceptLoop()
	t.Cleanup(s.stop)
	return s
}

// hostPort returns the TCP endpoint of the server.
func (s *fakeServer) hostPort() (string, int) {
	addr := s.listener.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

func (s *fakeServer) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.accepted++
		greeting := s.greeting
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handleConnection(conn, greeting)
	}
}

func (s *fakeServer) handleConnection(conn net.Conn, greeting string) {
	defer s.wg.Done()
	if _, err := io.WriteString(conn, greeting); err != nil {
		return
	}
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		cmd := scanner.Text()
		s.mu.Lock()
		s.received = append(s.received, cmd)
		s.mu.Unlock()

		if cmd == CmdClose {
			conn.Close()
			return
		}
		if _, err := io.WriteString(conn, s.handler(cmd)); err != nil {
			return
		}
	}
}

// commands returns the command lines received so far.
func (s *fakeServer) commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.received...)
}

func (s *fakeServer) connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted
}

// dropConnections closes every open client connection.
func (s *fakeServer) dropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		c.Close()
	}
	s.conns = nil
}

func (s *fakeServer) stop() {
	s.listener.Close()
	s.dropConnections()
	s.wg.Wait()
}

const fakeSongs = "file: a.mp3\nTime: 10\nfile: b.mp3\nTime: 20\n"

func defaultFakeHandler(cmd string) string {
	name, _, _ := strings.Cut(cmd, " ")
	switch name {
	case CmdPing:
		return "OK\n"
	case CmdCommands:
		return "command: commands\ncommand: lsinfo\ncommand: ping\ncommand: playlistinfo\nOK\n"
	case CmdLsInfo, CmdPlaylistInfo:
		return fakeSongs + "OK\n"
	default:
		return fmt.Sprintf("ACK [5@0] {} unknown command \"%s\"\n", name)
	}
}

// startSilentListener accepts TCP connections but never sends a greeting.
// A value is sent on the returned channel for every accepted connection.
func startSilentListener(t *testing.T) (string, int, <-chan struct{}) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	accepted := make(chan struct{}, 4)
	var (
		mu    sync.Mutex
		conns []net.Conn
		wg    sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
			select {
			case accepted <- struct{}{}:
			default:
			}
		}
	}()
	t.Cleanup(func() {
		listener.Close()
		wg.Wait()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			c.Close()
		}
	})
	addr := listener.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port, accepted
}
