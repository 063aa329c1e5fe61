// =============================================================================
// mockserver_test.go - Mock Music Player Daemon for Testing
// =============================================================================
//
// GO CONCEPT: Test Helpers (Shared Test Infrastructure)
// -----------------------------------------------------
// Files ending in _test.go are only compiled by "go test". Types declared
// here are visible to every other test file of the package, so the REPL
// and config tests share one mock server without exporting anything.
//
// The mock listens on a unix socket in a temporary directory, sends the
// greeting and answers each command line with whatever the test's handler
// returns. Handlers must include the OK or ACK terminator.
//
// =============================================================================

package main

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

// mockServer is a lightweight stand-in for a Music Player Daemon.
type mockServer struct {
	listener   net.Listener
	socketPath string
	handler    func(cmd string) string

	mu          sync.Mutex
	connections []net.Conn
	received    []string
	accepted    int

	wg sync.WaitGroup
}

// startMockServer starts a mock server on a temporary unix socket. It stops
// when the test finishes. A nil handler uses defaultMockHandler.
func startMockServer(t *testing.T, handler func(cmd string) string) *mockServer {
	t.Helper()

	// Keep the path short: unix socket paths are limited to about 100
	// bytes and t.TempDir() can be longer than that.
	tmpDir, err := os.MkdirTemp("/tmp", "mpdc-test-")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })
	socketPath := filepath.Join(tmpDir, "s.sock")

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("failed to create mock server socket: %v", err)
	}
	if handler == nil {
		handler = defaultMockHandler
	}

	ms := &mockServer{listener: listener, socketPath: socketPath, handler: handler}
	ms.wg.Add(1)
	go ms.acceptLoop()
	t.Cleanup(ms.stop)
	return ms
}

func (ms *mockServer) acceptLoop() {
	defer ms.wg.Done()
	for {
		conn, err := ms.listener.Accept()
		if err != nil {
			return
		}
		ms.mu.Lock()
		ms.connections = append(ms.connections, conn)
		ms.accepted++
		ms.mu.Unlock()

		ms.wg.Add(1)
		go ms.handleConnection(conn)
	}
}

func (ms *mockServer) handleConnection(conn net.Conn) {
	defer ms.wg.Done()
	if _, err := io.WriteString(conn, "OK MPD 0.23.5\n"); err != nil {
		return
	}
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		cmd := scanner.Text()
		ms.mu.Lock()
		ms.received = append(ms.received, cmd)
		ms.mu.Unlock()

		if cmd == "close" {
			conn.Close()
			return
		}
		if _, err := io.WriteString(conn, ms.handler(cmd)); err != nil {
			return
		}
	}
}

// commands returns every command line received so far.
func (ms *mockServer) commands() []string {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]string(nil), ms.received...)
}

// connectionCount returns the number of accepted connections.
func (ms *mockServer) connectionCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.accepted
}

// dropConnections closes every open client connection.
func (ms *mockServer) dropConnections() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for _, conn := range ms.connections {
		conn.Close()
	}
	ms.connections = nil
}

func (ms *mockServer) stop() {
	ms.listener.Close()
	ms.dropConnections()
	ms.wg.Wait()
	os.Remove(ms.socketPath)
}

// mockSongs is a two-song database listing.
const mockSongs = "file: Albums/One/a.mp3\nTime: 10\nArtist: Alpha\nTitle: First\n" +
	"file: Albums/One/b.mp3\nduration: 200.4\nTitle: Second\n"

// defaultMockHandler answers ping, commands, lsinfo and playlistinfo and
// rejects everything else as unknown.
func defaultMockHandler(cmd string) string {
	name, _, _ := strings.Cut(cmd, " ")
	switch name {
	case "ping":
		return "OK\n"
	case "commands":
		return "command: commands\ncommand: lsinfo\ncommand: ping\ncommand: playlistinfo\ncommand: status\nOK\n"
	case "status":
		return "volume: 50\nstate: stop\nOK\n"
	case "lsinfo":
		return "directory: Albums/One\nLast-Modified: 2024-01-02T03:04:05Z\n" + mockSongs + "playlist: mix\nOK\n"
	case "playlistinfo":
		return mockSongs + "OK\n"
	default:
		return fmt.Sprintf("ACK [5@0] {} unknown command \"%s\"\n", name)
	}
}
