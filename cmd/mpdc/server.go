// =============================================================================
// server.go - Server Location
// =============================================================================
//
// Decides which server mpdc talks to. The search order:
//   1. A host or port named by a flag, the config file or MPD_HOST/MPD_PORT
//   2. A local unix socket (mpdprotocol.DiscoverSocket):
//      $XDG_RUNTIME_DIR/mpd/socket, /run/mpd/socket, /var/run/mpd/socket
//   3. localhost:6600
//
// A host beginning with '/' is a socket path; one beginning with '@' is a
// Linux abstract socket name.
//
// =============================================================================

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mpdcomm/mpdcomm/mpdprotocol"
)

// serverEndpoint is where mpdc connects and why it chose that place.
type serverEndpoint struct {
	host   string
	port   int
	source string
}

// Endpoint sources, printed when connecting.
const (
	sourceConfigured = "configured"
	sourceSocket     = "local socket"
	sourceDefault    = "default"
)

// locateServer picks the endpoint for s. discover is normally
// mpdprotocol.DiscoverSocket and returns "" when no socket exists.
func locateServer(s settings, discover func() string) serverEndpoint {
	if s.explicit {
		return serverEndpoint{host: s.host, port: s.port, source: sourceConfigured}
	}
	if path := discover(); path != "" {
		return serverEndpoint{host: path, port: s.port, source: sourceSocket}
	}
	return serverEndpoint{host: s.host, port: s.port, source: sourceDefault}
}

// checkEndpoint reports a socket path that does not name a socket. It saves
// a confusing dial error for the common typo case. Abstract sockets and TCP
// hosts are not checked.
func checkEndpoint(host string) error {
	if !mpdprotocol.IsSocketPath(host) || strings.HasPrefix(host, "@") {
		return nil
	}
	if !isSocket(host) {
		return fmt.Errorf("%s is not a unix socket", host)
	}
	return nil
}

// isSocket checks whether path exists and is a unix socket.
func isSocket(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeSocket != 0
}

// homeDir returns the current user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}
