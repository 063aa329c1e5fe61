// Package mpdprotocol implements the client side of the Music Player Daemon
// text protocol.
//
// Protocol Format:
//
//	Greeting (Server -> Client):  OK MPD <major>.<minor>.<micro>\n
//	Request (Client -> Server):   <command> [arguments...]\n
//	Response body:                <key>: <value>\n (zero or more)
//	Success terminator:           OK\n
//	Error terminator:             ACK [<code>@<index>] {<command>} <message>\n
//
// Example Session:
//
//	SRV: OK MPD 0.23.5
//	CLI: lsinfo "Albums/Foo"
//	SRV: file: Albums/Foo/01.flac
//	SRV: Time: 241
//	SRV: file: Albums/Foo/02.flac
//	SRV: Time: 198
//	SRV: OK
package mpdprotocol

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Protocol constants.
const (
	// GreetingPrefix starts the line the server sends right after accept.
	GreetingPrefix = "OK MPD "

	// OKLine terminates a successful response.
	OKLine = "OK"

	// AckPrefix starts the line that terminates a failed response.
	AckPrefix = "ACK "

	// FieldSeparator separates a key from its value on a response line.
	FieldSeparator = ": "

	// DefaultHost is used when no host is configured.
	DefaultHost = "localhost"

	// DefaultPort is the server's well-known TCP port.
	DefaultPort = 6600

	// MaxLineLength is the maximum accepted length of a response line in
	// bytes. Tag values (lyrics, comments) can be long, hence the headroom.
	MaxLineLength = 1 << 20

	// CommandTimeout is the default timeout for a single command.
	CommandTimeout = 30 * time.Second

	// ConnectionTimeout is the timeout for establishing connections.
	ConnectionTimeout = 5 * time.Second
)

// Version is a negotiated protocol version. The zero value means the version
// has not been negotiated yet.
type Version struct {
	Major, Minor, Micro int
}

// ParseVersion parses "major.minor[.micro]".
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) < 2 || len(parts) > 3 {
		return Version{}, newInvalidVersionError(s)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, newInvalidVersionError(s)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Micro: nums[2]}, nil
}

// IsZero reports whether the version is still unknown.
func (v Version) IsZero() bool {
	return v == Version{}
}

// AtLeast reports whether v is at or above major.minor. Micro releases do not
// add features and are ignored.
func (v Version) AtLeast(major, minor int) bool {
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Micro)
}

// Address joins host and port into a dial address. Hosts starting with "/"
// or "@" name unix sockets (filesystem or abstract) and are returned as-is.
func Address(host string, port int) string {
	if IsSocketPath(host) {
		return host
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// IsSocketPath reports whether host names a unix domain socket.
func IsSocketPath(host string) bool {
	return strings.HasPrefix(host, "/") || strings.HasPrefix(host, "@")
}

// SocketCandidates returns the unix socket paths a local server usually
// listens on, in search order.
func SocketCandidates() []string {
	var paths []string
	if runtime := os.Getenv("XDG_RUNTIME_DIR"); runtime != "" {
		paths = append(paths, filepath.Join(runtime, "mpd", "socket"))
	}
	return append(paths, "/run/mpd/socket", "/var/run/mpd/socket")
}

// DiscoverSocket finds a local server socket.
// Returns empty string if no socket is found.
func DiscoverSocket() string {
	for _, path := range SocketCandidates() {
		info, err := os.Stat(path)
		if err != nil {
			continue // Skip missing or inaccessible sockets
		}
		if info.Mode()&os.ModeSocket != 0 {
			return path
		}
	}
	return ""
}
