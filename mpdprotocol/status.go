package mpdprotocol

import (
	"maps"
	"slices"
	"sync/atomic"
)

// statusSnapshot is one immutable view of the negotiated server state.
type statusSnapshot struct {
	version  Version
	commands map[string]struct{} // nil until the server listed its commands
}

// ConnectionStatus records the protocol version and the commands the server
// advertised for the current session. Writers replace the whole snapshot, so
// readers never block and never observe a half-updated state.
type ConnectionStatus struct {
	snapshot atomic.Pointer[statusSnapshot]
}

// NewConnectionStatus creates a status in the not-yet-negotiated state.
func NewConnectionStatus() *ConnectionStatus {
	s := &ConnectionStatus{}
	s.snapshot.Store(&statusSnapshot{})
	return s
}

func (s *ConnectionStatus) load() *statusSnapshot {
	if snap := s.snapshot.Load(); snap != nil {
		return snap
	}
	return &statusSnapshot{}
}

// Version returns the negotiated version, zero when not connected.
func (s *ConnectionStatus) Version() Version {
	return s.load().version
}

// SetVersion overwrites the version, keeping the command set.
func (s *ConnectionStatus) SetVersion(major, minor, micro int) {
	for {
		old := s.snapshot.Load()
		next := &statusSnapshot{version: Version{Major: major, Minor: minor, Micro: micro}}
		if old != nil {
			next.commands = old.commands
		}
		if s.snapshot.CompareAndSwap(old, next) {
			return
		}
	}
}

// SetAvailableCommands replaces the set of available commands, keeping the
// version.
func (s *ConnectionStatus) SetAvailableCommands(commands []string) {
	set := make(map[string]struct{}, len(commands))
	for _, c := range commands {
		set[c] = struct{}{}
	}
	for {
		old := s.snapshot.Load()
		next := &statusSnapshot{commands: set}
		if old != nil {
			next.version = old.version
		}
		if s.snapshot.CompareAndSwap(old, next) {
			return
		}
	}
}

// replace installs a complete new state in one step. A nil commands slice
// leaves the command set unknown.
func (s *ConnectionStatus) replace(version Version, commands []string) {
	var set map[string]struct{}
	if commands != nil {
		set = make(map[string]struct{}, len(commands))
		for _, c := range commands {
			set[c] = struct{}{}
		}
	}
	s.snapshot.Store(&statusSnapshot{version: version, commands: set})
}

// Reset returns the status to the not-yet-negotiated state.
func (s *ConnectionStatus) Reset() {
	s.snapshot.Store(&statusSnapshot{})
}

// IsConnected reports whether a version has been negotiated.
func (s *ConnectionStatus) IsConnected() bool {
	return !s.load().version.IsZero()
}

// IsProtocolVersionSupported reports whether the server speaks at least
// major.minor. It returns true before a version is negotiated so that
// feature checks made ahead of connecting do not fail spuriously.
func (s *ConnectionStatus) IsProtocolVersionSupported(major, minor int) bool {
	v := s.load().version
	return v.IsZero() || v.AtLeast(major, minor)
}

// IsCommandAvailable reports whether the server listed command as
// available. Before the server listed its commands every well-formed name is
// reported available. Malformed names fail with an error matching
// ErrInvalidArgument.
func (s *ConnectionStatus) IsCommandAvailable(command string) (bool, error) {
	if err := ValidateCommandName(command); err != nil {
		return false, err
	}
	commands := s.load().commands
	if commands == nil {
		return true, nil
	}
	_, ok := commands[command]
	return ok, nil
}

// AvailableCommands returns the advertised commands in sorted order, nil
// when unknown.
func (s *ConnectionStatus) AvailableCommands() []string {
	commands := s.load().commands
	if commands == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(commands))
}
