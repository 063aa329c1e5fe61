// =============================================================================
// translate.go - REPL Input Translation
// =============================================================================
//
// Turns a line typed at the REPL into either a local dot-command or a
// protocol command. Protocol commands are parsed by mpdprotocol's
// CommandParser, so quoting works the way the server expects:
//
//	lsinfo "Albums/Some Artist"     ->  lsinfo "Albums/Some Artist"
//	ls Albums                       ->  lsinfo Albums
//	queue                           ->  playlistinfo
//
// A few short aliases expand to the full command name. Everything else is
// sent as typed.
//
// =============================================================================

package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mpdcomm/mpdcomm/mpdprotocol"
)

// commandAliases maps REPL shortcuts to protocol command names.
var commandAliases = map[string]string{
	"ls":    mpdprotocol.CmdLsInfo,
	"la":    mpdprotocol.CmdListAllInfo,
	"queue": mpdprotocol.CmdPlaylistInfo,
	"q":     mpdprotocol.CmdPlaylistInfo,
	"cur":   mpdprotocol.CmdCurrentSong,
	"st":    mpdprotocol.CmdStatus,
	"pl":    mpdprotocol.CmdListPlaylist,
}

// aliasNames returns the aliases in sorted order.
func aliasNames() []string {
	names := make([]string, 0, len(commandAliases))
	for name := range commandAliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// translateCommand parses a protocol command line and expands aliases.
func translateCommand(line string) (mpdprotocol.Command, error) {
	cmd, err := mpdprotocol.NewCommandParser().Parse(line)
	if err != nil {
		return mpdprotocol.Command{}, err
	}
	if full, ok := commandAliases[cmd.Name]; ok {
		cmd.Name = full
	}
	return cmd, nil
}

// dotCommand is a parsed local command such as ".connect host 6600".
type dotCommand struct {
	name string
	args []string
}

// isDotCommand reports whether line is a local command.
func isDotCommand(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), ".")
}

// GO CONCEPT: strings.Fields
// --------------------------
// Fields splits on any run of whitespace and drops empty pieces, so
// ".connect   host  6600" yields three words. Dot-command arguments are
// host names, ports and topics, none of which contain spaces, so the
// quoting rules of protocol commands are not needed here.

// parseDotCommand splits a dot-command line. The name is lowercased and
// keeps no leading dot.
func parseDotCommand(line string) (dotCommand, error) {
	words := strings.Fields(strings.TrimSpace(line))
	if len(words) == 0 || !strings.HasPrefix(words[0], ".") {
		return dotCommand{}, fmt.Errorf("not a dot-command: %q", line)
	}
	name := strings.ToLower(strings.TrimPrefix(words[0], "."))
	if name == "" {
		return dotCommand{}, fmt.Errorf("missing command name after '.'")
	}
	return dotCommand{name: name, args: words[1:]}, nil
}
