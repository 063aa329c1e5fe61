// =============================================================================
// help.go - Help System
// =============================================================================
//
// .help with no argument prints an overview of the dot-commands, the
// command aliases and a few common protocol commands. .help <topic> prints
// the detailed entry for one dot-command. Topics are matched case
// insensitively and a leading dot is ignored, so ".help .connect" and
// ".help CONNECT" both work.
//
// =============================================================================

package main

import (
	"fmt"
	"io"
	"strings"
)

// helpTopics holds the detailed help for every dot-command, keyed by the
// command name without its dot.
var helpTopics = map[string]string{
	"help": `.help [topic]
  Show the command overview, or detailed help for one command.
  Example: .help connect`,

	"quit": `.quit
  Disconnect and leave mpdc. Ctrl-D does the same.`,

	"connect": `.connect [host [port]]
  Connect to a server. Without arguments the configured server is used
  (flags, config file, MPD_HOST/MPD_PORT, local socket, localhost:6600).
  A host starting with '/' is a unix socket path and '@name' is an
  abstract socket; the port is ignored for both. An open connection is
  closed first.
  Examples: .connect
            .connect music.lan 6601
            .connect /run/mpd/socket`,

	"disconnect": `.disconnect
  Close the connection. Fails while a command is still running; press
  Ctrl-C to cancel it first.`,

	"status": `.status
  Show the connection state, server endpoint, protocol version and session
  id.`,

	"commands": `.commands
  List the commands the server allows for this connection. The list is
  read once when connecting, after the password is sent.`,

	"reverse": `.reverse
  Toggle reverse listing. When on, songs and directories are printed from
  last to first.`,

	"last": `.last
  Print the result of the last successful command again, using the
  current .reverse setting.`,

	"size": `.size
  Show how many songs and directories the last result holds.`,

	"aliases": `Aliases
  ls     lsinfo               la     listallinfo
  queue  playlistinfo         q      playlistinfo
  cur    currentsong          st     status
  pl     listplaylistinfo`,
}

// printHelp prints the overview when topic is empty, otherwise the entry for
// topic. Unknown topics produce an error message.
func printHelp(w io.Writer, topic string) {
	if topic == "" {
		printHelpOverview(w)
		return
	}

	key := strings.TrimPrefix(strings.ToLower(topic), ".")
	if text, ok := helpTopics[key]; ok {
		fmt.Fprintln(w, text)
		return
	}
	fmt.Fprintf(w, "Error: No help for '%s'. Type .help to see available commands.\n", topic)
}

// printHelpOverview prints the command summary.
func printHelpOverview(w io.Writer) {
	fmt.Fprint(w, `Local Commands:
  .help [topic]           Show help (or help for a specific command)
  .connect [host [port]]  Connect to a server
  .disconnect             Close the connection
  .status                 Show connection state and server version
  .commands               List commands the server allows
  .reverse                Toggle reverse listing of songs and directories
  .last                   Show the last result again
  .size                   Count songs and directories in the last result
  .quit                   Exit mpdc

Server Commands:
  Any other line is sent to the server. Quote arguments with spaces:
    lsinfo "Albums/Some Artist"
    playlistinfo
    status
`)
	fmt.Fprintf(w, "\nAliases: %s (see .help aliases)\n", strings.Join(aliasNames(), " "))
	fmt.Fprintln(w, "\nCtrl-C cancels a running command; the next command reconnects.")
}
