package mpdprotocol

import (
	"strings"
)

// Command names used by this package and the bundled CLI.
const (
	CmdPing         = "ping"
	CmdPassword     = "password"
	CmdClose        = "close"
	CmdCommands     = "commands"
	CmdNotCommands  = "notcommands"
	CmdStatus       = "status"
	CmdStats        = "stats"
	CmdCurrentSong  = "currentsong"
	CmdPlaylistInfo = "playlistinfo"
	CmdListAllInfo  = "listallinfo"
	CmdLsInfo       = "lsinfo"
	CmdFind         = "find"
	CmdSearch       = "search"
	CmdListPlaylist = "listplaylistinfo"
	CmdUpdate       = "update"
	CmdIdle         = "idle"
	CmdNoIdle       = "noidle"
)

// Command is a single protocol command with its arguments.
// Use NewCommand or the CommandParser to create Command instances.
type Command struct {
	Name string
	Args []string
}

// NewCommand creates a command. Arguments are quoted as needed by Format.
func NewCommand(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

// NewPingCommand creates the no-op keepalive command.
func NewPingCommand() Command {
	return NewCommand(CmdPing)
}

// NewPasswordCommand creates the authentication command.
func NewPasswordCommand(password string) Command {
	return NewCommand(CmdPassword, password)
}

// NewCommandsCommand creates the command listing the commands available to
// the current client.
func NewCommandsCommand() Command {
	return NewCommand(CmdCommands)
}

// NewLsInfoCommand lists the contents of a database directory.
func NewLsInfoCommand(path string) Command {
	if path == "" {
		return NewCommand(CmdLsInfo)
	}
	return NewCommand(CmdLsInfo, path)
}

// NewListAllInfoCommand lists every song below path recursively.
func NewListAllInfoCommand(path string) Command {
	if path == "" {
		return NewCommand(CmdListAllInfo)
	}
	return NewCommand(CmdListAllInfo, path)
}

// NewPlaylistInfoCommand lists the songs of the queue.
func NewPlaylistInfoCommand() Command {
	return NewCommand(CmdPlaylistInfo)
}

// Format returns the command formatted for transmission, without the line
// terminator.
func (c Command) Format() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	var b strings.Builder
	b.WriteString(c.Name)
	for _, arg := range c.Args {
		b.WriteByte(' ')
		b.WriteString(quoteArgument(arg))
	}
	return b.String()
}

// FormatLine returns the command formatted for transmission, including the
// trailing newline.
func (c Command) FormatLine() string {
	return c.Format() + "\n"
}

// String implements fmt.Stringer. The argument of a password command is
// masked so commands can be logged.
func (c Command) String() string {
	if c.Name == CmdPassword && len(c.Args) > 0 {
		return CmdPassword + " ******"
	}
	return c.Format()
}

// quoteArgument double-quotes arg when it is empty or contains characters
// that would split or corrupt it on the wire, escaping '"' and '\'.
func quoteArgument(arg string) string {
	if arg != "" && !strings.ContainsAny(arg, " \t\"\\'") {
		return arg
	}
	var b strings.Builder
	b.Grow(len(arg) + 2)
	b.WriteByte('"')
	for i := 0; i < len(arg); i++ {
		if arg[i] == '"' || arg[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(arg[i])
	}
	b.WriteByte('"')
	return b.String()
}

// ValidateCommandName checks that name is a syntactically valid command
// name: one or more lowercase ASCII letters or underscores.
func ValidateCommandName(name string) error {
	if name == "" {
		return newInvalidCommandError(name)
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		if (ch < 'a' || ch > 'z') && ch != '_' {
			return newInvalidCommandError(name)
		}
	}
	return nil
}
