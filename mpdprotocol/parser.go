package mpdprotocol

import (
	"strconv"
	"strings"
)

// CommandParser parses protocol commands from user-entered text lines.
type CommandParser struct{}

// NewCommandParser creates a new command parser.
func NewCommandParser() *CommandParser {
	return &CommandParser{}
}

// Parse parses a command line into a Command. Arguments are separated by
// whitespace; double-quoted arguments may contain whitespace and use
// backslash to escape '"' and '\'.
func (p *CommandParser) Parse(line string) (Command, error) {
	commandLine := strings.TrimSpace(line)
	if len(commandLine) > MaxLineLength {
		return Command{}, ErrLineTooLong
	}

	words, err := splitArguments(commandLine)
	if err != nil {
		return Command{}, err
	}
	if len(words) == 0 {
		return Command{}, newMissingArgumentError("empty command")
	}

	name := strings.ToLower(words[0])
	if err := ValidateCommandName(name); err != nil {
		return Command{}, err
	}
	return NewCommand(name, words[1:]...), nil
}

// splitArguments splits a command line into words, honouring double quotes.
func splitArguments(line string) ([]string, error) {
	var (
		words   []string
		current strings.Builder
		inWord  bool
		quoted  bool
	)
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case quoted && ch == '\\' && i+1 < len(line):
			i++
			current.WriteByte(line[i])
		case quoted && ch == '"':
			quoted = false
		case quoted:
			current.WriteByte(ch)
		case ch == '"':
			quoted = true
			inWord = true
		case ch == ' ' || ch == '\t':
			if inWord {
				words = append(words, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteByte(ch)
			inWord = true
		}
	}
	if quoted {
		return nil, newUnterminatedQuoteError(line)
	}
	if inWord {
		words = append(words, current.String())
	}
	return words, nil
}

// ParseGreeting extracts the protocol version from the server greeting.
func ParseGreeting(line string) (Version, error) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, GreetingPrefix) {
		return Version{}, newInvalidGreetingError(line)
	}
	v, err := ParseVersion(line[len(GreetingPrefix):])
	if err != nil {
		return Version{}, newInvalidGreetingError(line)
	}
	return v, nil
}

// ParseAck parses an error terminator line:
//
//	ACK [50@0] {play} song doesn't exist: "10240"
func ParseAck(line string) (*ProtocolError, error) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, AckPrefix) {
		return nil, newUnexpectedResponseError(line)
	}
	rest := line[len(AckPrefix):]

	if !strings.HasPrefix(rest, "[") {
		return nil, newUnexpectedResponseError(line)
	}
	closing := strings.IndexByte(rest, ']')
	if closing < 0 {
		return nil, newUnexpectedResponseError(line)
	}
	codePart, indexPart, ok := strings.Cut(rest[1:closing], "@")
	if !ok {
		return nil, newUnexpectedResponseError(line)
	}
	code, err := strconv.Atoi(codePart)
	if err != nil {
		return nil, newUnexpectedResponseError(line)
	}
	index, err := strconv.Atoi(indexPart)
	if err != nil {
		return nil, newUnexpectedResponseError(line)
	}
	rest = strings.TrimLeft(rest[closing+1:], " ")

	ack := &ProtocolError{Code: AckCode(code), ListIndex: index}
	if strings.HasPrefix(rest, "{") {
		if end := strings.IndexByte(rest, '}'); end >= 0 {
			ack.Command = rest[1:end]
			rest = strings.TrimLeft(rest[end+1:], " ")
		}
	}
	ack.Message = rest
	return ack, nil
}

// SplitField splits a response line into key and value. ok is false when
// the line has no ": " separator.
func SplitField(line string) (key, value string, ok bool) {
	return strings.Cut(line, FieldSeparator)
}
