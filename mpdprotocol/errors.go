package mpdprotocol

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the media server protocol.
var (
	// ErrLineTooLong indicates a protocol line exceeded MaxLineLength.
	ErrLineTooLong = errors.New("line too long")

	// ErrNotConnected indicates an operation was attempted without a connection.
	ErrNotConnected = errors.New("not connected")

	// ErrStateConflict indicates a lifecycle operation that is not valid in
	// the current connection state.
	ErrStateConflict = errors.New("connection state conflict")

	// ErrAlreadyConnected indicates connect was called while already connected.
	ErrAlreadyConnected = fmt.Errorf("%w: already connected", ErrStateConflict)

	// ErrCancelled is returned for every command send attempted after Cancel
	// and before the next successful connect.
	ErrCancelled = errors.New("connection cancelled")

	// ErrNoDefaultAddress indicates ConnectDefault was called without a
	// configured default host and port.
	ErrNoDefaultAddress = errors.New("no default address configured")

	// ErrInvalidArgument indicates a caller supplied an out-of-range or
	// malformed argument.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNoSuchElement is returned by iterators stepped past either end.
	ErrNoSuchElement = errors.New("no such element")

	// ErrUnsupported is returned by read-only views for mutating operations.
	ErrUnsupported = fmt.Errorf("read-only result: %w", errors.ErrUnsupported)
)

// ParseError represents an error that occurred while parsing command text or
// a server status line.
type ParseError struct {
	Kind    ParseErrorKind
	Value   string // The invalid value that caused the error
	Message string // Additional context
}

// ParseErrorKind categorizes parsing errors.
type ParseErrorKind int

const (
	// ErrKindInvalidCommand indicates an unknown or malformed command name.
	ErrKindInvalidCommand ParseErrorKind = iota
	// ErrKindUnterminatedQuote indicates a quoted argument with no closing quote.
	ErrKindUnterminatedQuote
	// ErrKindInvalidGreeting indicates the server greeting was not "OK MPD x.y.z".
	ErrKindInvalidGreeting
	// ErrKindInvalidVersion indicates a malformed protocol version.
	ErrKindInvalidVersion
	// ErrKindMissingArgument indicates a required argument was not provided.
	ErrKindMissingArgument
	// ErrKindUnexpectedResponse indicates an unexpected response format.
	ErrKindUnexpectedResponse
)

// Error implements the error interface.
func (e *ParseError) Error() string {
	switch e.Kind {
	case ErrKindInvalidCommand:
		return fmt.Sprintf("invalid command '%s'", e.Value)
	case ErrKindUnterminatedQuote:
		return fmt.Sprintf("unterminated quote in '%s'", e.Value)
	case ErrKindInvalidGreeting:
		return fmt.Sprintf("invalid server greeting '%s'", e.Value)
	case ErrKindInvalidVersion:
		return fmt.Sprintf("invalid protocol version '%s'", e.Value)
	case ErrKindMissingArgument:
		return e.Message
	case ErrKindUnexpectedResponse:
		return fmt.Sprintf("unexpected response: %s", e.Value)
	default:
		return fmt.Sprintf("parse error: %s", e.Value)
	}
}

// Is reports invalid command names as invalid arguments so that callers of
// IsCommandAvailable can match them with errors.Is(err, ErrInvalidArgument).
func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidArgument && e.Kind == ErrKindInvalidCommand
}

func newInvalidCommandError(cmd string) error {
	return &ParseError{Kind: ErrKindInvalidCommand, Value: cmd}
}

func newUnterminatedQuoteError(line string) error {
	return &ParseError{Kind: ErrKindUnterminatedQuote, Value: line}
}

func newInvalidGreetingError(line string) error {
	return &ParseError{Kind: ErrKindInvalidGreeting, Value: line}
}

func newInvalidVersionError(v string) error {
	return &ParseError{Kind: ErrKindInvalidVersion, Value: v}
}

func newMissingArgumentError(msg string) error {
	return &ParseError{Kind: ErrKindMissingArgument, Message: msg}
}

func newUnexpectedResponseError(resp string) error {
	return &ParseError{Kind: ErrKindUnexpectedResponse, Value: resp}
}

// ConnectionError represents a connection-related error.
type ConnectionError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("connection failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("connection failed: %s", e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// NewConnectionError creates a new connection error.
func NewConnectionError(message string, cause error) error {
	return &ConnectionError{Message: message, Cause: cause}
}

// AckCode is the numeric error code carried by an ACK line.
type AckCode int

// Error codes reported by the server.
const (
	AckNotList       AckCode = 1
	AckArg           AckCode = 2
	AckPassword      AckCode = 3
	AckPermission    AckCode = 4
	AckUnknown       AckCode = 5
	AckNoExist       AckCode = 50
	AckPlaylistMax   AckCode = 51
	AckSystem        AckCode = 52
	AckPlaylistLoad  AckCode = 53
	AckUpdateAlready AckCode = 54
	AckPlayerSync    AckCode = 55
	AckExist         AckCode = 56
)

var ackCodeNames = map[AckCode]string{
	AckNotList:       "not_list",
	AckArg:           "arg",
	AckPassword:      "password",
	AckPermission:    "permission",
	AckUnknown:       "unknown",
	AckNoExist:       "no_exist",
	AckPlaylistMax:   "playlist_max",
	AckSystem:        "system",
	AckPlaylistLoad:  "playlist_load",
	AckUpdateAlready: "update_already",
	AckPlayerSync:    "player_sync",
	AckExist:         "exist",
}

// String returns the server's symbolic name for the code.
func (c AckCode) String() string {
	if name, ok := ackCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ack(%d)", int(c))
}

// ProtocolError is a command failure reported by the server with an ACK line:
//
//	ACK [code@index] {command} message
type ProtocolError struct {
	Code      AckCode
	ListIndex int    // Position of the failing command inside a command list
	Command   string // Command the server was executing, may be empty
	Message   string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "server error %s", e.Code)
	if e.Command != "" {
		fmt.Fprintf(&b, " in '%s'", e.Command)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// DecodeError reports a result block that does not match the grammar of the
// entity it was decoded into.
type DecodeError struct {
	Entity string // Entity type name, e.g. "entry"
	Field  string // Offending field, empty when the line had no key
	Line   string // Offending line
	Cause  error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("decode %s", e.Entity)
	if e.Field != "" {
		msg += fmt.Sprintf(" field '%s'", e.Field)
	}
	if e.Line != "" {
		msg += fmt.Sprintf(" at line '%s'", e.Line)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *DecodeError) Unwrap() error {
	return e.Cause
}
