package mpdprotocol

import (
	"iter"
	"strings"
)

// CommandResult is the raw body of a successful response: every line the
// server sent before the terminating OK, each ending in '\n'. A
// CommandResult is immutable and safe to share between goroutines.
type CommandResult struct {
	Command Command
	Raw     string
}

// NewCommandResult creates a result for cmd holding raw response text.
func NewCommandResult(cmd Command, raw string) CommandResult {
	return CommandResult{Command: cmd, Raw: raw}
}

// IsEmpty reports whether the server returned no lines.
func (r CommandResult) IsEmpty() bool {
	return r.Raw == ""
}

// Fields yields the key and value of each "key: value" line in order,
// without splitting the whole result up front. Lines lacking a separator
// are yielded with an empty key and the line as value.
func (r CommandResult) Fields() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		rest := r.Raw
		for rest != "" {
			var line string
			line, rest, _ = strings.Cut(rest, "\n")
			key, value, ok := SplitField(line)
			if !ok {
				key, value = "", line
			}
			if !yield(key, value) {
				return
			}
		}
	}
}

// Value returns the value of the first line keyed by key.
func (r CommandResult) Value(key string) (string, bool) {
	for k, v := range r.Fields() {
		if k == key {
			return v, true
		}
	}
	return "", false
}

// Values returns the values of every line keyed by key, in order.
func (r CommandResult) Values(key string) []string {
	var values []string
	for k, v := range r.Fields() {
		if k == key {
			values = append(values, v)
		}
	}
	return values
}

// Lines returns the response split into lines.
func (r CommandResult) Lines() []string {
	if r.Raw == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(r.Raw, "\n"), "\n")
}
