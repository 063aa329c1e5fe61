// =============================================================================
// lineeditor.go - Line Editor with Dual-Mode Operation
// =============================================================================
//
// The REPL reads its input through a LineEditor that picks one of two modes
// when it is created:
//
//   - Interactive mode: ergochat/readline gives Emacs keybindings, history
//     recall and Ctrl-R search. Used when stdin is a terminal.
//   - Non-interactive mode: a bufio.Scanner reads line by line and the
//     prompt is written by hand. Used for piped input, scripts and Emacs
//     shell buffers (INSIDE_EMACS is set).
//
// History is kept in ~/.mpdc_history. Its length comes from the
// history_size config setting.
//
// =============================================================================

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"golang.org/x/term"
)

const (
	// historyFileName is the history file in the user's home directory.
	historyFileName = ".mpdc_history"

	// defaultHistorySize is the number of history entries kept when the
	// config file does not say otherwise.
	defaultHistorySize = 500
)

// LineEditor reads REPL input in interactive (readline) or non-interactive
// (scanner) mode.
type LineEditor struct {
	interactive bool

	// rl is set in interactive mode only.
	rl *readline.Instance

	// scanner and out are set in non-interactive mode only. Prompts are
	// written to out.
	scanner *bufio.Scanner
	out     io.Writer
}

// GO CONCEPT: Detecting a Terminal
// --------------------------------
// term.IsTerminal asks the OS whether a file descriptor is attached to a
// terminal device. When it is not, input comes from a pipe or file and
// there is nobody to edit lines, so the cheap scanner path is used.
//
// Compare with Python: sys.stdin.isatty().

// NewLineEditor creates a LineEditor on stdin, choosing the mode from the
// terminal state. historySize bounds the readline history.
func NewLineEditor(historySize int) *LineEditor {
	interactive := term.IsTerminal(int(os.Stdin.Fd())) &&
		os.Getenv("INSIDE_EMACS") == ""
	if !interactive {
		return newPipedLineEditor(os.Stdin, os.Stdout)
	}

	if historySize <= 0 {
		historySize = defaultHistorySize
	}
	rl, err := readline.NewFromConfig(&readline.Config{
		HistoryFile:  historyPath(homeDir()),
		HistoryLimit: historySize,
		// Only non-empty lines are saved, by hand in getInteractiveLine.
		DisableAutoSaveHistory: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: readline init failed (%v), using basic input\n", err)
		return newPipedLineEditor(os.Stdin, os.Stdout)
	}
	return &LineEditor{interactive: true, rl: rl}
}

// newPipedLineEditor creates a non-interactive LineEditor reading from in
// and writing prompts to out.
func newPipedLineEditor(in io.Reader, out io.Writer) *LineEditor {
	scanner := bufio.NewScanner(in)
	// Command lines can carry long quoted paths.
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	return &LineEditor{scanner: scanner, out: out}
}

// historyPath returns the history file location under home.
func historyPath(home string) string {
	return filepath.Join(home, historyFileName)
}

// GetLine reads one line, showing prompt first. It returns io.EOF on Ctrl-D
// or when piped input is exhausted.
//
// In interactive mode Ctrl-C at the prompt abandons the current line and
// returns an empty string rather than ending the session; Ctrl-C during a
// command is handled by the signal handler instead.
func (le *LineEditor) GetLine(prompt string) (string, error) {
	if le.interactive {
		return le.getInteractiveLine(prompt)
	}
	return le.getNonInteractiveLine(prompt)
}

func (le *LineEditor) getInteractiveLine(prompt string) (string, error) {
	le.rl.SetPrompt(prompt)
	line, err := le.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if trimmed := strings.TrimSpace(line); trimmed != "" {
		le.rl.SaveToHistory(trimmed)
	}
	return line, nil
}

func (le *LineEditor) getNonInteractiveLine(prompt string) (string, error) {
	fmt.Fprint(le.out, prompt)
	if !le.scanner.Scan() {
		if err := le.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return le.scanner.Text(), nil
}

// Close saves history and releases the terminal. It is safe to call more
// than once and is a no-op in non-interactive mode.
func (le *LineEditor) Close() {
	if le.rl != nil {
		le.rl.Close()
		le.rl = nil
	}
}

// IsInteractive reports whether the editor runs on a terminal.
func (le *LineEditor) IsInteractive() bool {
	return le.interactive
}
