// =============================================================================
// main.go - mpdc Entry Point
// =============================================================================
//
// mpdc is an interactive client for a Music Player Daemon. It connects over
// TCP or a local unix socket, then runs a REPL (Read-Eval-Print Loop) where
// every line is either a local dot-command or a protocol command sent to the
// server. List results are decoded into songs and directories and printed in
// order or in reverse.
//
// Usage:
//
//	mpdc                              Connect to $MPD_HOST, a local socket or localhost:6600
//	mpdc -H music.lan -p 6601         Connect to a specific server
//	mpdc --config ~/mpdc.yaml         Use another config file
//	mpdc --help                       Show help
//
// Settings come from flags, the config file, MPD_* environment variables
// and built-in defaults, in that order of precedence.
//
// =============================================================================

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/mpdcomm/mpdcomm/mpdprotocol"
)

// =============================================================================
// Version Information
// =============================================================================

const (
	// version is the current version of mpdc.
	version = "0.3.0"

	// appName is the application name.
	appName = "mpdc"

	// copyright is the copyright notice.
	copyright = "Copyright (c) 2026"
)

// fullTitle returns the application name with version.
func fullTitle() string {
	return fmt.Sprintf("%s v%s", appName, version)
}

// welcomeBanner returns the text printed when an interactive session starts.
func welcomeBanner() string {
	return fmt.Sprintf(`%s - Music Player Daemon shell
%s

Type .help for available commands, .quit to exit.
Ctrl-C cancels a running command.

`, fullTitle(), copyright)
}

// =============================================================================
// Command-Line Arguments
// =============================================================================

// arguments holds the parsed command-line flags. Zero values mean "not given
// on the command line", so the config file and environment can fill them in.
type arguments struct {
	host       string
	port       int
	password   string
	configPath string
	plain      bool
	verbose    bool

	showHelp    bool
	showVersion bool
}

// GO CONCEPT: Flag Sets
// ---------------------
// pflag.NewFlagSet builds an isolated set of flags instead of using the
// package-level default set. With ContinueOnError, Parse returns an error
// rather than calling os.Exit, so the parser can be tested with arbitrary
// argument slices. pflag adds GNU-style long flags (--host) with one-letter
// shorthands (-H) on top of the standard flag package's model.
//
// Compare with Python: argparse.ArgumentParser(exit_on_error=False) with
// add_argument("-H", "--host") is the closest match.

// newFlagSet declares every flag mpdc understands, bound to args.
func newFlagSet(args *arguments) *pflag.FlagSet {
	fs := pflag.NewFlagSet(appName, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false

	fs.StringVarP(&args.host, "host", "H", "", "server host name, address or socket path (password@host accepted)")
	fs.IntVarP(&args.port, "port", "p", 0, "server TCP port")
	fs.StringVar(&args.password, "password", "", "password sent after connecting")
	fs.StringVar(&args.configPath, "config", "", "config file (default ~/.config/mpdc/config.yaml)")
	fs.BoolVar(&args.plain, "plain", false, "plain output without the welcome banner")
	fs.BoolVarP(&args.verbose, "verbose", "v", false, "log protocol activity to stderr")
	fs.BoolVar(&args.showVersion, "version", false, "show version")
	fs.BoolVarP(&args.showHelp, "help", "h", false, "show this help")
	return fs
}

// parseArguments parses argv (without the program name).
func parseArguments(argv []string) (arguments, error) {
	var args arguments
	fs := newFlagSet(&args)
	if err := fs.Parse(argv); err != nil {
		return arguments{}, err
	}
	if fs.NArg() > 0 {
		return arguments{}, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	if args.port < 0 || args.port > 65535 {
		return arguments{}, fmt.Errorf("invalid port: %d", args.port)
	}
	return args, nil
}

// printUsage writes the help text, including the generated flag list.
func printUsage(w io.Writer) {
	var args arguments
	fmt.Fprintf(w, `USAGE: %s [options]

OPTIONS:
%s
ENVIRONMENT:
  MPD_HOST        Server host or socket path (password@host accepted)
  MPD_PORT        Server port (default 6600)
  MPD_PASSWORD    Password sent after connecting
  MPD_TIMEOUT     Per-command timeout (default 30s)

EXAMPLES:
  mpdc                                Connect using config and environment
  mpdc -H /run/mpd/socket             Connect to a local socket
  mpdc -H secret@music.lan -p 6601    Connect with a password
`, appName, newFlagSet(&args).FlagUsages())
}

// printVersion prints the version line.
func printVersion() {
	fmt.Println(fullTitle())
}

// printError prints an error message to stderr.
func printError(message string) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", message)
}

// newLogger returns the logger handed to the protocol client. Protocol
// activity is logged at debug level, so it only shows with --verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// =============================================================================
// Signal Handling
// =============================================================================

// GO CONCEPT: Signals as Channel Values
// -------------------------------------
// signal.Notify delivers OS signals on a channel instead of killing the
// process. A goroutine ranging over the channel turns each signal into an
// ordinary function call. The channel needs a buffer so a signal arriving
// while the goroutine is busy is not dropped.
//
// Compare with Python: signal.signal(signal.SIGINT, handler) installs a
// callback that runs on the main thread between bytecodes.

// setupSignalHandler maps Ctrl-C to cancelling the running command. Ctrl-C
// while idle and SIGTERM run cleanup and exit.
func setupSignalHandler(sess *session, cleanup func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		for sig := range sigCh {
			if sig == syscall.SIGINT && sess.busy.Load() {
				sess.client.Cancel()
				continue
			}
			fmt.Fprintln(sess.out)
			cleanup()
			os.Exit(0)
		}
	}()
}

// =============================================================================
// Main Entry Point
// =============================================================================

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is main without the os.Exit, returning the exit code.
func run(argv []string) int {
	args, err := parseArguments(argv)
	if err != nil {
		printError(err.Error())
		printUsage(os.Stderr)
		return 2
	}
	if args.showHelp {
		printUsage(os.Stdout)
		return 0
	}
	if args.showVersion {
		printVersion()
		return 0
	}

	logger := newLogger(os.Stderr, args.verbose)

	env, err := mpdprotocol.LoadConfig()
	if err != nil {
		printError(err.Error())
		return 1
	}
	configPath := args.configPath
	if configPath == "" {
		configPath = defaultConfigPath()
	}
	file, err := loadFileConfig(configPath)
	if err != nil {
		printError(err.Error())
		return 1
	}
	merged := mergeSettings(env, file, args)

	ep := locateServer(merged, mpdprotocol.DiscoverSocket)
	client := mpdprotocol.NewClientFromConfig(merged.clientConfig(ep),
		mpdprotocol.WithLogger(logger))

	editor := NewLineEditor(merged.historySize)
	sess := newSession(client, editor, os.Stdout)
	sess.reverse.Store(merged.reverse)

	// The watcher re-applies the merged settings whenever the file changes.
	// The next .connect picks them up; the open session is left alone.
	watcher, err := watchConfig(configPath, logger, func(file fileConfig) {
		updated := mergeSettings(env, file, args)
		client.ApplyConfig(updated.clientConfig(locateServer(updated, mpdprotocol.DiscoverSocket)))
		sess.reverse.Store(updated.reverse)
	})
	if err != nil {
		logger.Warn("config.watch", slog.String("path", configPath), slog.String("err", err.Error()))
	}

	cleanup := func() {
		if watcher != nil {
			watcher.Close()
		}
		editor.Close()
		client.Disconnect()
	}
	setupSignalHandler(sess, cleanup)

	if !merged.plain && editor.IsInteractive() {
		fmt.Print(welcomeBanner())
	}

	fmt.Printf("Connecting to %s (%s)...\n", mpdprotocol.Address(ep.host, ep.port), ep.source)
	err = checkEndpoint(ep.host)
	if err == nil {
		err = sess.connectDefault(context.Background())
	}
	if err != nil {
		printError(fmt.Sprintf("failed to connect: %v", err))
		if errors.Is(err, mpdprotocol.ErrInvalidArgument) {
			cleanup()
			return 1
		}
		fmt.Println("Use .connect to try again.")
	}

	runREPL(sess)
	cleanup()
	return 0
}
