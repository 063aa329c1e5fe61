package mpdprotocol

import (
	"log/slog"
	"time"
)

type options struct {
	logger    *slog.Logger
	transport Transport
	timeout   time.Duration
}

// Option configures a Client, Conn or TCPTransport.
type Option func(*options)

// WithLogger sets the logger used for debug events. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTransport replaces the default TCP/unix socket transport.
func WithTransport(t Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithTimeout sets the per-command timeout applied when the caller's
// context has no deadline. Defaults to CommandTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func buildOptions(opts []Option) *options {
	o := &options{
		logger:  slog.New(slog.DiscardHandler),
		timeout: CommandTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
