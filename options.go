package neondb

import "log/slog"

// Options holds Storage construction settings assembled from Option
// functions passed to New.
type Options struct {
	logger   *slog.Logger
	readOnly bool
}

// Option configures a Storage at construction time.
type Option func(*Options)

// WithLogger sets the structured logger Storage uses for mount,
// alloc, and dealloc events. Defaults to a logger that discards every
// record, so Storage is silent unless a logger is supplied.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.logger = l }
}

// WithReadOnly mounts the volume read-only: Alloc, Dealloc, and Write
// all fail with ErrVolumeReadOnly.
func WithReadOnly() Option {
	return func(o *Options) { o.readOnly = true }
}

func defaultOptions() *Options {
	return &Options{logger: slog.New(slog.DiscardHandler)}
}
