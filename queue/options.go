package queue

import (
	"log/slog"
	"time"
)

// Default configuration values.
const (
	// DefaultMaxInFlight is the number of submissions that may be pending
	// before Submit waits for the oldest one.
	DefaultMaxInFlight = 3

	// DefaultWaitTimeout bounds each blocking wait on a fence.
	DefaultWaitTimeout = 5 * time.Second
)

// Option configures a Queue during creation.
//
// Example:
//
//	q := queue.New[*halfence.Handle](id, dev,
//	    queue.WithMaxInFlight(2),
//	    queue.WithWaitTimeout(time.Second),
//	)
type Option func(*options)

// options holds optional configuration for Queue creation.
type options struct {
	maxInFlight int
	waitTimeout time.Duration
	logger      *slog.Logger
}

// defaultOptions returns the default queue options.
func defaultOptions() options {
	return options{
		maxInFlight: DefaultMaxInFlight,
		waitTimeout: DefaultWaitTimeout,
		logger:      nil, // fence.Logger() if nil
	}
}

// WithMaxInFlight limits the number of pending submissions, which is also the
// number of fences the queue keeps in use. Values below 1 are ignored.
func WithMaxInFlight(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxInFlight = n
		}
	}
}

// WithWaitTimeout sets how long a single blocking wait on a fence may take
// before it is reported as ErrWaitTimeout. Negative values are ignored.
func WithWaitTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.waitTimeout = d
		}
	}
}

// WithLogger sets the queue's logger. By default the queue logs through
// fence.Logger().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
