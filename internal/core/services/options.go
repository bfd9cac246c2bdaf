package services

import "time"

// Option configures a service.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces the wall clock used for created/resolved timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{now: utcNow}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// utcNow truncates to microseconds, the finest precision both stores keep.
func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
