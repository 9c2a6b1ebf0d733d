package jobs

import (
	"fmt"
	"time"
)

// Options configures a Manager.
type Options struct {
	// PollInterval is the backoff ceiling between status polls.
	PollInterval time.Duration

	// MaxWait bounds a single blocking wait for job completion.
	MaxWait time.Duration
}

// Option is a functional option for configuring a Manager.
type Option func(*Options) error

// NewOptions applies defaults first, then user options on top.
func NewOptions(opt ...Option) (Options, error) {
	opts := defaultOptions()

	for _, o := range opt {
		if o == nil {
			continue
		}
		if err := o(&opts); err != nil {
			return Options{}, err
		}
	}

	return opts, nil
}

func defaultOptions() Options {
	return Options{
		PollInterval: DefaultPollInterval,
		MaxWait:      DefaultMaxWait,
	}
}

// WithPollInterval sets the poll backoff ceiling.
func WithPollInterval(d time.Duration) Option {
	return func(o *Options) error {
		if d <= 0 {
			return fmt.Errorf("poll interval must be positive, got %s", d)
		}
		o.PollInterval = d
		return nil
	}
}

// WithMaxWait sets the blocking wait budget.
func WithMaxWait(d time.Duration) Option {
	return func(o *Options) error {
		if d <= 0 {
			return fmt.Errorf("max wait must be positive, got %s", d)
		}
		o.MaxWait = d
		return nil
	}
}
