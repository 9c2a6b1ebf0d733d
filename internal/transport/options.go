package transport

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
)

const (
	// DefaultTimeout is the per-request timeout applied when none is configured.
	DefaultTimeout = 30 * time.Second
)

// Options configures a Client.
type Options struct {
	Timeout time.Duration
	Logger  hclog.Logger
}

// Option mutates Options and may reject invalid values.
type Option func(*Options) error

// NewOptions returns Options with defaults applied, then the supplied options
// layered on top.
func NewOptions(opt ...Option) (Options, error) {
	opts := Options{
		Timeout: DefaultTimeout,
		Logger:  hclog.NewNullLogger(),
	}

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

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", d)
		}
		o.Timeout = d
		return nil
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger hclog.Logger) Option {
	return func(o *Options) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		o.Logger = logger
		return nil
	}
}
