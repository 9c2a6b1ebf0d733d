package daemon

import (
	"fmt"
	"strings"
	"time"
)

// CORSConfig holds the cross-origin settings for the REST facade.
type CORSConfig struct {
	Enabled          bool
	AllowOrigins     []string
	AllowMethods     []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// Options configures a Daemon.
type Options struct {
	// APIAddr is the REST facade listen address. Empty means use the
	// configured or default address.
	APIAddr string

	// APIEnabled controls whether the REST facade is started at all.
	APIEnabled bool

	// CORS configures cross-origin requests on the REST facade.
	CORS CORSConfig

	// ShutdownTimeout bounds graceful REST shutdown.
	ShutdownTimeout time.Duration
}

// Option is a functional option for configuring a Daemon.
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
		APIEnabled:      true,
		ShutdownTimeout: 5 * time.Second,
		CORS: CORSConfig{
			Enabled:      false,
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			MaxAge:       5 * time.Minute,
		},
	}
}

// WithAPIAddr overrides the REST facade listen address.
func WithAPIAddr(addr string) Option {
	return func(o *Options) error {
		if strings.TrimSpace(addr) == "" {
			return fmt.Errorf("api address cannot be empty")
		}
		o.APIAddr = addr
		return nil
	}
}

// WithAPIDisabled turns the REST facade off; the daemon serves MCP only.
func WithAPIDisabled() Option {
	return func(o *Options) error {
		o.APIEnabled = false
		return nil
	}
}

// WithCORS enables CORS with the given allowed origins.
func WithCORS(origins ...string) Option {
	return func(o *Options) error {
		if len(origins) == 0 {
			return fmt.Errorf("at least one origin is required to enable CORS")
		}
		o.CORS.Enabled = true
		o.CORS.AllowOrigins = origins
		return nil
	}
}

// WithShutdownTimeout bounds graceful REST shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *Options) error {
		if d <= 0 {
			return fmt.Errorf("shutdown timeout must be positive, got %s", d)
		}
		o.ShutdownTimeout = d
		return nil
	}
}
