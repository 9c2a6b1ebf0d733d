package config

import "errors"

var (
	// ErrConfigLoadFailed reports a config file that could not be read,
	// decoded or validated.
	ErrConfigLoadFailed = errors.New("config load failed")

	// ErrConfigInvalid reports a structurally valid file with bad contents.
	ErrConfigInvalid = errors.New("config invalid")
)
