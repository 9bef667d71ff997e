package pageexport

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultMaxPollAttempts = 30
	DefaultPollInterval    = time.Second
)

// Config bounds how long a run waits for the remote export.
type Config struct {
	// MaxPollAttempts is the number of status polls before giving up.
	MaxPollAttempts int
	// PollInterval is the pause between consecutive polls.
	PollInterval time.Duration
}

// DefaultConfig returns 30 attempts one second apart.
func DefaultConfig() Config {
	return Config{
		MaxPollAttempts: DefaultMaxPollAttempts,
		PollInterval:    DefaultPollInterval,
	}
}

// Validate checks that the poll budget is usable.
func (c Config) Validate() error {
	var errs []error
	if c.MaxPollAttempts < 1 {
		errs = append(errs, fmt.Errorf("max poll attempts must be at least 1, got %d", c.MaxPollAttempts))
	}
	if c.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("poll interval must not be negative, got %s", c.PollInterval))
	}
	return errors.Join(errs...)
}

// Budget is the elapsed time reported when polling runs out.
func (c Config) Budget() time.Duration {
	return time.Duration(c.MaxPollAttempts) * c.PollInterval
}
