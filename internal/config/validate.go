package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ValidationError names the setting that failed and why.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Message)
}

// Validate reports every invalid setting at once. A missing token is reported
// as ErrMissingToken.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Coda.APIToken) == "" {
		errs = append(errs, ErrMissingToken)
	}
	if u, err := url.Parse(c.Coda.BaseURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, &ValidationError{Field: "coda.baseURL", Message: "must be an absolute http(s) URL"})
	}
	if c.Coda.Timeout <= 0 {
		errs = append(errs, &ValidationError{Field: "coda.timeout", Message: "must be positive"})
	}
	if c.Coda.RateLimitRPS < 0 {
		errs = append(errs, &ValidationError{Field: "coda.rateLimitRPS", Message: "must not be negative"})
	}
	if c.Coda.RateLimitRPS > 0 && c.Coda.RateLimitBurst < 1 {
		errs = append(errs, &ValidationError{Field: "coda.rateLimitBurst", Message: "must be at least 1 when rate limiting is enabled"})
	}
	if c.Export.MaxPollAttempts < 1 {
		errs = append(errs, &ValidationError{Field: "export.maxPollAttempts", Message: "must be at least 1"})
	}
	if c.Export.PollInterval < 0 {
		errs = append(errs, &ValidationError{Field: "export.pollInterval", Message: "must not be negative"})
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, &ValidationError{Field: "log.level", Message: "must be one of: debug, info, warn, error"})
	}
	return errors.Join(errs...)
}
