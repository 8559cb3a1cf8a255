package reconcile

import "time"

// Config holds configuration for the reconciliation engine.
type Config struct {
	// ErrorDisplaySeconds is how long a surfaced error stays visible.
	// Zero keeps errors until they are dismissed.
	ErrorDisplaySeconds int `mapstructure:"error_display_seconds" default:"5"`
}

// ErrorTTL returns the error display duration.
func (c Config) ErrorTTL() time.Duration {
	if c.ErrorDisplaySeconds <= 0 {
		return 0
	}
	return time.Duration(c.ErrorDisplaySeconds) * time.Second
}
