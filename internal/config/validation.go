package config

import (
	"fmt"

	gderrors "git.home.luguber.info/inful/gendocs/internal/errors"
)

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	for _, k := range c.Output.Documents {
		if !k.Valid() {
			return gderrors.ValidationFailed("output.documents", fmt.Sprintf("unknown document %q", k))
		}
	}
	if c.Scan.MaxFileBytes < 0 {
		return gderrors.ValidationFailed("scan.max_file_bytes", "must not be negative")
	}
	if NormalizeRetryBackoff(string(c.Events.Retry.Mode)) == "" {
		return gderrors.ValidationFailed("events.retry.mode", fmt.Sprintf("unsupported backoff %q", c.Events.Retry.Mode))
	}
	if c.Events.Retry.Retries(0) < 0 {
		return gderrors.ValidationFailed("events.retry.max_retries", "must not be negative")
	}
	if c.Watch.Debounce < 0 {
		return gderrors.ValidationFailed("watch.debounce", "must not be negative")
	}
	if c.Watch.Interval < 0 {
		return gderrors.ValidationFailed("watch.interval", "must not be negative")
	}
	return nil
}
