package config

import "strings"

// RetryBackoffMode selects how the delay between event publish retries grows.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffModes = map[string]RetryBackoffMode{
	string(RetryBackoffFixed):       RetryBackoffFixed,
	string(RetryBackoffLinear):      RetryBackoffLinear,
	string(RetryBackoffExponential): RetryBackoffExponential,
}

// NormalizeRetryBackoff maps a case-insensitive mode name to its constant.
// Unknown names give "".
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	return retryBackoffModes[strings.ToLower(strings.TrimSpace(raw))]
}

// Retries returns the configured retry count, or fallback when max_retries
// is not set. An explicit 0 disables retries.
func (r RetryConfig) Retries(fallback int) int {
	if r.MaxRetries == nil {
		return fallback
	}
	return *r.MaxRetries
}
