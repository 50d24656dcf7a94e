package config

import "time"

// LimitsConfig bounds the retry loops that were unbounded in early designs.
type LimitsConfig struct {
	// RepairAttempts caps malfunction-repair rounds per execution branch.
	RepairAttempts int `yaml:"repair_attempts"`

	// FeedbackRounds caps negative-feedback rounds per turn.
	FeedbackRounds int `yaml:"feedback_rounds"`

	// RateLimitRetries caps consecutive rate-limited oracle calls.
	RateLimitRetries int `yaml:"rate_limit_retries"`

	// RateLimitWait is the fixed pause between rate-limited retries.
	RateLimitWait time.Duration `yaml:"rate_limit_wait"`
}

// DefaultLimitsConfig returns sensible defaults.
func DefaultLimitsConfig() LimitsConfig {
	return LimitsConfig{
		RepairAttempts:   3,
		FeedbackRounds:   5,
		RateLimitRetries: 5,
		RateLimitWait:    60 * time.Second,
	}
}
