package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"plugsmith/internal/config"
	"plugsmith/internal/logging"
)

// Transcript records the conversation with the oracle. Satisfied by
// *store.PluginStore.
type Transcript interface {
	AppendChatMessage(role, content string) error
}

// Transcript roles, matching the store's.
const (
	roleApplication = "application"
	roleOracle      = "oracle"
)

// Consultant wraps a provider backend with the rate-limit retry policy and
// transcript recording. Every prompt sent and every successful reply is
// appended to the transcript in strict request/reply order.
type Consultant struct {
	client     Client
	transcript Transcript
	maxRetries int
	wait       time.Duration
}

// NewConsultant builds a consultant over the given backend.
func NewConsultant(client Client, transcript Transcript, limits config.LimitsConfig) *Consultant {
	return &Consultant{
		client:     client,
		transcript: transcript,
		maxRetries: limits.RateLimitRetries,
		wait:       limits.RateLimitWait,
	}
}

// Ask sends the prompt, blocking through rate-limit pauses. On
// ErrRateLimited it waits the fixed interval and retries the same prompt,
// up to the configured cap. Any other failure propagates unmodified.
func (c *Consultant) Ask(ctx context.Context, prompt string) (string, error) {
	var reply string
	var err error

	for attempt := 0; ; attempt++ {
		reply, err = c.client.Complete(ctx, prompt)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrRateLimited) {
			return "", err
		}
		if attempt >= c.maxRetries {
			return "", fmt.Errorf("oracle still rate limited after %d retries: %w", c.maxRetries, err)
		}

		logging.Oracle("rate limited, waiting %v before retry %d/%d", c.wait, attempt+1, c.maxRetries)
		select {
		case <-time.After(c.wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	c.record(roleApplication, prompt)
	c.record(roleOracle, reply)
	return reply, nil
}

// record appends a transcript entry. Transcript failures are logged, not
// propagated: losing a history row must not fail the consultation that
// already succeeded.
func (c *Consultant) record(role, content string) {
	if c.transcript == nil {
		return
	}
	if err := c.transcript.AppendChatMessage(role, content); err != nil {
		logging.Get(logging.CategoryOracle).Error("failed to record transcript entry (%s): %v", role, err)
	}
}
