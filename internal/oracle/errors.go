package oracle

import (
	"errors"
	"fmt"
)

// ErrRateLimited signals the provider refused the call with a rate-limit
// status. The Consultant recovers from it by waiting and retrying; every
// other transport error is fatal to the turn.
var ErrRateLimited = errors.New("oracle rate limit exceeded")

// MalformedReplyError reports a structured reply that failed strict
// validation. No partial parse is attempted; the turn fails.
type MalformedReplyError struct {
	Reason string
	Reply  string
}

func (e *MalformedReplyError) Error() string {
	return fmt.Sprintf("malformed oracle reply: %s", e.Reason)
}

// IsMalformedReply reports whether err is a MalformedReplyError.
func IsMalformedReply(err error) bool {
	var m *MalformedReplyError
	return errors.As(err, &m)
}
