package feed

import (
	"errors"
	"fmt"

	"github.com/five82/wakubase/internal/relay"
)

var (
	// ErrNoTopic is returned by Send when no topic is selected.
	ErrNoTopic = errors.New("no content topic selected")
	// ErrEmptyMessage is returned by Send for blank input.
	ErrEmptyMessage = errors.New("message is empty")
)

// RequestError describes a failed relay request in the form shown to users,
// e.g. "Failed to fetch: 404 - not found".
type RequestError struct {
	Op         string // subscribe, fetch or send
	StatusCode int    // zero when the node never answered
	Body       string
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("Failed to %s: %d - %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("Failed to %s: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

func requestError(op string, err error) *RequestError {
	re := &RequestError{Op: op, Err: err}
	var statusErr *relay.StatusError
	if errors.As(err, &statusErr) {
		re.StatusCode = statusErr.StatusCode
		re.Body = statusErr.Body
	}
	return re
}
