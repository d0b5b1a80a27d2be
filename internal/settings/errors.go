package settings

import (
	"errors"
	"fmt"
)

// ErrUnknownKey is returned for keys outside the settings schema.
var ErrUnknownKey = errors.New("unknown settings key")

// ValidationError reports a value rejected before anything was persisted.
type ValidationError struct {
	Key    Key
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value for %s: %s", e.Key, e.Reason)
}
