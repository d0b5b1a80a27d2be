package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Message mirrors a relay message as returned by GET /relay/v1/auto/messages
// and accepted by POST /relay/v1/auto/messages.
type Message struct {
	Payload      string    `json:"payload"`
	ContentTopic string    `json:"contentTopic"`
	Timestamp    Timestamp `json:"timestamp"`
}

// Timestamp is the message timestamp in its textual form. Nodes send it as a
// JSON number or a JSON string; both decode to the same digits.
type Timestamp string

// UnmarshalJSON accepts numbers, strings and null.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode timestamp: %w", err)
		}
		*t = Timestamp(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("decode timestamp: %w", err)
		}
		*t = Timestamp(n.String())
		return nil
	}
}

// MarshalJSON emits integer timestamps as numbers and anything else as a
// string.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(t), 10, 64); err == nil {
		return []byte(t), nil
	}
	return json.Marshal(string(t))
}

// Time interprets the timestamp. Values above 1e15 are taken as nanoseconds,
// smaller ones as milliseconds. ok is false when the value is not an integer.
func (t Timestamp) Time() (time.Time, bool) {
	n, err := strconv.ParseInt(string(t), 10, 64)
	if err != nil || n <= 0 {
		return time.Time{}, false
	}
	if n > 1e15 {
		return time.Unix(0, n), true
	}
	return time.UnixMilli(n), true
}

// TimestampAt builds the millisecond timestamp used when publishing.
func TimestampAt(at time.Time) Timestamp {
	return Timestamp(strconv.FormatInt(at.UnixMilli(), 10))
}
