package relay

import "encoding/base64"

// EncodePayload encodes text the way the relay expects message payloads.
func EncodePayload(text string) string {
	return base64.StdEncoding.EncodeToString([]byte(text))
}

// DecodePayload reverses EncodePayload. Payloads that are not valid base64
// come back verbatim with ok=false.
func DecodePayload(payload string) (string, bool) {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return payload, false
	}
	return string(data), true
}

// Text returns the decoded payload. See DecodePayload.
func (m Message) Text() (string, bool) {
	return DecodePayload(m.Payload)
}
