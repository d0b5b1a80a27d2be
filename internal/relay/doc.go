// Package relay provides an HTTP client for a relay node's REST API.
//
// The client covers the four endpoints wakubase needs:
//
//   - GET /health: node liveness, healthy only on 200
//   - POST /relay/v1/auto/subscriptions: subscribe to content topics
//   - GET /relay/v1/auto/messages/{topic}: messages cached for a topic
//   - POST /relay/v1/auto/messages: publish a message
//
// The node URL is not fixed at construction. Each request asks a URLSource
// (normally the settings store) for the current value, so editing nodeUrl
// redirects the next request without rebuilding anything.
//
// Requests carry a 5 second timeout and a wakubase User-Agent. Responses
// outside 2xx become *StatusError, which keeps the status code and the
// response text so callers can report "Failed to fetch: 404 - not found"
// style messages.
//
// Payloads travel base64 encoded. EncodePayload and Message.Text convert
// between the wire form and display text; a payload that does not decode is
// returned as-is and flagged rather than dropped.
package relay
