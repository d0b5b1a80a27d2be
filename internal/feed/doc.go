// Package feed keeps the messages of the selected content topic in sync with
// the relay node.
//
// # Lifecycle
//
// An Engine follows one selection at a time. Select(topicID, topic) moves it
// to a new selection:
//
//  1. The previous poll loop is cancelled. Requests still in flight are
//     aborted through their context, and any result that arrives anyway is
//     dropped because it belongs to another topic.
//  2. The message list is emptied and observers are notified, before any
//     request for the new topic is made.
//  3. If a topic is set and the node type is full, one subscribe request is
//     sent and a poll loop starts fetching messages every 2 seconds.
//
// Selecting the pair that is already active does nothing. Restart re-runs
// the current selection; Start wires it to nodeUrl and nodeType changes.
//
// No unsubscribe request is sent when a selection is torn down. The node
// keeps relaying topics that are no longer shown.
//
// # Errors
//
// Subscribe and fetch failures share one last-error slot in the snapshot,
// formatted the way users see them:
//
//	Failed to subscribe: 400 - invalid content topic
//	Failed to fetch: 503 - service unavailable
//	Failed to fetch: execute request: dial tcp 127.0.0.1:8645: connect: connection refused
//
// The next success of either kind clears it. Send returns its failure to the
// caller instead, so a compose buffer can be kept for a retry.
//
// # Observing
//
// Snapshot returns a copy of the state at any time. OnUpdate listeners run
// synchronously on the goroutine that changed the state, often the poll
// loop, and must not call back into Select, Restart or Stop.
package feed
