// Package state holds the message list of the active content topic.
//
// The Store sits between the sync engine, which merges poll results into it
// from a background goroutine, and the views, which read copies through
// Snapshot on their own schedule:
//
//	Producer (feed engine):          Consumer (TUI / watch):
//	┌──────────────────┐            ┌──────────────────┐
//	│ client.Messages()│            │                  │
//	│       ↓          │            │                  │
//	│ store.Merge()    │───────────→│ store.Snapshot() │
//	│       ↓          │  (mutex)   │       ↓          │
//	│  repeat...       │            │  render          │
//	└──────────────────┘            └──────────────────┘
//
// # Merge Semantics
//
// Messages are keyed by timestamp within a topic. Merge drops anything whose
// timestamp is already held (or repeated inside the same batch) along with
// messages whose contentTopic differs from the batch topic, flags the
// rest new and puts them in front, so the list stays newest first.
//
// A merge carries the topic it was fetched for. When that is not the active
// topic the batch is discarded; this is what keeps a slow response for a
// previous selection from leaking into the current one.
//
// Reset switches topics and empties the list in one step, so a view never
// sees the old topic's messages under the new topic's name.
//
// # Errors
//
// RecordError keeps the messages and stores the error; RecordSuccess clears
// it. ConsecutiveFailures counts failures since the last success and
// IsOffline reports two or more.
//
// The zero Store is ready to use.
package state
