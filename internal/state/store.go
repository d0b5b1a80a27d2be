package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/wakubase/internal/relay"
)

// Message is a relay message as held for display. IsNew marks messages that
// arrived since the viewer last called MarkSeen.
type Message struct {
	relay.Message
	IsNew bool
}

// Snapshot represents the message list of the active topic.
type Snapshot struct {
	TopicID             string
	Topic               string
	Messages            []Message // newest first
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive request failures
}

// IsOffline returns true when the node has failed several requests in a row.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// NewCount returns how many messages are still flagged new.
func (s Snapshot) NewCount() int {
	n := 0
	for _, m := range s.Messages {
		if m.IsNew {
			n++
		}
	}
	return n
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Reset switches the store to a new topic and drops everything held for the
// previous one, including the last error.
func (s *Store) Reset(topicID, topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = Snapshot{TopicID: topicID, Topic: topic}
}

// Merge adds the messages of incoming that belong to topic and are not yet
// known, keyed by timestamp, in front of the existing ones and flags them
// new. Results for a topic other than the active one are discarded. It
// returns the number of messages added.
func (s *Store) Merge(topic string, incoming []relay.Message) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if topic == "" || topic != s.snapshot.Topic {
		return 0
	}
	seen := make(map[relay.Timestamp]struct{}, len(s.snapshot.Messages)+len(incoming))
	for _, m := range s.snapshot.Messages {
		seen[m.Timestamp] = struct{}{}
	}
	var fresh []Message
	for _, m := range incoming {
		if m.ContentTopic != topic {
			continue
		}
		if _, dup := seen[m.Timestamp]; dup {
			continue
		}
		seen[m.Timestamp] = struct{}{}
		fresh = append(fresh, Message{Message: m, IsNew: true})
	}
	if len(fresh) == 0 {
		return 0
	}
	s.snapshot.Messages = append(fresh, s.snapshot.Messages...)
	return len(fresh)
}

// Delete removes the message with timestamp ts. It reports whether one was
// removed.
func (s *Store) Delete(ts relay.Timestamp) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, m := range s.snapshot.Messages {
		if m.Timestamp == ts {
			s.snapshot.Messages = append(s.snapshot.Messages[:i:i], s.snapshot.Messages[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the message list but keeps the topic.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Messages = nil
}

// MarkSeen clears the new flag on every message.
func (s *Store) MarkSeen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.snapshot.Messages {
		s.snapshot.Messages[i].IsNew = false
	}
}

// RecordError keeps the messages but records err for visibility.
func (s *Store) RecordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.LastError = err
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures++
}

// RecordSuccess clears the last error.
func (s *Store) RecordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Messages = cloneMessages(s.snapshot.Messages)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneMessages(items []Message) []Message {
	if len(items) == 0 {
		return nil
	}
	dup := make([]Message, len(items))
	copy(dup, items)
	return dup
}
