// Package topics persists the user's content topics and tracks which one is
// selected.
package topics

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/five82/wakubase/internal/events"
	"github.com/five82/wakubase/internal/storage"
)

// StorageKey is the backend key holding the serialized topic list.
const StorageKey = "wakubase_content_topics"

// ErrEmptyTopic is returned when adding a blank topic string.
var ErrEmptyTopic = errors.New("content topic is empty")

// ContentTopic is a user-defined topic entry.
type ContentTopic struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	CreatedAt time.Time `json:"createdAt"`
}

// Registry owns the persisted, newest-first topic list.
type Registry struct {
	backend   storage.Backend
	mu        sync.Mutex
	listeners events.Emitter[struct{}, struct{}]

	now   func() time.Time
	newID func() string
}

// NewRegistry binds a registry to backend and writes an empty list when
// none exists yet.
func NewRegistry(backend storage.Backend) *Registry {
	r := &Registry{
		backend: backend,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	_, ok, err := backend.Get(StorageKey)
	switch {
	case err != nil:
		log.Error().Err(err).Msg("failed to initialize content topics store")
	case !ok:
		if err := r.persist(nil); err != nil {
			log.Error().Err(err).Msg("failed to initialize content topics store")
		}
	}
	return r
}

// Topics returns the stored topics, newest first. Missing or corrupt storage
// yields an empty list.
func (r *Registry) Topics() []ContentTopic {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

// Find resolves id against the live list.
func (r *Registry) Find(id string) (ContentTopic, bool) {
	for _, t := range r.Topics() {
		if t.ID == id {
			return t, true
		}
	}
	return ContentTopic{}, false
}

// Add creates a topic with a fresh id, prepends it and notifies subscribers
// once it is persisted. The topic is stored as given; only blank input is
// rejected.
func (r *Registry) Add(topic string) (ContentTopic, error) {
	if strings.TrimSpace(topic) == "" {
		return ContentTopic{}, ErrEmptyTopic
	}

	r.mu.Lock()
	created := ContentTopic{
		ID:        r.newID(),
		Topic:     topic,
		CreatedAt: r.now().UTC(),
	}
	list := append([]ContentTopic{created}, r.load()...)
	err := r.persist(list)
	r.mu.Unlock()
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("failed to add content topic")
		return ContentTopic{}, err
	}

	r.notify()
	return created, nil
}

// Delete removes the topic with id. Unknown ids are ignored: nothing is
// written and subscribers are not notified.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	current := r.load()
	kept := make([]ContentTopic, 0, len(current))
	for _, t := range current {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(current) {
		r.mu.Unlock()
		return nil
	}
	err := r.persist(kept)
	r.mu.Unlock()
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to delete content topic")
		return err
	}

	r.notify()
	return nil
}

// Subscribe registers fn to run after every mutation. Subscribers re-read
// the list through Topics.
func (r *Registry) Subscribe(fn func()) func() {
	return r.listeners.On(struct{}{}, func(struct{}) { fn() })
}

func (r *Registry) notify() {
	r.listeners.Emit(struct{}{}, struct{}{})
}

func (r *Registry) load() []ContentTopic {
	raw, ok, err := r.backend.Get(StorageKey)
	if err != nil {
		log.Error().Err(err).Msg("failed to get content topics")
		return []ContentTopic{}
	}
	if !ok {
		return []ContentTopic{}
	}
	var list []ContentTopic
	if err := json.Unmarshal(raw, &list); err != nil {
		log.Error().Err(err).Msg("failed to decode content topics")
		return []ContentTopic{}
	}
	if list == nil {
		list = []ContentTopic{}
	}
	return list
}

func (r *Registry) persist(list []ContentTopic) error {
	if list == nil {
		list = []ContentTopic{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode content topics: %w", err)
	}
	if err := r.backend.Set(StorageKey, raw); err != nil {
		return fmt.Errorf("persist content topics: %w", err)
	}
	return nil
}
