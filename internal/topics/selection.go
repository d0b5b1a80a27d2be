package topics

import (
	"sync"

	"github.com/five82/wakubase/internal/events"
)

// Selection tracks the selected topic as a weak reference: it holds only an
// id and re-resolves it against the registry on every read.
type Selection struct {
	registry   *Registry
	autoSelect func() bool

	// dispatch orders state updates together with their notifications so
	// listeners see changes in the order they were applied.
	dispatch sync.Mutex

	mu   sync.Mutex
	id   string
	last ContentTopic

	listeners   events.Emitter[struct{}, ContentTopic]
	unsubscribe func()
}

// NewSelection selects the newest topic (if any) and follows registry
// changes. autoSelect decides whether Add selects the new topic; nil means
// always.
func NewSelection(registry *Registry, autoSelect func() bool) *Selection {
	if autoSelect == nil {
		autoSelect = func() bool { return true }
	}
	s := &Selection{registry: registry, autoSelect: autoSelect}
	if list := registry.Topics(); len(list) > 0 {
		s.id = list[0].ID
		s.last = list[0]
	}
	s.unsubscribe = registry.Subscribe(s.reconcile)
	return s
}

// Selected resolves the selected id. ok is false when nothing is selected
// or the topic no longer exists.
func (s *Selection) Selected() (ContentTopic, bool) {
	s.mu.Lock()
	id := s.id
	s.mu.Unlock()
	if id == "" {
		return ContentTopic{}, false
	}
	return s.registry.Find(id)
}

// Select makes id the selected topic. Ids that do not resolve are rejected.
func (s *Selection) Select(id string) bool {
	topic, ok := s.registry.Find(id)
	if !ok {
		return false
	}
	s.set(topic)
	return true
}

// Clear deselects any topic.
func (s *Selection) Clear() {
	s.set(ContentTopic{})
}

// Add creates a topic through the registry and selects it when auto-select
// is enabled.
func (s *Selection) Add(topic string) (ContentTopic, error) {
	created, err := s.registry.Add(topic)
	if err != nil {
		return ContentTopic{}, err
	}
	if s.autoSelect() {
		s.set(created)
	}
	return created, nil
}

// Delete removes a topic through the registry.
func (s *Selection) Delete(id string) error {
	return s.registry.Delete(id)
}

// OnChange registers fn for selection changes. fn receives the zero
// ContentTopic when nothing is selected. fn runs while the selection is
// being changed and must not call Select, Clear, Add or Delete.
func (s *Selection) OnChange(fn func(ContentTopic)) func() {
	return s.listeners.On(struct{}{}, fn)
}

// Close stops following the registry.
func (s *Selection) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// reconcile re-resolves the selection after a registry mutation, falling
// back to the newest topic when the selected one is gone.
func (s *Selection) reconcile() {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	list := s.registry.Topics()

	s.mu.Lock()
	id := s.id
	s.mu.Unlock()

	if id != "" {
		for _, t := range list {
			if t.ID == id {
				s.apply(t)
				return
			}
		}
	}
	if len(list) > 0 {
		s.apply(list[0])
		return
	}
	s.apply(ContentTopic{})
}

func (s *Selection) set(topic ContentTopic) {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()
	s.apply(topic)
}

// apply stores topic and notifies when the id or resolved topic string
// changed. Callers hold s.dispatch.
func (s *Selection) apply(topic ContentTopic) {
	s.mu.Lock()
	changed := s.id != topic.ID || s.last.Topic != topic.Topic
	s.id = topic.ID
	s.last = topic
	s.mu.Unlock()

	if changed {
		s.listeners.Emit(struct{}{}, topic)
	}
}
