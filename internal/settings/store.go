package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/five82/wakubase/internal/events"
	"github.com/five82/wakubase/internal/storage"
)

// StorageKey is the backend key holding the serialized settings record.
const StorageKey = "wakubase_settings"

// Store persists the settings record and notifies per-key listeners.
// Every write is a read-modify-write of the whole record; two processes
// sharing a backend can lose each other's updates.
type Store struct {
	backend   storage.Backend
	validate  *validator.Validate
	mu        sync.Mutex
	listeners events.Emitter[Key, any]
}

// NewStore binds a store to backend and writes the default record when
// none exists yet. A failed initial write is logged, not returned.
func NewStore(backend storage.Backend) *Store {
	s := &Store{
		backend:  backend,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	_, ok, err := backend.Get(StorageKey)
	switch {
	case err != nil:
		log.Error().Err(err).Msg("failed to initialize settings")
	case !ok:
		if err := s.persist(Defaults()); err != nil {
			log.Error().Err(err).Msg("failed to initialize settings")
		}
	}
	return s
}

// All returns the current record. Unreadable or corrupt storage yields the
// defaults; keys missing from the stored record keep their default values.
func (s *Store) All() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get returns the value of key, or nil for unknown keys.
func (s *Store) Get(key Key) any {
	v, err := s.All().Value(key)
	if err != nil {
		log.Warn().Err(err).Msg("settings lookup failed")
		return nil
	}
	return v
}

// Set validates value, persists the updated record and then notifies the
// listeners of key. Nothing is notified when validation or persistence
// fails; persistence failures are logged as well as returned.
func (s *Store) Set(key Key, value any) error {
	s.mu.Lock()
	next, err := s.load().with(key, value)
	if err == nil {
		err = s.check(key, next)
	}
	if err == nil {
		err = s.persist(next)
		if err != nil {
			log.Error().Err(err).Str("key", string(key)).Msg("failed to persist setting")
		}
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	current, _ := next.Value(key)
	s.listeners.Emit(key, current)
	return nil
}

// Update applies several keys in canonical key order, one Set per key. It
// stops at the first failure; keys applied before it stay applied.
func (s *Store) Update(changes map[Key]any) error {
	for k := range changes {
		if _, err := Defaults().Value(k); err != nil {
			return err
		}
	}
	for _, k := range keys {
		v, ok := changes[k]
		if !ok {
			continue
		}
		if err := s.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

// OnDidChange registers fn for changes of key and returns its unsubscribe function.
func (s *Store) OnDidChange(key Key, fn func(value any)) func() {
	return s.listeners.On(key, fn)
}

// ResetToDefaults persists the default record and notifies the listeners
// of every key, whether or not the value changed.
func (s *Store) ResetToDefaults() error {
	defaults := Defaults()
	s.mu.Lock()
	err := s.persist(defaults)
	s.mu.Unlock()
	if err != nil {
		log.Error().Err(err).Msg("failed to reset settings")
		return err
	}
	for _, k := range keys {
		v, _ := defaults.Value(k)
		s.listeners.Emit(k, v)
	}
	return nil
}

// NodeURL returns the configured relay node base URL.
func (s *Store) NodeURL() string { return s.All().NodeURL }

// NodeType returns the configured node type.
func (s *Store) NodeType() NodeType { return s.All().NodeType }

// NetworkType returns the configured network type.
func (s *Store) NetworkType() NetworkType { return s.All().NetworkType }

// CustomNetworkURL returns the custom network URL, empty when unset.
func (s *Store) CustomNetworkURL() string { return s.All().CustomNetworkURL }

// AutoSelectNew reports whether newly added topics become selected.
func (s *Store) AutoSelectNew() bool { return s.All().AutoSelectNew }

// Theme returns the UI theme.
func (s *Store) Theme() Theme { return s.All().Theme }

func (s *Store) load() Settings {
	record := Defaults()
	raw, ok, err := s.backend.Get(StorageKey)
	if err != nil {
		log.Error().Err(err).Msg("failed to get settings")
		return record
	}
	if !ok {
		return record
	}
	if err := json.Unmarshal(raw, &record); err != nil {
		log.Error().Err(err).Msg("failed to decode settings")
		return Defaults()
	}
	return record
}

func (s *Store) persist(record Settings) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.backend.Set(StorageKey, raw); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}
	return nil
}

// check validates only the field named by key so that a stale invalid
// value elsewhere in the record does not block unrelated updates.
func (s *Store) check(key Key, record Settings) error {
	field := fieldNames[key]
	if err := s.validate.StructPartial(record, field); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ValidationError{Key: key, Reason: describe(verrs[0])}
		}
		return &ValidationError{Key: key, Reason: err.Error()}
	}
	return nil
}

var fieldNames = map[Key]string{
	KeyNodeType:         "NodeType",
	KeyNodeURL:          "NodeURL",
	KeyNetworkType:      "NetworkType",
	KeyCustomNetworkURL: "CustomNetworkURL",
	KeyAutoSelectNew:    "AutoSelectNew",
	KeyTheme:            "Theme",
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%q must be one of [%s]", fe.Value(), fe.Param())
	case "url":
		return fmt.Sprintf("%q is not a valid URL", fe.Value())
	case "required":
		return "value is required"
	}
	return fmt.Sprintf("failed %s check", fe.Tag())
}
