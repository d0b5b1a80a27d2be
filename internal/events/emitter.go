// Package events provides a small keyed publish/subscribe primitive.
package events

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Emitter dispatches values to listeners registered per key. Dispatch is
// synchronous and follows registration order. The zero value is ready to use.
type Emitter[K comparable, V any] struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[K][]registration[V]
}

type registration[V any] struct {
	id uint64
	fn func(V)
}

// On registers fn for key and returns a function that removes exactly this
// registration. Calling the returned function more than once is a no-op.
func (e *Emitter[K, V]) On(key K, fn func(V)) func() {
	e.mu.Lock()
	if e.listeners == nil {
		e.listeners = make(map[K][]registration[V])
	}
	e.nextID++
	id := e.nextID
	e.listeners[key] = append(e.listeners[key], registration[V]{id: id, fn: fn})
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { e.remove(key, id) })
	}
}

// Emit calls every listener of key with value. Listeners run outside the
// emitter lock, so they may register or unregister freely. A panicking
// listener is logged and does not stop the remaining ones.
func (e *Emitter[K, V]) Emit(key K, value V) {
	e.mu.Lock()
	regs := append([]registration[V](nil), e.listeners[key]...)
	e.mu.Unlock()

	for _, reg := range regs {
		call(key, reg.fn, value)
	}
}

// Len reports how many listeners are registered for key.
func (e *Emitter[K, V]) Len(key K) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[key])
}

func (e *Emitter[K, V]) remove(key K, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	regs := e.listeners[key]
	for i, reg := range regs {
		if reg.id != id {
			continue
		}
		regs = append(regs[:i:i], regs[i+1:]...)
		break
	}
	if len(regs) == 0 {
		delete(e.listeners, key)
		return
	}
	e.listeners[key] = regs
}

func call[K comparable, V any](key K, fn func(V), value V) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("key", key).Interface("panic", r).Msg("listener failed")
		}
	}()
	fn(value)
}
