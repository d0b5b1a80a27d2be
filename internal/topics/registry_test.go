package topics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/wakubase/internal/storage"
)

type flakyBackend struct {
	storage.Memory
	failWrites bool
}

func (f *flakyBackend) Set(key string, value []byte) error {
	if f.failWrites {
		return storage.ErrUnavailable
	}
	return f.Memory.Set(key, value)
}

func newTestRegistry(t *testing.T, backend storage.Backend) *Registry {
	t.Helper()
	r := NewRegistry(backend)
	base := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	n := 0
	r.now = func() time.Time { return base.Add(time.Duration(n) * time.Second) }
	r.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return r
}

func TestNewRegistry_InitializesEmptyList(t *testing.T) {
	backend := storage.NewMemory()
	r := NewRegistry(backend)

	raw, ok, err := backend.Get(StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "[]", string(raw))
	assert.Empty(t, r.Topics())
}

func TestRegistry_AddPrependsWithUniqueID(t *testing.T) {
	r := NewRegistry(storage.NewMemory())

	first, err := r.Add("test/1/x/proto")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "test/1/x/proto", first.Topic)
	assert.False(t, first.CreatedAt.IsZero())

	second, err := r.Add("/app/1/chat/proto")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	list := r.Topics()
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0])
	assert.Equal(t, first, list[1])
}

func TestRegistry_AddRejectsBlankTopic(t *testing.T) {
	r := NewRegistry(storage.NewMemory())
	calls := 0
	r.Subscribe(func() { calls++ })

	_, err := r.Add("   ")
	assert.ErrorIs(t, err, ErrEmptyTopic)
	assert.Empty(t, r.Topics())
	assert.Zero(t, calls)
}

func TestRegistry_AddStoresTopicVerbatim(t *testing.T) {
	backend := storage.NewMemory()
	r := newTestRegistry(t, backend)

	created, err := r.Add("  /app/1/chat/proto ")
	require.NoError(t, err)
	assert.Equal(t, "  /app/1/chat/proto ", created.Topic)

	reloaded := NewRegistry(backend)
	list := reloaded.Topics()
	require.Len(t, list, 1)
	assert.Equal(t, "  /app/1/chat/proto ", list[0].Topic)
}

func TestRegistry_SubscribersSeePostMutationState(t *testing.T) {
	r := newTestRegistry(t, storage.NewMemory())
	var seen []int
	r.Subscribe(func() { seen = append(seen, len(r.Topics())) })
	r.Subscribe(func() { seen = append(seen, -len(r.Topics())) })

	created, err := r.Add("a")
	require.NoError(t, err)
	require.NoError(t, r.Delete(created.ID))

	assert.Equal(t, []int{1, -1, 0, 0}, seen)
}

func TestRegistry_DeleteUnknownIDIsNoop(t *testing.T) {
	backend := &flakyBackend{}
	r := newTestRegistry(t, backend)
	_, err := r.Add("a")
	require.NoError(t, err)
	before := r.Topics()

	calls := 0
	r.Subscribe(func() { calls++ })

	// a write would fail, so success proves nothing was persisted
	backend.failWrites = true
	require.NoError(t, r.Delete("missing"))

	assert.Equal(t, before, r.Topics())
	assert.Zero(t, calls)
}

func TestRegistry_DeleteRemovesMatch(t *testing.T) {
	r := newTestRegistry(t, storage.NewMemory())
	a, _ := r.Add("a")
	b, _ := r.Add("b")
	c, _ := r.Add("c")

	require.NoError(t, r.Delete(b.ID))

	list := r.Topics()
	require.Len(t, list, 2)
	assert.Equal(t, c.ID, list[0].ID)
	assert.Equal(t, a.ID, list[1].ID)
}

func TestRegistry_PersistFailureDoesNotNotify(t *testing.T) {
	backend := &flakyBackend{}
	r := NewRegistry(backend)
	calls := 0
	r.Subscribe(func() { calls++ })

	backend.failWrites = true
	_, err := r.Add("a")
	require.ErrorIs(t, err, storage.ErrUnavailable)
	assert.Zero(t, calls)
	assert.Empty(t, r.Topics())
}

func TestRegistry_CorruptStorageReadsEmpty(t *testing.T) {
	backend := storage.NewMemory()
	require.NoError(t, backend.Set(StorageKey, []byte("{oops")))
	r := NewRegistry(backend)

	assert.NotPanics(t, func() {
		assert.Empty(t, r.Topics())
	})
	_, ok := r.Find("x")
	assert.False(t, ok)
}

func TestRegistry_PersistsAcrossInstances(t *testing.T) {
	backend := storage.NewMemory()
	created, err := NewRegistry(backend).Add("test/1/x/proto")
	require.NoError(t, err)

	reopened := NewRegistry(backend)
	got, ok := reopened.Find(created.ID)
	require.True(t, ok)
	assert.Equal(t, "test/1/x/proto", got.Topic)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
}
