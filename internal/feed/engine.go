package feed

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/five82/wakubase/internal/events"
	"github.com/five82/wakubase/internal/metrics"
	"github.com/five82/wakubase/internal/poll"
	"github.com/five82/wakubase/internal/relay"
	"github.com/five82/wakubase/internal/settings"
	"github.com/five82/wakubase/internal/state"
)

// DefaultInterval is the message poll cadence.
const DefaultInterval = 2 * time.Second

// Settings is the slice of the settings store the engine reads.
type Settings interface {
	NodeType() settings.NodeType
	OnDidChange(key settings.Key, fn func(any)) func()
}

// Options configure an Engine. Zero values use the defaults.
type Options struct {
	Interval time.Duration
	Metrics  *metrics.Metrics
}

// Engine keeps the message list of the selected content topic in sync with
// the relay node.
type Engine struct {
	client   relay.API
	settings Settings
	interval time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time

	store     state.Store
	listeners events.Emitter[struct{}, state.Snapshot]

	// mu guards the selection fields below.
	mu      sync.Mutex
	topicID string
	topic   string
	applied bool
	root    context.Context

	// run serializes teardown and start of the sync loop.
	run     sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	task    *poll.Task
	subs    sync.WaitGroup
	unsubs  []func()
}

// NewEngine builds an idle Engine.
func NewEngine(client relay.API, source Settings, opts Options) *Engine {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Engine{
		client:   client,
		settings: source,
		interval: opts.Interval,
		metrics:  opts.Metrics,
		now:      time.Now,
		root:     context.Background(),
	}
}

// Start binds the engine to ctx and restarts the current selection whenever
// nodeUrl or nodeType change.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	e.root = ctx
	e.mu.Unlock()

	e.run.Lock()
	e.stopped = false
	e.run.Unlock()

	restart := func(any) { e.Restart() }
	e.unsubs = append(e.unsubs,
		e.settings.OnDidChange(settings.KeyNodeURL, restart),
		e.settings.OnDidChange(settings.KeyNodeType, restart),
	)
}

// Stop tears down the current selection and waits for in-flight subscribe
// requests. The message list is kept. Restarts that race with Stop, such as
// a settings change already being dispatched, do not start a new loop.
func (e *Engine) Stop() {
	e.run.Lock()
	e.stopped = true
	e.run.Unlock()

	for _, unsub := range e.unsubs {
		unsub()
	}
	e.unsubs = nil

	e.run.Lock()
	e.teardown()
	e.run.Unlock()
	e.subs.Wait()
}

// Select switches to topic. Selecting the pair that is already active does
// nothing. Otherwise the previous topic stops syncing and the message list
// is emptied before anything for the new topic is fetched. An empty topic,
// or a node type other than full, leaves the engine idle.
func (e *Engine) Select(topicID, topic string) {
	e.mu.Lock()
	if e.applied && e.topicID == topicID && e.topic == topic {
		e.mu.Unlock()
		return
	}
	e.topicID, e.topic, e.applied = topicID, topic, true
	e.mu.Unlock()

	e.restart()
}

// Restart re-runs the current selection from scratch.
func (e *Engine) Restart() {
	e.mu.Lock()
	applied := e.applied
	e.mu.Unlock()
	if applied {
		e.restart()
	}
}

func (e *Engine) restart() {
	e.run.Lock()
	defer e.run.Unlock()
	if e.stopped {
		return
	}

	e.teardown()

	e.mu.Lock()
	topicID, topic, root := e.topicID, e.topic, e.root
	e.mu.Unlock()

	e.store.Reset(topicID, topic)
	e.notify()

	if topicID == "" || topic == "" {
		return
	}
	if e.settings.NodeType() != settings.NodeFull {
		log.Debug().Str("topic", topic).Msg("node type is not full, not syncing")
		return
	}

	ctx, cancel := context.WithCancel(root)
	e.cancel = cancel

	e.subs.Add(1)
	go func() {
		defer e.subs.Done()
		e.subscribe(ctx, topic)
	}()
	e.task = poll.Start(ctx, poll.Options{Interval: e.interval}, func(ctx context.Context) {
		e.fetch(ctx, topic)
	})
}

// teardown stops the running loop. No unsubscribe request is sent; the node
// keeps relaying the old topic. Callers hold e.run.
func (e *Engine) teardown() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.task.Stop()
	e.task = nil
}

func (e *Engine) subscribe(ctx context.Context, topic string) {
	log.Info().Str("topic", topic).Msg("subscribing to content topic")
	err := e.client.Subscribe(ctx, topic)
	if ctx.Err() != nil {
		return
	}
	e.metrics.ObserveSubscribe(err)
	if err != nil {
		e.fail(requestError("subscribe", err), topic)
		return
	}
	e.store.RecordSuccess()
	e.notify()
}

func (e *Engine) fetch(ctx context.Context, topic string) {
	msgs, err := e.client.Messages(ctx, topic)
	if ctx.Err() != nil {
		return
	}
	e.metrics.ObservePoll(err)
	if err != nil {
		e.fail(requestError("fetch", err), topic)
		return
	}
	if n := e.store.Merge(topic, msgs); n > 0 {
		e.metrics.AddMessages(n)
		log.Debug().Str("topic", topic).Int("count", n).Msg("new messages received")
	}
	e.store.RecordSuccess()
	e.notify()
}

func (e *Engine) fail(err *RequestError, topic string) {
	log.Warn().Err(err.Err).Str("op", err.Op).Str("topic", topic).Msg(err.Error())
	e.store.RecordError(err)
	e.notify()
}

// Send publishes text on the selected topic. The caller keeps its input on
// error and clears it on success.
func (e *Engine) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	e.mu.Lock()
	topic := e.topic
	e.mu.Unlock()
	return e.SendTo(ctx, topic, text)
}

// SendTo publishes text on topic without touching the current selection.
func (e *Engine) SendTo(ctx context.Context, topic, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	if topic == "" {
		return ErrNoTopic
	}

	err := e.client.Publish(ctx, relay.Message{
		Payload:      relay.EncodePayload(text),
		ContentTopic: topic,
		Timestamp:    relay.TimestampAt(e.now()),
	})
	e.metrics.ObservePublish(err)
	if err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("publish failed")
		return requestError("send", err)
	}
	log.Info().Str("topic", topic).Msg("message published")
	return nil
}

// DeleteMessage removes the message with timestamp ts locally.
func (e *Engine) DeleteMessage(ts relay.Timestamp) {
	if e.store.Delete(ts) {
		e.notify()
	}
}

// ClearMessages empties the local message list.
func (e *Engine) ClearMessages() {
	e.store.Clear()
	e.notify()
}

// MarkSeen clears the new flag on every held message.
func (e *Engine) MarkSeen() {
	e.store.MarkSeen()
	e.notify()
}

// Snapshot returns a copy of the current message state.
func (e *Engine) Snapshot() state.Snapshot {
	return e.store.Snapshot()
}

// OnUpdate registers fn for every state change. fn runs on the goroutine
// that made the change, which may be the poll loop; it must not call Select,
// Restart or Stop.
func (e *Engine) OnUpdate(fn func(state.Snapshot)) func() {
	return e.listeners.On(struct{}{}, fn)
}

func (e *Engine) notify() {
	if e.listeners.Len(struct{}{}) == 0 {
		return
	}
	e.listeners.Emit(struct{}{}, e.store.Snapshot())
}
