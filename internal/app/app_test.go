package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/wakubase/internal/relay"
	"github.com/five82/wakubase/internal/state"
)

// node is a minimal relay node: healthy, accepts subscriptions, serves a
// fixed message list and records publishes.
type node struct {
	mu        sync.Mutex
	messages  []relay.Message
	published []relay.Message
}

func (n *node) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch {
	case r.URL.Path == "/health":
		_, _ = io.WriteString(w, "Node is healthy")
	case r.URL.Path == "/relay/v1/auto/subscriptions":
		_, _ = io.WriteString(w, "OK")
	case r.Method == http.MethodPost && r.URL.Path == "/relay/v1/auto/messages":
		var m relay.Message
		_ = json.NewDecoder(r.Body).Decode(&m)
		n.published = append(n.published, m)
	case strings.HasPrefix(r.URL.Path, "/relay/v1/auto/messages/"):
		_ = json.NewEncoder(w).Encode(n.messages)
	default:
		http.NotFound(w, r)
	}
}

// setup writes a config that keeps storage and logs inside a temp dir and
// isolates HOME, the working directory and the global logger.
func setup(t *testing.T) (cfgPath, dir string) {
	t.Helper()
	dir = t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)

	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	cfgPath = filepath.Join(dir, "config.toml")
	content := fmt.Sprintf(`[storage]
backend = "file"
path = %q

[log]
level = "debug"
file = %q

[poll]
messages_interval = "20ms"
health_interval = "1s"
request_timeout = "2s"
`, filepath.Join(dir, "storage.toml"), filepath.Join(dir, "wakubase.log"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))
	return cfgPath, dir
}

func execute(t *testing.T, ctx context.Context, cfgPath string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func TestTopicsCommands(t *testing.T) {
	cfg, _ := setup(t)
	ctx := context.Background()

	out, err := execute(t, ctx, cfg, "topics", "add", "/app/1/chat/proto")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	out, err = execute(t, ctx, cfg, "topics", "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "/app/1/chat/proto")

	_, err = execute(t, ctx, cfg, "topics", "add", "   ")
	require.Error(t, err)

	_, err = execute(t, ctx, cfg, "topics", "rm", "missing")
	require.Error(t, err)

	_, err = execute(t, ctx, cfg, "topics", "rm", id)
	require.NoError(t, err)
	out, err = execute(t, ctx, cfg, "topics", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, id)
}

func TestSettingsCommands(t *testing.T) {
	cfg, _ := setup(t)
	ctx := context.Background()

	out, err := execute(t, ctx, cfg, "settings", "get", "nodeUrl")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8645\n", out)

	_, err = execute(t, ctx, cfg, "settings", "set", "nodeUrl", "http://x:9")
	require.NoError(t, err)
	out, err = execute(t, ctx, cfg, "settings", "get", "nodeUrl")
	require.NoError(t, err)
	assert.Equal(t, "http://x:9\n", out)

	_, err = execute(t, ctx, cfg, "settings", "set", "nodeType", "heavy")
	require.Error(t, err)
	_, err = execute(t, ctx, cfg, "settings", "set", "autoSelectNew", "maybe")
	require.Error(t, err)
	_, err = execute(t, ctx, cfg, "settings", "get", "bogus")
	require.Error(t, err)

	out, err = execute(t, ctx, cfg, "settings", "get")
	require.NoError(t, err)
	assert.Contains(t, out, "nodeType = full\n")
	assert.Contains(t, out, "theme = light\n")

	_, err = execute(t, ctx, cfg, "settings", "reset")
	require.NoError(t, err)
	out, err = execute(t, ctx, cfg, "settings", "get", "nodeUrl")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8645\n", out)
}

func TestHealthCommand(t *testing.T) {
	cfg, _ := setup(t)
	ctx := context.Background()
	server := httptest.NewServer(&node{})
	t.Cleanup(server.Close)

	_, err := execute(t, ctx, cfg, "settings", "set", "nodeUrl", server.URL)
	require.NoError(t, err)

	out, err := execute(t, ctx, cfg, "health")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "healthy"), out)

	_, err = execute(t, ctx, cfg, "settings", "set", "nodeType", "light")
	require.NoError(t, err)
	out, err = execute(t, ctx, cfg, "health")
	require.ErrorIs(t, err, ErrUnhealthy)
	assert.True(t, strings.HasPrefix(out, "unhealthy"), out)
}

func TestSendCommand(t *testing.T) {
	cfg, _ := setup(t)
	n := &node{}
	server := httptest.NewServer(n)
	t.Cleanup(server.Close)

	_, err := execute(t, context.Background(), cfg, "settings", "set", "nodeUrl", server.URL)
	require.NoError(t, err)
	_, err = execute(t, context.Background(), cfg, "send", "/app/1/chat/proto", "hello", "there")
	require.NoError(t, err)

	n.mu.Lock()
	defer n.mu.Unlock()
	require.Len(t, n.published, 1)
	assert.Equal(t, "/app/1/chat/proto", n.published[0].ContentTopic)
	assert.Equal(t, relay.EncodePayload("hello there"), n.published[0].Payload)
}

func TestWatchCommandPrintsMessages(t *testing.T) {
	cfg, _ := setup(t)
	const topic = "/app/1/chat/proto"
	n := &node{messages: []relay.Message{
		{Payload: relay.EncodePayload("first"), ContentTopic: topic, Timestamp: "1700000000000"},
		{Payload: relay.EncodePayload("second"), ContentTopic: topic, Timestamp: "1700000001000"},
		{Payload: "%%%", ContentTopic: topic, Timestamp: "1700000002000"},
	}}
	server := httptest.NewServer(n)
	t.Cleanup(server.Close)

	_, err := execute(t, context.Background(), cfg, "settings", "set", "nodeUrl", server.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	out, err := execute(t, ctx, cfg, "watch", topic)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3, out)
	assert.True(t, strings.HasSuffix(lines[0], "first"))
	assert.True(t, strings.HasSuffix(lines[1], "second"))
	assert.Contains(t, lines[2], "[undecodable] %%%")
}

func TestWatchRequiresFullNode(t *testing.T) {
	cfg, _ := setup(t)
	_, err := execute(t, context.Background(), cfg, "settings", "set", "nodeType", "light")
	require.NoError(t, err)

	_, err = execute(t, context.Background(), cfg, "watch", "/app/1/chat/proto")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "full node")
}

func TestLogsCommand(t *testing.T) {
	cfg, dir := setup(t)
	logFile := filepath.Join(dir, "wakubase.log")
	require.NoError(t, os.WriteFile(logFile, []byte(
		`{"level":"warn","time":"2026-01-02T15:04:05Z","message":"node health check failed","node_url":"http://x:9"}`+"\n"), 0o600))

	out, err := execute(t, context.Background(), cfg, "logs", "-n", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "WRN node health check failed node_url=http://x:9")
}

func TestPrinterSkipsSeenMessagesAndRepeatsNoErrors(t *testing.T) {
	var out, errOut bytes.Buffer
	p := newPrinter(&out, &errOut)
	msg := func(ts, text string) state.Message {
		return state.Message{Message: relay.Message{Payload: relay.EncodePayload(text), Timestamp: relay.Timestamp(ts)}}
	}

	p.print(state.Snapshot{Messages: []state.Message{msg("2", "b"), msg("1", "a")}})
	p.print(state.Snapshot{Messages: []state.Message{msg("3", "c"), msg("2", "b"), msg("1", "a")}})
	p.print(state.Snapshot{LastError: fmt.Errorf("Failed to fetch: 503 - down")})
	p.print(state.Snapshot{LastError: fmt.Errorf("Failed to fetch: 503 - down")})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[0], "  a"))
	assert.True(t, strings.HasSuffix(lines[2], "  c"))
	assert.Equal(t, "Failed to fetch: 503 - down\n", errOut.String())
}

func TestBootstrapWiresSelectionToFeed(t *testing.T) {
	cfg, _ := setup(t)
	server := httptest.NewServer(&node{})
	t.Cleanup(server.Close)

	svc, err := Bootstrap(Options{ConfigPath: cfg})
	require.NoError(t, err)
	require.NoError(t, svc.Settings.Set("nodeUrl", server.URL))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	created, err := svc.Selection.Add("/app/1/chat/proto")
	require.NoError(t, err)
	snap := svc.Feed.Snapshot()
	assert.Equal(t, created.ID, snap.TopicID)
	assert.Equal(t, "/app/1/chat/proto", snap.Topic)

	require.NoError(t, svc.Close())
	require.NoError(t, svc.Close())
}
