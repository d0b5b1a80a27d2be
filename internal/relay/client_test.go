package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	require.NoError(t, err)
	assert.Equal(t, defaultNodeURL, u)

	u, err = parseBaseURL("127.0.0.1:9000")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000", u)

	u, err = parseBaseURL("http://example.com:1234/prefix/?x=1#frag")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com:1234/prefix", u)

	_, err = parseBaseURL("http://")
	assert.Error(t, err)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(StaticURL(server.URL))
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestClient_Health(t *testing.T) {
	t.Parallel()

	var status atomic.Int32
	status.Store(http.StatusOK)
	var gotUserAgent atomic.Value
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent.Store(r.Header.Get("User-Agent"))
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(int(status.Load()))
		_, _ = io.WriteString(w, "Node is healthy")
	})

	require.NoError(t, c.Health(testContext(t)))
	assert.Equal(t, defaultUserAgent, gotUserAgent.Load())

	status.Store(http.StatusNoContent)
	err := c.Health(testContext(t))
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNoContent, statusErr.StatusCode)

	status.Store(http.StatusServiceUnavailable)
	err = c.Health(testContext(t))
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "Node is healthy", statusErr.Body)
}

func TestClient_SubscribeSendsTopicsAndHeaders(t *testing.T) {
	t.Parallel()

	var gotBody []string
	var gotAccept, gotContentType, gotMethod string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAccept = r.Header.Get("Accept")
		gotContentType = r.Header.Get("Content-Type")
		assert.Equal(t, "/relay/v1/auto/subscriptions", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = io.WriteString(w, "OK")
	})

	require.NoError(t, c.Subscribe(testContext(t), "/app/1/chat/proto"))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "text/plain", gotAccept)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, []string{"/app/1/chat/proto"}, gotBody)
}

func TestClient_SubscribeFailureCarriesStatusAndBody(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "bad topic\n")
	})

	err := c.Subscribe(testContext(t), "nope")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, "bad topic", statusErr.Body)
	assert.Equal(t, subscriptionsPath, statusErr.Path)
}

func TestEscapeTopic(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"/app/1/chat/proto":    "%2Fapp%2F1%2Fchat%2Fproto",
		"/a/1/b c/proto":       "%2Fa%2F1%2Fb%20c%2Fproto",
		"/a/1/x+y:z@w/proto":   "%2Fa%2F1%2Fx%2By%3Az%40w%2Fproto",
		"/a/1/it's(1)*!~/json": "%2Fa%2F1%2Fit's(1)*!~%2Fjson",
		"/a/1/q?k=v&n#f/proto": "%2Fa%2F1%2Fq%3Fk%3Dv%26n%23f%2Fproto",
	}
	for topic, want := range cases {
		assert.Equal(t, want, escapeTopic(topic), topic)
	}
}

func TestClient_MessagesSendsSpacesAsPercent20(t *testing.T) {
	t.Parallel()

	got := make(chan string, 1)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got <- r.URL.EscapedPath()
		_, _ = io.WriteString(w, `[]`)
	})

	_, err := c.Messages(testContext(t), "/a/1/b c+d:e/proto")
	require.NoError(t, err)
	assert.Equal(t, "/relay/v1/auto/messages/%2Fa%2F1%2Fb%20c%2Bd%3Ae%2Fproto", <-got)
}

func TestClient_MessagesEscapesTopic(t *testing.T) {
	t.Parallel()

	var gotEscaped string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotEscaped = r.URL.EscapedPath()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"payload":"aGk=","contentTopic":"/app/1/chat/proto","timestamp":1700000000000},
			{"payload":"eW8=","contentTopic":"/app/1/chat/proto","timestamp":"1700000000001"}
		]`)
	})

	msgs, err := c.Messages(testContext(t), "/app/1/chat/proto")
	require.NoError(t, err)
	assert.Equal(t, "/relay/v1/auto/messages/%2Fapp%2F1%2Fchat%2Fproto", gotEscaped)
	require.Len(t, msgs, 2)
	assert.Equal(t, Timestamp("1700000000000"), msgs[0].Timestamp)
	assert.Equal(t, Timestamp("1700000000001"), msgs[1].Timestamp)
	text, ok := msgs[0].Text()
	assert.True(t, ok)
	assert.Equal(t, "hi", text)
}

func TestClient_MessagesDecodeError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "{not json")
	})

	_, err := c.Messages(testContext(t), "t")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_Publish(t *testing.T) {
	t.Parallel()

	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, messagesPath, r.URL.Path)
		d := json.NewDecoder(r.Body)
		d.UseNumber()
		_ = d.Decode(&got)
	})

	err := c.Publish(testContext(t), Message{
		Payload:      EncodePayload("hello"),
		ContentTopic: "t",
		Timestamp:    "1700000000000",
	})
	require.NoError(t, err)
	assert.Equal(t, "aGVsbG8=", got["payload"])
	assert.Equal(t, "t", got["contentTopic"])
	assert.Equal(t, json.Number("1700000000000"), got["timestamp"])
}

type switchingURL struct {
	mu  sync.Mutex
	url string
}

func (s *switchingURL) NodeURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

func TestClient_ReadsNodeURLPerRequest(t *testing.T) {
	t.Parallel()

	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	t.Cleanup(first.Close)
	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(second.Close)

	source := &switchingURL{url: first.URL}
	c := NewClient(source)
	require.NoError(t, c.Health(testContext(t)))

	source.mu.Lock()
	source.url = second.URL
	source.mu.Unlock()
	assert.Error(t, c.Health(testContext(t)))
}

func TestClient_TimeoutAndCancellation(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	c := NewClient(StaticURL(server.URL), WithTimeout(50*time.Millisecond))
	err := c.Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute request")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = NewClient(StaticURL(server.URL)).Health(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestClient_NilReceiver(t *testing.T) {
	var c *Client
	assert.Error(t, c.Health(context.Background()))
	_, err := c.Messages(context.Background(), "t")
	assert.Error(t, err)
}
