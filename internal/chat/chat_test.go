package chat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/traetodo/internal/docstore"
)

func staticKey(k string) KeySource {
	return func() string { return k }
}

func testClient(url, key string) *Client {
	c := NewClient(staticKey(key))
	c.Endpoint = url
	return c
}

// ============================================================
// Client
// ============================================================

func TestSendMissingKeyMakesNoRequest(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	for _, key := range []string{"", "   "} {
		c := testClient(srv.URL, key)
		assert.False(t, c.Configured())
		assert.Equal(t, MissingKeyReply, c.Send(context.Background(), "hi", nil))
	}
	c := testClient(srv.URL, "")
	c.Key = nil
	assert.Equal(t, MissingKeyReply, c.Send(context.Background(), "hi", nil))

	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestSendBuildsPayload(t *testing.T) {
	var got requestPayload
	var auth, referer, ctype string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		referer = r.Header.Get("HTTP-Referer")
		ctype = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, http.MethodPost, r.Method)
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"sure thing"}}]}`)
	}))
	defer srv.Close()

	history := []Message{
		NewMessage("hello", true),
		NewMessage("hi, how can I help?", false),
	}
	reply := testClient(srv.URL, " sk-test ").Send(context.Background(), "plan my day", history)

	assert.Equal(t, "sure thing", reply)
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, DefaultReferer, referer)
	assert.Equal(t, "application/json", ctype)
	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, DefaultTemperature, got.Temperature)
	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, wireMessage{Role: "user", Content: "hello"}, got.Messages[0])
	assert.Equal(t, wireMessage{Role: "assistant", Content: "hi, how can I help?"}, got.Messages[1])
	assert.Equal(t, wireMessage{Role: "user", Content: "plan my day"}, got.Messages[2])
}

func TestSendNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"bad key"}`)
	}))
	defer srv.Close()

	reply := testClient(srv.URL, "k").Send(context.Background(), "x", nil)
	assert.Equal(t, `Error: 401 Unauthorized - {"error":"bad key"}`, reply)
}

func TestSendMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `not json`)
	}))
	defer srv.Close()

	reply := testClient(srv.URL, "k").Send(context.Background(), "x", nil)
	assert.True(t, strings.HasPrefix(reply, "An error occurred: decode response"), reply)
}

func TestSendNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	reply := testClient(srv.URL, "k").Send(context.Background(), "x", nil)
	assert.Equal(t, "An error occurred: "+errNoChoices.Error(), reply)
}

func TestSendTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	reply := testClient(url, "k").Send(context.Background(), "x", nil)
	assert.True(t, strings.HasPrefix(reply, "An error occurred: "), reply)
}

// ============================================================
// Session
// ============================================================

func memSession(t *testing.T) (*Session, *docstore.Document[Message]) {
	t.Helper()
	doc := docstore.New[Message](afero.NewMemMapFs(), "/data/messages.json", nil)
	return OpenSession(doc), doc
}

func TestSessionBeginFinish(t *testing.T) {
	s, doc := memSession(t)

	history, err := s.Begin("  first  ")
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.True(t, s.InFlight())
	require.Len(t, s.Messages(), 1)
	assert.Equal(t, "first", s.Messages()[0].Content)
	assert.True(t, s.Messages()[0].IsUser)

	_, err = s.Begin("second")
	assert.ErrorIs(t, err, ErrBusy)

	require.NoError(t, s.Finish("answer"))
	assert.False(t, s.InFlight())

	history, err = s.Begin("second")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "answer", history[1].Content)
	require.NoError(t, s.Finish(""))

	stored := doc.LoadAll()
	require.Len(t, stored, 4)
	assert.Equal(t, EmptyReply, stored[3].Content)
	assert.False(t, stored[3].IsUser)
}

func TestSessionRejectsBlank(t *testing.T) {
	s, _ := memSession(t)
	_, err := s.Begin("   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.False(t, s.InFlight())
}

func TestSessionReloadAndClear(t *testing.T) {
	s, doc := memSession(t)
	s.Begin("hello")
	s.Finish("hi")

	reopened := OpenSession(doc)
	assert.Equal(t, 2, reopened.Len())

	require.NoError(t, reopened.Clear())
	assert.Empty(t, OpenSession(doc).Messages())
}

func TestSessionAbort(t *testing.T) {
	s, _ := memSession(t)
	s.Begin("hello")
	s.Abort(assert.AnError)
	assert.False(t, s.InFlight())
	assert.Equal(t, "Error: "+assert.AnError.Error(), s.Messages()[1].Content)
}

// ============================================================
// Autopilot
// ============================================================

func TestAutopilotRotation(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a := NewAutopilot(true, 2, start)

	_, ok := a.Tick(start.Add(time.Minute), false, 3)
	assert.False(t, ok, "interval not elapsed")

	now := start
	var got []string
	for i := 0; i < 4; i++ {
		now = now.Add(2 * time.Minute)
		p, ok := a.Tick(now, false, 3)
		require.True(t, ok)
		got = append(got, p)
	}
	assert.Equal(t, []string{soloPrompts[0], soloPrompts[1], soloPrompts[2], soloPrompts[0]}, got)
}

func TestAutopilotSkipsWhenBusyOrEmpty(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a := NewAutopilot(true, 1, start)

	_, ok := a.Tick(start.Add(time.Minute), true, 3)
	assert.False(t, ok, "busy tick is a no-op")

	_, ok = a.Tick(start.Add(2*time.Minute), false, 0)
	assert.False(t, ok, "empty transcript tick is a no-op")

	p, ok := a.Tick(start.Add(3*time.Minute), false, 1)
	require.True(t, ok)
	assert.Equal(t, soloPrompts[0], p, "skipped ticks do not advance the rotation")
}

func TestAutopilotDisabledAndDefaultInterval(t *testing.T) {
	start := time.Now()
	a := NewAutopilot(false, 0, start)
	assert.Equal(t, DefaultSoloInterval, a.Interval())
	_, ok := a.Tick(start.Add(time.Hour), false, 1)
	assert.False(t, ok)

	a.Configure(true, -3, start)
	assert.Equal(t, DefaultSoloInterval, a.Interval())
	assert.Equal(t, DefaultSoloInterval, a.Remaining(start))
	assert.Equal(t, time.Duration(0), a.Remaining(start.Add(time.Hour)))
}

func TestAutopilotDue(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a := NewAutopilot(true, 1, start)
	assert.False(t, a.Due(start.Add(59*time.Second)))
	assert.True(t, a.Due(start.Add(time.Minute)))

	a.Configure(false, 1, start)
	assert.False(t, a.Due(start.Add(time.Hour)))
}
