package autosave

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type captureServer struct {
	mu   sync.Mutex
	reqs []SaveRequest
}

func (c *captureServer) handler(w http.ResponseWriter, r *http.Request) {
	var sr SaveRequest
	_ = json.NewDecoder(r.Body).Decode(&sr)
	c.mu.Lock()
	c.reqs = append(c.reqs, sr)
	c.mu.Unlock()
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"ok":true}`))
}

func (c *captureServer) requests() []SaveRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]SaveRequest(nil), c.reqs...)
}

func TestClientDebouncesRapidChanges(t *testing.T) {
	cap := &captureServer{}
	srv := httptest.NewServer(http.HandlerFunc(cap.handler))
	defer srv.Close()

	c := NewClient(srv.URL, "key", 20*time.Millisecond)
	defer c.Close()

	for i := 0; i < 10; i++ {
		c.Change(SaveRequest{User: "0xabc", DataType: "scale", ID: "r", Payload: json.RawMessage(`{"rev":` + string(rune('0'+i)) + `}`)})
	}

	require.Eventually(t, func() bool {
		return len(cap.requests()) == 1
	}, time.Second, 5*time.Millisecond)
	got := cap.requests()[0]
	require.Equal(t, "0xabc", got.User)
	require.JSONEq(t, `{"rev":9}`, string(got.Payload))
}

func TestClientSubmitFlushesImmediately(t *testing.T) {
	cap := &captureServer{}
	srv := httptest.NewServer(http.HandlerFunc(cap.handler))
	defer srv.Close()

	c := NewClient(srv.URL, "key", time.Hour)
	defer c.Close()

	c.Change(SaveRequest{User: "0xabc", DataType: "scale", ID: "r", Payload: json.RawMessage(`1`)})
	c.Submit()

	require.Len(t, cap.requests(), 1)
}

func TestClientCloseDropsPendingSave(t *testing.T) {
	cap := &captureServer{}
	srv := httptest.NewServer(http.HandlerFunc(cap.handler))
	defer srv.Close()

	c := NewClient(srv.URL, "key", 20*time.Millisecond)
	c.Change(SaveRequest{User: "0xabc", DataType: "scale", Payload: json.RawMessage(`1`)})
	c.Close()

	time.Sleep(60 * time.Millisecond)
	require.Empty(t, cap.requests())
}
