package commands

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"VaultSync/internal/cli/live"
	"VaultSync/internal/realtime"

	"go.uber.org/zap"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitForOutput(t *testing.T, b *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(b.String(), want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("output never contained %q:\n%s", want, b.String())
}

type allowAll struct{}

func (allowAll) AuthorizeVault(context.Context, string, string) error  { return nil }
func (allowAll) AuthorizeSource(context.Context, string, string) error { return nil }

func TestWatch_PrintsEventsAndPresence(t *testing.T) {
	hub := realtime.NewHub(zap.NewNop().Sugar())
	fromHeader := func(r *http.Request) (string, bool) {
		tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		return tok, tok != ""
	}
	verify := func(string) (string, error) { return "", ErrNotLoggedIn }

	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"u1","name":"Alice","email":"alice@example.com"}`))
	})
	mux.Handle("/api/ws", realtime.Handler(hub, allowAll{}, fromHeader, verify))
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})

	cfg := withTempConfig(t, srv.URL)
	loggedIn(t, cfg, "u1")

	out := &syncBuffer{}
	old := Out
	Out = out
	defer func() { Out = old }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- (watchCmd{}).Run(ctx, cfg, []string{"v1"}) }()

	waitForOutput(t, out, realtime.EventJoined)
	if err := hub.Emit(realtime.VaultGroup("v1"), realtime.EventSourceAdded, map[string]string{"id": "s-1", "title": "Paper"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	waitForOutput(t, out, "source_added: Paper (s-1)")

	other, err := live.Dial(context.Background(), srv.URL, "u2")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer other.Close()
	if err := other.JoinVault("v1", &realtime.Presence{ID: "u2", Name: "Bob"}); err != nil {
		t.Fatalf("join: %v", err)
	}
	waitForOutput(t, out, "online: Bob")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch must stop cleanly on cancel, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("watch did not stop")
	}
}

func TestWatch_NeedsVault(t *testing.T) {
	cfg := withTempConfig(t, "http://127.0.0.1:1")
	loggedIn(t, cfg, "tok")
	if err := (watchCmd{}).Run(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error without vault")
	}
}
