package commands

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"VaultSync/internal/cli/repo/fs"
	"VaultSync/internal/config"
)

// withTempConfig — конфиг клиента с токеном во временном каталоге.
func withTempConfig(t *testing.T, serverURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{ServerURL: serverURL, TokenFile: filepath.Join(dir, "token")}
}

// loggedIn сохраняет токен, как после успешного login.
func loggedIn(t *testing.T, cfg *config.Config, token string) fs.AuthFSStore {
	t.Helper()
	store := storeFor(cfg)
	if err := store.Save(token); err != nil {
		t.Fatalf("save token: %v", err)
	}
	return store
}

type recorded struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   []byte
}

// stubAPI — фейковый сервер: отвечает по "METHOD /path" и запоминает запросы.
type stubAPI struct {
	*httptest.Server
	mu       sync.Mutex
	requests []recorded
}

type stubReply struct {
	Status   int
	Body     any
	Degraded string
}

func newStubAPI(t *testing.T, routes map[string]stubReply) *stubAPI {
	t.Helper()
	s := &stubAPI{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.requests = append(s.requests, recorded{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Body:   body,
		})
		s.mu.Unlock()

		reply, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"no route","reason":"not_found"}`))
			return
		}
		if reply.Degraded != "" {
			w.Header().Set("X-Degraded", reply.Degraded)
		}
		status := reply.Status
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(reply.Body)
	}))
	t.Cleanup(s.Close)
	return s
}

// last возвращает последний запрос на path.
func (s *stubAPI) last(t *testing.T, method, path string) recorded {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if s.requests[i].Method == method && s.requests[i].Path == path {
			return s.requests[i]
		}
	}
	t.Fatalf("no %s %s request recorded", method, path)
	return recorded{}
}

func decodeInto(t *testing.T, b []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
}
