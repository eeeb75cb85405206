package handlers_test

import (
	"VaultSync/internal/cache"
	"VaultSync/internal/config"
	"VaultSync/internal/handlers"
	"VaultSync/internal/metadata"
	"VaultSync/internal/metrics"
	"VaultSync/internal/middleware"
	"VaultSync/internal/realtime"
	"VaultSync/internal/repo"
	"VaultSync/internal/service"
	"VaultSync/internal/storage"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

const testSecret = "test-secret"

type stubFetcher struct{}

func (stubFetcher) Fetch(context.Context, string) (metadata.Page, error) {
	return metadata.Page{Title: "Example Domain", Description: "An example"}, nil
}

type memStore struct{ objects map[string][]byte }

func (s *memStore) PresignPut(_ context.Context, key, _ string) (string, error) {
	return "https://signed.local/put/" + key, nil
}

func (s *memStore) PresignGet(_ context.Context, key string) (string, error) {
	return "https://signed.local/get/" + key, nil
}

func (s *memStore) Put(_ context.Context, key string, data []byte, _ string) error {
	s.objects[key] = data
	return nil
}

func (s *memStore) ObjectURL(key string) string { return "https://files.local/bucket/" + key }

func (s *memStore) Bucket() string { return "bucket" }

// testServer — роутер поверх in-memory SQLite и настоящих сервисов.
type testServer struct {
	router  http.Handler
	hub     *realtime.Hub
	metrics *metrics.Metrics
	store   *memStore
}

type serverOpts struct {
	noStorage bool
}

func newTestServer(t *testing.T, opts serverOpts) *testServer {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Dialector{DriverName: "sqlite", DSN: "file:" + uuid.NewString() + "?mode=memory&cache=shared"}, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(repo.Models()...))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	log := zap.NewNop().Sugar()
	middleware.SetLogger(log)
	cfg := &config.Config{AuthSecret: testSecret, UploadMaxMB: 1}
	hub := realtime.NewHub(log)
	t.Cleanup(hub.Close)
	m := metrics.New()

	users := repo.NewUserRepository(db)
	members := repo.NewMembershipRepository(db)
	sources := repo.NewSourceRepository(db)
	annotations := repo.NewAnnotationRepository(db)
	collab := service.Collaborators{
		Audit:    repo.NewAuditRepository(db),
		Cache:    cache.NewMemory(),
		Bus:      hub,
		Recorder: m,
		Logger:   log,
	}
	access := service.NewAccessService(members, sources)

	ts := &testServer{hub: hub, metrics: m, store: &memStore{objects: map[string][]byte{}}}
	var objects storage.ObjectStore = ts.store
	if opts.noStorage {
		objects = nil
	}
	svc := handlers.Services{
		Users:       service.NewUserService(users),
		Access:      access,
		Vaults:      service.NewVaultService(repo.NewVaultRepository(db), members, users, access, collab),
		Sources:     service.NewSourceService(sources, annotations, access, stubFetcher{}, collab),
		Annotations: service.NewAnnotationService(annotations, users, access, collab),
		Uploads:     service.NewUploadService(objects, cfg.UploadMaxBytes()),
	}
	ts.router = handlers.NewHandler(svc, hub, m, log, cfg).Router
	return ts
}

// do выполняет запрос с bearer-токеном (если задан) и JSON-телом.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, req)
	return rr
}

type authed struct {
	ID    string
	Token string
}

func (ts *testServer) register(t *testing.T, email, name string) authed {
	t.Helper()
	rr := ts.do(t, http.MethodPost, "/api/users/register", "", map[string]string{
		"email": email, "name": name, "password": "secret",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var resp handlers.AuthResponse
	decode(t, rr, &resp)
	return authed{ID: resp.User.ID, Token: resp.Token}
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), dst), rr.Body.String())
}

func errorReason(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var e handlers.ErrorResponse
	decode(t, rr, &e)
	return e.Reason
}

func addAuthCookie(t *testing.T, req *http.Request, userID, secret string) {
	t.Helper()
	rr := httptest.NewRecorder()
	_, err := middleware.SetLoginCookie(rr, userID, secret)
	require.NoError(t, err)
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
}
