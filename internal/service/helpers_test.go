package service

import (
	"VaultSync/internal/cache"
	"VaultSync/internal/metadata"
	"VaultSync/internal/model"
	"VaultSync/internal/repo"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(repo.Models()...))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

type emitted struct {
	Group string
	Type  string
	Data  any
}

// recordingBus запоминает рассылки; err имитирует недоступный хаб.
type recordingBus struct {
	mu     sync.Mutex
	events []emitted
	err    error
}

func (b *recordingBus) Emit(group, eventType string, data any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.events = append(b.events, emitted{Group: group, Type: eventType, Data: data})
	return nil
}

func (b *recordingBus) all() []emitted {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]emitted(nil), b.events...)
}

// downCache — кэш, который всегда недоступен.
type downCache struct{}

func (downCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, cache.ErrUnavailable
}
func (downCache) Set(context.Context, string, []byte, time.Duration) error { return cache.ErrUnavailable }
func (downCache) Delete(context.Context, ...string) error { return cache.ErrUnavailable }
func (downCache) DeletePattern(context.Context, string) error { return cache.ErrUnavailable }

type fakeFetcher struct {
	page  metadata.Page
	err   error
	calls int

	// deadline контекста последнего вызова
	deadline    time.Time
	hasDeadline bool
}

func (f *fakeFetcher) Fetch(ctx context.Context, _ string) (metadata.Page, error) {
	f.calls++
	f.deadline, f.hasDeadline = ctx.Deadline()
	return f.page, f.err
}

type countingRecorder struct {
	mu   sync.Mutex
	deps map[string]int
}

func (r *countingRecorder) Degraded(dep string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deps == nil {
		r.deps = map[string]int{}
	}
	r.deps[dep]++
}

// testEnv — сервисы поверх общей in-memory БД.
type testEnv struct {
	db          *gorm.DB
	cache       cache.Cache
	bus         *recordingBus
	fetcher     *fakeFetcher
	recorder    *countingRecorder
	users       *UserService
	access      *AccessService
	vaults      *VaultService
	sources     *SourceService
	annotations *AnnotationService
	sourceRepo  repo.SourceRepository
	auditRepo   repo.AuditRepository
	members     repo.MembershipRepository
}

func newEnv(t *testing.T, c cache.Cache) *testEnv {
	t.Helper()
	db := newTestDB(t)
	if c == nil {
		c = cache.NewMemory()
	}
	e := &testEnv{
		db:       db,
		cache:    c,
		bus:      &recordingBus{},
		fetcher:  &fakeFetcher{page: metadata.Page{Title: "Example Domain", Description: "An example"}},
		recorder: &countingRecorder{},
	}
	userRepo := repo.NewUserRepository(db)
	vaultRepo := repo.NewVaultRepository(db)
	e.members = repo.NewMembershipRepository(db)
	e.sourceRepo = repo.NewSourceRepository(db)
	annRepo := repo.NewAnnotationRepository(db)
	e.auditRepo = repo.NewAuditRepository(db)

	collab := Collaborators{
		Audit:    e.auditRepo,
		Cache:    c,
		Bus:      e.bus,
		Recorder: e.recorder,
		Logger:   zap.NewNop().Sugar(),
	}
	e.users = NewUserService(userRepo)
	e.access = NewAccessService(e.members, e.sourceRepo)
	e.vaults = NewVaultService(vaultRepo, e.members, userRepo, e.access, collab)
	e.sources = NewSourceService(e.sourceRepo, annRepo, e.access, e.fetcher, collab)
	e.annotations = NewAnnotationService(annRepo, userRepo, e.access, collab)
	return e
}

func (e *testEnv) register(t *testing.T, email, name string) *model.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), email, name, "secret")
	require.NoError(t, err)
	return u
}

// vaultWith создаёт хранилище владельца и приглашает участников с ролями.
func (e *testEnv) vaultWith(t *testing.T, owner *model.User, invites map[*model.User]model.Role) *model.Vault {
	t.Helper()
	ctx := context.Background()
	v, _, err := e.vaults.CreateVault(ctx, owner.ID, "Research", "")
	require.NoError(t, err)
	for u, role := range invites {
		_, _, err := e.vaults.Invite(ctx, owner.ID, v.ID, u.Email, string(role))
		require.NoError(t, err)
	}
	return v
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
