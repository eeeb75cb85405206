package service

import (
	"VaultSync/internal/activity"
	"VaultSync/internal/cache"
	"VaultSync/internal/model"
	"VaultSync/internal/repo"
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Зависимости, чьи сбои не откатывают запись.
const (
	DepAudit     = "audit"
	DepCache     = "cache"
	DepBroadcast = "broadcast"
	DepActivity  = "activity"
	DepMetadata  = "metadata"
)

// Degradation — проглоченный сбой best-effort шага после записи.
type Degradation struct {
	Dependency string `json:"dependency"`
	Error      string `json:"error"`
}

// Broadcaster — рассылка событий группе (realtime.Hub).
type Broadcaster interface {
	Emit(group, eventType string, data any) error
}

// DegradationRecorder учитывает деградации (metrics.Metrics).
type DegradationRecorder interface {
	Degraded(dependency string)
}

// Collaborators — общие внешние зависимости сервисов записи и чтения.
type Collaborators struct {
	Audit    repo.AuditRepository
	Cache    cache.Cache
	Bus      Broadcaster
	Activity activity.Publisher
	Recorder DegradationRecorder
	Logger   *zap.SugaredLogger
	CacheTTL time.Duration
}

var errNoBroadcaster = errors.New("broadcast hub not configured")

type noBus struct{}

func (noBus) Emit(string, string, any) error { return errNoBroadcaster }

type noRecorder struct{}

func (noRecorder) Degraded(string) {}

// followUps выполняет шаги (d)–(f) пути записи и чтение через кэш.
type followUps struct {
	audit    repo.AuditRepository
	cache    cache.Cache
	bus      Broadcaster
	activity activity.Publisher
	recorder DegradationRecorder
	logger   *zap.SugaredLogger
	ttl      time.Duration

	// epoch растёт при каждой инвалидации; ключи кэша принадлежат одному сервису
	epoch atomic.Uint64
}

func newFollowUps(c Collaborators) *followUps {
	f := &followUps{
		audit:    c.Audit,
		cache:    c.Cache,
		bus:      c.Bus,
		activity: c.Activity,
		recorder: c.Recorder,
		logger:   c.Logger,
		ttl:      c.CacheTTL,
	}
	if f.cache == nil {
		f.cache = cache.Nop{}
	}
	if f.bus == nil {
		f.bus = noBus{}
	}
	if f.activity == nil {
		f.activity = activity.Nop{}
	}
	if f.recorder == nil {
		f.recorder = noRecorder{}
	}
	if f.logger == nil {
		f.logger = zap.NewNop().Sugar()
	}
	if f.ttl <= 0 {
		f.ttl = cache.DefaultTTL
	}
	return f
}

// followUpTimeout ограничивает каждый best-effort шаг.
const followUpTimeout = 3 * time.Second

func (f *followUps) context(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), followUpTimeout)
}

func (f *followUps) degrade(ds *[]Degradation, dep string, err error) {
	f.logger.Warnw("degraded follow-up", "dependency", dep, "error", err)
	f.recorder.Degraded(dep)
	*ds = append(*ds, Degradation{Dependency: dep, Error: err.Error()})
}

// record пишет запись аудита и публикует её в поток активности.
func (f *followUps) record(ctx context.Context, ds *[]Degradation, vaultID, actorID, action string, details map[string]any) {
	ctx, cancel := f.context(ctx)
	defer cancel()

	raw, err := json.Marshal(details)
	if err != nil {
		f.degrade(ds, DepAudit, err)
		return
	}
	entry := &model.AuditLogEntry{
		VaultID: vaultID,
		ActorID: actorID,
		Action:  action,
		Details: datatypes.JSON(raw),
	}
	if f.audit == nil {
		f.degrade(ds, DepAudit, errors.New("audit log not configured"))
	} else if err := f.audit.Append(ctx, entry); err != nil {
		f.degrade(ds, DepAudit, err)
	}

	ev := activity.Event{
		ID:        entry.ID,
		VaultID:   vaultID,
		ActorID:   actorID,
		Action:    action,
		Details:   raw,
		Timestamp: entry.CreatedAt,
	}
	if err := f.activity.Publish(ctx, ev); err != nil {
		f.degrade(ds, DepActivity, err)
	}
}

func (f *followUps) invalidate(ctx context.Context, ds *[]Degradation, keys ...string) {
	f.epoch.Add(1)
	ctx, cancel := f.context(ctx)
	defer cancel()
	if err := f.cache.Delete(ctx, keys...); err != nil {
		f.degrade(ds, DepCache, err)
	}
}

func (f *followUps) invalidatePattern(ctx context.Context, ds *[]Degradation, pattern string) {
	f.epoch.Add(1)
	ctx, cancel := f.context(ctx)
	defer cancel()
	if err := f.cache.DeletePattern(ctx, pattern); err != nil {
		f.degrade(ds, DepCache, err)
	}
}

func (f *followUps) emit(ds *[]Degradation, group, eventType string, data any) {
	if err := f.bus.Emit(group, eventType, data); err != nil {
		f.degrade(ds, DepBroadcast, err)
	}
}

// readThrough отдаёт значение из кэша, иначе загружает из хранилища и кладёт в кэш.
// Ошибки кэша только логируются: данные всё равно читаются из хранилища.
func readThrough[T any](ctx context.Context, f *followUps, key string, load func(context.Context) (T, error)) (T, error) {
	if raw, ok, err := f.cache.Get(ctx, key); err != nil {
		f.logger.Warnw("cache read failed, falling back to store", "key", key, "error", err)
		f.recorder.Degraded(DepCache)
	} else if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		f.logger.Warnw("cache entry undecodable, reloading", "key", key)
	}

	epoch := f.epoch.Load()
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		f.logger.Warnw("cache encode failed", "key", key, "error", err)
		return v, nil
	}
	if err := f.cache.Set(ctx, key, raw, f.ttl); err != nil {
		f.logger.Warnw("cache write failed", "key", key, "error", err)
		f.recorder.Degraded(DepCache)
		return v, nil
	}
	// Инвалидация во время загрузки: значение могло устареть, убираем его.
	if f.epoch.Load() != epoch {
		if err := f.cache.Delete(ctx, key); err != nil {
			f.logger.Warnw("cache drop of racing entry failed", "key", key, "error", err)
		}
	}
	return v, nil
}
