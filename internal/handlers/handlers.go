package handlers

import (
	"VaultSync/internal/config"
	"VaultSync/internal/metrics"
	"VaultSync/internal/middleware"
	"VaultSync/internal/realtime"
	"VaultSync/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// Services — сервисный слой, с которым работают хендлеры.
type Services struct {
	Users       *service.UserService
	Access      *service.AccessService
	Vaults      *service.VaultService
	Sources     *service.SourceService
	Annotations *service.AnnotationService
	Uploads     *service.UploadService
}

// NewHandler разводящий для хендлеров. hub и m могут быть nil: тогда
// /api/ws и /metrics не регистрируются.
func NewHandler(
	svc Services,
	hub *realtime.Hub,
	m *metrics.Metrics,
	logger *zap.SugaredLogger,
	config *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	if m != nil {
		r.Use(m.Middleware)
	}
	r.Use(middleware.WithAuth(config.AuthSecret))

	// Handlers
	userHandler := NewUserHandler(svc.Users, logger, config)
	vaultHandler := NewVaultHandler(svc.Vaults, logger)
	sourceHandler := NewSourceHandler(svc.Sources, logger)
	annotationHandler := NewAnnotationHandler(svc.Annotations, logger)
	uploadHandler := NewUploadHandler(svc.Uploads, logger)

	// User routes
	r.Post("/api/users/register", userHandler.Register)
	r.Post("/api/users/login", userHandler.Login)
	r.Get("/api/users/me", userHandler.Me)

	// Vault routes
	r.Post("/api/vaults", vaultHandler.Create)
	r.Get("/api/vaults", vaultHandler.List)
	r.Get("/api/vaults/{vaultID}/members", vaultHandler.Members)
	r.Post("/api/vaults/{vaultID}/invite", vaultHandler.Invite)

	// Source routes
	r.Post("/api/sources", sourceHandler.Create)
	r.Get("/api/sources", sourceHandler.List)
	r.Get("/api/sources/{sourceID}", sourceHandler.Get)
	r.Put("/api/sources/{sourceID}/content", sourceHandler.UpdateContent)
	r.Get("/api/sources/{sourceID}/highlights", sourceHandler.Highlights)

	// Annotation routes
	r.Post("/api/annotations", annotationHandler.Create)
	r.Get("/api/annotations", annotationHandler.List)

	// Upload routes
	r.Post("/api/upload/presigned-url", uploadHandler.PresignedURL)
	r.Post("/api/upload/view-url", uploadHandler.ViewURL)
	r.Post("/api/upload", uploadHandler.Upload)

	if m != nil {
		r.Method("GET", "/metrics", m.Handler())
	}
	if hub != nil {
		verify := func(token string) (string, error) {
			return middleware.ParseToken(token, config.AuthSecret)
		}
		r.Get("/api/ws", realtime.Handler(hub, svc.Access, middleware.UserFromRequest, verify))
	}

	return &Handler{Router: r}
}
