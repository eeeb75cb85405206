package handlers

import (
	"VaultSync/internal/config"
	"VaultSync/internal/middleware"
	"VaultSync/internal/model"
	"VaultSync/internal/service"
	"net/http"

	"go.uber.org/zap"
)

// UserHandler — регистрация, вход и текущий пользователь.
type UserHandler struct {
	UserService *service.UserService
	Logger      *zap.SugaredLogger
	Config      *config.Config
}

// NewUserHandler создаёт хендлер пользователей
func NewUserHandler(userService *service.UserService, logger *zap.SugaredLogger, cfg *config.Config) *UserHandler {
	return &UserHandler{UserService: userService, Logger: logger, Config: cfg}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse — ответ регистрации и входа.
type AuthResponse struct {
	User  model.PublicUser `json:"user"`
	Token string           `json:"token"`
}

// Register регистрация пользователя
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeBody(w, r, h.Logger, "Register", &req) {
		return
	}
	user, err := h.UserService.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		writeError(w, h.Logger, "Register", err)
		return
	}
	h.login(w, http.StatusCreated, user)
}

// Login вход пользователя
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, h.Logger, "Login", &req) {
		return
	}
	user, err := h.UserService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.Logger, "Login", err)
		return
	}
	h.login(w, http.StatusOK, user)
}

func (h *UserHandler) login(w http.ResponseWriter, status int, user *model.User) {
	token, err := middleware.SetLoginCookie(w, user.ID, h.Config.AuthSecret)
	if err != nil {
		h.Logger.Errorw("failed to issue token", "user_id", user.ID, "error", err)
		writeFail(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	h.Logger.Infow("user authenticated", "user_id", user.ID)
	writeJSON(w, status, AuthResponse{User: user.Public(), Token: token})
}

// Me текущий пользователь по токену
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	user, err := h.UserService.Get(r.Context(), userID)
	if err != nil {
		writeError(w, h.Logger, "Me", err)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}
