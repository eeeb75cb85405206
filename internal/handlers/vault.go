package handlers

import (
	"VaultSync/internal/service"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// VaultHandler — хранилища и их участники.
type VaultHandler struct {
	VaultService *service.VaultService
	Logger       *zap.SugaredLogger
}

func NewVaultHandler(vaultService *service.VaultService, logger *zap.SugaredLogger) *VaultHandler {
	return &VaultHandler{VaultService: vaultService, Logger: logger}
}

type CreateVaultRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type InviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Create новое хранилище; создатель становится OWNER
func (h *VaultHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req CreateVaultRequest
	if !decodeBody(w, r, h.Logger, "CreateVault", &req) {
		return
	}
	vault, ds, err := h.VaultService.CreateVault(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		writeError(w, h.Logger, "CreateVault", err)
		return
	}
	markDegraded(w, h.Logger, "CreateVault", ds)
	writeJSON(w, http.StatusCreated, vault)
}

// List хранилища пользователя с его ролью
func (h *VaultHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	vaults, err := h.VaultService.ListVaults(r.Context(), userID)
	if err != nil {
		writeError(w, h.Logger, "ListVaults", err)
		return
	}
	writeJSON(w, http.StatusOK, vaults)
}

// Members участники хранилища
func (h *VaultHandler) Members(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	members, err := h.VaultService.Members(r.Context(), userID, chi.URLParam(r, "vaultID"))
	if err != nil {
		writeError(w, h.Logger, "Members", err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// Invite приглашение зарегистрированного пользователя по email
func (h *VaultHandler) Invite(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req InviteRequest
	if !decodeBody(w, r, h.Logger, "Invite", &req) {
		return
	}
	member, ds, err := h.VaultService.Invite(r.Context(), userID, chi.URLParam(r, "vaultID"), req.Email, req.Role)
	if err != nil {
		writeError(w, h.Logger, "Invite", err)
		return
	}
	markDegraded(w, h.Logger, "Invite", ds)
	writeJSON(w, http.StatusCreated, member)
}
