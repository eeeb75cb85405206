package handlers

import (
	"VaultSync/internal/middleware"
	"VaultSync/internal/service"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// reasonInvalidRequest — тело запроса не разобралось.
const reasonInvalidRequest = "invalid_request"

// ErrorResponse — тело любого ответа с ошибкой.
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFail(w http.ResponseWriter, status int, reason, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Reason: reason})
}

// statusOf сопоставляет вид ошибки сервиса HTTP-статусу.
func statusOf(err error) int {
	switch {
	case service.ReasonOf(err) == service.ReasonFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError отвечает ошибкой сервиса; неизвестные ошибки — 500 без подробностей.
func writeError(w http.ResponseWriter, logger *zap.SugaredLogger, op string, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logger.Errorw(op+": internal error", "error", err)
		writeFail(w, status, "internal", "internal error")
		return
	}
	logger.Debugw(op+": rejected", "status", status, "reason", service.ReasonOf(err))
	writeFail(w, status, service.ReasonOf(err), err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, op string, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Warnw(op+": invalid request body", "error", err)
		writeFail(w, http.StatusBadRequest, reasonInvalidRequest, "invalid request")
		return false
	}
	return true
}

// markDegraded логирует деградировавшие зависимости записи и отдаёт их
// в заголовке X-Degraded. Запись при этом считается успешной.
func markDegraded(w http.ResponseWriter, logger *zap.SugaredLogger, op string, ds []service.Degradation) {
	if len(ds) == 0 {
		return
	}
	deps := make([]string, 0, len(ds))
	for _, d := range ds {
		deps = append(deps, d.Dependency)
	}
	logger.Warnw(op+": completed with degraded dependencies", "dependencies", deps)
	w.Header().Set("X-Degraded", strings.Join(deps, ","))
}

// currentUser достаёт пользователя из контекста; анонимному запросу отвечает 401.
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeFail(w, http.StatusUnauthorized, service.ReasonUnauthorized, "authentication required")
	}
	return userID, ok
}
