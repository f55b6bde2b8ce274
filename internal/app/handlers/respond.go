package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/linemk/tkani-shop/internal/lib/apperr"
	"github.com/linemk/tkani-shop/internal/lib/logger"
)

var validate = validator.New()

// exposeErrors включает выдачу текста неклассифицированных ошибок клиенту.
// В prod наружу уходит только общий текст
var exposeErrors = false

// SetErrorMode настраивает детализацию ошибок по окружению, вызывается при старте
func SetErrorMode(env string) {
	exposeErrors = env != logger.EnvProd
}

// errorResponse — единый формат ошибок API
type errorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

func writeJSON(log *slog.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error("failed to encode response", slog.Any("error", err))
	}
}

// writeError отображает ошибку сервиса в HTTP-ответ по таксономии apperr.
// Неклассифицированные ошибки — 500 с общим сообщением
func writeError(log *slog.Logger, w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	message := apperr.ClientMessage(err)
	if message == "" {
		log.Error("unclassified error", slog.Any("error", err))
		if exposeErrors {
			message = err.Error()
		} else {
			message = "internal server error"
		}
	}
	writeJSON(log, w, status, errorResponse{Error: true, Message: message})
}

// writeValidationError отвечает 400 на ошибку валидации запроса
func writeValidationError(log *slog.Logger, w http.ResponseWriter, err error) {
	message := "validation error"
	if _, ok := err.(validator.ValidationErrors); ok {
		message = "validation error: " + err.Error()
	}
	writeJSON(log, w, http.StatusBadRequest, errorResponse{Error: true, Message: message})
}
