package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind — класс ошибки API, определяет HTTP-статус ответа
type Kind int

const (
	KindValidation   Kind = iota // 400: некорректный ввод или нарушение бизнес-правила
	KindUnauthorized             // 401: нет или невалидные учетные данные
	KindForbidden                // 403: аутентифицирован, но не имеет прав
	KindNotFound                 // 404: ресурс не найден
	KindConflict                 // 409: нарушение уникальности
)

// Error — типизированная ошибка API с классом и сообщением для клиента
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Wrap сохраняет класс и сообщение, пряча исходную ошибку внутрь цепочки
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Status возвращает HTTP-статус для ошибки; неклассифицированные ошибки — 500
func Status(err error) int {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return http.StatusInternalServerError
	}
	switch apiErr.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ClientMessage возвращает сообщение, безопасное для выдачи клиенту.
// Для неклассифицированных ошибок пусто — границей подставляется общий текст
func ClientMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// IsKind проверяет, относится ли ошибка к указанному классу
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}
