// errors.go — доменные ошибки клиентов backend-сервисов.
// 401 транслируется в выделенную ошибку истечения сессии, остальные
// не-2xx ответы несут сообщение сервера (с generic fallback).
package hdclient

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// ErrSessionExpired — backend вернул 401: сессия истекла или токен
// отозван. Вызывающая сторона показывает баннер и инициирует
// отложенный auto-logout.
var ErrSessionExpired = errors.New("сессия истекла, войдите заново")

// ErrNotFound — backend вернул 404.
var ErrNotFound = errors.New("ресурс не найден")

// Сообщение по умолчанию, когда сервер не прислал своё.
const genericErrorMessage = "запрос к сервису завершился ошибкой"

// APIError — ошибка backend-сервиса с его статусом и сообщением.
type APIError struct {
	// StatusCode — HTTP статус ответа.
	StatusCode int
	// Message — сообщение сервера или generic fallback.
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// AuthError — отклонённый вход: неверные credentials или сбой сети
// при обращении к auth-сервису.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// serverMessage — форматы тела ошибки, которые шлют backend-сервисы:
// плоский {"message": "..."} и вложенный {"error": {"message": "..."}}.
type serverMessage struct {
	Message string `json:"message"`
	Error   struct {
		Message string `json:"message"`
	} `json:"error"`
}

// responseError транслирует не-2xx ответ в доменную ошибку.
// Тело ответа вычитывается целиком (ответственность за Close — у вызывающего).
func responseError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrSessionExpired
	case http.StatusNotFound:
		return ErrNotFound
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    extractMessage(resp.Body),
	}
}

// extractMessage достаёт сообщение сервера из тела ошибки.
// Если тело не разбирается или сообщение пустое — generic fallback.
func extractMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 64*1024))
	if err != nil || len(raw) == 0 {
		return genericErrorMessage
	}

	var sm serverMessage
	if err := json.Unmarshal(raw, &sm); err != nil {
		return genericErrorMessage
	}
	if sm.Message != "" {
		return sm.Message
	}
	if sm.Error.Message != "" {
		return sm.Error.Message
	}
	return genericErrorMessage
}
