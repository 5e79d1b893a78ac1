// Пакет hdclient — HTTP-клиенты к backend-сервисам HelpDeskHub:
// auth, tickets, comments, users, notifications. Каждый клиент — тонкая
// обёртка над REST API сервиса: прикрепляет bearer token из сессии,
// транслирует transport-ошибки в доменные (401 → ErrSessionExpired).
package hdclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Таймаут HTTP-запросов к backend-сервисам.
const requestTimeout = 30 * time.Second

// TokenProvider — функция, возвращающая bearer token для авторизации
// запроса. В боевой конфигурации это session.TokenFromContext.
type TokenProvider func(ctx context.Context) (string, error)

// newHTTPClient создаёт HTTP-клиент с таймаутом по умолчанию.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// normalizeURL убирает trailing slash из URL.
func normalizeURL(rawURL string) string {
	return strings.TrimRight(rawURL, "/")
}

// doJSON выполняет HTTP-запрос с JSON-телом и bearer-авторизацией.
// Токен прикрепляется, когда tokens возвращает непустое значение;
// ошибка провайдера токена считается отсутствием токена — запрос уходит
// без авторизации, и 401 от backend обрабатывается единообразно.
func doJSON(ctx context.Context, httpClient *http.Client, tokens TokenProvider, method, reqURL string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("сериализация тела запроса: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("создание запроса: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tokens != nil {
		if token, tokenErr := tokens(ctx); tokenErr == nil && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return httpClient.Do(req)
}

// decodeResponse проверяет статус ответа и декодирует JSON в target.
// target == nil — тело игнорируется. Не-2xx статусы транслируются
// через responseError.
func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp)
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("декодирование ответа: %w", err)
		}
	}

	return nil
}

// checkResponse проверяет статус ответа (для запросов без тела ответа).
func checkResponse(resp *http.Response) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp)
	}

	return nil
}

// pingURL проверяет доступность сервиса простым GET без авторизации.
// Любой HTTP-ответ (включая 401) означает, что сервис жив.
func pingURL(baseURL string) (string, string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return "fail", fmt.Sprintf("создание запроса: %v", err)
	}

	resp, err := newHTTPClient().Do(req)
	if err != nil {
		return "fail", fmt.Sprintf("сервис недоступен: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return "degraded", fmt.Sprintf("сервис вернул статус %d", resp.StatusCode)
	}
	return "ok", fmt.Sprintf("сервис отвечает (статус %d)", resp.StatusCode)
}
