// auth.go — клиент auth-сервиса.
// Единственная операция: обмен credentials на bearer token.
package hdclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// LoginResult — ответ auth-сервиса на успешный вход.
type LoginResult struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	ID    int64  `json:"id"`
}

// loginRequest — тело запроса POST /login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthClient — HTTP-клиент auth-сервиса.
type AuthClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewAuthClient создаёт клиент auth-сервиса.
// baseURL — базовый URL (например, http://auth:8083/api/auth).
func NewAuthClient(baseURL string, logger *slog.Logger) *AuthClient {
	return &AuthClient{
		baseURL:    normalizeURL(baseURL),
		httpClient: newHTTPClient(),
		logger:     logger.With(slog.String("component", "auth_client")),
	}
}

// Login обменивает credentials на bearer token.
// POST /login {email, password} → {token, role, id}.
// Любой сбой — отклонённые credentials или сетевая ошибка — возвращается
// как *AuthError; сессия при этом не создаётся.
func (c *AuthClient) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	resp, err := doJSON(ctx, c.httpClient, nil, http.MethodPost, c.baseURL+"/login", loginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		c.logger.Warn("Ошибка запроса к auth-сервису",
			slog.String("error", err.Error()),
		)
		return nil, &AuthError{Message: "сервис аутентификации недоступен"}
	}

	var result LoginResult
	if err := decodeResponse(resp, &result); err != nil {
		// На login 401 означает неверные credentials, а не истёкшую сессию
		var apiErr *APIError
		switch {
		case errors.Is(err, ErrSessionExpired):
			return nil, &AuthError{Message: "неверный email или пароль"}
		case errors.As(err, &apiErr):
			return nil, &AuthError{Message: apiErr.Message}
		default:
			return nil, &AuthError{Message: fmt.Sprintf("ошибка входа: %v", err)}
		}
	}

	return &result, nil
}

// CheckReady проверяет доступность auth-сервиса.
// Реализует handlers.ReadinessChecker.
func (c *AuthClient) CheckReady() (string, string) {
	return pingURL(c.baseURL)
}
