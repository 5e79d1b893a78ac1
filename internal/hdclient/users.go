// users.go — клиент user-сервиса (справочник пользователей).
// Чтение для всех аутентифицированных, мутации — из admin-панели.
package hdclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/helpdeskhub/ui-module/internal/domain/model"
)

// UserWrite — тело запроса создания/обновления пользователя.
// PasswordHash присылается только при создании — UI хеширует пароль
// с фиксированной солью (passhash) до отправки и никогда не шлёт
// plaintext при записи пользователя.
type UserWrite struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	PhoneNumber  string `json:"phoneNumber,omitempty"`
	Role         string `json:"role,omitempty"`
	PasswordHash string `json:"passwordHash,omitempty"`
}

// PasswordChange — тело запроса PUT /{id}/password.
// Оба пароля уходят bcrypt-хешами с фиксированной солью (passhash):
// user-сервис сравнивает их со своими хешами на равенство,
// plaintext никогда не покидает UI-модуль.
type PasswordChange struct {
	CurrentPasswordHash string `json:"currentPasswordHash"`
	NewPasswordHash     string `json:"newPasswordHash"`
}

// UsersClient — HTTP-клиент user-сервиса.
type UsersClient struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
	logger     *slog.Logger
}

// NewUsersClient создаёт клиент user-сервиса.
func NewUsersClient(baseURL string, tokens TokenProvider, logger *slog.Logger) *UsersClient {
	return &UsersClient{
		baseURL:    normalizeURL(baseURL),
		httpClient: newHTTPClient(),
		tokens:     tokens,
		logger:     logger.With(slog.String("component", "users_client")),
	}
}

// List возвращает всех пользователей. GET /.
func (c *UsersClient) List(ctx context.Context) ([]model.User, error) {
	resp, err := doJSON(ctx, c.httpClient, c.tokens, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("запрос списка пользователей: %w", err)
	}

	var users []model.User
	if err := decodeResponse(resp, &users); err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return users, nil
}

// Get возвращает пользователя по id. GET /{id}.
func (c *UsersClient) Get(ctx context.Context, id int64) (*model.User, error) {
	resp, err := doJSON(ctx, c.httpClient, c.tokens, http.MethodGet, fmt.Sprintf("%s/%d", c.baseURL, id), nil)
	if err != nil {
		return nil, fmt.Errorf("запрос пользователя %d: %w", id, err)
	}

	var user model.User
	if err := decodeResponse(resp, &user); err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &user, nil
}

// ListEmployees возвращает пользователей-сотрудников. GET /employees.
// Используется для списка назначаемых агентов в фильтрах и формах.
func (c *UsersClient) ListEmployees(ctx context.Context) ([]model.User, error) {
	resp, err := doJSON(ctx, c.httpClient, c.tokens, http.MethodGet, c.baseURL+"/employees", nil)
	if err != nil {
		return nil, fmt.Errorf("запрос списка сотрудников: %w", err)
	}

	var users []model.User
	if err := decodeResponse(resp, &users); err != nil {
		return nil, fmt.Errorf("ListEmployees: %w", err)
	}
	return users, nil
}

// Create создаёт пользователя. POST /.
func (c *UsersClient) Create(ctx context.Context, u UserWrite) (*model.User, error) {
	resp, err := doJSON(ctx, c.httpClient, c.tokens, http.MethodPost, c.baseURL, u)
	if err != nil {
		return nil, fmt.Errorf("создание пользователя: %w", err)
	}

	var created model.User
	if err := decodeResponse(resp, &created); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	return &created, nil
}

// Update обновляет пользователя. PUT /{id}.
func (c *UsersClient) Update(ctx context.Context, id int64, u UserWrite) (*model.User, error) {
	resp, err := doJSON(ctx, c.httpClient, c.tokens, http.MethodPut, fmt.Sprintf("%s/%d", c.baseURL, id), u)
	if err != nil {
		return nil, fmt.Errorf("обновление пользователя %d: %w", id, err)
	}

	var updated model.User
	if err := decodeResponse(resp, &updated); err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	return &updated, nil
}

// Delete удаляет пользователя. DELETE /{id}.
func (c *UsersClient) Delete(ctx context.Context, id int64) error {
	resp, err := doJSON(ctx, c.httpClient, c.tokens, http.MethodDelete, fmt.Sprintf("%s/%d", c.baseURL, id), nil)
	if err != nil {
		return fmt.Errorf("удаление пользователя %d: %w", id, err)
	}

	if err := checkResponse(resp); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

// CheckReady проверяет доступность user-сервиса для readiness-пробы.
func (c *UsersClient) CheckReady() (string, string) {
	return pingURL(c.baseURL)
}

// ChangePassword меняет пароль пользователя. PUT /{id}/password.
func (c *UsersClient) ChangePassword(ctx context.Context, id int64, pc PasswordChange) error {
	resp, err := doJSON(ctx, c.httpClient, c.tokens, http.MethodPut, fmt.Sprintf("%s/%d/password", c.baseURL, id), pc)
	if err != nil {
		return fmt.Errorf("смена пароля пользователя %d: %w", id, err)
	}

	if err := checkResponse(resp); err != nil {
		return fmt.Errorf("ChangePassword: %w", err)
	}
	return nil
}
