// auth.go — вход и выход пользователей.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/helpdeskhub/ui-module/internal/domain/perm"
	"github.com/helpdeskhub/ui-module/internal/hdclient"
	"github.com/helpdeskhub/ui-module/internal/session"
	"github.com/helpdeskhub/ui-module/internal/ui/render"
)

// AuthHandler — обработчики /login и /logout.
type AuthHandler struct {
	renderer *render.Renderer
	sessions *session.Manager
	auth     *hdclient.AuthClient
	logger   *slog.Logger
}

// NewAuthHandler создаёт AuthHandler.
func NewAuthHandler(renderer *render.Renderer, sessions *session.Manager, auth *hdclient.AuthClient, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		renderer: renderer,
		sessions: sessions,
		auth:     auth,
		logger:   logger.With(slog.String("component", "auth_handler")),
	}
}

// LoginPage — GET /login. Уже аутентифицированных отправляет на /tickets.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if sess, err := h.sessions.FromRequest(r); err == nil && sess.IsAuthenticated() {
		http.Redirect(w, r, "/tickets", http.StatusFound)
		return
	}

	h.renderer.HTML(w, http.StatusOK, "pages/login.html", pongo2.Context{})
}

// Login — POST /login. Валидация полей идёт до обращения к auth-сервису:
// пустые credentials не порождают сетевой запрос.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.loginError(w, "некорректная форма входа", "")
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")

	if email == "" || password == "" {
		h.loginError(w, "укажите email и пароль", email)
		return
	}
	if !strings.Contains(email, "@") {
		h.loginError(w, "некорректный email", email)
		return
	}

	result, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		var authErr *hdclient.AuthError
		if errors.As(err, &authErr) {
			h.loginError(w, authErr.Message, email)
			return
		}
		h.logger.Error("Неожиданная ошибка входа", slog.String("error", err.Error()))
		h.loginError(w, "не удалось выполнить вход", email)
		return
	}

	if !perm.IsValidRole(result.Role) {
		h.logger.Warn("Auth-сервис вернул неизвестную роль",
			slog.String("role", result.Role),
			slog.String("email", email),
		)
		h.loginError(w, "не удалось выполнить вход", email)
		return
	}

	sess := &session.Data{
		Token:  result.Token,
		UserID: result.ID,
		Email:  email,
		Role:   result.Role,
	}
	if err := h.sessions.Issue(w, sess); err != nil {
		h.logger.Error("Не удалось выпустить сессию", slog.String("error", err.Error()))
		h.loginError(w, "не удалось выполнить вход", email)
		return
	}

	h.logger.Info("Пользователь вошёл",
		slog.Int64("user_id", result.ID),
		slog.String("role", result.Role),
	)
	http.Redirect(w, r, "/tickets", http.StatusFound)
}

// Logout — GET /logout. Сессия удаляется локально: auth-сервис
// не предоставляет отзыв токена.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// loginError перерисовывает страницу входа с сообщением об ошибке.
// Статус всегда 200: это страница формы, а не API-ответ.
func (h *AuthHandler) loginError(w http.ResponseWriter, message, email string) {
	h.renderer.HTML(w, http.StatusOK, "pages/login.html", pongo2.Context{
		"error": message,
		"email": email,
	})
}
