// users.go — управление пользователями. Доступно только администратору.
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/flosch/pongo2/v6"

	"github.com/helpdeskhub/ui-module/internal/domain/model"
	"github.com/helpdeskhub/ui-module/internal/domain/perm"
	"github.com/helpdeskhub/ui-module/internal/hdclient"
	"github.com/helpdeskhub/ui-module/internal/passhash"
	"github.com/helpdeskhub/ui-module/internal/session"
	"github.com/helpdeskhub/ui-module/internal/ui/render"
)

// Минимальная длина нового пароля.
const minPasswordLen = 8

// UserHandler — обработчики /users.
type UserHandler struct {
	renderer     *render.Renderer
	users        *hdclient.UsersClient
	expiredDelay time.Duration
	logger       *slog.Logger
}

// NewUserHandler создаёт UserHandler.
func NewUserHandler(renderer *render.Renderer, users *hdclient.UsersClient, expiredDelay time.Duration, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		renderer:     renderer,
		users:        users,
		expiredDelay: expiredDelay,
		logger:       logger.With(slog.String("component", "user_handler")),
	}
}

// requireAdmin проверяет права на управление пользователями.
func (h *UserHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	sess := session.FromContext(r.Context())
	if !perm.CanManageUsers(sess.Role) {
		http.Error(w, "недостаточно прав", http.StatusForbidden)
		return false
	}
	return true
}

// ListPage — GET /users.
func (h *UserHandler) ListPage(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	ctx, err := h.tableContext(r)
	if err != nil {
		writeError(h.renderer, h.logger, w, r, err, h.expiredDelay)
		return
	}
	h.renderer.HTML(w, http.StatusOK, "pages/users.html", ctx)
}

// Table — GET /users/table. htmx-фрагмент таблицы пользователей.
func (h *UserHandler) Table(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	ctx, err := h.tableContext(r)
	if err != nil {
		writeError(h.renderer, h.logger, w, r, err, h.expiredDelay)
		return
	}
	h.renderer.HTML(w, http.StatusOK, "partials/user_table.html", ctx)
}

func (h *UserHandler) tableContext(r *http.Request) (pongo2.Context, error) {
	users, err := h.users.List(r.Context())
	if err != nil {
		return nil, err
	}

	ctx := baseContext(r)
	ctx["users"] = users
	return ctx, nil
}

// NewForm — GET /users/new. Форма создания: роль выбирается
// только при создании, далее не меняется через UI.
func (h *UserHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	ctx := baseContext(r)
	ctx["roles"] = []string{perm.RoleClient, perm.RoleEmployee, perm.RoleAdmin}
	h.renderer.HTML(w, http.StatusOK, "partials/user_form.html", ctx)
}

// Create — POST /users. Пароль хешируется bcrypt с фиксированной солью
// до отправки: plaintext нового пароля не покидает UI-модуль, а сервис
// пользователей сравнивает хеши как строки.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.formError(w, r, nil, "некорректная форма")
		return
	}

	form, password, errMessage := parseUserForm(r, true)
	if errMessage != "" {
		h.formError(w, r, nil, errMessage)
		return
	}

	hash, err := passhash.Hash(password)
	if err != nil {
		h.logger.Error("Ошибка хеширования пароля", slog.String("error", err.Error()))
		h.formError(w, r, nil, "не удалось создать пользователя")
		return
	}
	form.PasswordHash = hash

	created, err := h.users.Create(r.Context(), form)
	if err != nil {
		writeError(h.renderer, h.logger, w, r, err, h.expiredDelay)
		return
	}

	h.logger.Info("Пользователь создан",
		slog.Int64("user_id", created.ID),
		slog.String("role", created.Role),
	)
	redirect(w, r, "/users")
}

// EditForm — GET /users/{id}/edit.
func (h *UserHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	id, err := urlParamInt64(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeError(h.renderer, h.logger, w, r, err, h.expiredDelay)
		return
	}

	ctx := baseContext(r)
	ctx["user"] = user
	h.renderer.HTML(w, http.StatusOK, "partials/user_form.html", ctx)
}

// Update — POST /users/{id}. Роль и пароль этой формой не меняются.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	id, err := urlParamInt64(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.formError(w, r, nil, "некорректная форма")
		return
	}

	form, _, errMessage := parseUserForm(r, false)
	if errMessage != "" {
		user, getErr := h.users.Get(r.Context(), id)
		if getErr != nil {
			writeError(h.renderer, h.logger, w, r, getErr, h.expiredDelay)
			return
		}
		h.formError(w, r, user, errMessage)
		return
	}

	if _, err := h.users.Update(r.Context(), id, form); err != nil {
		writeError(h.renderer, h.logger, w, r, err, h.expiredDelay)
		return
	}

	redirect(w, r, "/users")
}

// Delete — POST /users/{id}/delete. Администратор не может удалить
// собственную учётную запись.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	sess := session.FromContext(r.Context())
	id, err := urlParamInt64(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if id == sess.UserID {
		http.Error(w, "нельзя удалить собственную учётную запись", http.StatusBadRequest)
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		writeError(h.renderer, h.logger, w, r, err, h.expiredDelay)
		return
	}

	h.logger.Info("Пользователь удалён",
		slog.Int64("user_id", id),
		slog.Int64("admin_id", sess.UserID),
	)
	redirect(w, r, "/users")
}

// formError перерисовывает форму пользователя с сообщением об ошибке.
func (h *UserHandler) formError(w http.ResponseWriter, r *http.Request, user *model.User, message string) {
	ctx := baseContext(r)
	ctx["error"] = message
	ctx["roles"] = []string{perm.RoleClient, perm.RoleEmployee, perm.RoleAdmin}
	if user != nil {
		ctx["user"] = user
	}
	h.renderer.HTML(w, http.StatusOK, "partials/user_form.html", ctx)
}

// parseUserForm разбирает и валидирует форму пользователя.
// creating — ожидаются ещё роль и пароль.
func parseUserForm(r *http.Request, creating bool) (hdclient.UserWrite, string, string) {
	form := hdclient.UserWrite{
		FirstName:   strings.TrimSpace(r.PostFormValue("first_name")),
		LastName:    strings.TrimSpace(r.PostFormValue("last_name")),
		Email:       strings.TrimSpace(r.PostFormValue("email")),
		PhoneNumber: strings.TrimSpace(r.PostFormValue("phone_number")),
	}

	if form.Email == "" || !strings.Contains(form.Email, "@") {
		return form, "", "укажите корректный email"
	}
	if form.FirstName == "" || form.LastName == "" {
		return form, "", "укажите имя и фамилию"
	}

	if !creating {
		return form, "", ""
	}

	form.Role = r.PostFormValue("role")
	if !perm.IsValidRole(form.Role) {
		return form, "", "выберите роль"
	}

	password := r.PostFormValue("password")
	if len(password) < minPasswordLen {
		return form, "", fmt.Sprintf("пароль должен быть не короче %d символов", minPasswordLen)
	}

	return form, password, ""
}
