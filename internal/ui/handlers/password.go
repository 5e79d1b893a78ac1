// password.go — смена собственного пароля.
// Оба пароля хешируются на стороне UI bcrypt'ом с фиксированной солью:
// user-сервис сравнивает хеши на равенство и plaintext не получает.
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/helpdeskhub/ui-module/internal/hdclient"
	"github.com/helpdeskhub/ui-module/internal/passhash"
	"github.com/helpdeskhub/ui-module/internal/session"
	"github.com/helpdeskhub/ui-module/internal/ui/render"
)

// PasswordHandler — обработчики /password.
type PasswordHandler struct {
	renderer     *render.Renderer
	users        *hdclient.UsersClient
	expiredDelay time.Duration
	logger       *slog.Logger
}

// NewPasswordHandler создаёт PasswordHandler.
func NewPasswordHandler(renderer *render.Renderer, users *hdclient.UsersClient, expiredDelay time.Duration, logger *slog.Logger) *PasswordHandler {
	return &PasswordHandler{
		renderer:     renderer,
		users:        users,
		expiredDelay: expiredDelay,
		logger:       logger.With(slog.String("component", "password_handler")),
	}
}

// Page — GET /password.
func (h *PasswordHandler) Page(w http.ResponseWriter, r *http.Request) {
	h.renderer.HTML(w, http.StatusOK, "pages/password.html", baseContext(r))
}

// Change — POST /password. Валидация совпадения и длины нового пароля
// идёт до обращения к user-сервису.
func (h *PasswordHandler) Change(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		h.pageError(w, r, "некорректная форма")
		return
	}

	current := r.PostFormValue("current_password")
	newPassword := r.PostFormValue("new_password")
	confirm := r.PostFormValue("confirm_password")

	if current == "" {
		h.pageError(w, r, "укажите текущий пароль")
		return
	}
	if len(newPassword) < minPasswordLen {
		h.pageError(w, r, fmt.Sprintf("новый пароль должен быть не короче %d символов", minPasswordLen))
		return
	}
	if newPassword != confirm {
		h.pageError(w, r, "пароли не совпадают")
		return
	}

	currentHash, err := passhash.Hash(current)
	if err != nil {
		h.logger.Error("Ошибка хеширования пароля", slog.String("error", err.Error()))
		h.pageError(w, r, "не удалось сменить пароль")
		return
	}
	newHash, err := passhash.Hash(newPassword)
	if err != nil {
		h.logger.Error("Ошибка хеширования пароля", slog.String("error", err.Error()))
		h.pageError(w, r, "не удалось сменить пароль")
		return
	}

	if err := h.users.ChangePassword(r.Context(), sess.UserID, hdclient.PasswordChange{
		CurrentPasswordHash: currentHash,
		NewPasswordHash:     newHash,
	}); err != nil {
		writeError(h.renderer, h.logger, w, r, err, h.expiredDelay)
		return
	}

	h.logger.Info("Пароль изменён", slog.Int64("user_id", sess.UserID))
	ctx := baseContext(r)
	ctx["success"] = "пароль изменён"
	h.renderer.HTML(w, http.StatusOK, "pages/password.html", ctx)
}

func (h *PasswordHandler) pageError(w http.ResponseWriter, r *http.Request, message string) {
	ctx := baseContext(r)
	ctx["error"] = message
	h.renderer.HTML(w, http.StatusOK, "pages/password.html", ctx)
}
