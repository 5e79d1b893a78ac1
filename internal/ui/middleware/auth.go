// Пакет middleware — HTTP middleware UI-модуля.
// auth.go — проверка сессии из зашифрованного cookie.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/helpdeskhub/ui-module/internal/session"
)

// Auth — middleware для проверки аутентификации пользователей UI.
// Извлекает сессию из зашифрованного cookie и помещает её в контекст
// запроса; при отсутствии или повреждении сессии — redirect на /login.
type Auth struct {
	sessions *session.Manager
	logger   *slog.Logger
}

// NewAuth создаёт Auth middleware.
func NewAuth(sessions *session.Manager, logger *slog.Logger) *Auth {
	return &Auth{
		sessions: sessions,
		logger:   logger.With(slog.String("component", "auth_middleware")),
	}
}

// Middleware возвращает HTTP middleware для проверки сессии.
// Применяется ко всем маршрутам, кроме /login, /logout, /static,
// health и metrics.
func (a *Auth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := a.sessions.FromRequest(r)
			if err != nil {
				a.logger.Debug("Ошибка чтения сессии",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				// Повреждённый cookie — очищаем и redirect на login
				a.sessions.Clear(w)
				redirectToLogin(w, r)
				return
			}

			if !sess.IsAuthenticated() {
				redirectToLogin(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(session.WithContext(r.Context(), sess)))
		})
	}
}

// redirectToLogin отправляет пользователя на страницу входа.
// Для htmx-запросов используется HX-Redirect: браузерный 302 htmx
// подставил бы страницу логина внутрь фрагмента.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}
