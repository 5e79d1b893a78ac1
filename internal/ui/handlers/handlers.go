// Пакет handlers — HTTP-обработчики страниц и htmx-фрагментов UI.
// Обработчики не хранят состояния между запросами: каждый запрос
// заново ходит в backend-сервисы с токеном из сессии.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/go-chi/chi/v5"

	"github.com/helpdeskhub/ui-module/internal/hdclient"
	"github.com/helpdeskhub/ui-module/internal/session"
	"github.com/helpdeskhub/ui-module/internal/ui/render"
)

// isHTMX определяет, пришёл ли запрос от htmx (нужен фрагмент, не страница).
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// urlParamInt64 извлекает числовой параметр маршрута chi.
func urlParamInt64(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// baseContext собирает общий pongo2-контекст страницы: текущая сессия
// для навигации и ролевых элементов.
func baseContext(r *http.Request) pongo2.Context {
	sess := session.FromContext(r.Context())
	return pongo2.Context{
		"session": sess,
	}
}

// writeError транслирует ошибку backend в ответ UI.
//   - ErrSessionExpired → баннер с отложенным redirect на /logout
//   - ErrNotFound → 404 с сообщением
//   - APIError → alert с сообщением сервера
//   - прочее → generic alert, подробности только в логах
//
// Для htmx-запросов рендерится фрагмент, для обычных — страница ошибки.
func writeError(rnd *render.Renderer, logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error, expiredDelay time.Duration) {
	if errors.Is(err, hdclient.ErrSessionExpired) {
		ctx := baseContext(r)
		ctx["delay_ms"] = expiredDelay.Milliseconds()
		if isHTMX(r) {
			w.Header().Set("HX-Retarget", "#alerts")
			w.Header().Set("HX-Reswap", "innerHTML")
			rnd.HTML(w, http.StatusUnauthorized, "partials/session_expired.html", ctx)
			return
		}
		rnd.HTML(w, http.StatusUnauthorized, "pages/session_expired.html", ctx)
		return
	}

	status := http.StatusBadGateway
	message := "не удалось выполнить операцию"

	var apiErr *hdclient.APIError
	switch {
	case errors.Is(err, hdclient.ErrNotFound):
		status = http.StatusNotFound
		message = "ресурс не найден"
	case errors.As(err, &apiErr):
		status = apiErr.StatusCode
		message = apiErr.Message
	default:
		logger.Error("Ошибка обращения к backend",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}

	ctx := baseContext(r)
	ctx["message"] = message
	if isHTMX(r) {
		w.Header().Set("HX-Retarget", "#alerts")
		w.Header().Set("HX-Reswap", "innerHTML")
		rnd.HTML(w, status, "partials/alert.html", ctx)
		return
	}
	rnd.HTML(w, status, "pages/error.html", ctx)
}
