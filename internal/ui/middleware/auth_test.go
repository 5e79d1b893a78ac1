package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/helpdeskhub/ui-module/internal/session"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sessionCookie(t *testing.T, m *session.Manager, data *session.Data) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := m.Issue(rec, data); err != nil {
		t.Fatalf("Issue вернул ошибку: %v", err)
	}
	return rec.Result().Cookies()[0]
}

// TestAuthMiddleware проверяет пропуск аутентифицированных запросов
// и redirect для остальных.
func TestAuthMiddleware(t *testing.T) {
	sessions, err := session.NewManager("test-secret", false)
	if err != nil {
		t.Fatalf("NewManager вернул ошибку: %v", err)
	}
	auth := NewAuth(sessions, testLogger())

	var gotSession *session.Data
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = session.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := auth.Middleware()(next)

	t.Run("валидная сессия проходит", func(t *testing.T) {
		gotSession = nil
		req := httptest.NewRequest(http.MethodGet, "/tickets", nil)
		req.AddCookie(sessionCookie(t, sessions, &session.Data{Token: "tok", UserID: 5, Role: "CLIENT"}))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("статус = %d, ожидался 200", rec.Code)
		}
		if gotSession == nil || gotSession.UserID != 5 {
			t.Errorf("сессия в контексте = %+v", gotSession)
		}
	})

	t.Run("без cookie redirect на login", func(t *testing.T) {
		gotSession = nil
		req := httptest.NewRequest(http.MethodGet, "/tickets", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusFound {
			t.Fatalf("статус = %d, ожидался 302", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/login" {
			t.Errorf("Location = %q", loc)
		}
		if gotSession != nil {
			t.Error("обработчик вызван без сессии")
		}
	})

	t.Run("повреждённый cookie очищается", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/tickets", nil)
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "мусор"})
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusFound {
			t.Fatalf("статус = %d, ожидался 302", rec.Code)
		}

		cleared := false
		for _, c := range rec.Result().Cookies() {
			if c.Name == session.CookieName && c.MaxAge < 0 {
				cleared = true
			}
		}
		if !cleared {
			t.Error("повреждённый cookie не очищен")
		}
	})

	t.Run("htmx-запрос получает HX-Redirect", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/tickets/table", nil)
		req.Header.Set("HX-Request", "true")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("статус = %d, ожидался 200", rec.Code)
		}
		if hx := rec.Header().Get("HX-Redirect"); hx != "/login" {
			t.Errorf("HX-Redirect = %q", hx)
		}
	})
}
