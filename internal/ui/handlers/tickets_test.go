package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/helpdeskhub/ui-module/internal/domain/perm"
	"github.com/helpdeskhub/ui-module/internal/hdclient"
	"github.com/helpdeskhub/ui-module/internal/notify"
	"github.com/helpdeskhub/ui-module/internal/session"
)

func newTicketHandler(backendURL string) *TicketHandler {
	return NewTicketHandler(
		testRenderer(),
		hdclient.NewTicketsClient(backendURL, testTokens, testLogger()),
		hdclient.NewUsersClient(backendURL+"/users", testTokens, testLogger()),
		hdclient.NewNotificationsClient(backendURL+"/notifications", testTokens, testLogger()),
		notify.NewDispatcher(4, testLogger()),
		testExpiredDelay,
		testLogger(),
	)
}

func clientSession(userID int64) *session.Data {
	return &session.Data{Token: "tok-1", UserID: userID, Email: "client@example.com", Role: perm.RoleClient}
}

func postTicketForm(target string, form url.Values, sess *session.Data, params map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = req.WithContext(session.WithContext(req.Context(), sess))

	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for key, value := range params {
			rctx.URLParams.Add(key, value)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}
	return req
}

// TestTicketCreate_RequiredFields проверяет, что пустые тема или описание
// не доходят до ticket-сервиса, а форма перерисовывается с ошибками полей.
func TestTicketCreate_RequiredFields(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	h := newTicketHandler(srv.URL)

	tests := []struct {
		name      string
		form      url.Values
		wantError string
	}{
		{
			"пустое описание",
			url.Values{"title": {"Принтер не печатает"}, "priority": {"HIGH"}},
			"укажите описание заявки",
		},
		{
			"пустая тема",
			url.Values{"description": {"Не печатает с утра"}, "priority": {"HIGH"}},
			"укажите тему заявки",
		},
		{
			"описание из пробелов",
			url.Values{"title": {"Принтер не печатает"}, "description": {"   "}},
			"укажите описание заявки",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Create(rec, postTicketForm("/tickets", tt.form, clientSession(10), nil))

			if got := calls.Load(); got != 0 {
				t.Errorf("ticket-сервис вызван %d раз при невалидной форме", got)
			}
			if rec.Code != http.StatusOK {
				t.Errorf("статус = %d, ожидался 200 со страницей формы", rec.Code)
			}
			if body := rec.Body.String(); !strings.Contains(body, tt.wantError) {
				t.Errorf("в форме нет ошибки поля %q", tt.wantError)
			}
		})
	}
}

// TestTicketCreate_KeepsInput проверяет, что введённые значения
// сохраняются в перерисованной форме.
func TestTicketCreate_KeepsInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	h := newTicketHandler(srv.URL)
	rec := httptest.NewRecorder()
	h.Create(rec, postTicketForm("/tickets", url.Values{"title": {"Принтер не печатает"}}, clientSession(10), nil))

	if body := rec.Body.String(); !strings.Contains(body, "Принтер не печатает") {
		t.Error("введённая тема потеряна при перерисовке формы")
	}
}

// TestTicketUpdate_RequiredFields проверяет, что невалидная форма
// редактирования не порождает PUT к ticket-сервису.
func TestTicketUpdate_RequiredFields(t *testing.T) {
	var puts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			puts.Add(1)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/users"):
			w.Write([]byte(`[]`))
		default:
			w.Write([]byte(`{"id":3,"title":"Принтер не печатает","description":"Не печатает","status":"OPEN","priority":"HIGH","clientId":10}`))
		}
	}))
	defer srv.Close()

	h := newTicketHandler(srv.URL)
	rec := httptest.NewRecorder()
	form := url.Values{"title": {"Принтер не печатает"}, "description": {""}}
	h.Update(rec, postTicketForm("/tickets/3", form, clientSession(10), map[string]string{"id": "3"}))

	if got := puts.Load(); got != 0 {
		t.Errorf("PUT выполнен %d раз при невалидной форме", got)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("статус = %d, ожидался 200 со страницей формы", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "укажите описание заявки") {
		t.Error("в форме нет ошибки поля описания")
	}
}

// TestListPage_SessionExpired проверяет отрисовку страницы истёкшей сессии
// с настроенной задержкой перед logout при 401 от backend.
func TestListPage_SessionExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	h := newTicketHandler(srv.URL)

	t.Run("обычный запрос", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/tickets", nil)
		req = req.WithContext(session.WithContext(req.Context(), clientSession(10)))
		rec := httptest.NewRecorder()
		h.ListPage(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("статус = %d, ожидался 401", rec.Code)
		}
		if body := rec.Body.String(); !strings.Contains(body, `data-logout-delay="2500"`) {
			t.Error("на странице нет задержки logout из конфигурации")
		}
	})

	t.Run("htmx-запрос", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/tickets", nil)
		req.Header.Set("HX-Request", "true")
		req = req.WithContext(session.WithContext(req.Context(), clientSession(10)))
		rec := httptest.NewRecorder()
		h.ListPage(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("статус = %d, ожидался 401", rec.Code)
		}
		if got := rec.Header().Get("HX-Retarget"); got != "#alerts" {
			t.Errorf("HX-Retarget = %q, ожидался #alerts", got)
		}
		if body := rec.Body.String(); !strings.Contains(body, `data-logout-delay="2500"`) {
			t.Error("во фрагменте нет задержки logout из конфигурации")
		}
	})
}
