package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/helpdeskhub/ui-module/internal/domain/perm"
	"github.com/helpdeskhub/ui-module/internal/hdclient"
	"github.com/helpdeskhub/ui-module/internal/passhash"
	"github.com/helpdeskhub/ui-module/internal/session"
)

const testExpiredDelay = 2500 * time.Millisecond

func newPasswordHandler(backendURL string) *PasswordHandler {
	return NewPasswordHandler(testRenderer(), hdclient.NewUsersClient(backendURL, testTokens, testLogger()), testExpiredDelay, testLogger())
}

func testTokens(_ context.Context) (string, error) {
	return "tok-1", nil
}

func postPassword(form url.Values, sess *session.Data) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/password", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req.WithContext(session.WithContext(req.Context(), sess))
}

// TestChangePassword_HashedOnTheWire проверяет, что к user-сервису уходят
// хеши с фиксированной солью и plaintext паролей в теле запроса нет.
func TestChangePassword_HashedOnTheWire(t *testing.T) {
	var (
		method, path string
		body         []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	h := newPasswordHandler(srv.URL)
	sess := &session.Data{Token: "tok-1", UserID: 7, Email: "emp@example.com", Role: perm.RoleEmployee}
	rec := httptest.NewRecorder()
	h.Change(rec, postPassword(url.Values{
		"current_password": {"oldpass123"},
		"new_password":     {"newpass456"},
		"confirm_password": {"newpass456"},
	}, sess))

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидался 200 со страницей успеха", rec.Code)
	}
	if method != http.MethodPut || path != "/7/password" {
		t.Fatalf("запрос = %s %s, ожидался PUT /7/password", method, path)
	}

	var sent map[string]string
	if err := json.Unmarshal(body, &sent); err != nil {
		t.Fatalf("тело запроса не является JSON-объектом: %v", err)
	}

	wantCurrent, _ := passhash.Hash("oldpass123")
	wantNew, _ := passhash.Hash("newpass456")
	if sent["currentPasswordHash"] != wantCurrent {
		t.Errorf("currentPasswordHash = %q, ожидался %q", sent["currentPasswordHash"], wantCurrent)
	}
	if sent["newPasswordHash"] != wantNew {
		t.Errorf("newPasswordHash = %q, ожидался %q", sent["newPasswordHash"], wantNew)
	}
	for field, value := range sent {
		if !strings.HasPrefix(value, passhash.FixedSalt) {
			t.Errorf("%s не начинается с фиксированной соли: %q", field, value)
		}
	}
	if raw := string(body); strings.Contains(raw, "oldpass123") || strings.Contains(raw, "newpass456") {
		t.Errorf("в теле запроса остался plaintext пароля: %s", raw)
	}
}

// TestChangePassword_ValidationBeforeNetwork проверяет, что невалидная
// форма не порождает запрос к user-сервису.
func TestChangePassword_ValidationBeforeNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	h := newPasswordHandler(srv.URL)
	sess := &session.Data{Token: "tok-1", UserID: 7, Email: "emp@example.com", Role: perm.RoleEmployee}

	tests := []struct {
		name string
		form url.Values
	}{
		{"пустой текущий пароль", url.Values{"new_password": {"newpass456"}, "confirm_password": {"newpass456"}}},
		{"короткий новый пароль", url.Values{"current_password": {"oldpass123"}, "new_password": {"short"}, "confirm_password": {"short"}}},
		{"пароли не совпадают", url.Values{"current_password": {"oldpass123"}, "new_password": {"newpass456"}, "confirm_password": {"newpass457"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Change(rec, postPassword(tt.form, sess))

			if got := calls.Load(); got != 0 {
				t.Errorf("user-сервис вызван %d раз при невалидной форме", got)
			}
			if rec.Code != http.StatusOK {
				t.Errorf("статус = %d, ожидался 200 со страницей формы", rec.Code)
			}
		})
	}
}
