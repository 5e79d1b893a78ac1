package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/helpdeskhub/ui-module/internal/domain/perm"
	"github.com/helpdeskhub/ui-module/internal/hdclient"
	"github.com/helpdeskhub/ui-module/internal/passhash"
	"github.com/helpdeskhub/ui-module/internal/session"
)

func newUserHandler(backendURL string) *UserHandler {
	return NewUserHandler(testRenderer(), hdclient.NewUsersClient(backendURL, testTokens, testLogger()), testExpiredDelay, testLogger())
}

func adminSession() *session.Data {
	return &session.Data{Token: "tok-1", UserID: 1, Email: "admin@example.com", Role: perm.RoleAdmin}
}

// TestUserCreate_PasswordHashedOnTheWire проверяет, что при создании
// пользователя к user-сервису уходит детерминированный хеш пароля
// с фиксированной солью, а не plaintext и не случайная соль.
func TestUserCreate_PasswordHashedOnTheWire(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":9,"firstName":"Анна","lastName":"Иванова","email":"anna@example.com","role":"CLIENT"}`))
	}))
	defer srv.Close()

	h := newUserHandler(srv.URL)
	form := url.Values{
		"first_name": {"Анна"},
		"last_name":  {"Иванова"},
		"email":      {"anna@example.com"},
		"role":       {perm.RoleClient},
		"password":   {"secret123"},
	}
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = req.WithContext(session.WithContext(req.Context(), adminSession()))

	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("статус = %d, ожидался 302", rec.Code)
	}

	var sent map[string]any
	if err := json.Unmarshal(body, &sent); err != nil {
		t.Fatalf("тело запроса не является JSON-объектом: %v", err)
	}

	want, _ := passhash.Hash("secret123")
	if sent["passwordHash"] != want {
		t.Errorf("passwordHash = %v, ожидался %q", sent["passwordHash"], want)
	}
	if raw := string(body); strings.Contains(raw, `"secret123"`) {
		t.Errorf("в теле запроса остался plaintext пароля: %s", raw)
	}
}
