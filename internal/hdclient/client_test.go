package hdclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func staticTokens(token string) TokenProvider {
	return func(ctx context.Context) (string, error) {
		return token, nil
	}
}

// TestLogin проверяет обмен credentials на токен и трансляцию ошибок
// auth-сервиса в AuthError.
func TestLogin(t *testing.T) {
	t.Run("успешный вход", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/login" {
				t.Errorf("неожиданный запрос: %s %s", r.Method, r.URL.Path)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, ожидался application/json", ct)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"token":"test-token","role":"CLIENT","id":7}`))
		}))
		defer srv.Close()

		client := NewAuthClient(srv.URL, testLogger())
		result, err := client.Login(context.Background(), "user@example.com", "secret")
		if err != nil {
			t.Fatalf("Login вернул ошибку: %v", err)
		}
		if result.Token != "test-token" {
			t.Errorf("Token = %q, ожидался test-token", result.Token)
		}
		if result.Role != "CLIENT" {
			t.Errorf("Role = %q, ожидался CLIENT", result.Role)
		}
		if result.ID != 7 {
			t.Errorf("ID = %d, ожидался 7", result.ID)
		}
	})

	t.Run("неверные credentials", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		client := NewAuthClient(srv.URL, testLogger())
		_, err := client.Login(context.Background(), "user@example.com", "wrong")

		var authErr *AuthError
		if !errors.As(err, &authErr) {
			t.Fatalf("ожидался *AuthError, получено: %v", err)
		}
		if !strings.Contains(authErr.Message, "неверный email или пароль") {
			t.Errorf("сообщение = %q", authErr.Message)
		}
	})

	t.Run("сервис недоступен", func(t *testing.T) {
		// Закрытый сервер эмулирует сетевую ошибку
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		client := NewAuthClient(srv.URL, testLogger())
		_, err := client.Login(context.Background(), "user@example.com", "secret")

		var authErr *AuthError
		if !errors.As(err, &authErr) {
			t.Fatalf("ожидался *AuthError, получено: %v", err)
		}
		if !strings.Contains(authErr.Message, "недоступен") {
			t.Errorf("сообщение = %q", authErr.Message)
		}
	})

	t.Run("сообщение сервера пробрасывается", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"message":"аккаунт заблокирован"}`))
		}))
		defer srv.Close()

		client := NewAuthClient(srv.URL, testLogger())
		_, err := client.Login(context.Background(), "user@example.com", "secret")

		var authErr *AuthError
		if !errors.As(err, &authErr) {
			t.Fatalf("ожидался *AuthError, получено: %v", err)
		}
		if authErr.Message != "аккаунт заблокирован" {
			t.Errorf("сообщение = %q, ожидалось сообщение сервера", authErr.Message)
		}
	})
}

// TestTicketsClientAuthorization проверяет, что bearer token из
// провайдера прикрепляется к запросам.
func TestTicketsClientAuthorization(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewTicketsClient(srv.URL, staticTokens("abc123"), testLogger())
	if _, err := client.List(context.Background()); err != nil {
		t.Fatalf("List вернул ошибку: %v", err)
	}
	if gotAuth != "Bearer abc123" {
		t.Errorf("Authorization = %q, ожидался Bearer abc123", gotAuth)
	}
}

// TestTicketsClientAssign проверяет тело запроса назначения:
// employeeId сериализуется всегда, nil уходит явным null
// и снимает назначение вместо пустого объекта.
func TestTicketsClientAssign(t *testing.T) {
	var (
		method, path string
		body         []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":3,"title":"Принтер не печатает","status":"OPEN","priority":"HIGH","clientId":10}`))
	}))
	defer srv.Close()

	client := NewTicketsClient(srv.URL, staticTokens("abc123"), testLogger())

	t.Run("назначение сотрудника", func(t *testing.T) {
		employeeID := int64(5)
		if _, err := client.Assign(context.Background(), 3, &employeeID); err != nil {
			t.Fatalf("Assign вернул ошибку: %v", err)
		}
		if method != http.MethodPut || path != "/3" {
			t.Errorf("запрос = %s %s, ожидался PUT /3", method, path)
		}
		if got := string(body); got != `{"employeeId":5}` {
			t.Errorf("тело = %s, ожидалось {\"employeeId\":5}", got)
		}
	})

	t.Run("снятие назначения", func(t *testing.T) {
		if _, err := client.Assign(context.Background(), 3, nil); err != nil {
			t.Fatalf("Assign вернул ошибку: %v", err)
		}
		if got := string(body); got != `{"employeeId":null}` {
			t.Errorf("тело = %s, ожидалось {\"employeeId\":null}", got)
		}
	})
}

// TestTicketsClientErrors проверяет трансляцию статусов backend
// в доменные ошибки.
func TestTicketsClientErrors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		check      func(t *testing.T, err error)
	}{
		{
			name:       "401 превращается в ErrSessionExpired",
			statusCode: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrSessionExpired) {
					t.Errorf("ожидался ErrSessionExpired, получено: %v", err)
				}
			},
		},
		{
			name:       "404 превращается в ErrNotFound",
			statusCode: http.StatusNotFound,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("ожидался ErrNotFound, получено: %v", err)
				}
			},
		},
		{
			name:       "500 несёт сообщение сервера",
			statusCode: http.StatusInternalServerError,
			body:       `{"error":{"message":"база данных недоступна"}}`,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("ожидался *APIError, получено: %v", err)
				}
				if apiErr.StatusCode != http.StatusInternalServerError {
					t.Errorf("StatusCode = %d", apiErr.StatusCode)
				}
				if apiErr.Message != "база данных недоступна" {
					t.Errorf("Message = %q", apiErr.Message)
				}
			},
		},
		{
			name:       "нечитаемое тело даёт generic сообщение",
			statusCode: http.StatusBadGateway,
			body:       `<html>gateway error</html>`,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("ожидался *APIError, получено: %v", err)
				}
				if apiErr.Message != genericErrorMessage {
					t.Errorf("Message = %q, ожидался generic fallback", apiErr.Message)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				if tt.body != "" {
					w.Write([]byte(tt.body))
				}
			}))
			defer srv.Close()

			client := NewTicketsClient(srv.URL, staticTokens("abc123"), testLogger())
			_, err := client.Get(context.Background(), 1)
			if err == nil {
				t.Fatal("ожидалась ошибка")
			}
			tt.check(t, err)
		})
	}
}

// TestExtractMessage проверяет разбор обоих форматов тела ошибки.
func TestExtractMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "плоский формат",
			body: `{"message":"заявка не принадлежит клиенту"}`,
			want: "заявка не принадлежит клиенту",
		},
		{
			name: "вложенный формат",
			body: `{"error":{"message":"недостаточно прав"}}`,
			want: "недостаточно прав",
		},
		{
			name: "пустое тело",
			body: "",
			want: genericErrorMessage,
		},
		{
			name: "не JSON",
			body: "Internal Server Error",
			want: genericErrorMessage,
		},
		{
			name: "JSON без сообщения",
			body: `{"code":42}`,
			want: genericErrorMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractMessage(strings.NewReader(tt.body))
			if got != tt.want {
				t.Errorf("extractMessage() = %q, ожидалось %q", got, tt.want)
			}
		})
	}
}

// TestNormalizeURL проверяет обрезку trailing slash.
func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://tickets:8081/api/tickets/", "http://tickets:8081/api/tickets"},
		{"http://tickets:8081/api/tickets", "http://tickets:8081/api/tickets"},
		{"http://tickets:8081///", "http://tickets:8081"},
	}
	for _, tt := range tests {
		if got := normalizeURL(tt.in); got != tt.want {
			t.Errorf("normalizeURL(%q) = %q, ожидалось %q", tt.in, got, tt.want)
		}
	}
}
