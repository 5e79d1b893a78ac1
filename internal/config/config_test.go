package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

// setEnvs устанавливает переменные окружения на время теста.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// minimalEnvs возвращает минимальный набор обязательных переменных.
func minimalEnvs() map[string]string {
	return map[string]string{
		"HD_AUTH_URL":          "http://auth:8083/api/auth",
		"HD_TICKETS_URL":       "http://tickets:8081/api/tickets",
		"HD_COMMENTS_URL":      "http://comments:8082/api/comments",
		"HD_USERS_URL":         "http://users:8084/api/users",
		"HD_NOTIFICATIONS_URL": "http://notifications:8085/api/notifications",
	}
}

func TestLoad_MinimalConfig(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	// Проверяем значения по умолчанию
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, ожидается 8080", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидается Info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидается json", cfg.LogFormat)
	}
	if !cfg.SecureCookie {
		t.Error("SecureCookie = false, ожидается true по умолчанию")
	}
	if cfg.SessionExpiredDelay != 3*time.Second {
		t.Errorf("SessionExpiredDelay = %v, ожидается 3s", cfg.SessionExpiredDelay)
	}
	if cfg.NotifyQueueSize != 64 {
		t.Errorf("NotifyQueueSize = %d, ожидается 64", cfg.NotifyQueueSize)
	}
	if cfg.DephealthGroup != "helpdeskhub" {
		t.Errorf("DephealthGroup = %q, ожидается helpdeskhub", cfg.DephealthGroup)
	}
	if cfg.DephealthCheckInterval != 15*time.Second {
		t.Errorf("DephealthCheckInterval = %v, ожидается 15s", cfg.DephealthCheckInterval)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 5s", cfg.ShutdownTimeout)
	}
}

func TestLoad_TrimsTrailingSlash(t *testing.T) {
	envs := minimalEnvs()
	envs["HD_TICKETS_URL"] = "http://tickets:8081/api/tickets/"
	setEnvs(t, envs)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	if cfg.TicketsURL != "http://tickets:8081/api/tickets" {
		t.Errorf("TicketsURL = %q, trailing slash не обрезан", cfg.TicketsURL)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	envs := minimalEnvs()
	delete(envs, "HD_USERS_URL")
	setEnvs(t, envs)

	_, err := Load()
	if err == nil {
		t.Fatal("Load() не вернул ошибку при отсутствии HD_USERS_URL")
	}
	if !strings.Contains(err.Error(), "HD_USERS_URL") {
		t.Errorf("ошибка не называет переменную: %v", err)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"не-URL в адресе сервиса", "HD_AUTH_URL", "auth:8083"},
		{"нечисловой порт", "HD_PORT", "eighty"},
		{"порт вне диапазона", "HD_PORT", "70000"},
		{"неизвестный уровень логирования", "HD_LOG_LEVEL", "verbose"},
		{"неизвестный формат логов", "HD_LOG_FORMAT", "xml"},
		{"некорректный bool", "HD_SECURE_COOKIE", "да"},
		{"некорректная длительность", "HD_SESSION_EXPIRED_DELAY", "3 sec"},
		{"нулевая очередь уведомлений", "HD_NOTIFY_QUEUE_SIZE", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs := minimalEnvs()
			envs[tt.key] = tt.val
			setEnvs(t, envs)

			if _, err := Load(); err == nil {
				t.Errorf("Load() принял недопустимое значение %s=%q", tt.key, tt.val)
			}
		})
	}
}

func TestLoad_Overrides(t *testing.T) {
	envs := minimalEnvs()
	envs["HD_PORT"] = "9090"
	envs["HD_LOG_LEVEL"] = "debug"
	envs["HD_LOG_FORMAT"] = "text"
	envs["HD_SECURE_COOKIE"] = "false"
	envs["HD_SESSION_EXPIRED_DELAY"] = "5s"
	envs["HD_NOTIFY_QUEUE_SIZE"] = "128"
	setEnvs(t, envs)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, ожидается 9090", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, ожидается Debug", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, ожидается text", cfg.LogFormat)
	}
	if cfg.SecureCookie {
		t.Error("SecureCookie = true, ожидается false")
	}
	if cfg.SessionExpiredDelay != 5*time.Second {
		t.Errorf("SessionExpiredDelay = %v, ожидается 5s", cfg.SessionExpiredDelay)
	}
	if cfg.NotifyQueueSize != 128 {
		t.Errorf("NotifyQueueSize = %d, ожидается 128", cfg.NotifyQueueSize)
	}
}
