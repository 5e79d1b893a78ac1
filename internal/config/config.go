// Пакет config — загрузка и валидация конфигурации UI-модуля
// HelpDeskHub из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации UI-модуля.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- Backend-сервисы ---

	// URL auth-сервиса
	AuthURL string
	// URL ticket-сервиса
	TicketsURL string
	// URL comment-сервиса
	CommentsURL string
	// URL user-сервиса
	UsersURL string
	// URL notification-сервиса
	NotificationsURL string

	// --- Сессии ---

	// Ключ шифрования сессионной cookie (base64 или произвольная строка)
	SessionSecret string
	// Выставлять ли Secure на cookie (false для локальной разработки)
	SecureCookie bool
	// Задержка перед auto-logout после истечения сессии
	SessionExpiredDelay time.Duration

	// --- Уведомления ---

	// Размер очереди фоновых уведомлений
	NotifyQueueSize int

	// --- Мониторинг ---

	// Группа в topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// HD_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("HD_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("HD_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("HD_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// HD_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("HD_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("HD_LOG_LEVEL: %w", err)
	}

	// HD_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("HD_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("HD_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- Backend-сервисы ---

	// HD_AUTH_URL — обязательный
	cfg.AuthURL, err = getEnvURL("HD_AUTH_URL")
	if err != nil {
		return nil, err
	}

	// HD_TICKETS_URL — обязательный
	cfg.TicketsURL, err = getEnvURL("HD_TICKETS_URL")
	if err != nil {
		return nil, err
	}

	// HD_COMMENTS_URL — обязательный
	cfg.CommentsURL, err = getEnvURL("HD_COMMENTS_URL")
	if err != nil {
		return nil, err
	}

	// HD_USERS_URL — обязательный
	cfg.UsersURL, err = getEnvURL("HD_USERS_URL")
	if err != nil {
		return nil, err
	}

	// HD_NOTIFICATIONS_URL — обязательный
	cfg.NotificationsURL, err = getEnvURL("HD_NOTIFICATIONS_URL")
	if err != nil {
		return nil, err
	}

	// --- Сессии ---

	// HD_SESSION_SECRET — опционален: без него ключ генерируется случайно,
	// и сессии не переживают рестарт процесса
	cfg.SessionSecret = getEnvDefault("HD_SESSION_SECRET", "")

	// HD_SECURE_COOKIE — Secure-флаг cookie (по умолчанию true)
	cfg.SecureCookie, err = getEnvBool("HD_SECURE_COOKIE", true)
	if err != nil {
		return nil, fmt.Errorf("HD_SECURE_COOKIE: %w", err)
	}

	// HD_SESSION_EXPIRED_DELAY — задержка auto-logout (по умолчанию 3s)
	cfg.SessionExpiredDelay, err = getEnvDuration("HD_SESSION_EXPIRED_DELAY", 3*time.Second)
	if err != nil {
		return nil, fmt.Errorf("HD_SESSION_EXPIRED_DELAY: %w", err)
	}

	// --- Уведомления ---

	// HD_NOTIFY_QUEUE_SIZE — размер очереди уведомлений (по умолчанию 64)
	cfg.NotifyQueueSize, err = getEnvInt("HD_NOTIFY_QUEUE_SIZE", 64)
	if err != nil {
		return nil, fmt.Errorf("HD_NOTIFY_QUEUE_SIZE: %w", err)
	}
	if cfg.NotifyQueueSize < 1 || cfg.NotifyQueueSize > 10000 {
		return nil, fmt.Errorf("HD_NOTIFY_QUEUE_SIZE: значение %d вне допустимого диапазона 1-10000", cfg.NotifyQueueSize)
	}

	// --- Мониторинг ---

	// HD_DEPHEALTH_GROUP — группа topologymetrics (по умолчанию helpdeskhub)
	cfg.DephealthGroup = getEnvDefault("HD_DEPHEALTH_GROUP", "helpdeskhub")

	// HD_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("HD_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("HD_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	// HD_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("HD_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("HD_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvURL возвращает обязательный URL без trailing slash.
func getEnvURL(key string) (string, error) {
	val, err := getEnvRequired(key)
	if err != nil {
		return "", err
	}
	val = strings.TrimRight(val, "/")
	if !strings.HasPrefix(val, "http://") && !strings.HasPrefix(val, "https://") {
		return "", fmt.Errorf("%s: значение %q не похоже на URL", key, val)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q", val)
	}
	return d, nil
}

// parseLogLevel разбирает уровень логирования.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("недопустимый уровень логирования %q, допустимые: debug, info, warn, error", level)
	}
}
