// dephealth.go — интеграция с topologymetrics SDK для мониторинга зависимостей.
//
// UI-модуль мониторит пять backend-сервисов HelpDeskHub через HTTP checker:
//   - auth-сервис (critical: без него невозможен вход)
//   - ticket-сервис (critical: основной сценарий)
//   - comment-сервис
//   - user-сервис
//   - notification-сервис
//
// Метрики доступны на /metrics вместе с остальными Prometheus-метриками:
//   - app_dependency_health — состояние зависимости (1 = ok, 0 = fail)
//   - app_dependency_latency_seconds — задержка проверки
//   - app_dependency_status — категория статуса
//   - app_dependency_status_detail — детальный статус
package service

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/httpcheck" // HTTP checker для backend-сервисов
	"github.com/prometheus/client_golang/prometheus"
)

// Backend — проверяемый backend-сервис.
type Backend struct {
	// Имя вершины графа зависимостей (e.g. "ticket-service")
	Name string
	// Базовый URL сервиса
	URL string
	// Считается ли сервис критичным для readiness UI
	Critical bool
}

// DephealthService — сервис мониторинга зависимостей через topologymetrics.
type DephealthService struct {
	dh     *dephealth.DepHealth
	logger *slog.Logger
}

// NewDephealthService создаёт сервис мониторинга зависимостей.
// Метрики регистрируются в глобальном Prometheus registry.
//
// Параметры:
//   - serviceID — имя вершины графа текущего приложения (e.g. "ui-module")
//   - group — имя группы в метриках (HD_DEPHEALTH_GROUP)
//   - backends — список backend-сервисов
//   - checkInterval — интервал проверки зависимостей (HD_DEPHEALTH_CHECK_INTERVAL)
func NewDephealthService(
	serviceID string,
	group string,
	backends []Backend,
	checkInterval time.Duration,
	logger *slog.Logger,
) (*DephealthService, error) {
	return newDephealthService(serviceID, group, backends, checkInterval, logger)
}

// NewDephealthServiceWithRegisterer создаёт сервис с указанным Prometheus registerer.
// Используется в тестах для изоляции метрик.
func NewDephealthServiceWithRegisterer(
	serviceID string,
	group string,
	backends []Backend,
	checkInterval time.Duration,
	logger *slog.Logger,
	registerer prometheus.Registerer,
) (*DephealthService, error) {
	return newDephealthService(serviceID, group, backends, checkInterval, logger,
		dephealth.WithRegisterer(registerer))
}

// newDephealthService — внутренний конструктор.
func newDephealthService(
	serviceID string,
	group string,
	backends []Backend,
	checkInterval time.Duration,
	logger *slog.Logger,
	extraOpts ...dephealth.Option,
) (*DephealthService, error) {
	opts := []dephealth.Option{
		dephealth.WithLogger(logger),
	}

	for _, b := range backends {
		// По умолчанию dephealth проверяет /health, но backend-сервисы
		// HelpDeskHub не публикуют отдельный health endpoint наружу.
		// Проверяем базовый path самого сервиса — любой HTTP-ответ
		// (включая 401 от защищённого API) означает, что сервис жив.
		healthPath := "/"
		if parsed, parseErr := url.Parse(b.URL); parseErr == nil && parsed.Path != "" {
			healthPath = parsed.Path
		}

		opts = append(opts, dephealth.HTTP(b.Name,
			dephealth.FromURL(b.URL),
			dephealth.WithHTTPHealthPath(healthPath),
			dephealth.CheckInterval(checkInterval),
			dephealth.Critical(b.Critical),
		))
	}
	opts = append(opts, extraOpts...)

	dh, err := dephealth.New(serviceID, group, opts...)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh:     dh,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// Start запускает периодическую проверку зависимостей.
func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("Мониторинг backend-сервисов запущен")
	return ds.dh.Start(ctx)
}

// Stop останавливает мониторинг зависимостей.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг backend-сервисов остановлен")
}

// Health возвращает текущее состояние зависимостей.
// Ключ — имя зависимости, значение — true если ok.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}
