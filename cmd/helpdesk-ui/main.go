// Точка входа UI-модуля HelpDeskHub — браузерный фронтенд helpdesk-системы.
// Загружает конфигурацию, создаёт клиенты backend-сервисов, запускает
// фоновый диспетчер уведомлений и мониторинг зависимостей (topologymetrics),
// HTTP-сервер с session middleware и graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/helpdeskhub/ui-module/internal/config"
	"github.com/helpdeskhub/ui-module/internal/hdclient"
	"github.com/helpdeskhub/ui-module/internal/notify"
	"github.com/helpdeskhub/ui-module/internal/server"
	"github.com/helpdeskhub/ui-module/internal/service"
	"github.com/helpdeskhub/ui-module/internal/session"
	"github.com/helpdeskhub/ui-module/internal/ui/handlers"
	"github.com/helpdeskhub/ui-module/internal/ui/middleware"
	"github.com/helpdeskhub/ui-module/internal/ui/render"
	"github.com/helpdeskhub/ui-module/internal/ui/templates"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("UI-модуль запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	if cfg.SessionSecret == "" {
		logger.Warn("HD_SESSION_SECRET не задан: сессии не переживут рестарт процесса")
	}

	// 3. Менеджер сессий (AES-256-GCM cookie)
	sessions, err := session.NewManager(cfg.SessionSecret, cfg.SecureCookie)
	if err != nil {
		logger.Error("Ошибка создания менеджера сессий", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Клиенты backend-сервисов. Токен берётся из сессии запроса.
	authClient := hdclient.NewAuthClient(cfg.AuthURL, logger)
	ticketsClient := hdclient.NewTicketsClient(cfg.TicketsURL, session.TokenFromContext, logger)
	commentsClient := hdclient.NewCommentsClient(cfg.CommentsURL, session.TokenFromContext, logger)
	usersClient := hdclient.NewUsersClient(cfg.UsersURL, session.TokenFromContext, logger)
	notificationsClient := hdclient.NewNotificationsClient(cfg.NotificationsURL, session.TokenFromContext, logger)

	// 5. Фоновый диспетчер уведомлений
	dispatcher := notify.NewDispatcher(cfg.NotifyQueueSize, logger)
	dispatcher.Start()
	defer dispatcher.Stop()

	// 6. topologymetrics — мониторинг backend-сервисов
	ctx := context.Background()
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"ui-module",
		cfg.DephealthGroup,
		[]service.Backend{
			{Name: "auth-service", URL: cfg.AuthURL, Critical: true},
			{Name: "ticket-service", URL: cfg.TicketsURL, Critical: true},
			{Name: "comment-service", URL: cfg.CommentsURL, Critical: false},
			{Name: "user-service", URL: cfg.UsersURL, Critical: false},
			{Name: "notification-service", URL: cfg.NotificationsURL, Critical: false},
		},
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			defer dephealthSvc.Stop()
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 7. Рендерер шаблонов
	renderer := render.New(templates.FileSystem(), logger)

	// 8. Обработчики
	h := server.Handlers{
		Auth:     handlers.NewAuthHandler(renderer, sessions, authClient, logger),
		Tickets:  handlers.NewTicketHandler(renderer, ticketsClient, usersClient, notificationsClient, dispatcher, cfg.SessionExpiredDelay, logger),
		Comments: handlers.NewCommentHandler(renderer, ticketsClient, commentsClient, usersClient, notificationsClient, dispatcher, cfg.SessionExpiredDelay, logger),
		Users:    handlers.NewUserHandler(renderer, usersClient, cfg.SessionExpiredDelay, logger),
		Password: handlers.NewPasswordHandler(renderer, usersClient, cfg.SessionExpiredDelay, logger),
		Health: handlers.NewHealthHandler(
			map[string]handlers.ReadinessChecker{
				"auth":    authClient,
				"tickets": ticketsClient,
			},
			map[string]handlers.ReadinessChecker{
				"comments":      commentsClient,
				"users":         usersClient,
				"notifications": notificationsClient,
			},
		),
	}

	// 9. HTTP-сервер
	srv := server.New(cfg, logger, h, middleware.NewAuth(sessions, logger))
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка HTTP-сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("UI-модуль остановлен")
}
