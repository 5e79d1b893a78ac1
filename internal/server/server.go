// Пакет server — HTTP-сервер UI-модуля с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на ingress.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/helpdeskhub/ui-module/internal/config"
	"github.com/helpdeskhub/ui-module/internal/ui/handlers"
	"github.com/helpdeskhub/ui-module/internal/ui/middleware"
	"github.com/helpdeskhub/ui-module/internal/ui/static"
)

// Handlers — обработчики, монтируемые на маршруты сервера.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Tickets  *handlers.TicketHandler
	Comments *handlers.CommentHandler
	Users    *handlers.UserHandler
	Password *handlers.PasswordHandler
	Health   *handlers.HealthHandler
}

// Server — HTTP-сервер UI-модуля.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными routes и middleware.
// auth — middleware сессии, применяется ко всем маршрутам, кроме
// /login, /logout, /static, health и metrics.
func New(cfg *config.Config, logger *slog.Logger, h Handlers, auth *middleware.Auth) *Server {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// Публичные маршруты
	router.Get("/health/live", h.Health.HealthLive)
	router.Get("/health/ready", h.Health.HealthReady)
	router.Get("/metrics", h.Health.GetMetrics)

	router.Get("/login", h.Auth.LoginPage)
	router.Post("/login", h.Auth.Login)
	router.Get("/logout", h.Auth.Logout)

	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static.FileSystem())))

	// Маршруты за сессией
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware())

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/tickets", http.StatusFound)
		})

		r.Route("/tickets", func(r chi.Router) {
			r.Get("/", h.Tickets.ListPage)
			r.Get("/table", h.Tickets.Table)
			r.Get("/new", h.Tickets.NewForm)
			r.Post("/", h.Tickets.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Tickets.DetailPage)
				r.Get("/edit", h.Tickets.EditForm)
				r.Post("/", h.Tickets.Update)
				r.Post("/delete", h.Tickets.Delete)
				r.Post("/status", h.Tickets.ChangeStatus)
				r.Post("/assign", h.Tickets.Assign)

				r.Route("/comments", func(r chi.Router) {
					r.Get("/", h.Comments.List)
					r.Post("/", h.Comments.Create)
					r.Get("/{commentID}/edit", h.Comments.EditForm)
					r.Post("/{commentID}", h.Comments.Update)
					r.Post("/{commentID}/delete", h.Comments.Delete)
				})
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.Users.ListPage)
			r.Get("/table", h.Users.Table)
			r.Get("/new", h.Users.NewForm)
			r.Post("/", h.Users.Create)
			r.Get("/{id}/edit", h.Users.EditForm)
			r.Post("/{id}", h.Users.Update)
			r.Post("/{id}/delete", h.Users.Delete)
		})

		r.Get("/password", h.Password.Page)
		r.Post("/password", h.Password.Change)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
