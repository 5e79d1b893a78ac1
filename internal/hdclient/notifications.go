// notifications.go — клиент notification-сервиса.
// Все вызовы идут из фонового диспетчера после ответа пользователю,
// поэтому ошибки здесь не всплывают в UI — их логирует вызывающий.
package hdclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// CommentNotification — уведомление о новом комментарии. POST /comment.
type CommentNotification struct {
	Recipient   string `json:"recipient"`
	TicketID    int64  `json:"ticketId"`
	TicketTitle string `json:"ticketTitle"`
	CommentText string `json:"commentText"`
}

// StatusNotification — уведомление о смене статуса заявки. POST /status.
type StatusNotification struct {
	Recipient   string `json:"recipient"`
	TicketID    int64  `json:"ticketId"`
	TicketTitle string `json:"ticketTitle"`
	NewStatus   string `json:"newStatus"`
}

// AssignNotification — уведомление о назначении сотрудника. POST /employee.
type AssignNotification struct {
	Recipient    string `json:"recipient"`
	TicketID     int64  `json:"ticketId"`
	TicketTitle  string `json:"ticketTitle"`
	EmployeeName string `json:"employeeName"`
}

// NotificationsClient — HTTP-клиент notification-сервиса.
type NotificationsClient struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
	logger     *slog.Logger
}

// NewNotificationsClient создаёт клиент notification-сервиса.
func NewNotificationsClient(baseURL string, tokens TokenProvider, logger *slog.Logger) *NotificationsClient {
	return &NotificationsClient{
		baseURL:    normalizeURL(baseURL),
		httpClient: newHTTPClient(),
		tokens:     tokens,
		logger:     logger.With(slog.String("component", "notifications_client")),
	}
}

// NotifyNewComment отправляет уведомление о новом комментарии.
func (c *NotificationsClient) NotifyNewComment(ctx context.Context, n CommentNotification) error {
	return c.post(ctx, "/comment", n)
}

// NotifyStatusChanged отправляет уведомление о смене статуса.
func (c *NotificationsClient) NotifyStatusChanged(ctx context.Context, n StatusNotification) error {
	return c.post(ctx, "/status", n)
}

// NotifyEmployeeAssigned отправляет уведомление о назначении сотрудника.
func (c *NotificationsClient) NotifyEmployeeAssigned(ctx context.Context, n AssignNotification) error {
	return c.post(ctx, "/employee", n)
}

func (c *NotificationsClient) post(ctx context.Context, path string, body any) error {
	resp, err := doJSON(ctx, c.httpClient, c.tokens, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("отправка уведомления %s: %w", path, err)
	}

	if err := checkResponse(resp); err != nil {
		return fmt.Errorf("уведомление %s: %w", path, err)
	}
	return nil
}

// CheckReady проверяет доступность notification-сервиса.
func (c *NotificationsClient) CheckReady() (string, string) {
	return pingURL(c.baseURL)
}
