// tickets.go — клиент ticket-сервиса.
// CRUD по заявкам плюс выборки, ограниченные ролью:
// GET /client/{id} для клиентов, GET /employee/{id} для сотрудников.
package hdclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/helpdeskhub/ui-module/internal/domain/model"
)

// TicketCreate — тело запроса создания заявки.
// Новые заявки всегда уходят со статусом OPEN.
type TicketCreate struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Priority    model.TicketPriority `json:"priority"`
	Status      model.TicketStatus   `json:"status"`
	OwnerID     int64                `json:"clientId"`
}

// TicketUpdate — тело запроса обновления заявки.
// nil-поля не отправляются: backend меняет только присланное.
// Назначение сотрудника меняется отдельным телом ticketAssign —
// там nil означает «снять назначение», а не «не трогать».
type TicketUpdate struct {
	Title       *string               `json:"title,omitempty"`
	Description *string               `json:"description,omitempty"`
	Priority    *model.TicketPriority `json:"priority,omitempty"`
	Status      *model.TicketStatus   `json:"status,omitempty"`
}

// ticketAssign — тело запроса назначения сотрудника. Поле сериализуется
// всегда: nil уходит как employeeId:null и снимает назначение.
type ticketAssign struct {
	AssigneeID *int64 `json:"employeeId"`
}

// TicketsClient — HTTP-клиент ticket-сервиса.
type TicketsClient struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
	logger     *slog.Logger
}

// NewTicketsClient создаёт клиент ticket-сервиса.
func NewTicketsClient(baseURL string, tokens TokenProvider, logger *slog.Logger) *TicketsClient {
	return &TicketsClient{
		baseURL:    normalizeURL(baseURL),
		httpClient: newHTTPClient(),
		tokens:     tokens,
		logger:     logger.With(slog.String("component", "tickets_client")),
	}
}

// List возвращает все заявки. GET /.
func (c *TicketsClient) List(ctx context.Context) ([]model.Ticket, error) {
	resp, err := doJSON(ctx, c.httpClient, c.tokens, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("запрос списка заявок: %w", err)
	}

	var tickets []model.Ticket
	if err := decodeResponse(resp, &tickets); err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return tickets, nil
}

// Get возвращает заявку по id. GET /{id}.
func (c *TicketsClient) Get(ctx context.Context, id int64) (*model.Ticket, error) {
	resp, err := doJSON(ctx, c.httpClient, c.tokens, http.MethodGet, fmt.Sprintf("%s/%d", c.baseURL, id), nil)
	if err != nil {
		return nil, fmt.Errorf("запрос заявки %d: %w", id, err)
	}

	var ticket model.Ticket
	if err := decodeResponse(resp, &ticket); err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &ticket, nil
}

// Create создаёт заявку. POST /.
func (c *TicketsClient) Create(ctx context.Context, t TicketCreate) (*model.Ticket, error) {
	resp, err := doJSON(ctx, c.httpClient, c.tokens, http.MethodPost, c.baseURL, t)
	if err != nil {
		return nil, fmt.Errorf("создание заявки: %w", err)
	}

	var created model.Ticket
	if err := decodeResponse(resp, &created); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	return &created, nil
}

// Update обновляет заявку. PUT /{id}.
func (c *TicketsClient) Update(ctx context.Context, id int64, u TicketUpdate) (*model.Ticket, error) {
	resp, err := doJSON(ctx, c.httpClient, c.tokens, http.MethodPut, fmt.Sprintf("%s/%d", c.baseURL, id), u)
	if err != nil {
		return nil, fmt.Errorf("обновление заявки %d: %w", id, err)
	}

	var updated model.Ticket
	if err := decodeResponse(resp, &updated); err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	return &updated, nil
}

// Assign назначает или снимает сотрудника. PUT /{id}.
// nil assigneeID явно отправляет employeeId:null.
func (c *TicketsClient) Assign(ctx context.Context, id int64, assigneeID *int64) (*model.Ticket, error) {
	resp, err := doJSON(ctx, c.httpClient, c.tokens, http.MethodPut, fmt.Sprintf("%s/%d", c.baseURL, id), ticketAssign{AssigneeID: assigneeID})
	if err != nil {
		return nil, fmt.Errorf("назначение по заявке %d: %w", id, err)
	}

	var updated model.Ticket
	if err := decodeResponse(resp, &updated); err != nil {
		return nil, fmt.Errorf("Assign: %w", err)
	}
	return &updated, nil
}

// Delete удаляет заявку. DELETE /{id}.
// Само удаление выполняет ticket-сервис, UI только делегирует.
func (c *TicketsClient) Delete(ctx context.Context, id int64) error {
	resp, err := doJSON(ctx, c.httpClient, c.tokens, http.MethodDelete, fmt.Sprintf("%s/%d", c.baseURL, id), nil)
	if err != nil {
		return fmt.Errorf("удаление заявки %d: %w", id, err)
	}

	if err := checkResponse(resp); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

// ListByClient возвращает заявки клиента. GET /client/{id}.
func (c *TicketsClient) ListByClient(ctx context.Context, clientID int64) ([]model.Ticket, error) {
	resp, err := doJSON(ctx, c.httpClient, c.tokens, http.MethodGet, fmt.Sprintf("%s/client/%d", c.baseURL, clientID), nil)
	if err != nil {
		return nil, fmt.Errorf("запрос заявок клиента %d: %w", clientID, err)
	}

	var tickets []model.Ticket
	if err := decodeResponse(resp, &tickets); err != nil {
		return nil, fmt.Errorf("ListByClient: %w", err)
	}
	return tickets, nil
}

// ListByEmployee возвращает заявки, назначенные на сотрудника.
// GET /employee/{id}.
func (c *TicketsClient) ListByEmployee(ctx context.Context, employeeID int64) ([]model.Ticket, error) {
	resp, err := doJSON(ctx, c.httpClient, c.tokens, http.MethodGet, fmt.Sprintf("%s/employee/%d", c.baseURL, employeeID), nil)
	if err != nil {
		return nil, fmt.Errorf("запрос заявок сотрудника %d: %w", employeeID, err)
	}

	var tickets []model.Ticket
	if err := decodeResponse(resp, &tickets); err != nil {
		return nil, fmt.Errorf("ListByEmployee: %w", err)
	}
	return tickets, nil
}

// CheckReady проверяет доступность ticket-сервиса.
// Реализует handlers.ReadinessChecker.
func (c *TicketsClient) CheckReady() (string, string) {
	return pingURL(c.baseURL)
}
