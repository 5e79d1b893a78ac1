// comments.go — клиент comment-сервиса.
package hdclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/helpdeskhub/ui-module/internal/domain/model"
)

// CommentCreate — тело запроса создания комментария.
type CommentCreate struct {
	TicketID int64  `json:"ticketId"`
	AuthorID int64  `json:"authorId"`
	Content  string `json:"content"`
}

// commentUpdate — тело запроса обновления комментария.
type commentUpdate struct {
	Content string `json:"content"`
}

// CommentsClient — HTTP-клиент comment-сервиса.
type CommentsClient struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
	logger     *slog.Logger
}

// NewCommentsClient создаёт клиент comment-сервиса.
func NewCommentsClient(baseURL string, tokens TokenProvider, logger *slog.Logger) *CommentsClient {
	return &CommentsClient{
		baseURL:    normalizeURL(baseURL),
		httpClient: newHTTPClient(),
		tokens:     tokens,
		logger:     logger.With(slog.String("component", "comments_client")),
	}
}

// ListByTicket возвращает комментарии заявки. GET /ticket/{ticketId}.
func (c *CommentsClient) ListByTicket(ctx context.Context, ticketID int64) ([]model.Comment, error) {
	resp, err := doJSON(ctx, c.httpClient, c.tokens, http.MethodGet, fmt.Sprintf("%s/ticket/%d", c.baseURL, ticketID), nil)
	if err != nil {
		return nil, fmt.Errorf("запрос комментариев заявки %d: %w", ticketID, err)
	}

	var comments []model.Comment
	if err := decodeResponse(resp, &comments); err != nil {
		return nil, fmt.Errorf("ListByTicket: %w", err)
	}
	return comments, nil
}

// Create создаёт комментарий. POST /.
func (c *CommentsClient) Create(ctx context.Context, cc CommentCreate) (*model.Comment, error) {
	resp, err := doJSON(ctx, c.httpClient, c.tokens, http.MethodPost, c.baseURL, cc)
	if err != nil {
		return nil, fmt.Errorf("создание комментария: %w", err)
	}

	var created model.Comment
	if err := decodeResponse(resp, &created); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	return &created, nil
}

// Update обновляет текст комментария. PUT /{id}.
func (c *CommentsClient) Update(ctx context.Context, id int64, content string) (*model.Comment, error) {
	resp, err := doJSON(ctx, c.httpClient, c.tokens, http.MethodPut, fmt.Sprintf("%s/%d", c.baseURL, id), commentUpdate{Content: content})
	if err != nil {
		return nil, fmt.Errorf("обновление комментария %d: %w", id, err)
	}

	var updated model.Comment
	if err := decodeResponse(resp, &updated); err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	return &updated, nil
}

// Delete удаляет комментарий. DELETE /{id}.
func (c *CommentsClient) Delete(ctx context.Context, id int64) error {
	resp, err := doJSON(ctx, c.httpClient, c.tokens, http.MethodDelete, fmt.Sprintf("%s/%d", c.baseURL, id), nil)
	if err != nil {
		return fmt.Errorf("удаление комментария %d: %w", id, err)
	}

	if err := checkResponse(resp); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

// CheckReady проверяет доступность comment-сервиса.
func (c *CommentsClient) CheckReady() (string, string) {
	return pingURL(c.baseURL)
}
