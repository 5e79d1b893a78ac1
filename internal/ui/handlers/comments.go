// comments.go — ветка комментариев заявки.
// Комментарии живут внутри карточки заявки и меняются htmx-фрагментами.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/helpdeskhub/ui-module/internal/domain/model"
	"github.com/helpdeskhub/ui-module/internal/domain/perm"
	"github.com/helpdeskhub/ui-module/internal/hdclient"
	"github.com/helpdeskhub/ui-module/internal/notify"
	"github.com/helpdeskhub/ui-module/internal/session"
	"github.com/helpdeskhub/ui-module/internal/ui/render"
)

// CommentHandler — обработчики комментариев.
type CommentHandler struct {
	renderer     *render.Renderer
	tickets      *hdclient.TicketsClient
	comments     *hdclient.CommentsClient
	users        *hdclient.UsersClient
	notifier     *hdclient.NotificationsClient
	dispatcher   *notify.Dispatcher
	expiredDelay time.Duration
	logger       *slog.Logger
}

// NewCommentHandler создаёт CommentHandler.
func NewCommentHandler(
	renderer *render.Renderer,
	tickets *hdclient.TicketsClient,
	comments *hdclient.CommentsClient,
	users *hdclient.UsersClient,
	notifier *hdclient.NotificationsClient,
	dispatcher *notify.Dispatcher,
	expiredDelay time.Duration,
	logger *slog.Logger,
) *CommentHandler {
	return &CommentHandler{
		renderer:     renderer,
		tickets:      tickets,
		comments:     comments,
		users:        users,
		notifier:     notifier,
		dispatcher:   dispatcher,
		expiredDelay: expiredDelay,
		logger:       logger.With(slog.String("component", "comment_handler")),
	}
}

// commentRow — комментарий с отображаемым именем автора и правами
// текущего пользователя.
type commentRow struct {
	model.Comment
	AuthorName    string
	CanModify     bool
	AdminOverride bool
}

// List — GET /tickets/{id}/comments. htmx-фрагмент ветки.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ticket, ok := h.loadTicket(w, r)
	if !ok {
		return
	}
	h.renderList(w, r, ticket)
}

// Create — POST /tickets/{id}/comments.
// Владелец заявки уведомляется в фоне, если комментарий не его.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	ticket, ok := h.loadTicket(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "некорректная форма", http.StatusBadRequest)
		return
	}

	content := strings.TrimSpace(r.PostFormValue("content"))
	if content == "" {
		h.renderListWithError(w, r, ticket, "комментарий не может быть пустым")
		return
	}

	created, err := h.comments.Create(r.Context(), hdclient.CommentCreate{
		TicketID: ticket.ID,
		AuthorID: sess.UserID,
		Content:  content,
	})
	if err != nil {
		writeError(h.renderer, h.logger, w, r, err, h.expiredDelay)
		return
	}

	if ticket.OwnerID != sess.UserID {
		h.notifyNewComment(sess, ticket, created.Content)
	}
	h.renderList(w, r, ticket)
}

// EditForm — GET /tickets/{id}/comments/{commentID}/edit.
// htmx-фрагмент формы редактирования одного комментария.
func (h *CommentHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	ticket, ok := h.loadTicket(w, r)
	if !ok {
		return
	}
	comment, ok := h.loadComment(w, r, ticket)
	if !ok {
		return
	}
	if !perm.CanModifyComment(sess.Role, sess.UserID, comment.AuthorID) {
		http.Error(w, "недостаточно прав", http.StatusForbidden)
		return
	}

	ctx := baseContext(r)
	ctx["ticket"] = ticket
	ctx["comment"] = comment
	h.renderer.HTML(w, http.StatusOK, "partials/comment_form.html", ctx)
}

// Update — POST /tickets/{id}/comments/{commentID}.
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	ticket, ok := h.loadTicket(w, r)
	if !ok {
		return
	}
	comment, ok := h.loadComment(w, r, ticket)
	if !ok {
		return
	}
	if !perm.CanModifyComment(sess.Role, sess.UserID, comment.AuthorID) {
		http.Error(w, "недостаточно прав", http.StatusForbidden)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "некорректная форма", http.StatusBadRequest)
		return
	}

	content := strings.TrimSpace(r.PostFormValue("content"))
	if content == "" {
		h.renderListWithError(w, r, ticket, "комментарий не может быть пустым")
		return
	}

	if _, err := h.comments.Update(r.Context(), comment.ID, content); err != nil {
		writeError(h.renderer, h.logger, w, r, err, h.expiredDelay)
		return
	}

	if perm.IsAdminOverride(sess.Role, sess.UserID, comment.AuthorID) {
		h.logger.Info("Администратор изменил чужой комментарий",
			slog.Int64("comment_id", comment.ID),
			slog.Int64("author_id", comment.AuthorID),
			slog.Int64("admin_id", sess.UserID),
		)
	}
	h.renderList(w, r, ticket)
}

// Delete — POST /tickets/{id}/comments/{commentID}/delete.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	ticket, ok := h.loadTicket(w, r)
	if !ok {
		return
	}
	comment, ok := h.loadComment(w, r, ticket)
	if !ok {
		return
	}
	if !perm.CanModifyComment(sess.Role, sess.UserID, comment.AuthorID) {
		http.Error(w, "недостаточно прав", http.StatusForbidden)
		return
	}

	if err := h.comments.Delete(r.Context(), comment.ID); err != nil {
		writeError(h.renderer, h.logger, w, r, err, h.expiredDelay)
		return
	}

	if perm.IsAdminOverride(sess.Role, sess.UserID, comment.AuthorID) {
		h.logger.Info("Администратор удалил чужой комментарий",
			slog.Int64("comment_id", comment.ID),
			slog.Int64("author_id", comment.AuthorID),
			slog.Int64("admin_id", sess.UserID),
		)
	}
	h.renderList(w, r, ticket)
}

// loadTicket загружает заявку из маршрута и проверяет видимость:
// клиент работает только с комментариями своих заявок.
func (h *CommentHandler) loadTicket(w http.ResponseWriter, r *http.Request) (*model.Ticket, bool) {
	sess := session.FromContext(r.Context())
	id, err := urlParamInt64(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}

	ticket, err := h.tickets.Get(r.Context(), id)
	if err != nil {
		writeError(h.renderer, h.logger, w, r, err, h.expiredDelay)
		return nil, false
	}
	if sess.Role == perm.RoleClient && ticket.OwnerID != sess.UserID {
		http.NotFound(w, r)
		return nil, false
	}
	return ticket, true
}

// loadComment загружает комментарий из ветки заявки.
// Комментарий чужой заявки недоступен даже по прямому id.
func (h *CommentHandler) loadComment(w http.ResponseWriter, r *http.Request, ticket *model.Ticket) (*model.Comment, bool) {
	commentID, err := urlParamInt64(r, "commentID")
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}

	comments, err := h.comments.ListByTicket(r.Context(), ticket.ID)
	if err != nil {
		writeError(h.renderer, h.logger, w, r, err, h.expiredDelay)
		return nil, false
	}
	for i := range comments {
		if comments[i].ID == commentID {
			return &comments[i], true
		}
	}

	http.NotFound(w, r)
	return nil, false
}

// renderList рендерит фрагмент ветки комментариев.
func (h *CommentHandler) renderList(w http.ResponseWriter, r *http.Request, ticket *model.Ticket) {
	h.renderListWithError(w, r, ticket, "")
}

func (h *CommentHandler) renderListWithError(w http.ResponseWriter, r *http.Request, ticket *model.Ticket, errMessage string) {
	sess := session.FromContext(r.Context())

	comments, err := h.comments.ListByTicket(r.Context(), ticket.ID)
	if err != nil {
		writeError(h.renderer, h.logger, w, r, err, h.expiredDelay)
		return
	}

	// Ветка читается сверху вниз: старые комментарии первыми
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})

	names := h.authorNames(r.Context(), comments)
	rows := make([]commentRow, 0, len(comments))
	for i := range comments {
		rows = append(rows, commentRow{
			Comment:       comments[i],
			AuthorName:    names[comments[i].AuthorID],
			CanModify:     perm.CanModifyComment(sess.Role, sess.UserID, comments[i].AuthorID),
			AdminOverride: perm.IsAdminOverride(sess.Role, sess.UserID, comments[i].AuthorID),
		})
	}

	ctx := baseContext(r)
	ctx["ticket"] = ticket
	ctx["comments"] = rows
	if errMessage != "" {
		ctx["error"] = errMessage
	}
	h.renderer.HTML(w, http.StatusOK, "partials/comment_list.html", ctx)
}

// authorNames возвращает id → отображаемое имя автора.
// Каждый уникальный автор запрашивается один раз; недоступный
// user-сервис деградирует до "пользователь #id".
func (h *CommentHandler) authorNames(ctx context.Context, comments []model.Comment) map[int64]string {
	names := make(map[int64]string)
	for i := range comments {
		id := comments[i].AuthorID
		if _, ok := names[id]; ok {
			continue
		}
		if user, err := h.users.Get(ctx, id); err == nil {
			names[id] = user.FullName()
		} else {
			names[id] = fmt.Sprintf("пользователь #%d", id)
		}
	}
	return names
}

// notifyNewComment ставит в очередь уведомление владельца о комментарии.
func (h *CommentHandler) notifyNewComment(sess *session.Data, ticket *model.Ticket, content string) {
	t := *ticket
	h.dispatcher.Enqueue(notify.NewJob("comment", sess, func(ctx context.Context) error {
		owner, err := h.users.Get(ctx, t.OwnerID)
		if err != nil {
			return fmt.Errorf("владелец заявки %d: %w", t.ID, err)
		}
		return h.notifier.NotifyNewComment(ctx, hdclient.CommentNotification{
			Recipient:   owner.Email,
			TicketID:    t.ID,
			TicketTitle: t.Title,
			CommentText: content,
		})
	}))
}
