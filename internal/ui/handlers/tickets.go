// tickets.go — список заявок, карточка заявки и операции над ней.
// Список держится на чистых функциях ticketview: UI каждый раз заново
// забирает коллекцию у ticket-сервиса и выводит видимое подмножество.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/flosch/pongo2/v6"

	"github.com/helpdeskhub/ui-module/internal/domain/model"
	"github.com/helpdeskhub/ui-module/internal/domain/perm"
	"github.com/helpdeskhub/ui-module/internal/domain/ticketview"
	"github.com/helpdeskhub/ui-module/internal/hdclient"
	"github.com/helpdeskhub/ui-module/internal/notify"
	"github.com/helpdeskhub/ui-module/internal/session"
	"github.com/helpdeskhub/ui-module/internal/ui/render"
)

// TicketHandler — обработчики /tickets.
type TicketHandler struct {
	renderer     *render.Renderer
	tickets      *hdclient.TicketsClient
	users        *hdclient.UsersClient
	notifier     *hdclient.NotificationsClient
	dispatcher   *notify.Dispatcher
	expiredDelay time.Duration
	logger       *slog.Logger
}

// NewTicketHandler создаёт TicketHandler.
func NewTicketHandler(
	renderer *render.Renderer,
	tickets *hdclient.TicketsClient,
	users *hdclient.UsersClient,
	notifier *hdclient.NotificationsClient,
	dispatcher *notify.Dispatcher,
	expiredDelay time.Duration,
	logger *slog.Logger,
) *TicketHandler {
	return &TicketHandler{
		renderer:     renderer,
		tickets:      tickets,
		users:        users,
		notifier:     notifier,
		dispatcher:   dispatcher,
		expiredDelay: expiredDelay,
		logger:       logger.With(slog.String("component", "ticket_handler")),
	}
}

// ticketRow — строка таблицы заявок с отображаемым именем сотрудника.
type ticketRow struct {
	model.Ticket
	AssigneeName string
}

// columnLink — ссылка заголовка колонки: запрос со следующей сортировкой.
type columnLink struct {
	Query  string
	Active bool
	Desc   bool
}

// ListPage — GET /tickets. Страница со встроенной таблицей.
func (h *TicketHandler) ListPage(w http.ResponseWriter, r *http.Request) {
	ctx, err := h.tableContext(r)
	if err != nil {
		writeError(h.renderer, h.logger, w, r, err, h.expiredDelay)
		return
	}
	h.renderer.HTML(w, http.StatusOK, "pages/tickets.html", ctx)
}

// Table — GET /tickets/table. htmx-фрагмент таблицы для фильтров
// и сортировки без перезагрузки страницы.
func (h *TicketHandler) Table(w http.ResponseWriter, r *http.Request) {
	ctx, err := h.tableContext(r)
	if err != nil {
		writeError(h.renderer, h.logger, w, r, err, h.expiredDelay)
		return
	}
	h.renderer.HTML(w, http.StatusOK, "partials/ticket_table.html", ctx)
}

// tableContext собирает контекст таблицы: видимое подмножество заявок,
// активные фильтры и ссылки сортировки.
func (h *TicketHandler) tableContext(r *http.Request) (pongo2.Context, error) {
	sess := session.FromContext(r.Context())
	filters, sortState := parseView(r)

	tickets, err := h.fetchTickets(r.Context(), sess)
	if err != nil {
		return nil, err
	}

	employees := h.employeeNames(r.Context())
	visible := ticketview.Apply(tickets, filters, sortState)

	rows := make([]ticketRow, 0, len(visible))
	for i := range visible {
		rows = append(rows, ticketRow{
			Ticket:       visible[i],
			AssigneeName: assigneeName(visible[i].AssigneeID, employees),
		})
	}

	assigneeSelected := ""
	if filters.UnassignedOnly {
		assigneeSelected = "none"
	} else if filters.AssigneeID != nil {
		assigneeSelected = strconv.FormatInt(*filters.AssigneeID, 10)
	}

	ctx := baseContext(r)
	ctx["rows"] = rows
	ctx["filters"] = filters
	// Именованные строковые типы сравниваются в шаблонах только
	// с такими же типами, поэтому выбранные значения передаются строками
	ctx["status_selected"] = string(filters.Status)
	ctx["priority_selected"] = string(filters.Priority)
	ctx["assignee_selected"] = assigneeSelected
	ctx["employees"] = h.employeeList(r.Context())
	ctx["columns"] = columnLinks(filters, sortState)
	ctx["is_staff"] = perm.IsStaff(sess.Role)
	return ctx, nil
}

// fetchTickets забирает заявки с учётом роли: клиент видит только свои,
// сотрудники и администраторы — все.
func (h *TicketHandler) fetchTickets(ctx context.Context, sess *session.Data) ([]model.Ticket, error) {
	if sess.Role == perm.RoleClient {
		return h.tickets.ListByClient(ctx, sess.UserID)
	}
	return h.tickets.List(ctx)
}

// NewForm — GET /tickets/new. htmx-фрагмент формы создания.
func (h *TicketHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	ctx := baseContext(r)
	ctx["priority_selected"] = string(model.PriorityMedium)
	h.renderer.HTML(w, http.StatusOK, "partials/ticket_form.html", ctx)
}

// Create — POST /tickets. Новая заявка всегда открывается со статусом
// OPEN и принадлежит текущему пользователю.
func (h *TicketHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		h.formError(w, r, nil, "некорректная форма")
		return
	}

	title := strings.TrimSpace(r.PostFormValue("title"))
	description := strings.TrimSpace(r.PostFormValue("description"))
	priority := model.TicketPriority(r.PostFormValue("priority"))

	if fieldErrors := validateTicketForm(title, description); fieldErrors != nil {
		h.formInvalid(w, r, nil, title, description, fieldErrors)
		return
	}
	if !priority.IsValid() {
		priority = model.PriorityMedium
	}

	created, err := h.tickets.Create(r.Context(), hdclient.TicketCreate{
		Title:       title,
		Description: description,
		Priority:    priority,
		Status:      model.StatusOpen,
		OwnerID:     sess.UserID,
	})
	if err != nil {
		writeError(h.renderer, h.logger, w, r, err, h.expiredDelay)
		return
	}

	h.logger.Info("Заявка создана",
		slog.Int64("ticket_id", created.ID),
		slog.Int64("user_id", sess.UserID),
	)
	redirect(w, r, fmt.Sprintf("/tickets/%d", created.ID))
}

// DetailPage — GET /tickets/{id}. Карточка заявки с комментариями.
func (h *TicketHandler) DetailPage(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	id, err := urlParamInt64(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	ticket, err := h.tickets.Get(r.Context(), id)
	if err != nil {
		writeError(h.renderer, h.logger, w, r, err, h.expiredDelay)
		return
	}

	// Клиент не видит чужие заявки, даже зная их id
	if sess.Role == perm.RoleClient && ticket.OwnerID != sess.UserID {
		http.NotFound(w, r)
		return
	}

	employees := h.employeeNames(r.Context())

	ctx := baseContext(r)
	ctx["ticket"] = ticket
	ctx["assignee_name"] = assigneeName(ticket.AssigneeID, employees)
	ctx["employees"] = h.employeeList(r.Context())
	ctx["can_edit"] = perm.CanEditTicket(sess.Role, sess.UserID, ticket.OwnerID)
	ctx["can_delete"] = perm.CanDeleteTicket(sess.Role, sess.UserID, ticket.OwnerID)
	ctx["can_change_status"] = perm.CanChangeStatus(sess.Role)
	ctx["can_assign"] = perm.CanAssign(sess.Role)
	ctx["statuses"] = []model.TicketStatus{model.StatusOpen, model.StatusInProgress, model.StatusClosed}
	h.renderer.HTML(w, http.StatusOK, "pages/ticket_detail.html", ctx)
}

// EditForm — GET /tickets/{id}/edit. htmx-фрагмент формы редактирования.
func (h *TicketHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	id, err := urlParamInt64(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	ticket, err := h.tickets.Get(r.Context(), id)
	if err != nil {
		writeError(h.renderer, h.logger, w, r, err, h.expiredDelay)
		return
	}
	if !perm.CanEditTicket(sess.Role, sess.UserID, ticket.OwnerID) {
		http.Error(w, "недостаточно прав", http.StatusForbidden)
		return
	}

	ctx := baseContext(r)
	ctx["ticket"] = ticket
	ctx["form_title"] = ticket.Title
	ctx["form_description"] = ticket.Description
	ctx["priority_selected"] = string(ticket.Priority)
	h.renderer.HTML(w, http.StatusOK, "partials/ticket_form.html", ctx)
}

// Update — POST /tickets/{id}. Редактирование темы, описания и приоритета.
func (h *TicketHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	id, err := urlParamInt64(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.formError(w, r, nil, "некорректная форма")
		return
	}

	ticket, err := h.tickets.Get(r.Context(), id)
	if err != nil {
		writeError(h.renderer, h.logger, w, r, err, h.expiredDelay)
		return
	}
	if !perm.CanEditTicket(sess.Role, sess.UserID, ticket.OwnerID) {
		http.Error(w, "недостаточно прав", http.StatusForbidden)
		return
	}

	title := strings.TrimSpace(r.PostFormValue("title"))
	description := strings.TrimSpace(r.PostFormValue("description"))
	priority := model.TicketPriority(r.PostFormValue("priority"))

	if fieldErrors := validateTicketForm(title, description); fieldErrors != nil {
		h.formInvalid(w, r, ticket, title, description, fieldErrors)
		return
	}
	if !priority.IsValid() {
		priority = ticket.Priority
	}

	if _, err := h.tickets.Update(r.Context(), id, hdclient.TicketUpdate{
		Title:       &title,
		Description: &description,
		Priority:    &priority,
	}); err != nil {
		writeError(h.renderer, h.logger, w, r, err, h.expiredDelay)
		return
	}

	redirect(w, r, fmt.Sprintf("/tickets/%d", id))
}

// Delete — POST /tickets/{id}/delete.
func (h *TicketHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	id, err := urlParamInt64(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	ticket, err := h.tickets.Get(r.Context(), id)
	if err != nil {
		writeError(h.renderer, h.logger, w, r, err, h.expiredDelay)
		return
	}
	if !perm.CanDeleteTicket(sess.Role, sess.UserID, ticket.OwnerID) {
		http.Error(w, "недостаточно прав", http.StatusForbidden)
		return
	}

	if err := h.tickets.Delete(r.Context(), id); err != nil {
		writeError(h.renderer, h.logger, w, r, err, h.expiredDelay)
		return
	}

	h.logger.Info("Заявка удалена",
		slog.Int64("ticket_id", id),
		slog.Int64("user_id", sess.UserID),
	)
	redirect(w, r, "/tickets")
}

// ChangeStatus — POST /tickets/{id}/status. Только для сотрудников.
// Владелец заявки уведомляется в фоне.
func (h *TicketHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if !perm.CanChangeStatus(sess.Role) {
		http.Error(w, "недостаточно прав", http.StatusForbidden)
		return
	}

	id, err := urlParamInt64(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "некорректная форма", http.StatusBadRequest)
		return
	}

	status := model.TicketStatus(r.PostFormValue("status"))
	if !status.IsValid() {
		http.Error(w, "недопустимый статус", http.StatusBadRequest)
		return
	}

	updated, err := h.tickets.Update(r.Context(), id, hdclient.TicketUpdate{Status: &status})
	if err != nil {
		writeError(h.renderer, h.logger, w, r, err, h.expiredDelay)
		return
	}

	h.notifyStatusChanged(sess, updated)
	redirect(w, r, fmt.Sprintf("/tickets/%d", id))
}

// Assign — POST /tickets/{id}/assign. Только для сотрудников.
// Пустой выбор снимает назначение.
func (h *TicketHandler) Assign(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if !perm.CanAssign(sess.Role) {
		http.Error(w, "недостаточно прав", http.StatusForbidden)
		return
	}

	id, err := urlParamInt64(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "некорректная форма", http.StatusBadRequest)
		return
	}

	var assigneeID *int64
	if raw := r.PostFormValue("employee"); raw != "" {
		parsed, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil {
			http.Error(w, "некорректный сотрудник", http.StatusBadRequest)
			return
		}
		assigneeID = &parsed
	}

	updated, err := h.tickets.Assign(r.Context(), id, assigneeID)
	if err != nil {
		writeError(h.renderer, h.logger, w, r, err, h.expiredDelay)
		return
	}

	if assigneeID != nil {
		h.notifyAssigned(sess, updated, *assigneeID)
	}
	redirect(w, r, fmt.Sprintf("/tickets/%d", id))
}

// notifyStatusChanged ставит в очередь уведомление владельца о смене статуса.
func (h *TicketHandler) notifyStatusChanged(sess *session.Data, ticket *model.Ticket) {
	t := *ticket
	h.dispatcher.Enqueue(notify.NewJob("status", sess, func(ctx context.Context) error {
		owner, err := h.users.Get(ctx, t.OwnerID)
		if err != nil {
			return fmt.Errorf("владелец заявки %d: %w", t.ID, err)
		}
		return h.notifier.NotifyStatusChanged(ctx, hdclient.StatusNotification{
			Recipient:   owner.Email,
			TicketID:    t.ID,
			TicketTitle: t.Title,
			NewStatus:   string(t.Status),
		})
	}))
}

// notifyAssigned ставит в очередь уведомление владельца о назначении сотрудника.
func (h *TicketHandler) notifyAssigned(sess *session.Data, ticket *model.Ticket, employeeID int64) {
	t := *ticket
	h.dispatcher.Enqueue(notify.NewJob("assign", sess, func(ctx context.Context) error {
		owner, err := h.users.Get(ctx, t.OwnerID)
		if err != nil {
			return fmt.Errorf("владелец заявки %d: %w", t.ID, err)
		}
		employee, err := h.users.Get(ctx, employeeID)
		if err != nil {
			return fmt.Errorf("сотрудник %d: %w", employeeID, err)
		}
		return h.notifier.NotifyEmployeeAssigned(ctx, hdclient.AssignNotification{
			Recipient:    owner.Email,
			TicketID:     t.ID,
			TicketTitle:  t.Title,
			EmployeeName: employee.FullName(),
		})
	}))
}

// validateTicketForm проверяет обязательные поля формы заявки.
// Возвращает ошибки по полям или nil, если форма валидна.
func validateTicketForm(title, description string) map[string]string {
	fieldErrors := make(map[string]string)
	if title == "" {
		fieldErrors["title"] = "укажите тему заявки"
	}
	if description == "" {
		fieldErrors["description"] = "укажите описание заявки"
	}
	if len(fieldErrors) == 0 {
		return nil
	}
	return fieldErrors
}

// formError перерисовывает форму заявки с сообщением об ошибке.
func (h *TicketHandler) formError(w http.ResponseWriter, r *http.Request, ticket *model.Ticket, message string) {
	ctx := baseContext(r)
	ctx["error"] = message
	ctx["priority_selected"] = string(model.PriorityMedium)
	if ticket != nil {
		ctx["ticket"] = ticket
		ctx["form_title"] = ticket.Title
		ctx["form_description"] = ticket.Description
		ctx["priority_selected"] = string(ticket.Priority)
	}
	h.renderer.HTML(w, http.StatusOK, "partials/ticket_form.html", ctx)
}

// formInvalid перерисовывает форму с пометками обязательных полей,
// сохраняя введённые пользователем значения. Запрос к ticket-сервису
// при невалидной форме не выполняется.
func (h *TicketHandler) formInvalid(w http.ResponseWriter, r *http.Request, ticket *model.Ticket, title, description string, fieldErrors map[string]string) {
	ctx := baseContext(r)
	ctx["field_errors"] = fieldErrors
	ctx["form_title"] = title
	ctx["form_description"] = description
	ctx["priority_selected"] = string(model.PriorityMedium)
	if ticket != nil {
		ctx["ticket"] = ticket
		ctx["priority_selected"] = string(ticket.Priority)
	}
	h.renderer.HTML(w, http.StatusOK, "partials/ticket_form.html", ctx)
}

// employeeNames возвращает id → отображаемое имя сотрудника.
// Недоступность user-сервиса деградирует отображение, но не списки.
func (h *TicketHandler) employeeNames(ctx context.Context) map[int64]string {
	employees, err := h.users.ListEmployees(ctx)
	if err != nil {
		h.logger.Warn("Не удалось получить список сотрудников",
			slog.String("error", err.Error()),
		)
		return nil
	}

	names := make(map[int64]string, len(employees))
	for i := range employees {
		names[employees[i].ID] = employees[i].FullName()
	}
	return names
}

// employeeList возвращает сотрудников для выпадающих списков.
func (h *TicketHandler) employeeList(ctx context.Context) []model.User {
	employees, err := h.users.ListEmployees(ctx)
	if err != nil {
		return nil
	}
	return employees
}

// assigneeName возвращает отображаемое имя назначенного сотрудника.
func assigneeName(id *int64, names map[int64]string) string {
	if id == nil {
		return ""
	}
	if name, ok := names[*id]; ok {
		return name
	}
	return fmt.Sprintf("сотрудник #%d", *id)
}

// redirect выполняет переход на target: HX-Redirect для htmx-запросов,
// обычный 302 для остальных.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// parseView разбирает фильтры и сортировку из query-параметров.
// Недопустимые значения молча заменяются значениями по умолчанию.
func parseView(r *http.Request) (ticketview.Filters, ticketview.Sort) {
	q := r.URL.Query()

	var f ticketview.Filters
	if s := model.TicketStatus(q.Get("status")); s.IsValid() {
		f.Status = s
	}
	if p := model.TicketPriority(q.Get("priority")); p.IsValid() {
		f.Priority = p
	}
	switch raw := q.Get("assignee"); raw {
	case "", "any":
	case "none":
		f.UnassignedOnly = true
	default:
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			f.AssigneeID = &id
		}
	}
	f.Archived = q.Get("archived") == "true"

	s := ticketview.DefaultSort
	if key := ticketview.SortKey(q.Get("sort")); key.IsValid() {
		s = ticketview.Sort{Key: key, Desc: q.Get("desc") == "true"}
	}

	return f, s
}

// columnLinks строит query-строки заголовков колонок: клик по колонке
// даёт следующую сортировку при сохранении фильтров.
func columnLinks(f ticketview.Filters, current ticketview.Sort) map[string]columnLink {
	keys := []ticketview.SortKey{
		ticketview.SortByID,
		ticketview.SortByTitle,
		ticketview.SortByAssignee,
		ticketview.SortByUpdated,
		ticketview.SortByStatus,
		ticketview.SortByPriority,
	}

	links := make(map[string]columnLink, len(keys))
	for _, key := range keys {
		next := ticketview.NextSort(current, key)

		q := url.Values{}
		if f.Status != "" {
			q.Set("status", string(f.Status))
		}
		if f.Priority != "" {
			q.Set("priority", string(f.Priority))
		}
		if f.UnassignedOnly {
			q.Set("assignee", "none")
		} else if f.AssigneeID != nil {
			q.Set("assignee", strconv.FormatInt(*f.AssigneeID, 10))
		}
		if f.Archived {
			q.Set("archived", "true")
		}
		q.Set("sort", string(next.Key))
		q.Set("desc", strconv.FormatBool(next.Desc))

		links[string(key)] = columnLink{
			Query:  q.Encode(),
			Active: current.Key == key,
			Desc:   current.Desc,
		}
	}
	return links
}
