// Пакет model — доменные модели HelpDeskHub UI.
// Типы заявок, комментариев и пользователей, приходящие из backend-сервисов.
package model

import "time"

// TicketStatus — статус заявки.
type TicketStatus string

// Статусы заявки в порядке жизненного цикла.
const (
	StatusOpen       TicketStatus = "OPEN"
	StatusInProgress TicketStatus = "IN_PROGRESS"
	StatusClosed     TicketStatus = "CLOSED"
)

// statusRank — фиксированный порядок статусов для сортировки.
// OPEN < IN_PROGRESS < CLOSED.
var statusRank = map[TicketStatus]int{
	StatusOpen:       1,
	StatusInProgress: 2,
	StatusClosed:     3,
}

// Rank возвращает ранг статуса для сортировки.
// Неизвестный статус получает ранг 0 (перед всеми известными).
func (s TicketStatus) Rank() int {
	return statusRank[s]
}

// IsValid проверяет, является ли значение допустимым статусом.
func (s TicketStatus) IsValid() bool {
	_, ok := statusRank[s]
	return ok
}

// TicketPriority — приоритет заявки.
type TicketPriority string

// Приоритеты заявки в порядке возрастания важности.
const (
	PriorityLow    TicketPriority = "LOW"
	PriorityMedium TicketPriority = "MEDIUM"
	PriorityHigh   TicketPriority = "HIGH"
)

// priorityRank — фиксированный порядок приоритетов для сортировки.
// LOW < MEDIUM < HIGH.
var priorityRank = map[TicketPriority]int{
	PriorityLow:    1,
	PriorityMedium: 2,
	PriorityHigh:   3,
}

// Rank возвращает ранг приоритета для сортировки.
func (p TicketPriority) Rank() int {
	return priorityRank[p]
}

// IsValid проверяет, является ли значение допустимым приоритетом.
func (p TicketPriority) IsValid() bool {
	_, ok := priorityRank[p]
	return ok
}

// Ticket — заявка службы поддержки.
// Создаётся клиентом, назначается на сотрудника, проходит путь
// OPEN → IN_PROGRESS → CLOSED. UI не удаляет заявки сам —
// удаление делегируется ticket-сервису.
type Ticket struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      TicketStatus   `json:"status"`
	Priority    TicketPriority `json:"priority"`
	// OwnerID — клиент, создавший заявку (на wire — clientId).
	OwnerID int64 `json:"clientId"`
	// AssigneeID — назначенный сотрудник, nil если не назначен
	// (на wire — employeeId).
	AssigneeID *int64    `json:"employeeId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Assigned возвращает true, если заявка назначена на сотрудника.
func (t *Ticket) Assigned() bool {
	return t.AssigneeID != nil
}
