// Пакет ticketview — чистые функции фильтрации и сортировки заявок.
// UI хранит полную коллекцию, полученную от ticket-сервиса, и на каждый
// запрос заново выводит видимое подмножество через Apply.
// Функции никогда не мутируют входные данные.
package ticketview

import (
	"sort"
	"strings"

	"github.com/helpdeskhub/ui-module/internal/domain/model"
)

// SortKey — ключ сортировки списка заявок.
type SortKey string

// Допустимые ключи сортировки.
const (
	SortByID       SortKey = "id"
	SortByTitle    SortKey = "title"
	SortByAssignee SortKey = "assignee"
	SortByUpdated  SortKey = "updated"
	SortByStatus   SortKey = "status"
	SortByPriority SortKey = "priority"
)

// IsValid проверяет, является ли значение допустимым ключом сортировки.
func (k SortKey) IsValid() bool {
	switch k {
	case SortByID, SortByTitle, SortByAssignee, SortByUpdated, SortByStatus, SortByPriority:
		return true
	}
	return false
}

// Sort — активная сортировка: ключ и направление.
type Sort struct {
	Key  SortKey
	Desc bool
}

// DefaultSort — сортировка по умолчанию: свежие изменения сверху.
var DefaultSort = Sort{Key: SortByUpdated, Desc: true}

// NextSort вычисляет сортировку после клика по заголовку колонки.
// Повторный клик по активному ключу переворачивает направление.
// Новый ключ начинает с возрастания, кроме updated — он начинает
// с убывания (свежие изменения интереснее).
func NextSort(current Sort, clicked SortKey) Sort {
	if clicked == current.Key {
		return Sort{Key: clicked, Desc: !current.Desc}
	}
	return Sort{Key: clicked, Desc: clicked == SortByUpdated}
}

// Filters — конфигурация фильтрации списка заявок.
// Нулевые значения означают отсутствие ограничения по полю.
type Filters struct {
	// Status — точное совпадение статуса (пусто — любой).
	Status model.TicketStatus
	// Priority — точное совпадение приоритета (пусто — любой).
	Priority model.TicketPriority
	// AssigneeID — точное совпадение назначенного сотрудника (nil — любой).
	AssigneeID *int64
	// UnassignedOnly — только заявки без назначенного сотрудника.
	// Действует независимо от AssigneeID.
	UnassignedOnly bool
	// Archived разбивает заявки на CLOSED и {OPEN, IN_PROGRESS}:
	// false (по умолчанию) скрывает закрытые, true показывает только их.
	Archived bool
}

// Match проверяет, проходит ли заявка все активные предикаты фильтра.
func (f Filters) Match(t *model.Ticket) bool {
	if f.Archived {
		if t.Status != model.StatusClosed {
			return false
		}
	} else {
		if t.Status == model.StatusClosed {
			return false
		}
	}

	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *f.AssigneeID) {
		return false
	}
	if f.UnassignedOnly && t.Assigned() {
		return false
	}
	return true
}

// Apply возвращает новый упорядоченный срез заявок, прошедших фильтр.
// Вход не изменяется; сортировка стабильная, поэтому Apply идемпотентен:
// Apply(Apply(t, f, s), f, s) == Apply(t, f, s).
func Apply(tickets []model.Ticket, f Filters, s Sort) []model.Ticket {
	result := make([]model.Ticket, 0, len(tickets))
	for i := range tickets {
		if f.Match(&tickets[i]) {
			result = append(result, tickets[i])
		}
	}

	less := lessFunc(s.Key)
	sort.SliceStable(result, func(i, j int) bool {
		if s.Desc {
			return less(&result[j], &result[i])
		}
		return less(&result[i], &result[j])
	})

	return result
}

// lessFunc возвращает компаратор для ключа сортировки.
// При неизвестном ключе сортировка идёт по id.
func lessFunc(key SortKey) func(a, b *model.Ticket) bool {
	switch key {
	case SortByTitle:
		return func(a, b *model.Ticket) bool {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	case SortByAssignee:
		// Неназначенные заявки идут после назначенных при возрастании.
		return func(a, b *model.Ticket) bool {
			switch {
			case a.AssigneeID == nil && b.AssigneeID == nil:
				return false
			case a.AssigneeID == nil:
				return false
			case b.AssigneeID == nil:
				return true
			default:
				return *a.AssigneeID < *b.AssigneeID
			}
		}
	case SortByUpdated:
		return func(a, b *model.Ticket) bool {
			return a.UpdatedAt.Before(b.UpdatedAt)
		}
	case SortByStatus:
		return func(a, b *model.Ticket) bool {
			return a.Status.Rank() < b.Status.Rank()
		}
	case SortByPriority:
		return func(a, b *model.Ticket) bool {
			return a.Priority.Rank() < b.Priority.Rank()
		}
	default:
		return func(a, b *model.Ticket) bool {
			return a.ID < b.ID
		}
	}
}
