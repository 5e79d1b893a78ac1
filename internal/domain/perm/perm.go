// Пакет perm — предикаты прав доступа HelpDeskHub UI.
// Единственное место в кодовой базе, где сравниваются роли:
// handlers и шаблоны используют только эти функции.
// Правила: clients видят и правят свои заявки (без статуса и назначения),
// employees и admins — любые; комментарии правит автор или admin.
package perm

// Роли в порядке возрастания привилегий.
const (
	RoleClient   = "CLIENT"
	RoleEmployee = "EMPLOYEE"
	RoleAdmin    = "ADMIN"
)

// roleWeight — вес роли для сравнения.
// Чем выше вес, тем больше привилегий.
var roleWeight = map[string]int{
	RoleClient:   1,
	RoleEmployee: 2,
	RoleAdmin:    3,
}

// IsValidRole проверяет, является ли строка допустимой ролью.
func IsValidRole(role string) bool {
	_, ok := roleWeight[role]
	return ok
}

// IsStaff возвращает true для ролей уровня сотрудника и выше.
func IsStaff(role string) bool {
	return roleWeight[role] >= roleWeight[RoleEmployee]
}

// HighestRole возвращает максимальную роль из набора.
// Если набор пуст — возвращает пустую строку.
func HighestRole(roles []string) string {
	if len(roles) == 0 {
		return ""
	}
	highest := roles[0]
	for _, r := range roles[1:] {
		if roleWeight[r] > roleWeight[highest] {
			highest = r
		}
	}
	return highest
}

// CanEditTicket разрешает редактирование заявки: владелец-клиент,
// любой сотрудник или администратор. Для клиента это ограничено
// полями title/description/priority — статус и назначение проверяются
// отдельными предикатами.
func CanEditTicket(role string, userID, ownerID int64) bool {
	if IsStaff(role) {
		return true
	}
	return role == RoleClient && userID == ownerID
}

// CanDeleteTicket разрешает удаление заявки — те же правила, что и редактирование.
func CanDeleteTicket(role string, userID, ownerID int64) bool {
	return CanEditTicket(role, userID, ownerID)
}

// CanChangeStatus разрешает смену статуса заявки.
// Только сотрудник или администратор — владелец-клиент не может.
func CanChangeStatus(role string) bool {
	return IsStaff(role)
}

// CanAssign разрешает назначение сотрудника на заявку.
// Только сотрудник или администратор.
func CanAssign(role string) bool {
	return IsStaff(role)
}

// CanModifyComment разрешает редактирование/удаление комментария:
// автор или любой администратор.
func CanModifyComment(role string, userID, authorID int64) bool {
	if role == RoleAdmin {
		return true
	}
	return userID == authorID
}

// IsAdminOverride возвращает true, когда администратор действует над
// чужим комментарием. UI показывает для такого действия усиленное
// подтверждение.
func IsAdminOverride(role string, userID, authorID int64) bool {
	return role == RoleAdmin && userID != authorID
}

// CanManageUsers разрешает доступ к управлению пользователями.
// Только администратор.
func CanManageUsers(role string) bool {
	return role == RoleAdmin
}
