package perm

import "testing"

// TestCanEditTicket проверяет права на редактирование заявки:
// сотрудники и администраторы — любую, клиент — только свою.
func TestCanEditTicket(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		userID  int64
		ownerID int64
		want    bool
	}{
		{"клиент редактирует свою заявку", RoleClient, 10, 10, true},
		{"клиент не редактирует чужую", RoleClient, 10, 11, false},
		{"сотрудник редактирует любую", RoleEmployee, 2, 11, true},
		{"администратор редактирует любую", RoleAdmin, 1, 11, true},
		{"неизвестная роль не редактирует", "SUPERVISOR", 10, 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanEditTicket(tt.role, tt.userID, tt.ownerID); got != tt.want {
				t.Errorf("CanEditTicket(%q, %d, %d) = %v, ожидалось %v",
					tt.role, tt.userID, tt.ownerID, got, tt.want)
			}
		})
	}
}

// TestCanChangeStatus проверяет, что статус меняют только сотрудники:
// клиент-владелец статус менять не может.
func TestCanChangeStatus(t *testing.T) {
	if CanChangeStatus(RoleClient) {
		t.Error("клиент не должен менять статус, даже своей заявки")
	}
	if !CanChangeStatus(RoleEmployee) {
		t.Error("сотрудник должен менять статус")
	}
	if !CanChangeStatus(RoleAdmin) {
		t.Error("администратор должен менять статус")
	}
}

// TestCanAssign проверяет права на назначение сотрудника.
func TestCanAssign(t *testing.T) {
	if CanAssign(RoleClient) {
		t.Error("клиент не должен назначать сотрудников")
	}
	if !CanAssign(RoleEmployee) || !CanAssign(RoleAdmin) {
		t.Error("сотрудник и администратор должны назначать")
	}
}

// TestCanModifyComment проверяет права на комментарии:
// автор — свои, администратор — любые.
func TestCanModifyComment(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		userID   int64
		authorID int64
		want     bool
	}{
		{"автор меняет свой комментарий", RoleClient, 10, 10, true},
		{"клиент не меняет чужой", RoleClient, 10, 11, false},
		{"сотрудник не меняет чужой", RoleEmployee, 2, 11, false},
		{"сотрудник меняет свой", RoleEmployee, 2, 2, true},
		{"администратор меняет любой", RoleAdmin, 1, 11, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanModifyComment(tt.role, tt.userID, tt.authorID); got != tt.want {
				t.Errorf("CanModifyComment(%q, %d, %d) = %v, ожидалось %v",
					tt.role, tt.userID, tt.authorID, got, tt.want)
			}
		})
	}
}

// TestIsAdminOverride проверяет, что вмешательство администратора
// фиксируется только на чужих комментариях.
func TestIsAdminOverride(t *testing.T) {
	if !IsAdminOverride(RoleAdmin, 1, 11) {
		t.Error("администратор на чужом комментарии — override")
	}
	if IsAdminOverride(RoleAdmin, 1, 1) {
		t.Error("свой комментарий администратора — не override")
	}
	if IsAdminOverride(RoleEmployee, 2, 11) {
		t.Error("сотрудник не может делать override")
	}
}

// TestCanManageUsers проверяет, что пользователями управляет
// только администратор.
func TestCanManageUsers(t *testing.T) {
	if CanManageUsers(RoleClient) || CanManageUsers(RoleEmployee) {
		t.Error("управление пользователями доступно только администратору")
	}
	if !CanManageUsers(RoleAdmin) {
		t.Error("администратор должен управлять пользователями")
	}
}

// TestHighestRole проверяет выбор старшей роли по весу.
func TestHighestRole(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  string
	}{
		{"одна роль", []string{RoleClient}, RoleClient},
		{"старшая из двух", []string{RoleClient, RoleEmployee}, RoleEmployee},
		{"администратор старше всех", []string{RoleEmployee, RoleAdmin, RoleClient}, RoleAdmin},
		{"неизвестные роли игнорируются", []string{"SUPERVISOR", RoleClient}, RoleClient},
		{"пустой список", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HighestRole(tt.roles); got != tt.want {
				t.Errorf("HighestRole(%v) = %q, ожидалось %q", tt.roles, got, tt.want)
			}
		})
	}
}
