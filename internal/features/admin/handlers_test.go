package admin

import (
	"testing"

	"starbazar.ru/stars-bot/internal/features/members"
)

// TestRequiredRole: решения по деньгам требуют роль admin,
// остальные команды панели доступны модераторам
func TestRequiredRole(t *testing.T) {
	tests := []struct {
		cmd      string
		expected members.Role
	}{
		{"approve_order", members.RoleAdmin},
		{"reject_order", members.RoleAdmin},
		{"approve_exchange", members.RoleAdmin},
		{"reject_exchange", members.RoleAdmin},
		{"approve_withdraw", members.RoleAdmin},
		{"reject_withdraw", members.RoleAdmin},
		{"stats", members.RoleModer},
		{"addpromo", members.RoleModer},
		{"ban", members.RoleModer},
		{"reply", members.RoleModer},
		{"reflog", members.RoleModer},
	}

	for _, tt := range tests {
		if got := requiredRole(tt.cmd); got != tt.expected {
			t.Errorf("requiredRole(%q) = %q, ожидалось %q", tt.cmd, got, tt.expected)
		}
	}

	// Модератор не проходит проверку на команды одобрения.
	if members.RoleModer.AtLeast(requiredRole("approve_order")) {
		t.Error("роль moder не должна проходить требование approve_order")
	}
	if !members.RoleAdmin.AtLeast(requiredRole("approve_withdraw")) {
		t.Error("роль admin должна проходить требование approve_withdraw")
	}
}
