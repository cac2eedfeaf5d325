package members

import "testing"

// TestRoleLevel проверяет строгий порядок иерархии ролей
func TestRoleLevel(t *testing.T) {
	order := []Role{RoleUser, RoleAgent, RoleModer, RoleAdmin, RoleTechAdmin, RoleOwner}
	for i := 1; i < len(order); i++ {
		if order[i].Level() <= order[i-1].Level() {
			t.Errorf("роль %s должна быть выше %s", order[i], order[i-1])
		}
	}
}

func TestRoleValid(t *testing.T) {
	if !RoleModer.Valid() {
		t.Error("moder должна быть известной ролью")
	}
	if Role("superuser").Valid() {
		t.Error("неизвестная роль прошла проверку Valid")
	}
	// Неизвестная роль приравнивается к user по уровню
	if Role("superuser").Level() != RoleUser.Level() {
		t.Error("неизвестная роль должна иметь уровень user")
	}
}

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		role     Role
		required Role
		expected bool
	}{
		{RoleAdmin, RoleModer, true},
		{RoleModer, RoleModer, true},
		{RoleAgent, RoleModer, false},
		{RoleOwner, RoleTechAdmin, true},
		{RoleUser, RoleAgent, false},
	}
	for _, tt := range tests {
		if got := tt.role.AtLeast(tt.required); got != tt.expected {
			t.Errorf("%s.AtLeast(%s) = %v, ожидалось %v", tt.role, tt.required, got, tt.expected)
		}
	}
}

// TestRoleCanModerate проверяет, что наказывать можно только строго
// более низкие роли, и только начиная с модератора
func TestRoleCanModerate(t *testing.T) {
	tests := []struct {
		actor    Role
		target   Role
		expected bool
	}{
		{RoleModer, RoleUser, true},
		{RoleAdmin, RoleModer, true},
		{RoleOwner, RoleTechAdmin, true},
		{RoleModer, RoleModer, false},  // равная роль
		{RoleModer, RoleAdmin, false},  // выше себя
		{RoleAgent, RoleUser, false},   // агент не модерирует
		{RoleUser, RoleUser, false},
	}
	for _, tt := range tests {
		if got := tt.actor.CanModerate(tt.target); got != tt.expected {
			t.Errorf("%s.CanModerate(%s) = %v, ожидалось %v", tt.actor, tt.target, got, tt.expected)
		}
	}
}

func TestGenerateReferralCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := GenerateReferralCode()
		if err != nil {
			t.Fatalf("ошибка генерации кода: %v", err)
		}
		if len(code) != 8 {
			t.Fatalf("длина кода %d, ожидалось 8", len(code))
		}
		for _, r := range code {
			if r == '0' || r == 'O' || r == '1' || r == 'I' || r == 'l' {
				t.Fatalf("код %q содержит запрещённый символ %q", code, r)
			}
		}
		seen[code] = true
	}
	// 100 кодов из алфавита 31^8 практически не могут совпасть
	if len(seen) < 100 {
		t.Errorf("из 100 кодов уникальных только %d", len(seen))
	}
}
