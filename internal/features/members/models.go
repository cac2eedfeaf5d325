// Package members — models.go описывает пользователей и роли.
package members

import "time"

// Role — роль пользователя. Роли образуют строгую иерархию,
// сравнение выполняется через Level().
type Role string

const (
	RoleUser      Role = "user"
	RoleAgent     Role = "agent"
	RoleModer     Role = "moder"
	RoleAdmin     Role = "admin"
	RoleTechAdmin Role = "tech_admin"
	RoleOwner     Role = "owner"
)

// roleLevels задаёт порядок ролей. Чем больше число, тем выше роль.
var roleLevels = map[Role]int{
	RoleUser:      0,
	RoleAgent:     1,
	RoleModer:     2,
	RoleAdmin:     3,
	RoleTechAdmin: 4,
	RoleOwner:     5,
}

// Level возвращает числовой уровень роли. Неизвестная роль = 0 (user).
func (r Role) Level() int {
	return roleLevels[r]
}

// Valid сообщает, известна ли роль.
func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// AtLeast сообщает, что роль не ниже требуемой.
func (r Role) AtLeast(required Role) bool {
	return r.Level() >= required.Level()
}

// CanModerate сообщает, может ли роль r наказывать роль target.
// Наказывать можно только строго более низкие роли.
func (r Role) CanModerate(target Role) bool {
	return r.Level() > target.Level() && r.AtLeast(RoleModer)
}

// Title возвращает русское название роли для сообщений.
func (r Role) Title() string {
	switch r {
	case RoleAgent:
		return "Агент"
	case RoleModer:
		return "Модератор"
	case RoleAdmin:
		return "Администратор"
	case RoleTechAdmin:
		return "Тех. администратор"
	case RoleOwner:
		return "Владелец"
	default:
		return "Пользователь"
	}
}

// User — строка таблицы users.
type User struct {
	UserID         int64
	Username       string
	FirstName      string
	Balance        int64 // основной баланс (звёзды)
	VirtualBalance int64 // виртуальный баланс (игровая валюта)
	TotalSpent     string // NUMERIC приходит строкой, парсится в decimal по месту
	Role           Role
	ReferralCode   string
	ReferrerID     *int64
	CreatedAt      time.Time
	LastAction     time.Time
}

// Ban — запись о бане. until == nil означает навсегда.
type Ban struct {
	UserID    int64
	Reason    string
	BannedBy  int64
	Until     *time.Time
	CreatedAt time.Time
}

// Freeze — заморозка аккаунта. Замороженный пользователь не может
// тратить и выводить средства, но может смотреть профиль.
type Freeze struct {
	UserID    int64
	Reason    string
	FrozenBy  int64
	CreatedAt time.Time
}

// Warn — предупреждение от модератора.
type Warn struct {
	ID        int
	UserID    int64
	Reason    string
	WarnedBy  int64
	CreatedAt time.Time
}
