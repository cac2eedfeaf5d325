// Package referral — models.go описывает реферальные вознаграждения.
package referral

import "time"

// Reward — вознаграждение пригласившему за покупку приглашённого.
// Пара (referred_id, purchase_id) уникальна: одна покупка даёт
// не больше одного вознаграждения.
type Reward struct {
	ID         int
	ReferrerID int64
	ReferredID int64
	PurchaseID int
	Amount     int64
	Percent    int
	Paid       bool
	CreatedAt  time.Time
}

// LogEntry — событие реферальной программы для аудита.
type LogEntry struct {
	ID         int
	ReferrerID int64
	ReferredID int64
	Event      string
	Details    string
	CreatedAt  time.Time
}

// События журнала.
const (
	EventAttached   = "attached"
	EventRewardPaid = "reward_paid"
	EventRewardSkip = "reward_skipped"
)

// Stats — сводка по реферальной программе пользователя.
type Stats struct {
	Referrals   int64
	TotalEarned int64
	Percent     int
}
