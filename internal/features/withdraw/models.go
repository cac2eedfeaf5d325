// Package withdraw — models.go описывает заявки на вывод звёзд.
package withdraw

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Status — статус заявки на вывод.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Withdrawal — заявка на вывод звёзд. Баланс списывается при создании,
// у пользователя может быть не больше одной активной заявки.
type Withdrawal struct {
	ID          uuid.UUID
	UserID      int64
	Amount      int64 // списано с баланса
	Payout      int64 // к выплате после комиссии
	Recipient   string
	Status      Status
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// CalcPayout вычисляет сумму к выплате после комиссии.
// Округление вниз. Поправка 1e-9 гасит артефакты двоичного
// представления (100 × 0.95 в float64 чуть меньше 95).
func CalcPayout(amount int64, commission float64) int64 {
	if amount <= 0 {
		return 0
	}
	if commission <= 0 {
		return amount
	}
	return int64(math.Floor(float64(amount)*(1-commission) + 1e-9))
}
