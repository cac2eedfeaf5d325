// Package exchange — models.go описывает заявки на обмен между
// основным и виртуальным балансами.
package exchange

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Status — статус заявки на обмен.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Direction — направление обмена. У каждого направления свой курс
// и своя комиссия в настройках.
type Direction string

const (
	// DirRealToVirtual — основной баланс → виртуальный
	DirRealToVirtual Direction = "real_to_virtual"
	// DirVirtualToReal — виртуальный баланс → основной
	DirVirtualToReal Direction = "virtual_to_real"
)

// Valid сообщает, допустимо ли направление.
func (d Direction) Valid() bool {
	return d == DirRealToVirtual || d == DirVirtualToReal
}

// Exchange — заявка на обмен. Исходный баланс списывается при
// создании; отклонение возвращает его обратно, одобрение начисляет
// Received на целевой баланс.
type Exchange struct {
	ID          uuid.UUID
	UserID      int64
	Direction   Direction
	Amount      int64 // списано с исходного баланса
	Received    int64 // будет начислено на целевой баланс при одобрении
	Status      Status
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// CalcReceived вычисляет сумму к начислению: amount по курсу rate
// за вычетом комиссии commission (доля, 0 ≤ c < 1). Округление вниз.
// Поправка 1e-9 гасит артефакты двоичного представления курса
// (100 × 0.29 в float64 чуть меньше 29).
func CalcReceived(amount int64, rate, commission float64) int64 {
	if amount <= 0 || rate <= 0 || commission < 0 || commission >= 1 {
		return 0
	}
	return int64(math.Floor(float64(amount)*rate*(1-commission) + 1e-9))
}
