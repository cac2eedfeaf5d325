// Package wallet — models.go описывает двухвалютный кошелёк пользователя.
package wallet

// BalanceKind — тип баланса. У каждого пользователя два счёта:
// основной (звёзды, покупаются и выводятся) и виртуальный
// (игровая валюта, зарабатывается в играх и обменивается на звёзды).
type BalanceKind string

const (
	BalanceMain    BalanceKind = "balance"
	BalanceVirtual BalanceKind = "virtual_balance"
)

// Valid сообщает, известен ли тип баланса.
func (k BalanceKind) Valid() bool {
	return k == BalanceMain || k == BalanceVirtual
}

// Title возвращает русское название счёта для сообщений.
func (k BalanceKind) Title() string {
	if k == BalanceVirtual {
		return "виртуальный баланс"
	}
	return "баланс"
}

// Balances — снимок обоих счетов пользователя.
type Balances struct {
	UserID  int64
	Main    int64
	Virtual int64
}
