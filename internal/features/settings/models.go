// Package settings — models.go описывает настройки магазина,
// хранимые в таблице settings в виде пар ключ-значение.
package settings

// Ключи настроек. Значения хранятся строками и парсятся
// типизированными геттерами сервиса.
const (
	// KeyStarPrice — цена одной звезды в рублях (decimal строкой)
	KeyStarPrice = "star_price"
	// KeyRealToVirtualRate — курс обмена основного баланса на виртуальный
	KeyRealToVirtualRate = "real_to_virtual_rate"
	// KeyExchangeCommission — комиссия обмена основной → виртуальный (доля)
	KeyExchangeCommission = "exchange_commission"
	// KeyVirtualToRealRate — курс обмена виртуального баланса на основной
	KeyVirtualToRealRate = "virtual_to_real_rate"
	// KeyVirtualToRealCommission — комиссия обмена виртуальный → основной (доля)
	KeyVirtualToRealCommission = "virtual_to_real_commission"
	// KeyWithdrawCommission — комиссия на вывод (доля, например "0.05")
	KeyWithdrawCommission = "withdraw_commission"
	// KeyWithdrawMin — минимальная сумма вывода в звёздах
	KeyWithdrawMin = "withdraw_min"
	// KeyReferralLevels — уровни реферальной программы (JSON)
	KeyReferralLevels = "referral_levels"
	// KeyMaintenance — режим техработ ("1" = включён)
	KeyMaintenance = "maintenance"
	// KeyMaintenanceMessage — текст сообщения о техработах
	KeyMaintenanceMessage = "maintenance_message"
	// KeyPaymentDetails — реквизиты для оплаты заказов
	KeyPaymentDetails = "payment_details"
)

// ReferralLevel — одна ступень реферальной программы.
// Процент применяется, когда число приглашённых попадает
// в полуинтервал [MinReferrals, MaxReferrals).
type ReferralLevel struct {
	MinReferrals int64 `json:"min"`
	MaxReferrals int64 `json:"max"`
	Percent      int   `json:"percent"`
}

// DefaultReferralLevels — ступени по умолчанию, записываются
// в настройки при первом запуске.
var DefaultReferralLevels = []ReferralLevel{
	{MinReferrals: 0, MaxReferrals: 5, Percent: 5},
	{MinReferrals: 5, MaxReferrals: 20, Percent: 7},
	{MinReferrals: 20, MaxReferrals: 999999, Percent: 10},
}

// PercentFor возвращает процент вознаграждения для данного числа
// приглашённых. Если ни одна ступень не подходит, возвращает 0.
func PercentFor(levels []ReferralLevel, referrals int64) int {
	for _, lvl := range levels {
		if referrals >= lvl.MinReferrals && referrals < lvl.MaxReferrals {
			return lvl.Percent
		}
	}
	return 0
}
