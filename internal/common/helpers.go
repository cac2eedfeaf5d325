// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация, форматирование цен и дат.
package common

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PluralizeStars возвращает правильную форму слова «звезда» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "звезда" (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → "звезды" (2, 3, 4, 22, ...)
//   - Остальные случаи → "звёзд" (0, 5-20, 25-30, 100, ...)
func PluralizeStars(n int64) string {
	absN := int64(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "звезда"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "звезды"
	}
	return "звёзд"
}

// FormatStars форматирует количество звёзд в читабельную строку.
// Пример: FormatStars(150) → "150 звёзд"
func FormatStars(amount int64) string {
	return fmt.Sprintf("%d %s", amount, PluralizeStars(amount))
}

// FormatPrice форматирует рублёвую цену с двумя знаками после запятой.
// Пример: FormatPrice(decimal.NewFromInt(100)) → "100.00₽"
func FormatPrice(price decimal.Decimal) string {
	return price.StringFixed(2) + "₽"
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04"
// (день.месяц.год часы:минуты) в московском часовом поясе.
func FormatDateTime(t time.Time) string {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		loc = time.FixedZone("MSK", 3*60*60)
	}
	return t.In(loc).Format("02.01.2006 15:04")
}

// NormalizeUsername приводит юзернейм к виду "@name" без пробелов.
func NormalizeUsername(username string) string {
	username = strings.TrimSpace(username)
	if username == "" {
		return ""
	}
	username = strings.ReplaceAll(username, " ", "")
	if !strings.HasPrefix(username, "@") {
		username = "@" + username
	}
	return username
}

// FormatDuration переводит длительность в короткую русскую строку
// ("45 сек", "3 мин", "2 час", "5 дн"). Используется в сообщениях
// о техработах и банах.
func FormatDuration(d time.Duration) string {
	seconds := int(d.Seconds())
	switch {
	case seconds < 60:
		return fmt.Sprintf("%d сек", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%d мин", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%d час", seconds/3600)
	default:
		return fmt.Sprintf("%d дн", seconds/86400)
	}
}

// TruncateText обрезает строку до maxLen символов, добавляя многоточие.
func TruncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
