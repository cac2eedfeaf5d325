package common

import "time"

// Clock возвращает текущее время. Вся логика сроков действия и кулдаунов
// получает время только через Clock, чтобы тесты могли подставить
// фиксированный момент.
type Clock func() time.Time

// SystemClock — часы по умолчанию (time.Now).
func SystemClock() time.Time {
	return time.Now()
}

// FixedClock возвращает Clock, который всегда показывает t. Для тестов.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
