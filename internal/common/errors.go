// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Ошибки кошелька
var (
	// ErrInsufficientFunds — недостаточно средств на выбранном балансе
	ErrInsufficientFunds = errors.New("недостаточно средств на балансе")
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
)

// Ошибки промокодов и скидок
var (
	// ErrPromoNotFound — промокод не существует
	ErrPromoNotFound = errors.New("промокод не найден")
	// ErrPromoExpired — срок действия промокода истёк
	ErrPromoExpired = errors.New("промокод истёк")
	// ErrPromoExhausted — промокод использован максимальное количество раз
	ErrPromoExhausted = errors.New("промокод уже использован максимальное количество раз")
	// ErrPromoAlreadyUsed — пользователь уже применял этот промокод
	ErrPromoAlreadyUsed = errors.New("вы уже использовали этот промокод")
	// ErrDiscountNotFound — ссылка-скидка не существует
	ErrDiscountNotFound = errors.New("ссылка-скидка не найдена")
	// ErrDiscountExhausted — лимит активаций ссылки исчерпан
	ErrDiscountExhausted = errors.New("лимит использований ссылки исчерпан")
)

// Ошибки заявок (заказы, обмены, выводы) и игр
var (
	// ErrAlreadyProcessed — заявка/игра уже обработана, повтор запрещён
	ErrAlreadyProcessed = errors.New("уже обработано")
	// ErrPendingWithdrawalExists — у пользователя уже есть активная заявка на вывод
	ErrPendingWithdrawalExists = errors.New("у вас уже есть активная заявка на вывод")
	// ErrNotFound — сущность не найдена по идентификатору
	ErrNotFound = errors.New("не найдено")
	// ErrReasonRequired — для отмены заказа обязательна причина
	ErrReasonRequired = errors.New("укажите причину")
)

// Ошибки рефералов
var (
	// ErrSelfReferral — попытка стать рефералом самого себя
	ErrSelfReferral = errors.New("нельзя быть рефералом самого себя")
	// ErrAlreadyReferred — у пользователя уже есть пригласивший
	ErrAlreadyReferred = errors.New("пользователь уже является рефералом")
)

// Ошибки доступа и модерации
var (
	// ErrNoAccess — роль пользователя ниже требуемой
	ErrNoAccess = errors.New("недостаточно прав")
	// ErrUserBanned — пользователь забанен
	ErrUserBanned = errors.New("пользователь забанен")
	// ErrUserFrozen — аккаунт пользователя заморожен
	ErrUserFrozen = errors.New("аккаунт заморожен")
	// ErrTooFast — не истёк кулдаун между действиями
	ErrTooFast = errors.New("слишком быстро, подождите")
	// ErrDuplicateAction — повторная отправка того же действия
	ErrDuplicateAction = errors.New("действие уже обработано")
)

// Ошибки админки
var (
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
)
