// Package admin — models.go описывает сессии и журнал админ-панели.
package admin

import "time"

// Session — активная сессия администратора. Вход по паролю открывает
// сессию на 24 часа.
type Session struct {
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// LogEntry — запись журнала админ-действий.
type LogEntry struct {
	ID        int
	AdminID   int64
	Action    string
	Details   string
	CreatedAt time.Time
}

// Stats — сводка по магазину для админ-панели.
type Stats struct {
	Users            int64
	PendingOrders    int64
	PendingWithdraws int64
	PendingExchanges int64
	StarsSold        int64
	Revenue          string
}

// State — состояние пошагового диалога администратора (in-memory).
type State struct {
	Name      string
	Data      any
	ExpiresAt time.Time
}
