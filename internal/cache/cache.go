// Package cache реализует потокобезопасный in-memory кэш с TTL.
// Используется для настроек, балансов и дедупликации действий.
// Кэш — явный объект, который внедряется в сервисы; глобального
// состояния нет, инвалидация — через Delete/Clear.
package cache

import (
	"sync"
	"time"

	"starbazar.ru/stars-bot/internal/common"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// Cache — кэш «ключ → строка» с истечением по TTL.
// Нулевой TTL означает «хранить до явной инвалидации».
type Cache struct {
	mu    sync.RWMutex
	items map[string]entry
	now   common.Clock
}

// New создаёт кэш с системными часами.
func New() *Cache {
	return NewWithClock(common.SystemClock)
}

// NewWithClock создаёт кэш с внедрёнными часами. Для тестов.
func NewWithClock(now common.Clock) *Cache {
	return &Cache{
		items: make(map[string]entry),
		now:   now,
	}
}

// Get возвращает значение и признак наличия. Просроченная запись
// удаляется лениво при чтении.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return "", false
	}
	return e.value, true
}

// Set сохраняет значение. ttl <= 0 — без истечения.
func (c *Cache) Set(key, value string, ttl time.Duration) {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.items[key] = entry{value: value, expiresAt: expiresAt}
	c.mu.Unlock()
}

// SetIfAbsent сохраняет значение, только если живой записи ещё нет.
// Возвращает true, если запись была добавлена. Это атомарная основа
// дедупликации: первый вызов для ключа — true, повторные в окне TTL — false.
func (c *Cache) SetIfAbsent(key, value string, ttl time.Duration) bool {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		if e.expiresAt.IsZero() || now.Before(e.expiresAt) {
			return false
		}
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}
	c.items[key] = entry{value: value, expiresAt: expiresAt}
	return true
}

// Delete инвалидирует одну запись.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Clear инвалидирует весь кэш.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]entry)
	c.mu.Unlock()
}

// Cleanup удаляет все просроченные записи. Вызывается планировщиком,
// чтобы кэш не рос бесконечно от одноразовых ключей дедупликации.
func (c *Cache) Cleanup() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.items {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			delete(c.items, k)
			removed++
		}
	}
	return removed
}

// Len возвращает число записей (включая просроченные, ещё не убранные).
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
