package cache

import (
	"testing"
	"time"
)

// тестовые часы, которые можно двигать вперёд
func testClock() (func() time.Time, *time.Time) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return now }, &now
}

func TestCacheSetGet(t *testing.T) {
	clock, _ := testClock()
	c := NewWithClock(clock)

	c.Set("k", "v", time.Minute)
	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatalf("Get после Set: (%q, %v), ожидалось (\"v\", true)", v, ok)
	}

	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get по несуществующему ключу вернул true")
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	clock, now := testClock()
	c := NewWithClock(clock)

	c.Set("k", "v", time.Minute)

	*now = now.Add(30 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("запись истекла раньше TTL")
	}

	*now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatal("запись не истекла после TTL")
	}
}

func TestCacheZeroTTLNeverExpires(t *testing.T) {
	clock, now := testClock()
	c := NewWithClock(clock)

	c.Set("k", "v", 0)
	*now = now.Add(1000 * time.Hour)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("запись с нулевым TTL истекла")
	}
}

// TestCacheSetIfAbsent проверяет атомарную основу дедупликации:
// первый вызов true, повторный в окне TTL — false, после истечения — снова true.
func TestCacheSetIfAbsent(t *testing.T) {
	clock, now := testClock()
	c := NewWithClock(clock)

	if !c.SetIfAbsent("action:1:buy", "1", time.Minute) {
		t.Fatal("первый SetIfAbsent должен вернуть true")
	}
	if c.SetIfAbsent("action:1:buy", "1", time.Minute) {
		t.Fatal("повторный SetIfAbsent в окне TTL должен вернуть false")
	}

	*now = now.Add(2 * time.Minute)
	if !c.SetIfAbsent("action:1:buy", "1", time.Minute) {
		t.Fatal("SetIfAbsent после истечения TTL должен вернуть true")
	}
}

func TestCacheDelete(t *testing.T) {
	clock, _ := testClock()
	c := NewWithClock(clock)

	c.Set("k", "v", time.Minute)
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("запись осталась после Delete")
	}
}

func TestCacheCleanup(t *testing.T) {
	clock, now := testClock()
	c := NewWithClock(clock)

	c.Set("a", "1", time.Minute)
	c.Set("b", "2", time.Hour)
	c.Set("c", "3", 0)

	*now = now.Add(10 * time.Minute)

	removed := c.Cleanup()
	if removed != 1 {
		t.Fatalf("Cleanup удалил %d записей, ожидалась 1", removed)
	}
	if c.Len() != 2 {
		t.Fatalf("после Cleanup осталось %d записей, ожидалось 2", c.Len())
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatal("живая запись удалена при Cleanup")
	}
}
