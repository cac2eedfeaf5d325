package actions

import (
	"errors"
	"testing"
	"time"

	"starbazar.ru/stars-bot/internal/cache"
	"starbazar.ru/stars-bot/internal/common"
)

// сервис без БД: проверяем только кэшевую часть (кулдаун, Release)
func newTestService() (*Service, *time.Time) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := cache.NewWithClock(clock)
	return NewService(nil, c, 30*time.Second, 2*time.Second, clock), &now
}

func TestCheckCooldown(t *testing.T) {
	s, now := newTestService()

	if err := s.CheckCooldown(1); err != nil {
		t.Fatalf("первое действие не должно упираться в кулдаун: %v", err)
	}
	if err := s.CheckCooldown(1); !errors.Is(err, common.ErrTooFast) {
		t.Fatalf("повтор в окне кулдауна должен давать ErrTooFast, получено %v", err)
	}

	// Кулдаун персональный
	if err := s.CheckCooldown(2); err != nil {
		t.Fatalf("кулдаун одного пользователя не должен задевать другого: %v", err)
	}

	*now = now.Add(3 * time.Second)
	if err := s.CheckCooldown(1); err != nil {
		t.Fatalf("после истечения кулдауна действие должно проходить: %v", err)
	}
}

func TestReleaseAllowsRetry(t *testing.T) {
	s, _ := newTestService()

	// Ставим отметку дедупликации напрямую через кэш, как это делает Guard
	if !s.cache.SetIfAbsent(dedupKey(1, "buy:100:@durov"), "1", s.dedupTTL) {
		t.Fatal("первая отметка должна встать")
	}
	if s.cache.SetIfAbsent(dedupKey(1, "buy:100:@durov"), "1", s.dedupTTL) {
		t.Fatal("дубликат должен быть отклонён")
	}

	s.Release(1, "buy:100:@durov")

	if !s.cache.SetIfAbsent(dedupKey(1, "buy:100:@durov"), "1", s.dedupTTL) {
		t.Fatal("после Release действие должно проходить снова")
	}
}

func TestDedupKeysAreScoped(t *testing.T) {
	// Разные пользователи и разные действия не пересекаются по ключам
	if dedupKey(1, "buy") == dedupKey(2, "buy") {
		t.Error("ключи разных пользователей совпали")
	}
	if dedupKey(1, "buy") == dedupKey(1, "exchange") {
		t.Error("ключи разных действий совпали")
	}
}
