package middleware

import (
	"testing"
	"time"
)

// TestRateLimiterAllow: лимит запросов в скользящем окне
func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Close()

	for i := 0; i < 3; i++ {
		if !rl.Allow(42) {
			t.Fatalf("запрос %d в пределах лимита отклонён", i+1)
		}
	}
	if rl.Allow(42) {
		t.Fatal("запрос сверх лимита пропущен")
	}
}

func TestRateLimiterPerUser(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Close()

	if !rl.Allow(1) {
		t.Fatal("первый запрос пользователя 1 отклонён")
	}
	if rl.Allow(1) {
		t.Fatal("второй запрос пользователя 1 пропущен")
	}
	// Лимит одного пользователя не влияет на другого
	if !rl.Allow(2) {
		t.Fatal("первый запрос пользователя 2 отклонён")
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl := NewRateLimiter(2, 50*time.Millisecond)
	defer rl.Close()

	rl.Allow(7)
	rl.Allow(7)
	if rl.Allow(7) {
		t.Fatal("запрос сверх лимита пропущен")
	}

	time.Sleep(60 * time.Millisecond)
	if !rl.Allow(7) {
		t.Fatal("после сдвига окна запрос должен проходить")
	}
}
