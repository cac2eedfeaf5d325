package promo

import (
	"errors"
	"testing"
	"time"

	"starbazar.ru/stars-bot/internal/common"
)

// TestNormalizeCode: промокоды сравниваются без учёта регистра и пробелов
func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"bonus2025", "BONUS2025"},
		{"BONUS2025", "BONUS2025"},
		{"  bonus2025  ", "BONUS2025"},
		{"BoNuS", "BONUS"},
		{"", ""},
		{"  ", ""},
	}

	for _, tt := range tests {
		if got := NormalizeCode(tt.in); got != tt.expected {
			t.Errorf("NormalizeCode(%q) = %q, ожидалось %q", tt.in, got, tt.expected)
		}
	}
}

// TestCheckApplicable: порядок причин отказа фиксирован —
// истёк → исчерпан → уже использован.
func TestCheckApplicable(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name     string
		promo    Promocode
		used     bool
		expected error
	}{
		{
			name:     "действующий код применим",
			promo:    Promocode{Percent: 10, MaxUses: 5, UsedCount: 1, ExpiresAt: &future},
			expected: nil,
		},
		{
			name:     "бессрочный код без лимита применим",
			promo:    Promocode{Percent: 10},
			expected: nil,
		},
		{
			name:     "истёкший код",
			promo:    Promocode{Percent: 10, ExpiresAt: &past},
			expected: common.ErrPromoExpired,
		},
		{
			name:     "исчерпанный лимит",
			promo:    Promocode{Percent: 10, MaxUses: 3, UsedCount: 3},
			expected: common.ErrPromoExhausted,
		},
		{
			name:     "повторная активация",
			promo:    Promocode{Percent: 10},
			used:     true,
			expected: common.ErrPromoAlreadyUsed,
		},
		{
			name:     "истёкший и исчерпанный: сначала срок",
			promo:    Promocode{Percent: 10, MaxUses: 1, UsedCount: 1, ExpiresAt: &past},
			used:     true,
			expected: common.ErrPromoExpired,
		},
		{
			name:     "исчерпанный и использованный: сначала лимит",
			promo:    Promocode{Percent: 10, MaxUses: 1, UsedCount: 1},
			used:     true,
			expected: common.ErrPromoExhausted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkApplicable(&tt.promo, tt.used, now)
			if !errors.Is(err, tt.expected) {
				t.Errorf("checkApplicable() = %v, ожидалось %v", err, tt.expected)
			}
		})
	}
}
