package common

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// TestPluralizeStars проверяет русскую плюрализацию слова «звезда»
func TestPluralizeStars(t *testing.T) {
	tests := []struct {
		n        int64
		expected string
	}{
		{1, "звезда"},
		{21, "звезда"},
		{101, "звезда"},
		{2, "звезды"},
		{3, "звезды"},
		{4, "звезды"},
		{22, "звезды"},
		{0, "звёзд"},
		{5, "звёзд"},
		{11, "звёзд"},
		{12, "звёзд"},
		{13, "звёзд"},
		{14, "звёзд"},
		{100, "звёзд"},
		{111, "звёзд"},
		{-1, "звезда"},
		{-22, "звезды"},
	}

	for _, tt := range tests {
		got := PluralizeStars(tt.n)
		if got != tt.expected {
			t.Errorf("PluralizeStars(%d) = %q, ожидалось %q", tt.n, got, tt.expected)
		}
	}
}

func TestFormatStars(t *testing.T) {
	if got := FormatStars(150); got != "150 звёзд" {
		t.Errorf("FormatStars(150) = %q", got)
	}
	if got := FormatStars(1); got != "1 звезда" {
		t.Errorf("FormatStars(1) = %q", got)
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		price    decimal.Decimal
		expected string
	}{
		{decimal.NewFromInt(100), "100.00₽"},
		{decimal.RequireFromString("169.15"), "169.15₽"},
		{decimal.RequireFromString("0.5"), "0.50₽"},
	}
	for _, tt := range tests {
		if got := FormatPrice(tt.price); got != tt.expected {
			t.Errorf("FormatPrice(%s) = %q, ожидалось %q", tt.price, got, tt.expected)
		}
	}
}

// TestNormalizeUsername проверяет приведение юзернейма к виду "@name"
func TestNormalizeUsername(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"durov", "@durov"},
		{"@durov", "@durov"},
		{"  durov  ", "@durov"},
		{"du rov", "@durov"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeUsername(tt.in); got != tt.expected {
			t.Errorf("NormalizeUsername(%q) = %q, ожидалось %q", tt.in, got, tt.expected)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{45 * time.Second, "45 сек"},
		{3 * time.Minute, "3 мин"},
		{2 * time.Hour, "2 час"},
		{5 * 24 * time.Hour, "5 дн"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.expected {
			t.Errorf("FormatDuration(%s) = %q, ожидалось %q", tt.d, got, tt.expected)
		}
	}
}

// TestTruncateText проверяет обрезку с учётом рун, а не байт
func TestTruncateText(t *testing.T) {
	tests := []struct {
		text     string
		maxLen   int
		expected string
	}{
		{"привет", 10, "привет"},
		{"привет мир", 9, "привет..."},
		{"абв", 3, "абв"},
		{"абвгд", 2, "аб"},
		{"", 5, ""},
	}
	for _, tt := range tests {
		if got := TruncateText(tt.text, tt.maxLen); got != tt.expected {
			t.Errorf("TruncateText(%q, %d) = %q, ожидалось %q", tt.text, tt.maxLen, got, tt.expected)
		}
	}
}
