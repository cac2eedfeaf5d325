package referral

import (
	"testing"

	"github.com/shopspring/decimal"
)

// TestRewardAmount проверяет расчёт вознаграждения от итоговой суммы
// покупки с округлением вниз
func TestRewardAmount(t *testing.T) {
	tests := []struct {
		price    string
		percent  int
		expected int64
	}{
		{"100", 5, 5},
		{"100", 7, 7},
		{"100", 10, 10},
		{"99", 5, 4},   // 4.95 → 4
		{"19", 5, 0},   // 0.95 → 0
		{"20", 5, 1},
		{"1000", 5, 50},    // покупка на 1000 ₽ при 5%
		{"900.00", 5, 45},  // цена после скидки
		{"930.50", 7, 65},  // 65.135 → 65
		{"0", 10, 0},
		{"-100", 10, 0},
		{"100", 0, 0},
		{"100", -5, 0},
		{"1000000", 10, 100000},
	}

	for _, tt := range tests {
		price := decimal.RequireFromString(tt.price)
		if got := RewardAmount(price, tt.percent); got != tt.expected {
			t.Errorf("RewardAmount(%s, %d%%) = %d, ожидалось %d", tt.price, tt.percent, got, tt.expected)
		}
	}
}
