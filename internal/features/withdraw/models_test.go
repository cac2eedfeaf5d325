package withdraw

import "testing"

// TestCalcPayout проверяет расчёт выплаты после комиссии
func TestCalcPayout(t *testing.T) {
	tests := []struct {
		amount     int64
		commission float64
		expected   int64
	}{
		{100, 0.05, 95},
		{100, 0, 100},       // без комиссии
		{100, -0.1, 100},    // отрицательная комиссия игнорируется
		{99, 0.05, 94},      // 94.05 → 94, округление вниз
		{1, 0.05, 0},        // 0.95 → 0
		{0, 0.05, 0},
		{-50, 0.05, 0},
		{1000, 0.5, 500},
	}

	for _, tt := range tests {
		if got := CalcPayout(tt.amount, tt.commission); got != tt.expected {
			t.Errorf("CalcPayout(%d, %g) = %d, ожидалось %d", tt.amount, tt.commission, got, tt.expected)
		}
	}
}
