package exchange

import "testing"

// TestCalcReceived проверяет расчёт обмена: курс, комиссия направления
// и округление вниз
func TestCalcReceived(t *testing.T) {
	tests := []struct {
		amount     int64
		rate       float64
		commission float64
		expected   int64
	}{
		{100, 0.5, 0, 50},
		{101, 0.5, 0, 50},     // округление вниз
		{100, 1.0, 0, 100},
		{3, 0.33, 0, 0},       // 0.99 → 0
		{1000, 0.1, 0, 100},
		{1000, 1.0, 0.1, 900}, // виртуальный → основной с комиссией 10%
		{1000, 1.0, 0.05, 950},
		{100, 0.29, 0, 29},    // артефакт float64 не срезает единицу
		{999, 1.0, 0.1, 899},  // 899.1 → 899
		{0, 0.5, 0, 0},
		{-10, 0.5, 0, 0},
		{100, 0, 0, 0},
		{100, -1, 0, 0},
		{100, 1.0, 1.0, 0},  // комиссия 100% недопустима
		{100, 1.0, -0.1, 0}, // отрицательная комиссия недопустима
	}

	for _, tt := range tests {
		if got := CalcReceived(tt.amount, tt.rate, tt.commission); got != tt.expected {
			t.Errorf("CalcReceived(%d, %g, %g) = %d, ожидалось %d",
				tt.amount, tt.rate, tt.commission, got, tt.expected)
		}
	}
}
