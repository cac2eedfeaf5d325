package games

import "testing"

// TestMinesOutcome проверяет исход «мин» для всех ячеек
func TestMinesOutcome(t *testing.T) {
	tests := []struct {
		winning  int
		pick     int
		expected bool
	}{
		{1, 1, true},
		{2, 2, true},
		{3, 3, true},
		{1, 2, false},
		{3, 1, false},
		{2, 0, false}, // выбор вне диапазона — проигрыш
		{2, 4, false},
		{2, -1, false},
	}

	for _, tt := range tests {
		if got := MinesOutcome(tt.winning, tt.pick); got != tt.expected {
			t.Errorf("MinesOutcome(%d, %d) = %v, ожидалось %v", tt.winning, tt.pick, got, tt.expected)
		}
	}
}

// TestJackpotOutcome: выигрыш только на максимальном значении дайса
// (три семёрки у автомата Telegram)
func TestJackpotOutcome(t *testing.T) {
	for v := 0; v <= 64; v++ {
		expected := v == 64
		if got := JackpotOutcome(v); got != expected {
			t.Errorf("JackpotOutcome(%d) = %v, ожидалось %v", v, got, expected)
		}
	}
}

func TestCalcPayout(t *testing.T) {
	tests := []struct {
		bet        int64
		multiplier float64
		expected   int64
	}{
		{100, 2.5, 250},
		{100, 1.5, 150},
		{3, 2.5, 7}, // 7.5 → 7, округление вниз
		{0, 2.5, 0},
		{-10, 2.5, 0},
		{100, 0, 0},
		{100, -1, 0},
	}

	for _, tt := range tests {
		if got := CalcPayout(tt.bet, tt.multiplier); got != tt.expected {
			t.Errorf("CalcPayout(%d, %g) = %d, ожидалось %d", tt.bet, tt.multiplier, got, tt.expected)
		}
	}
}

func TestGameTypeValid(t *testing.T) {
	if !GameMines.Valid() || !GameJackpot.Valid() {
		t.Error("известные типы игр не прошли Valid")
	}
	if GameType("roulette").Valid() {
		t.Error("неизвестный тип игры прошёл Valid")
	}
}
