package settings

import "testing"

// TestPercentFor проверяет ступени реферальной программы:
// полуинтервалы [min, max), стык ступеней без дыр и перекрытий
func TestPercentFor(t *testing.T) {
	levels := DefaultReferralLevels

	tests := []struct {
		referrals int64
		expected  int
	}{
		{0, 5},
		{4, 5},
		{5, 7},   // граница первой ступени — уже вторая
		{19, 7},
		{20, 10}, // граница второй ступени — уже третья
		{100, 10},
		{999998, 10},
		{999999, 0}, // за пределами последней ступени
	}

	for _, tt := range tests {
		if got := PercentFor(levels, tt.referrals); got != tt.expected {
			t.Errorf("PercentFor(%d) = %d, ожидалось %d", tt.referrals, got, tt.expected)
		}
	}
}

func TestPercentForEmptyLevels(t *testing.T) {
	if got := PercentFor(nil, 10); got != 0 {
		t.Errorf("PercentFor без ступеней = %d, ожидалось 0", got)
	}
}

func TestPercentForCustomLevels(t *testing.T) {
	levels := []ReferralLevel{
		{MinReferrals: 0, MaxReferrals: 10, Percent: 3},
		{MinReferrals: 10, MaxReferrals: 50, Percent: 8},
	}
	if got := PercentFor(levels, 9); got != 3 {
		t.Errorf("PercentFor(9) = %d, ожидалось 3", got)
	}
	if got := PercentFor(levels, 10); got != 8 {
		t.Errorf("PercentFor(10) = %d, ожидалось 8", got)
	}
	if got := PercentFor(levels, 50); got != 0 {
		t.Errorf("PercentFor(50) = %d, ожидалось 0", got)
	}
}
