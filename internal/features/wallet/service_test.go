package wallet

import "testing"

// TestBalancesCacheRoundtrip: сериализация баланса для кэша
func TestBalancesCacheRoundtrip(t *testing.T) {
	b := &Balances{UserID: 42, Main: 1500, Virtual: 300}

	raw := formatBalances(b)
	if raw != "1500|300" {
		t.Fatalf("formatBalances = %q, ожидалось \"1500|300\"", raw)
	}

	got, err := parseBalances(42, raw)
	if err != nil {
		t.Fatalf("parseBalances: %v", err)
	}
	if got.UserID != 42 || got.Main != 1500 || got.Virtual != 300 {
		t.Fatalf("parseBalances = %+v", got)
	}
}

func TestParseBalancesMalformed(t *testing.T) {
	tests := []string{"", "100", "a|b", "100|", "|100", "100|200|300"}
	for _, raw := range tests {
		if _, err := parseBalances(1, raw); err == nil {
			t.Errorf("parseBalances(%q): ожидалась ошибка", raw)
		}
	}
}

func TestBalanceKind(t *testing.T) {
	if !BalanceMain.Valid() || !BalanceVirtual.Valid() {
		t.Error("известные типы баланса не прошли Valid")
	}
	if BalanceKind("bonus").Valid() {
		t.Error("неизвестный тип баланса прошёл Valid")
	}
	if BalanceKind("balance; DROP TABLE users").Valid() {
		t.Error("тип баланса с инъекцией прошёл Valid")
	}
}
