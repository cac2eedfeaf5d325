package shop

import (
	"testing"

	"github.com/shopspring/decimal"
)

// TestCalcPrice проверяет расчёт цены заказа со скидками и округлением
func TestCalcPrice(t *testing.T) {
	price170 := decimal.RequireFromString("1.70")

	tests := []struct {
		name        string
		stars       int64
		starPrice   decimal.Decimal
		discountPct int
		expected    string
	}{
		{"без скидки", 100, price170, 0, "170.00"},
		{"скидка 10%", 100, price170, 10, "153.00"},
		{"скидка 25%", 100, price170, 25, "127.50"},
		{"одна звезда", 1, price170, 0, "1.70"},
		{"округление до копеек", 3, price170, 33, "3.42"}, // 5.10 * 0.67 = 3.417
		{"скидка 100%", 50, price170, 100, "0.00"},
		{"целая цена", 10, decimal.NewFromInt(2), 0, "20.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalcPrice(tt.stars, tt.starPrice, tt.discountPct)
			if got.StringFixed(2) != tt.expected {
				t.Errorf("CalcPrice(%d, %s, %d%%) = %s, ожидалось %s",
					tt.stars, tt.starPrice, tt.discountPct, got.StringFixed(2), tt.expected)
			}
		})
	}
}

// TestFinalPrice: итоговая цена — зафиксированная цена минус скидка
// промокода, не ниже нуля
func TestFinalPrice(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		discount string
		expected string
	}{
		{"без скидки", "1000.00", "0", "1000.00"},
		{"скидка 10% от 1000", "1000.00", "100.00", "900.00"},
		{"скидка с копейками", "169.30", "16.93", "152.37"},
		{"скидка больше цены", "50.00", "60.00", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Order{
				Price:    decimal.RequireFromString(tt.price),
				Discount: decimal.RequireFromString(tt.discount),
			}
			if got := o.FinalPrice().StringFixed(2); got != tt.expected {
				t.Errorf("FinalPrice() = %s, ожидалось %s", got, tt.expected)
			}
		})
	}
}

// Цена фиксируется в заказе: пересчёт той же формулы с теми же
// аргументами обязан давать побайтово то же значение.
func TestCalcPriceDeterministic(t *testing.T) {
	p := decimal.RequireFromString("1.69")
	a := CalcPrice(777, p, 15)
	b := CalcPrice(777, p, 15)
	if !a.Equal(b) {
		t.Errorf("CalcPrice недетерминирован: %s != %s", a, b)
	}
}
