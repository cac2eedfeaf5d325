// Package shop — models.go описывает заказы на покупку звёзд.
package shop

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus — статус заказа.
type OrderStatus string

const (
	// StatusPending — заказ создан, ждёт проверки оплаты оператором
	StatusPending OrderStatus = "pending"
	// StatusApproved — оплата подтверждена, звёзды начислены
	StatusApproved OrderStatus = "approved"
	// StatusRejected — заказ отклонён оператором
	StatusRejected OrderStatus = "rejected"
	// StatusCancelled — заказ отменён пользователем до проверки
	StatusCancelled OrderStatus = "cancelled"
)

// Order — заказ на покупку звёзд за рубли.
// Цена фиксируется в момент создания: последующие изменения
// цены звезды на заказ не влияют. Discount — сумма скидки по
// промокоду, применённому уже после создания заказа.
type Order struct {
	ID           int
	UserID       int64
	Stars        int64
	Price        decimal.Decimal
	DiscountPct  int
	PromocodeID  *int
	Discount     decimal.Decimal
	Recipient    string
	Status       OrderStatus
	CancelReason *string
	CreatedAt    time.Time
	ProcessedAt  *time.Time
}

// FinalPrice — цена к оплате: зафиксированная цена минус скидка
// промокода. Не уходит ниже нуля.
func (o *Order) FinalPrice() decimal.Decimal {
	p := o.Price.Sub(o.Discount)
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}

// Purchase — запись истории покупок. Создаётся при одобрении заказа.
type Purchase struct {
	ID        int
	UserID    int64
	OrderID   int
	Stars     int64
	Price     decimal.Decimal
	CreatedAt time.Time
}

// CalcPrice вычисляет итоговую цену заказа: stars × цена звезды,
// минус скидка в процентах. Округление до копеек вверх не делается,
// decimal хранит точное значение с банковским округлением до 2 знаков.
func CalcPrice(stars int64, starPrice decimal.Decimal, discountPct int) decimal.Decimal {
	price := starPrice.Mul(decimal.NewFromInt(stars))
	if discountPct > 0 {
		factor := decimal.NewFromInt(int64(100 - discountPct)).Div(decimal.NewFromInt(100))
		price = price.Mul(factor)
	}
	return price.Round(2)
}
