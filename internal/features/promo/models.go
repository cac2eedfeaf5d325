// Package promo — models.go описывает промокоды и ссылки-скидки.
package promo

import "time"

// Promocode — промокод на процентную скидку к заказу.
// max_uses == 0 означает без ограничения по числу активаций,
// каждый пользователь может применить код не более одного раза.
type Promocode struct {
	ID        int
	Code      string
	Percent   int
	MaxUses   int
	UsedCount int
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// DiscountLink — ссылка, дающая скидку на первый заказ.
// max_uses == 0 означает без ограничения по числу активаций.
type DiscountLink struct {
	ID        int
	LinkCode  string
	Percent   int
	MaxUses   int
	UsedCount int
	CreatedAt time.Time
}

// UserDiscount — персональная скидка, полученная по ссылке.
// Расходуется при оформлении заказа (used = true).
type UserDiscount struct {
	UserID     int64
	SourceLink string
	Percent    int
	Used       bool
	GrantedAt  time.Time
}
