package shop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"starbazar.ru/stars-bot/internal/common"
	"starbazar.ru/stars-bot/internal/testutil"
)

// TestApproveOnce: заказ одобряется ровно один раз, повторное
// одобрение не начисляет звёзды второй раз
func TestApproveOnce(t *testing.T) {
	pool := testutil.Pool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	now := time.Now()

	userID := testutil.NewUserID()
	testutil.CreateUser(t, pool, userID, 0, 0)

	o := &Order{
		UserID:    userID,
		Stars:     100,
		Price:     decimal.RequireFromString("170.00"),
		Recipient: "@user",
	}
	if err := repo.CreateOrder(ctx, o, ""); err != nil {
		t.Fatalf("создание заказа: %v", err)
	}

	approved, purchaseID, err := repo.Approve(ctx, o.ID, now)
	if err != nil {
		t.Fatalf("одобрение заказа: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Errorf("статус = %s, ожидалось approved", approved.Status)
	}
	if purchaseID == 0 {
		t.Error("нет записи в истории покупок")
	}
	if balance, _ := testutil.Balances(t, pool, userID); balance != 100 {
		t.Fatalf("баланс = %d, ожидалось 100", balance)
	}

	if _, _, err := repo.Approve(ctx, o.ID, now); !errors.Is(err, common.ErrAlreadyProcessed) {
		t.Fatalf("повторное одобрение: err = %v, ожидалось ErrAlreadyProcessed", err)
	}
	if balance, _ := testutil.Balances(t, pool, userID); balance != 100 {
		t.Fatalf("баланс после повторного одобрения = %d, ожидалось 100", balance)
	}
}

// TestCancelStoresReason: отмена сохраняет причину и выполняется
// только для необработанного заказа
func TestCancelStoresReason(t *testing.T) {
	pool := testutil.Pool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	now := time.Now()

	userID := testutil.NewUserID()
	testutil.CreateUser(t, pool, userID, 0, 0)

	o := &Order{
		UserID:    userID,
		Stars:     50,
		Price:     decimal.RequireFromString("85.00"),
		Recipient: "@user",
	}
	if err := repo.CreateOrder(ctx, o, ""); err != nil {
		t.Fatalf("создание заказа: %v", err)
	}

	cancelled, err := repo.Cancel(ctx, o.ID, "передумал", now)
	if err != nil {
		t.Fatalf("отмена заказа: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("статус = %s, ожидалось cancelled", cancelled.Status)
	}
	if cancelled.CancelReason == nil || *cancelled.CancelReason != "передумал" {
		t.Errorf("причина = %v, ожидалось «передумал»", cancelled.CancelReason)
	}

	if _, err := repo.Cancel(ctx, o.ID, "ещё раз", now); !errors.Is(err, common.ErrAlreadyProcessed) {
		t.Fatalf("повторная отмена: err = %v, ожидалось ErrAlreadyProcessed", err)
	}
	if _, _, err := repo.Approve(ctx, o.ID, now); !errors.Is(err, common.ErrAlreadyProcessed) {
		t.Fatalf("одобрение отменённого: err = %v, ожидалось ErrAlreadyProcessed", err)
	}
}

// TestApproveUsesFinalPrice: total_spent и история покупок считаются
// от цены с учётом скидки промокода
func TestApproveUsesFinalPrice(t *testing.T) {
	pool := testutil.Pool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	now := time.Now()

	userID := testutil.NewUserID()
	testutil.CreateUser(t, pool, userID, 0, 0)

	o := &Order{
		UserID:    userID,
		Stars:     100,
		Price:     decimal.RequireFromString("1000.00"),
		Recipient: "@user",
	}
	if err := repo.CreateOrder(ctx, o, ""); err != nil {
		t.Fatalf("создание заказа: %v", err)
	}
	// Скидка 10%, как будто к заказу применили промокод.
	if _, err := pool.Exec(ctx, `UPDATE orders SET discount = 100.00 WHERE id = $1`, o.ID); err != nil {
		t.Fatalf("запись скидки: %v", err)
	}

	_, purchaseID, err := repo.Approve(ctx, o.ID, now)
	if err != nil {
		t.Fatalf("одобрение заказа: %v", err)
	}

	var spent, purchasePrice string
	err = pool.QueryRow(ctx, `
		SELECT u.total_spent::TEXT, p.price::TEXT
		FROM users u, purchase_history p
		WHERE u.user_id = $1 AND p.id = $2
	`, userID, purchaseID).Scan(&spent, &purchasePrice)
	if err != nil {
		t.Fatalf("чтение итогов: %v", err)
	}
	if spent != "900.00" {
		t.Errorf("total_spent = %s, ожидалось 900.00", spent)
	}
	if purchasePrice != "900.00" {
		t.Errorf("цена покупки = %s, ожидалось 900.00", purchasePrice)
	}
}
