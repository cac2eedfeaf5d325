package games

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"starbazar.ru/stars-bot/internal/common"
	"starbazar.ru/stars-bot/internal/testutil"
)

// TestSettleOnce: партия рассчитывается ровно один раз, повторный
// расчёт не двигает баланс
func TestSettleOnce(t *testing.T) {
	pool := testutil.Pool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	now := time.Now()

	userID := testutil.NewUserID()
	testutil.CreateUser(t, pool, userID, 0, 100)

	g := &Game{GameID: uuid.New(), UserID: userID, Type: GameJackpot, Bet: 50}
	if err := repo.Create(ctx, g, now); err != nil {
		t.Fatalf("создание партии: %v", err)
	}
	if _, virtual := testutil.Balances(t, pool, userID); virtual != 50 {
		t.Fatalf("после ставки виртуальный баланс = %d, ожидалось 50", virtual)
	}

	if _, err := repo.Settle(ctx, g.GameID, true, 500, now); err != nil {
		t.Fatalf("расчёт партии: %v", err)
	}
	if _, virtual := testutil.Balances(t, pool, userID); virtual != 550 {
		t.Fatalf("после выигрыша виртуальный баланс = %d, ожидалось 550", virtual)
	}

	// Повторный расчёт того же исхода отклоняется и денег не двигает.
	if _, err := repo.Settle(ctx, g.GameID, true, 500, now); !errors.Is(err, common.ErrAlreadyProcessed) {
		t.Fatalf("повторный расчёт: err = %v, ожидалось ErrAlreadyProcessed", err)
	}
	if _, virtual := testutil.Balances(t, pool, userID); virtual != 550 {
		t.Fatalf("после повторного расчёта виртуальный баланс = %d, ожидалось 550", virtual)
	}
}

// TestMinesFixedOutcome: «мины» без ставки — проигрыш списывает штраф,
// выигрыш начисляет фиксированную награду
func TestMinesFixedOutcome(t *testing.T) {
	pool := testutil.Pool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	now := time.Now()

	userID := testutil.NewUserID()
	testutil.CreateUser(t, pool, userID, 0, 100)

	// Создание партии без ставки ничего не списывает.
	lost := &Game{GameID: uuid.New(), UserID: userID, Type: GameMines, WinningSlot: 1}
	if err := repo.Create(ctx, lost, now); err != nil {
		t.Fatalf("создание партии: %v", err)
	}
	if _, virtual := testutil.Balances(t, pool, userID); virtual != 100 {
		t.Fatalf("после создания виртуальный баланс = %d, ожидалось 100", virtual)
	}

	if _, err := repo.Settle(ctx, lost.GameID, false, -30, now); err != nil {
		t.Fatalf("расчёт проигрыша: %v", err)
	}
	if _, virtual := testutil.Balances(t, pool, userID); virtual != 70 {
		t.Fatalf("после проигрыша виртуальный баланс = %d, ожидалось 70", virtual)
	}

	won := &Game{GameID: uuid.New(), UserID: userID, Type: GameMines, WinningSlot: 2}
	if err := repo.Create(ctx, won, now); err != nil {
		t.Fatalf("создание партии: %v", err)
	}
	if _, err := repo.Settle(ctx, won.GameID, true, 50, now); err != nil {
		t.Fatalf("расчёт выигрыша: %v", err)
	}
	if _, virtual := testutil.Balances(t, pool, userID); virtual != 120 {
		t.Fatalf("после выигрыша виртуальный баланс = %d, ожидалось 120", virtual)
	}
}

// TestSettlePenaltyClamped: штраф не уводит баланс ниже нуля
func TestSettlePenaltyClamped(t *testing.T) {
	pool := testutil.Pool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	now := time.Now()

	userID := testutil.NewUserID()
	testutil.CreateUser(t, pool, userID, 0, 10)

	g := &Game{GameID: uuid.New(), UserID: userID, Type: GameMines, WinningSlot: 3}
	if err := repo.Create(ctx, g, now); err != nil {
		t.Fatalf("создание партии: %v", err)
	}
	if _, err := repo.Settle(ctx, g.GameID, false, -30, now); err != nil {
		t.Fatalf("расчёт проигрыша: %v", err)
	}
	if _, virtual := testutil.Balances(t, pool, userID); virtual != 0 {
		t.Fatalf("виртуальный баланс = %d, ожидалось 0", virtual)
	}
}

// TestRefundOnce: возврат ставки закрывает партию и выполняется
// не более одного раза
func TestRefundOnce(t *testing.T) {
	pool := testutil.Pool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	now := time.Now()

	userID := testutil.NewUserID()
	testutil.CreateUser(t, pool, userID, 0, 100)

	g := &Game{GameID: uuid.New(), UserID: userID, Type: GameJackpot, Bet: 40}
	if err := repo.Create(ctx, g, now); err != nil {
		t.Fatalf("создание партии: %v", err)
	}

	refunded, err := repo.Refund(ctx, g.GameID, now)
	if err != nil {
		t.Fatalf("возврат ставки: %v", err)
	}
	if refunded.Won != nil {
		t.Error("возвращённая партия не должна иметь результата")
	}
	if _, virtual := testutil.Balances(t, pool, userID); virtual != 100 {
		t.Fatalf("после возврата виртуальный баланс = %d, ожидалось 100", virtual)
	}

	if _, err := repo.Refund(ctx, g.GameID, now); !errors.Is(err, common.ErrAlreadyProcessed) {
		t.Fatalf("повторный возврат: err = %v, ожидалось ErrAlreadyProcessed", err)
	}
	if _, virtual := testutil.Balances(t, pool, userID); virtual != 100 {
		t.Fatalf("после повторного возврата виртуальный баланс = %d, ожидалось 100", virtual)
	}

	// Возвращённую партию нельзя рассчитать задним числом.
	if _, err := repo.Settle(ctx, g.GameID, true, 400, now); !errors.Is(err, common.ErrAlreadyProcessed) {
		t.Fatalf("расчёт после возврата: err = %v, ожидалось ErrAlreadyProcessed", err)
	}
}
