// Package games — models.go описывает мини-игры на виртуальный баланс.
package games

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// GameType — тип мини-игры.
type GameType string

const (
	// GameMines — «мины»: три ячейки, одна выигрышная
	GameMines GameType = "mines"
	// GameJackpot — слот-машина, выигрыш на максимальной комбинации
	GameJackpot GameType = "jackpot"
)

// Valid сообщает, известен ли тип игры.
func (t GameType) Valid() bool {
	return t == GameMines || t == GameJackpot
}

// Game — одна партия. Результат фиксируется ровно один раз
// (processed = TRUE). В джекпоте ставка списывается при создании;
// в «минах» ставки нет (Bet = 0), исход — фиксированное начисление
// или штраф. Payout хранит знаковое движение средств при расчёте.
type Game struct {
	ID          int
	GameID      uuid.UUID
	UserID      int64
	Type        GameType
	Bet         int64
	WinningSlot int // для мин: выигрышная ячейка 1..3, выбрана при создании
	Won         *bool
	Payout      int64
	Processed   bool
	CreatedAt   time.Time
	SettledAt   *time.Time
}

// minesSlots — число ячеек в игре «мины».
const minesSlots = 3

// jackpotMaxValue — максимальное значение дайса-автомата Telegram.
// Выигрыш засчитывается только на нём (три семёрки).
const jackpotMaxValue = 64

// MinesOutcome возвращает результат «мин»: выиграл ли игрок,
// выбрав ячейку pick при выигрышной ячейке winning.
func MinesOutcome(winning, pick int) bool {
	return pick >= 1 && pick <= minesSlots && pick == winning
}

// JackpotOutcome возвращает результат слот-машины по значению дайса.
func JackpotOutcome(diceValue int) bool {
	return diceValue == jackpotMaxValue
}

// CalcPayout вычисляет выплату джекпота при выигрыше. Округление вниз.
// Поправка 1e-9 гасит артефакты двоичного представления множителя.
func CalcPayout(bet int64, multiplier float64) int64 {
	if bet <= 0 || multiplier <= 0 {
		return 0
	}
	return int64(math.Floor(float64(bet)*multiplier + 1e-9))
}
