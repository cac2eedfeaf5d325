// Package games — handlers.go обрабатывает команды мини-игр:
// /games (меню), /mines, выбор ячейки, /jackpot <ставка>.
// Незавершённая партия «мин» хранится в памяти по пользователю;
// после перезапуска её можно найти в БД по UUID.
package games

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"starbazar.ru/stars-bot/internal/common"
	"starbazar.ru/stars-bot/internal/features/actions"
)

// Handler обрабатывает команды игр.
type Handler struct {
	service *Service
	actions *actions.Service
	bot     *tgbotapi.BotAPI

	// активная партия «мин» на пользователя
	mu     sync.Mutex
	active map[int64]uuid.UUID
}

// NewHandler создаёт новый обработчик игр.
func NewHandler(service *Service, ac *actions.Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{
		service: service,
		actions: ac,
		bot:     bot,
		active:  make(map[int64]uuid.UUID),
	}
}

// HandleGames обрабатывает /games — показывает меню игр.
func (h *Handler) HandleGames(ctx context.Context, chatID, userID int64) {
	games, wins, totalBet, totalPayout, err := h.service.UserStats(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения статистики игр")
		h.sendMessage(chatID, "❌ Ошибка получения статистики")
		return
	}
	h.sendMessage(chatID, fmt.Sprintf(
		"🎮 Мини-игры (на виртуальном балансе)\n\n"+
			"/mines — мины, угадайте ячейку из трёх (приз +%d, мина −%d)\n"+
			"/jackpot ставка — слот-машина, выигрыш на трёх семёрках\n\n"+
			"📊 Сыграно: %d | Выиграно: %d\nСтавки: %d | Итог: %+d",
		h.service.cfg.MinesWinReward, h.service.cfg.MinesLosePenalty,
		games, wins, totalBet, totalPayout,
	))
}

// HandleMines обрабатывает /mines — начинает партию. Ставки нет,
// исход — фиксированное начисление или штраф.
func (h *Handler) HandleMines(ctx context.Context, chatID, userID int64) {
	if err := h.actions.CheckCooldown(userID); err != nil {
		h.sendMessage(chatID, "⏳ Слишком быстро, подождите пару секунд")
		return
	}

	h.mu.Lock()
	if _, busy := h.active[userID]; busy {
		h.mu.Unlock()
		h.sendMessage(chatID, "❌ Сначала завершите текущую партию: отправьте 1, 2 или 3")
		return
	}
	h.mu.Unlock()

	g, err := h.service.StartMines(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrInsufficientFunds) {
			h.sendMessage(chatID, "❌ Недостаточно средств на виртуальном балансе для возможного штрафа")
		} else {
			log.WithError(err).Error("Ошибка запуска партии мин")
			h.sendMessage(chatID, "❌ Ошибка запуска игры")
		}
		return
	}

	h.mu.Lock()
	h.active[userID] = g.GameID
	h.mu.Unlock()

	h.sendMessage(chatID, "💣 Две ячейки с минами, одна с призом. Выберите: 1, 2 или 3")
}

// HandleMinesPick обрабатывает выбор ячейки в активной партии «мин».
// Возвращает false, если у пользователя нет активной партии.
func (h *Handler) HandleMinesPick(ctx context.Context, chatID, userID int64, text string) bool {
	h.mu.Lock()
	gameID, ok := h.active[userID]
	h.mu.Unlock()
	if !ok {
		return false
	}

	pick, err := strconv.Atoi(text)
	if err != nil || pick < 1 || pick > 3 {
		h.sendMessage(chatID, "❌ Отправьте 1, 2 или 3")
		return true
	}

	g, err := h.service.PickMines(ctx, userID, gameID, pick)

	h.mu.Lock()
	delete(h.active, userID)
	h.mu.Unlock()

	if err != nil {
		if errors.Is(err, common.ErrAlreadyProcessed) {
			h.sendMessage(chatID, "❌ Партия уже рассчитана")
		} else {
			log.WithError(err).Error("Ошибка расчёта партии мин")
			h.sendMessage(chatID, "❌ Ошибка расчёта партии")
		}
		return true
	}

	if g.Won != nil && *g.Won {
		h.sendMessage(chatID, fmt.Sprintf("🎉 Приз в ячейке %d! Начислено: %d", g.WinningSlot, g.Payout))
	} else {
		h.sendMessage(chatID, fmt.Sprintf("💥 Мина! Приз был в ячейке %d, штраф: %d", g.WinningSlot, -g.Payout))
	}
	return true
}

// HandleJackpot обрабатывает /jackpot <ставка>: списывает ставку,
// крутит слот-машину Telegram и рассчитывает партию по значению дайса.
func (h *Handler) HandleJackpot(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(chatID, "❌ Формат: /jackpot ставка")
		return
	}
	bet, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || bet <= 0 {
		h.sendMessage(chatID, "❌ Ставка должна быть положительным числом")
		return
	}

	if err := h.actions.CheckCooldown(userID); err != nil {
		h.sendMessage(chatID, "⏳ Слишком быстро, подождите пару секунд")
		return
	}

	g, err := h.service.StartJackpot(ctx, userID, bet)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInsufficientFunds):
			h.sendMessage(chatID, "❌ Недостаточно средств на виртуальном балансе")
		case errors.Is(err, common.ErrInvalidAmount):
			h.sendMessage(chatID, "❌ Ставка вне допустимых пределов")
		default:
			log.WithError(err).Error("Ошибка запуска джекпота")
			h.sendMessage(chatID, "❌ Ошибка запуска игры")
		}
		return
	}

	// Бот сам бросает дайс: значение приходит в ответе на отправку,
	// подделать его со стороны пользователя нельзя.
	dice := tgbotapi.NewDiceWithEmoji(chatID, "🎰")
	sent, err := h.bot.Send(dice)
	if err != nil || sent.Dice == nil {
		// Партия не разыграна, проигрышем её считать нельзя.
		log.WithError(err).Error("Ошибка отправки дайса, ставка возвращается")
		if _, rerr := h.service.RefundJackpot(ctx, g.GameID); rerr != nil {
			log.WithError(rerr).Error("Ошибка возврата ставки джекпота")
		}
		h.sendMessage(chatID, "❌ Не удалось крутануть автомат, ставка возвращена")
		return
	}

	settled, err := h.service.SettleJackpot(ctx, g.GameID, sent.Dice.Value)
	if err != nil {
		log.WithError(err).Error("Ошибка расчёта партии джекпота")
		h.sendMessage(chatID, "❌ Ошибка расчёта партии")
		return
	}

	if settled.Won != nil && *settled.Won {
		h.sendMessage(chatID, fmt.Sprintf("🎰 ДЖЕКПОТ! Выигрыш: %d", settled.Payout))
	} else {
		h.sendMessage(chatID, "🎰 Не повезло, попробуйте ещё раз")
	}
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
