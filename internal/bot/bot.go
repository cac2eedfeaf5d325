// Package bot содержит главный модуль бота — инициализацию, запуск и остановку.
// bot.go подключает обработчики всех модулей и запускает polling.
package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"starbazar.ru/stars-bot/internal/bot/filters"
	"starbazar.ru/stars-bot/internal/bot/middleware"
	"starbazar.ru/stars-bot/internal/common"
	"starbazar.ru/stars-bot/internal/config"
	"starbazar.ru/stars-bot/internal/features/admin"
	"starbazar.ru/stars-bot/internal/features/exchange"
	"starbazar.ru/stars-bot/internal/features/games"
	"starbazar.ru/stars-bot/internal/features/members"
	"starbazar.ru/stars-bot/internal/features/promo"
	"starbazar.ru/stars-bot/internal/features/referral"
	"starbazar.ru/stars-bot/internal/features/settings"
	"starbazar.ru/stars-bot/internal/features/shop"
	"starbazar.ru/stars-bot/internal/features/tickets"
	"starbazar.ru/stars-bot/internal/features/wallet"
	"starbazar.ru/stars-bot/internal/features/withdraw"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	accessFilter *filters.AccessFilter
	rateLimiter  *middleware.RateLimiter

	memberHandler   *members.Handler
	walletHandler   *wallet.Handler
	promoHandler    *promo.Handler
	shopHandler     *shop.Handler
	exchangeHandler *exchange.Handler
	withdrawHandler *withdraw.Handler
	gamesHandler    *games.Handler
	ticketHandler   *tickets.Handler
	adminHandler    *admin.Handler

	memberService   *members.Service
	referralService *referral.Service
	settingsService *settings.Service

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	accessFilter *filters.AccessFilter,
	memberService *members.Service,
	memberHandler *members.Handler,
	walletHandler *wallet.Handler,
	promoHandler *promo.Handler,
	shopHandler *shop.Handler,
	exchangeHandler *exchange.Handler,
	withdrawHandler *withdraw.Handler,
	gamesHandler *games.Handler,
	ticketHandler *tickets.Handler,
	adminHandler *admin.Handler,
	referralService *referral.Service,
	settingsService *settings.Service,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:             api,
		cfg:             cfg,
		accessFilter:    accessFilter,
		rateLimiter:     middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		memberHandler:   memberHandler,
		walletHandler:   walletHandler,
		promoHandler:    promoHandler,
		shopHandler:     shopHandler,
		exchangeHandler: exchangeHandler,
		withdrawHandler: withdrawHandler,
		gamesHandler:    gamesHandler,
		ticketHandler:   ticketHandler,
		adminHandler:    adminHandler,
		memberService:   memberService,
		referralService: referralService,
		settingsService: settingsService,
		parser:          NewCommandParser(),
		inflight:        make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			b.rateLimiter.Close()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	if update.Message == nil || update.Message.Text == "" {
		return
	}
	message := update.Message

	// Логируем входящее
	middleware.LogMessage(message)

	switch b.accessFilter.Check(ctx, message) {
	case filters.Deny:
		return
	case filters.DenyBanned:
		b.sendMessage(message.Chat.ID, "🚫 Доступ к боту заблокирован")
		return
	case filters.DenyMaintenance:
		b.sendMessage(message.Chat.ID, b.settingsService.MaintenanceMessage(ctx))
		return
	}

	// Rate limiting
	if !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	chatID := message.Chat.ID
	userID := message.From.ID
	username := message.From.UserName

	// Регистрация идёт в /start, здесь только фиксируем активность.
	if err := b.memberService.TouchLastAction(ctx, userID); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("TouchLastAction failed")
	}

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	log.WithFields(log.Fields{
		"isCommand": isCommand,
		"cmd":       cmd,
		"args":      args,
	}).Debug("parsed command")

	if isCommand {
		b.routeCommand(ctx, chatID, userID, username, message.From.FirstName, cmd, args)
		return
	}

	// Не команда: возможно, это выбор ячейки в активной партии «мин».
	if b.cfg.FeatureGamesEnabled && b.gamesHandler.HandleMinesPick(ctx, chatID, userID, strings.TrimSpace(message.Text)) {
		return
	}
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, username, firstName, cmd string, args []string) {
	// Админ-панель первая: она сама разбирается с сессией и ролями.
	if b.adminHandler.Handle(ctx, chatID, userID, cmd, args) {
		return
	}

	switch cmd {
	case "start":
		b.memberHandler.HandleStart(ctx, chatID, userID, username, firstName, args)
		// Ссылка-скидка приходит тем же /start (?start=sale_<код>).
		if len(args) > 0 && strings.HasPrefix(args[0], "sale_") {
			b.promoHandler.HandleDiscountStart(ctx, chatID, userID, strings.TrimPrefix(args[0], "sale_"))
		}

	case "help":
		b.sendMessage(chatID,
			"⭐ Команды:\n"+
				"/buy количество [@получатель] — купить звёзды\n"+
				"/orders — история покупок\n"+
				"/cancel номер причина — отменить заказ\n"+
				"/balance — баланс\n"+
				"/profile — профиль\n"+
				"/promo код — скидка на текущий заказ\n"+
				"/ref — реферальная программа\n"+
				"/games, /mines, /jackpot — мини-игры\n"+
				"/exchange real|virtual сумма — обмен между балансами\n"+
				"/withdraw сумма — вывод звёзд\n"+
				"/support текст — поддержка")

	case "balance":
		b.walletHandler.HandleBalance(ctx, chatID, userID)

	case "profile":
		b.memberHandler.HandleProfile(ctx, chatID, userID)

	case "buy":
		b.shopHandler.HandleBuy(ctx, chatID, userID, username, args)

	case "orders":
		b.shopHandler.HandleOrders(ctx, chatID, userID)

	case "cancel":
		b.shopHandler.HandleCancel(ctx, chatID, userID, args)

	case "promo":
		b.promoHandler.HandlePromo(ctx, chatID, userID, args)

	case "ref":
		b.handleReferral(ctx, chatID, userID)

	case "games":
		if b.cfg.FeatureGamesEnabled {
			b.gamesHandler.HandleGames(ctx, chatID, userID)
		} else {
			b.sendMessage(chatID, "🎮 Игры временно отключены")
		}

	case "mines":
		if b.cfg.FeatureGamesEnabled {
			b.gamesHandler.HandleMines(ctx, chatID, userID)
		} else {
			b.sendMessage(chatID, "🎮 Игры временно отключены")
		}

	case "jackpot":
		if b.cfg.FeatureGamesEnabled {
			b.gamesHandler.HandleJackpot(ctx, chatID, userID, args)
		} else {
			b.sendMessage(chatID, "🎮 Игры временно отключены")
		}

	case "exchange":
		if b.cfg.FeatureExchangeEnabled {
			b.exchangeHandler.HandleExchange(ctx, chatID, userID, args)
		} else {
			b.sendMessage(chatID, "🔄 Обмен временно отключён")
		}

	case "withdraw":
		b.withdrawHandler.HandleWithdraw(ctx, chatID, userID, username, args)

	case "support":
		if b.cfg.FeatureTicketsEnabled {
			b.ticketHandler.HandleSupport(ctx, chatID, userID, args)
		} else {
			b.sendMessage(chatID, "🆘 Поддержка временно недоступна")
		}
	}
}

// handleReferral показывает ссылку и статистику реферальной программы.
func (b *Bot) handleReferral(ctx context.Context, chatID, userID int64) {
	link := b.memberHandler.HandleReferralLink(ctx, chatID, userID)
	if link == "" {
		return
	}
	st, err := b.referralService.Stats(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения реферальной статистики")
		b.sendMessage(chatID, "🔗 Ваша ссылка: "+link)
		return
	}
	b.sendMessage(chatID, fmt.Sprintf(
		"🤝 Реферальная программа\n\n"+
			"Ваша ссылка: %s\n"+
			"Приглашено: %d\n"+
			"Ваш процент с покупок: %d%%\n"+
			"Заработано: %s",
		link, st.Referrals, st.Percent, common.FormatStars(st.TotalEarned),
	))
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// SendMessageToUser отправляет сообщение пользователю (для уведомлений).
func (b *Bot) SendMessageToUser(userID int64, text string) {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Не удалось отправить сообщение")
	}
}

// CommandParser парсит команды с префиксом /.
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"/"},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
// Суффикс @botname после команды отбрасывается.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}

	if !hasPrefix {
		return "", nil, false
	}

	parts := strings.Fields(strings.TrimSpace(text))
	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	if at := strings.Index(command, "@"); at >= 0 {
		command = command[:at]
	}

	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}

	return command, args, true
}
