// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, кэш, репозитории, сервисы,
// обработчики, фильтры и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"starbazar.ru/stars-bot/internal/bot"
	"starbazar.ru/stars-bot/internal/bot/filters"
	"starbazar.ru/stars-bot/internal/cache"
	"starbazar.ru/stars-bot/internal/common"
	"starbazar.ru/stars-bot/internal/config"
	"starbazar.ru/stars-bot/internal/db/postgres"
	"starbazar.ru/stars-bot/internal/features/actions"
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
	"starbazar.ru/stars-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	BotAPI    *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 3. Кэш и часы ===
	memCache := cache.New()
	clock := common.SystemClock

	// === 4. Репозитории ===
	memberRepo := members.NewRepository(pool)
	walletRepo := wallet.NewRepository(pool)
	settingsRepo := settings.NewRepository(pool)
	promoRepo := promo.NewRepository(pool)
	referralRepo := referral.NewRepository(pool)
	shopRepo := shop.NewRepository(pool)
	exchangeRepo := exchange.NewRepository(pool)
	withdrawRepo := withdraw.NewRepository(pool)
	gamesRepo := games.NewRepository(pool)
	actionsRepo := actions.NewRepository(pool)
	ticketRepo := tickets.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)

	// === 5. Сервисы ===
	memberService := members.NewService(memberRepo, clock)
	walletService := wallet.NewService(walletRepo, memCache, clock)
	settingsService := settings.NewService(settingsRepo, memCache)
	promoService := promo.NewService(promoRepo, clock)
	referralService := referral.NewService(referralRepo, memberService, settingsService, walletService, clock)
	shopService := shop.NewService(shopRepo, settingsService, promoService, referralService, walletService, cfg, clock)
	exchangeService := exchange.NewService(exchangeRepo, settingsService, walletService, clock)
	withdrawService := withdraw.NewService(withdrawRepo, settingsService, walletService, clock)
	gamesService := games.NewService(gamesRepo, walletService, cfg, clock)
	actionsService := actions.NewService(actionsRepo, memCache, cfg.ActionDedupTTL, cfg.ActionCooldown, clock)
	ticketService := tickets.NewService(ticketRepo, clock)
	adminService := admin.NewService(adminRepo, cfg, clock)

	// Настройки по умолчанию (цена, курс, ступени рефералки)
	if err := settingsService.Seed(ctx, cfg); err != nil {
		return nil, fmt.Errorf("ошибка заполнения настроек: %w", err)
	}

	// === 6. Обработчики ===
	memberHandler := members.NewHandler(memberService, botAPI, cfg.BotUsername)
	walletHandler := wallet.NewHandler(walletService, botAPI)
	promoHandler := promo.NewHandler(promoService, botAPI)
	shopHandler := shop.NewHandler(shopService, settingsService, actionsService, botAPI, cfg.ReviewChatID)
	exchangeHandler := exchange.NewHandler(exchangeService, actionsService, botAPI, cfg.ReviewChatID)
	withdrawHandler := withdraw.NewHandler(withdrawService, actionsService, botAPI, cfg.ReviewChatID)
	gamesHandler := games.NewHandler(gamesService, actionsService, botAPI)
	ticketHandler := tickets.NewHandler(ticketService, botAPI, cfg.ReviewChatID)
	adminHandler := admin.NewHandler(
		adminService, memberService, walletService, shopService,
		exchangeService, withdrawService, promoService, settingsService,
		ticketService, referralService, botAPI,
	)

	// Привязка реферала пишется в журнал реферальной программы.
	memberHandler.SetReferralCallback(func(ctx context.Context, referrerID, referredID int64) {
		if err := referralService.LogAttached(ctx, referrerID, referredID); err != nil {
			log.WithError(err).Warn("Ошибка записи журнала рефералов")
		}
	})

	// === 7. Фильтры ===
	accessFilter := filters.NewAccessFilter(memberService, settingsService)

	// === 8. Собираем бота ===
	b := bot.New(
		botAPI, cfg,
		accessFilter,
		memberService, memberHandler,
		walletHandler, promoHandler, shopHandler,
		exchangeHandler, withdrawHandler,
		gamesHandler, ticketHandler, adminHandler,
		referralService, settingsService,
	)

	// === 9. Планировщик задач ===
	scheduler := jobs.NewScheduler(memberService, actionsService)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}
