// Package admin — handlers.go обрабатывает команды админ-панели:
// вход по паролю, статистику, модерацию заказов и заявок,
// промокоды, ссылки-скидки, настройки и режим техработ.
//
// Команды работают только в личных сообщениях и требуют живой сессии
// (кроме /login). Роль проверяется на каждой команде отдельно.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"starbazar.ru/stars-bot/internal/common"
	"starbazar.ru/stars-bot/internal/features/exchange"
	"starbazar.ru/stars-bot/internal/features/members"
	"starbazar.ru/stars-bot/internal/features/promo"
	"starbazar.ru/stars-bot/internal/features/referral"
	"starbazar.ru/stars-bot/internal/features/settings"
	"starbazar.ru/stars-bot/internal/features/shop"
	"starbazar.ru/stars-bot/internal/features/tickets"
	"starbazar.ru/stars-bot/internal/features/wallet"
	"starbazar.ru/stars-bot/internal/features/withdraw"
)

// Handler обрабатывает команды админ-панели.
type Handler struct {
	service  *Service
	members  *members.Service
	wallet   *wallet.Service
	shop     *shop.Service
	exchange *exchange.Service
	withdraw *withdraw.Service
	promo    *promo.Service
	settings *settings.Service
	tickets  *tickets.Service
	referral *referral.Service
	bot      *tgbotapi.BotAPI
}

// NewHandler создаёт новый обработчик админ-панели.
func NewHandler(
	service *Service,
	m *members.Service,
	w *wallet.Service,
	sh *shop.Service,
	ex *exchange.Service,
	wd *withdraw.Service,
	pr *promo.Service,
	st *settings.Service,
	tk *tickets.Service,
	rf *referral.Service,
	bot *tgbotapi.BotAPI,
) *Handler {
	return &Handler{
		service: service, members: m, wallet: w, shop: sh,
		exchange: ex, withdraw: wd, promo: pr, settings: st,
		tickets: tk, referral: rf, bot: bot,
	}
}

// Handle пытается обработать команду как админскую.
// Возвращает true, если команда была админской (даже при отказе в доступе).
func (h *Handler) Handle(ctx context.Context, chatID, userID int64, cmd string, args []string) bool {
	if cmd == "login" {
		h.handleLogin(ctx, chatID, userID, args)
		return true
	}

	adminCmds := map[string]func(context.Context, int64, int64, []string){
		"logout":           h.handleLogout,
		"stats":            h.handleStats,
		"approve_order":    h.handleApproveOrder,
		"reject_order":     h.handleRejectOrder,
		"approve_exchange": h.handleApproveExchange,
		"reject_exchange":  h.handleRejectExchange,
		"approve_withdraw": h.handleApproveWithdraw,
		"reject_withdraw":  h.handleRejectWithdraw,
		"addpromo":         h.handleAddPromo,
		"delpromo":         h.handleDelPromo,
		"promos":           h.handlePromos,
		"addsale":          h.handleAddSale,
		"give":             h.handleGive,
		"setprice":         h.handleSetPrice,
		"setrole":          h.handleSetRole,
		"ban":              h.handleBan,
		"unban":            h.handleUnban,
		"freeze":           h.handleFreeze,
		"unfreeze":         h.handleUnfreeze,
		"warn":             h.handleWarn,
		"maintenance":      h.handleMaintenance,
		"reply":            h.handleReply,
		"close":            h.handleClose,
		"reflog":           h.handleRefLog,
		"adminlog":         h.handleAdminLog,
	}

	fn, ok := adminCmds[cmd]
	if !ok {
		return false
	}

	if !h.service.HasActiveSession(ctx, userID) {
		h.sendMessage(chatID, "🔒 Требуется вход: /login пароль")
		return true
	}
	if _, err := h.members.RequireRole(ctx, userID, requiredRole(cmd)); err != nil {
		h.sendMessage(chatID, "❌ Недостаточно прав")
		return true
	}

	fn(ctx, chatID, userID, args)
	return true
}

// requiredRole возвращает минимальную роль для админ-команды.
// Решения по деньгам (одобрение и отклонение заказов, обменов
// и выводов) доступны только администраторам, остальное — модераторам.
// Отдельные команды дополнительно повышают требование внутри себя.
func requiredRole(cmd string) members.Role {
	switch cmd {
	case "approve_order", "reject_order",
		"approve_exchange", "reject_exchange",
		"approve_withdraw", "reject_withdraw":
		return members.RoleAdmin
	default:
		return members.RoleModer
	}
}

func (h *Handler) handleLogin(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(chatID, "❌ Формат: /login пароль")
		return
	}
	err := h.service.Login(ctx, userID, strings.Join(args, " "))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrTooManyAttempts):
			h.sendMessage(chatID, "❌ Слишком много попыток, подождите 1 час")
		case errors.Is(err, common.ErrWrongPassword):
			h.sendMessage(chatID, "❌ Неверный пароль")
		default:
			log.WithError(err).Error("Ошибка входа в админку")
			h.sendMessage(chatID, "❌ Ошибка входа")
		}
		return
	}
	h.sendMessage(chatID, "✅ Вход выполнен, сессия на 24 часа. Команды: /stats")
}

func (h *Handler) handleLogout(ctx context.Context, chatID, userID int64, _ []string) {
	if err := h.service.Logout(ctx, userID); err != nil {
		log.WithError(err).Error("Ошибка выхода")
	}
	h.sendMessage(chatID, "👋 Сессия закрыта")
}

func (h *Handler) handleStats(ctx context.Context, chatID, userID int64, _ []string) {
	st, err := h.service.Stats(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения статистики")
		h.sendMessage(chatID, "❌ Ошибка получения статистики")
		return
	}
	h.sendMessage(chatID, fmt.Sprintf(
		"📊 Статистика магазина\n\n"+
			"Пользователей: %d\n"+
			"Продано звёзд: %d\n"+
			"Выручка: %s₽\n\n"+
			"В очереди:\n"+
			"Заказы: %d | Выводы: %d | Обмены: %d",
		st.Users, st.StarsSold, st.Revenue,
		st.PendingOrders, st.PendingWithdraws, st.PendingExchanges,
	))
}

// --- Заказы ---

func (h *Handler) handleApproveOrder(ctx context.Context, chatID, userID int64, args []string) {
	orderID, ok := h.parseIntArg(chatID, args, "номер заказа")
	if !ok {
		return
	}
	o, err := h.shop.Approve(ctx, orderID)
	if err != nil {
		h.replyProcessError(chatID, err)
		return
	}
	h.service.LogAction(ctx, userID, "approve_order", fmt.Sprintf("заказ #%d", orderID))
	h.sendMessage(chatID, fmt.Sprintf("✅ Заказ #%d одобрен", orderID))
	h.notifyUser(o.UserID, fmt.Sprintf("✅ Заказ #%d одобрен, начислено %s", o.ID, common.FormatStars(o.Stars)))
}

func (h *Handler) handleRejectOrder(ctx context.Context, chatID, userID int64, args []string) {
	orderID, ok := h.parseIntArg(chatID, args, "номер заказа")
	if !ok {
		return
	}
	o, err := h.shop.Reject(ctx, orderID)
	if err != nil {
		h.replyProcessError(chatID, err)
		return
	}
	h.service.LogAction(ctx, userID, "reject_order", fmt.Sprintf("заказ #%d", orderID))
	h.sendMessage(chatID, fmt.Sprintf("✅ Заказ #%d отклонён", orderID))
	h.notifyUser(o.UserID, fmt.Sprintf("❌ Заказ #%d отклонён. Если вы оплатили, обратитесь в /support", o.ID))
}

// --- Обмены ---

func (h *Handler) handleApproveExchange(ctx context.Context, chatID, userID int64, args []string) {
	id, ok := h.parseUUIDArg(chatID, args)
	if !ok {
		return
	}
	e, err := h.exchange.Approve(ctx, id)
	if err != nil {
		h.replyProcessError(chatID, err)
		return
	}
	h.service.LogAction(ctx, userID, "approve_exchange", id.String())
	h.sendMessage(chatID, "✅ Обмен одобрен")
	h.notifyUser(e.UserID, fmt.Sprintf("✅ Обмен выполнен, начислено %d", e.Received))
}

func (h *Handler) handleRejectExchange(ctx context.Context, chatID, userID int64, args []string) {
	id, ok := h.parseUUIDArg(chatID, args)
	if !ok {
		return
	}
	e, err := h.exchange.Reject(ctx, id)
	if err != nil {
		h.replyProcessError(chatID, err)
		return
	}
	h.service.LogAction(ctx, userID, "reject_exchange", id.String())
	h.sendMessage(chatID, "✅ Обмен отклонён, средства возвращены")
	h.notifyUser(e.UserID, fmt.Sprintf("❌ Обмен отклонён, %d возвращено на исходный баланс", e.Amount))
}

// --- Выводы ---

func (h *Handler) handleApproveWithdraw(ctx context.Context, chatID, userID int64, args []string) {
	id, ok := h.parseUUIDArg(chatID, args)
	if !ok {
		return
	}
	w, err := h.withdraw.Approve(ctx, id)
	if err != nil {
		h.replyProcessError(chatID, err)
		return
	}
	h.service.LogAction(ctx, userID, "approve_withdraw", id.String())
	h.sendMessage(chatID, "✅ Вывод отмечен выполненным")
	h.notifyUser(w.UserID, fmt.Sprintf("✅ Вывод выполнен: %s отправлено %s", common.FormatStars(w.Payout), w.Recipient))
}

func (h *Handler) handleRejectWithdraw(ctx context.Context, chatID, userID int64, args []string) {
	id, ok := h.parseUUIDArg(chatID, args)
	if !ok {
		return
	}
	w, err := h.withdraw.Reject(ctx, id)
	if err != nil {
		h.replyProcessError(chatID, err)
		return
	}
	h.service.LogAction(ctx, userID, "reject_withdraw", id.String())
	h.sendMessage(chatID, "✅ Вывод отклонён, средства возвращены")
	h.notifyUser(w.UserID, fmt.Sprintf("❌ Вывод отклонён, %s возвращено на баланс", common.FormatStars(w.Amount)))
}

// --- Промокоды и скидки ---

func (h *Handler) handleAddPromo(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Формат: /addpromo КОД процент [лимит] [срок_часов]")
		return
	}
	percent, err := strconv.Atoi(args[1])
	if err != nil || percent <= 0 || percent > 100 {
		h.sendMessage(chatID, "❌ Процент скидки должен быть числом от 1 до 100")
		return
	}
	maxUses := 0
	if len(args) >= 3 {
		maxUses, _ = strconv.Atoi(args[2])
	}
	var ttl time.Duration
	if len(args) >= 4 {
		hours, _ := strconv.Atoi(args[3])
		ttl = time.Duration(hours) * time.Hour
	}

	p, err := h.promo.CreatePromocode(ctx, args[0], percent, maxUses, ttl)
	if err != nil {
		log.WithError(err).Error("Ошибка создания промокода")
		h.sendMessage(chatID, "❌ Ошибка создания промокода (возможно, код занят)")
		return
	}
	h.service.LogAction(ctx, userID, "addpromo", p.Code)
	h.sendMessage(chatID, fmt.Sprintf("✅ Промокод %s создан: скидка %d%%", p.Code, p.Percent))
}

func (h *Handler) handleDelPromo(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(chatID, "❌ Формат: /delpromo КОД")
		return
	}
	if err := h.promo.DeletePromocode(ctx, args[0]); err != nil {
		if errors.Is(err, common.ErrPromoNotFound) {
			h.sendMessage(chatID, "❌ Промокод не найден")
		} else {
			log.WithError(err).Error("Ошибка удаления промокода")
			h.sendMessage(chatID, "❌ Ошибка удаления промокода")
		}
		return
	}
	h.service.LogAction(ctx, userID, "delpromo", args[0])
	h.sendMessage(chatID, "✅ Промокод удалён")
}

func (h *Handler) handlePromos(ctx context.Context, chatID, _ int64, _ []string) {
	promos, err := h.promo.ListPromocodes(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка чтения промокодов")
		h.sendMessage(chatID, "❌ Ошибка чтения промокодов")
		return
	}
	if len(promos) == 0 {
		h.sendMessage(chatID, "📋 Промокодов нет")
		return
	}
	text := "📋 Промокоды:\n\n"
	for _, p := range promos {
		limit := "∞"
		if p.MaxUses > 0 {
			limit = strconv.Itoa(p.MaxUses)
		}
		text += fmt.Sprintf("%s — скидка %d%%, %d/%s\n", p.Code, p.Percent, p.UsedCount, limit)
	}
	h.sendMessage(chatID, text)
}

func (h *Handler) handleAddSale(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Формат: /addsale код_ссылки процент [лимит]")
		return
	}
	percent, err := strconv.Atoi(args[1])
	if err != nil {
		h.sendMessage(chatID, "❌ Процент должен быть числом")
		return
	}
	maxUses := 0
	if len(args) >= 3 {
		maxUses, _ = strconv.Atoi(args[2])
	}
	d, err := h.promo.CreateDiscountLink(ctx, args[0], percent, maxUses)
	if err != nil {
		log.WithError(err).Error("Ошибка создания ссылки-скидки")
		h.sendMessage(chatID, "❌ Ошибка создания ссылки (возможно, код занят или процент вне 1-100)")
		return
	}
	h.service.LogAction(ctx, userID, "addsale", d.LinkCode)
	h.sendMessage(chatID, fmt.Sprintf("✅ Ссылка-скидка создана: ?start=sale_%s (%d%%)", d.LinkCode, d.Percent))
}

// --- Балансы и настройки ---

func (h *Handler) handleGive(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Формат: /give user_id сумма [virtual]")
		return
	}
	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.sendMessage(chatID, "❌ user_id должен быть числом")
		return
	}
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || amount == 0 {
		h.sendMessage(chatID, "❌ Сумма должна быть ненулевым числом")
		return
	}

	if _, err := h.members.RequireRole(ctx, userID, members.RoleAdmin); err != nil {
		h.sendMessage(chatID, "❌ Недостаточно прав")
		return
	}

	kind := wallet.BalanceMain
	if len(args) >= 3 && args[2] == "virtual" {
		kind = wallet.BalanceVirtual
	}

	if amount > 0 {
		err = h.wallet.Credit(ctx, targetID, amount, kind)
	} else {
		err = h.wallet.Debit(ctx, targetID, -amount, kind)
	}
	if err != nil {
		h.replyProcessError(chatID, err)
		return
	}
	h.service.LogAction(ctx, userID, "give", fmt.Sprintf("user=%d amount=%d kind=%s", targetID, amount, kind))
	h.sendMessage(chatID, "✅ Баланс изменён")
}

func (h *Handler) handleSetPrice(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(chatID, "❌ Формат: /setprice цена (например 1.70)")
		return
	}
	if _, err := h.members.RequireRole(ctx, userID, members.RoleAdmin); err != nil {
		h.sendMessage(chatID, "❌ Недостаточно прав")
		return
	}
	if err := h.settings.Set(ctx, settings.KeyStarPrice, args[0]); err != nil {
		log.WithError(err).Error("Ошибка изменения цены")
		h.sendMessage(chatID, "❌ Ошибка изменения цены")
		return
	}
	h.service.LogAction(ctx, userID, "setprice", args[0])
	h.sendMessage(chatID, fmt.Sprintf("✅ Цена звезды: %s₽", args[0]))
}

func (h *Handler) handleSetRole(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Формат: /setrole user_id роль (user/agent/moder/admin/tech_admin)")
		return
	}
	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.sendMessage(chatID, "❌ user_id должен быть числом")
		return
	}
	if err := h.members.SetRole(ctx, userID, targetID, members.Role(args[1])); err != nil {
		h.replyProcessError(chatID, err)
		return
	}
	h.service.LogAction(ctx, userID, "setrole", fmt.Sprintf("user=%d role=%s", targetID, args[1]))
	h.sendMessage(chatID, "✅ Роль назначена")
}

// --- Модерация ---

func (h *Handler) handleBan(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(chatID, "❌ Формат: /ban user_id [часы] [причина]")
		return
	}
	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.sendMessage(chatID, "❌ user_id должен быть числом")
		return
	}
	var duration time.Duration
	reason := ""
	if len(args) >= 2 {
		if hours, err := strconv.Atoi(args[1]); err == nil {
			duration = time.Duration(hours) * time.Hour
			reason = strings.Join(args[2:], " ")
		} else {
			reason = strings.Join(args[1:], " ")
		}
	}
	if err := h.members.Ban(ctx, userID, targetID, reason, duration); err != nil {
		h.replyProcessError(chatID, err)
		return
	}
	h.service.LogAction(ctx, userID, "ban", fmt.Sprintf("user=%d duration=%s", targetID, duration))
	h.sendMessage(chatID, "✅ Пользователь забанен")
}

func (h *Handler) handleUnban(ctx context.Context, chatID, userID int64, args []string) {
	targetID, ok := h.parseUserIDArg(chatID, args)
	if !ok {
		return
	}
	if err := h.members.Unban(ctx, userID, targetID); err != nil {
		h.replyProcessError(chatID, err)
		return
	}
	h.service.LogAction(ctx, userID, "unban", strconv.FormatInt(targetID, 10))
	h.sendMessage(chatID, "✅ Бан снят")
}

func (h *Handler) handleFreeze(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(chatID, "❌ Формат: /freeze user_id [причина]")
		return
	}
	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.sendMessage(chatID, "❌ user_id должен быть числом")
		return
	}
	if err := h.members.Freeze(ctx, userID, targetID, strings.Join(args[1:], " ")); err != nil {
		h.replyProcessError(chatID, err)
		return
	}
	h.service.LogAction(ctx, userID, "freeze", strconv.FormatInt(targetID, 10))
	h.sendMessage(chatID, "✅ Аккаунт заморожен")
}

func (h *Handler) handleUnfreeze(ctx context.Context, chatID, userID int64, args []string) {
	targetID, ok := h.parseUserIDArg(chatID, args)
	if !ok {
		return
	}
	if err := h.members.Unfreeze(ctx, userID, targetID); err != nil {
		h.replyProcessError(chatID, err)
		return
	}
	h.service.LogAction(ctx, userID, "unfreeze", strconv.FormatInt(targetID, 10))
	h.sendMessage(chatID, "✅ Аккаунт разморожен")
}

func (h *Handler) handleWarn(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(chatID, "❌ Формат: /warn user_id [причина]")
		return
	}
	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.sendMessage(chatID, "❌ user_id должен быть числом")
		return
	}
	total, err := h.members.Warn(ctx, userID, targetID, strings.Join(args[1:], " "))
	if err != nil {
		h.replyProcessError(chatID, err)
		return
	}
	h.service.LogAction(ctx, userID, "warn", fmt.Sprintf("user=%d total=%d", targetID, total))
	h.sendMessage(chatID, fmt.Sprintf("✅ Предупреждение выдано (%d/3)", total))
}

func (h *Handler) handleMaintenance(ctx context.Context, chatID, userID int64, args []string) {
	if _, err := h.members.RequireRole(ctx, userID, members.RoleTechAdmin); err != nil {
		h.sendMessage(chatID, "❌ Недостаточно прав")
		return
	}
	enabled := len(args) >= 1 && (args[0] == "on" || args[0] == "1")
	if err := h.settings.SetMaintenance(ctx, enabled); err != nil {
		log.WithError(err).Error("Ошибка переключения техработ")
		h.sendMessage(chatID, "❌ Ошибка переключения техработ")
		return
	}
	h.service.LogAction(ctx, userID, "maintenance", strconv.FormatBool(enabled))
	if enabled {
		h.sendMessage(chatID, "🔧 Режим техработ включён")
	} else {
		h.sendMessage(chatID, "✅ Режим техработ выключен")
	}
}

// --- Поддержка ---

func (h *Handler) handleReply(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Формат: /reply номер_обращения текст")
		return
	}
	ticketID, err := strconv.Atoi(args[0])
	if err != nil {
		h.sendMessage(chatID, "❌ Номер обращения должен быть числом")
		return
	}
	text := strings.Join(args[1:], " ")
	if _, err := h.tickets.Reply(ctx, ticketID, userID, text); err != nil {
		h.replyProcessError(chatID, err)
		return
	}
	t, err := h.tickets.Get(ctx, ticketID)
	if err == nil {
		h.notifyUser(t.UserID, fmt.Sprintf("💬 Ответ поддержки по обращению #%d:\n%s", ticketID, text))
	}
	h.sendMessage(chatID, "✅ Ответ отправлен")
}

func (h *Handler) handleClose(ctx context.Context, chatID, userID int64, args []string) {
	ticketID, ok := h.parseIntArg(chatID, args, "номер обращения")
	if !ok {
		return
	}
	t, err := h.tickets.Get(ctx, ticketID)
	if err != nil {
		h.replyProcessError(chatID, err)
		return
	}
	if err := h.tickets.Close(ctx, ticketID); err != nil {
		h.replyProcessError(chatID, err)
		return
	}
	h.service.LogAction(ctx, userID, "close_ticket", strconv.Itoa(ticketID))
	h.notifyUser(t.UserID, fmt.Sprintf("✅ Обращение #%d закрыто", ticketID))
	h.sendMessage(chatID, "✅ Обращение закрыто")
}

// --- Журналы ---

func (h *Handler) handleRefLog(ctx context.Context, chatID, _ int64, _ []string) {
	logs, err := h.referral.RecentLogs(ctx, 20)
	if err != nil {
		log.WithError(err).Error("Ошибка чтения журнала рефералов")
		h.sendMessage(chatID, "❌ Ошибка чтения журнала")
		return
	}
	if len(logs) == 0 {
		h.sendMessage(chatID, "📋 Журнал рефералов пуст")
		return
	}
	text := "📋 Журнал рефералов:\n\n"
	for _, e := range logs {
		text += fmt.Sprintf("%s | %s | %d → %d | %s\n",
			common.FormatDateTime(e.CreatedAt), e.Event, e.ReferrerID, e.ReferredID, e.Details)
	}
	h.sendMessage(chatID, text)
}

func (h *Handler) handleAdminLog(ctx context.Context, chatID, _ int64, _ []string) {
	logs, err := h.service.RecentLogs(ctx, 20)
	if err != nil {
		log.WithError(err).Error("Ошибка чтения журнала админки")
		h.sendMessage(chatID, "❌ Ошибка чтения журнала")
		return
	}
	if len(logs) == 0 {
		h.sendMessage(chatID, "📋 Журнал действий пуст")
		return
	}
	text := "📋 Журнал действий:\n\n"
	for _, e := range logs {
		text += fmt.Sprintf("%s | %d | %s %s\n",
			common.FormatDateTime(e.CreatedAt), e.AdminID, e.Action, e.Details)
	}
	h.sendMessage(chatID, text)
}

// --- Утилиты ---

func (h *Handler) parseIntArg(chatID int64, args []string, what string) (int, bool) {
	if len(args) < 1 {
		h.sendMessage(chatID, fmt.Sprintf("❌ Укажите %s", what))
		return 0, false
	}
	v, err := strconv.Atoi(args[0])
	if err != nil {
		h.sendMessage(chatID, fmt.Sprintf("❌ %s должен быть числом", what))
		return 0, false
	}
	return v, true
}

func (h *Handler) parseUserIDArg(chatID int64, args []string) (int64, bool) {
	if len(args) < 1 {
		h.sendMessage(chatID, "❌ Укажите user_id")
		return 0, false
	}
	v, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.sendMessage(chatID, "❌ user_id должен быть числом")
		return 0, false
	}
	return v, true
}

func (h *Handler) parseUUIDArg(chatID int64, args []string) (uuid.UUID, bool) {
	if len(args) < 1 {
		h.sendMessage(chatID, "❌ Укажите идентификатор заявки")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		h.sendMessage(chatID, "❌ Некорректный идентификатор заявки")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) replyProcessError(chatID int64, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		h.sendMessage(chatID, "❌ Не найдено")
	case errors.Is(err, common.ErrUserNotFound):
		h.sendMessage(chatID, "❌ Пользователь не найден")
	case errors.Is(err, common.ErrAlreadyProcessed):
		h.sendMessage(chatID, "❌ Уже обработано")
	case errors.Is(err, common.ErrNoAccess):
		h.sendMessage(chatID, "❌ Недостаточно прав")
	case errors.Is(err, common.ErrInsufficientFunds):
		h.sendMessage(chatID, "❌ Недостаточно средств")
	default:
		log.WithError(err).Error("Ошибка админ-команды")
		h.sendMessage(chatID, "❌ Ошибка выполнения команды")
	}
}

func (h *Handler) notifyUser(userID int64, text string) {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Не удалось отправить уведомление")
	}
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
