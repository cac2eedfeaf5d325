// Package settings — service.go содержит типизированный доступ к настройкам
// с кэшированием. Запись настройки немедленно инвалидирует кэш.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"starbazar.ru/stars-bot/internal/cache"
	"starbazar.ru/stars-bot/internal/common"
	"starbazar.ru/stars-bot/internal/config"
)

const settingsCacheTTL = 5 * time.Minute

// Service — типизированный доступ к настройкам магазина.
type Service struct {
	repo  *Repository
	cache *cache.Cache
}

// NewService создаёт новый сервис настроек.
func NewService(repo *Repository, c *cache.Cache) *Service {
	return &Service{repo: repo, cache: c}
}

// Seed записывает дефолтные значения из конфигурации при первом запуске.
// Существующие значения не трогает.
func (s *Service) Seed(ctx context.Context, cfg *config.Config) error {
	levels, err := json.Marshal(DefaultReferralLevels)
	if err != nil {
		return fmt.Errorf("ошибка сериализации уровней: %w", err)
	}
	defaults := map[string]string{
		KeyStarPrice:               cfg.ShopStarPrice,
		KeyRealToVirtualRate:       strconv.FormatFloat(cfg.RealToVirtualRate, 'f', -1, 64),
		KeyExchangeCommission:      strconv.FormatFloat(cfg.ExchangeCommission, 'f', -1, 64),
		KeyVirtualToRealRate:       strconv.FormatFloat(cfg.VirtualToRealRate, 'f', -1, 64),
		KeyVirtualToRealCommission: strconv.FormatFloat(cfg.VirtualToRealCommission, 'f', -1, 64),
		KeyWithdrawCommission:      strconv.FormatFloat(cfg.WithdrawCommission, 'f', -1, 64),
		KeyWithdrawMin:        strconv.FormatInt(cfg.WithdrawMinAmount, 10),
		KeyReferralLevels:     string(levels),
		KeyMaintenance:        "0",
		KeyMaintenanceMessage: "Бот на техническом обслуживании, попробуйте позже",
		KeyPaymentDetails:     cfg.PaymentDetails,
	}
	for k, v := range defaults {
		if err := s.repo.SetIfAbsent(ctx, k, v); err != nil {
			return err
		}
	}
	log.Info("Настройки по умолчанию записаны")
	return nil
}

func settingCacheKey(key string) string {
	return "setting:" + key
}

// Get возвращает строковое значение настройки, используя кэш.
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	if v, ok := s.cache.Get(settingCacheKey(key)); ok {
		return v, nil
	}
	v, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", err
	}
	s.cache.Set(settingCacheKey(key), v, settingsCacheTTL)
	return v, nil
}

// Set записывает настройку и инвалидирует кэш.
func (s *Service) Set(ctx context.Context, key, value string) error {
	if err := s.repo.Set(ctx, key, value); err != nil {
		return err
	}
	s.cache.Delete(settingCacheKey(key))
	log.WithFields(log.Fields{"key": key, "value": value}).Info("Настройка обновлена")
	return nil
}

// StarPrice возвращает цену одной звезды в рублях.
func (s *Service) StarPrice(ctx context.Context) (decimal.Decimal, error) {
	raw, err := s.Get(ctx, KeyStarPrice)
	if err != nil {
		return decimal.Zero, err
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("некорректная цена звезды %q: %w", raw, err)
	}
	return price, nil
}

// rate читает положительный курс из настройки key.
func (s *Service) rate(ctx context.Context, key string) (float64, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil || rate <= 0 {
		return 0, fmt.Errorf("некорректный курс %s=%q", key, raw)
	}
	return rate, nil
}

// commission читает долю комиссии [0, 1) из настройки key.
func (s *Service) commission(ctx context.Context, key string) (float64, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	c, err := strconv.ParseFloat(raw, 64)
	if err != nil || c < 0 || c >= 1 {
		return 0, fmt.Errorf("некорректная комиссия %s=%q", key, raw)
	}
	return c, nil
}

// RealToVirtualRate — курс обмена основной → виртуальный.
func (s *Service) RealToVirtualRate(ctx context.Context) (float64, error) {
	return s.rate(ctx, KeyRealToVirtualRate)
}

// ExchangeCommission — комиссия обмена основной → виртуальный.
func (s *Service) ExchangeCommission(ctx context.Context) (float64, error) {
	return s.commission(ctx, KeyExchangeCommission)
}

// VirtualToRealRate — курс обмена виртуальный → основной.
func (s *Service) VirtualToRealRate(ctx context.Context) (float64, error) {
	return s.rate(ctx, KeyVirtualToRealRate)
}

// VirtualToRealCommission — комиссия обмена виртуальный → основной.
func (s *Service) VirtualToRealCommission(ctx context.Context) (float64, error) {
	return s.commission(ctx, KeyVirtualToRealCommission)
}

// WithdrawCommission возвращает комиссию на вывод (доля от суммы).
// Отдельная от комиссий обмена.
func (s *Service) WithdrawCommission(ctx context.Context) (float64, error) {
	return s.commission(ctx, KeyWithdrawCommission)
}

// WithdrawMin возвращает минимальную сумму вывода в звёздах.
func (s *Service) WithdrawMin(ctx context.Context) (int64, error) {
	raw, err := s.Get(ctx, KeyWithdrawMin)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("некорректный минимум вывода %q", raw)
	}
	return v, nil
}

// ReferralLevels возвращает ступени реферальной программы.
func (s *Service) ReferralLevels(ctx context.Context) ([]ReferralLevel, error) {
	raw, err := s.Get(ctx, KeyReferralLevels)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return DefaultReferralLevels, nil
		}
		return nil, err
	}
	var levels []ReferralLevel
	if err := json.Unmarshal([]byte(raw), &levels); err != nil {
		return nil, fmt.Errorf("некорректные уровни рефералов: %w", err)
	}
	if len(levels) == 0 {
		return DefaultReferralLevels, nil
	}
	return levels, nil
}

// MaintenanceEnabled сообщает, включён ли режим техработ.
// Ошибка чтения трактуется как "выключен", чтобы бот не лёг
// из-за отсутствующего ключа.
func (s *Service) MaintenanceEnabled(ctx context.Context) bool {
	raw, err := s.Get(ctx, KeyMaintenance)
	if err != nil {
		return false
	}
	return raw == "1"
}

// MaintenanceMessage возвращает текст сообщения о техработах.
func (s *Service) MaintenanceMessage(ctx context.Context) string {
	raw, err := s.Get(ctx, KeyMaintenanceMessage)
	if err != nil || raw == "" {
		return "Бот на техническом обслуживании, попробуйте позже"
	}
	return raw
}

// SetMaintenance включает или выключает режим техработ.
func (s *Service) SetMaintenance(ctx context.Context, enabled bool) error {
	v := "0"
	if enabled {
		v = "1"
	}
	return s.Set(ctx, KeyMaintenance, v)
}

// PaymentDetails возвращает реквизиты для оплаты.
func (s *Service) PaymentDetails(ctx context.Context) (string, error) {
	return s.Get(ctx, KeyPaymentDetails)
}
