// Package members — service.go содержит бизнес-логику работы с пользователями:
// регистрация, роли, проверки доступа, модерация.
package members

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	log "github.com/sirupsen/logrus"

	"starbazar.ru/stars-bot/internal/common"
)

// Service управляет пользователями и их ролями.
type Service struct {
	repo *Repository
	now  common.Clock
}

// NewService создаёт новый сервис пользователей.
func NewService(repo *Repository, now common.Clock) *Service {
	return &Service{repo: repo, now: now}
}

// referralCodeAlphabet — без похожих символов (0/O, 1/I/l).
const referralCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateReferralCode генерирует случайный 8-символьный реферальный код.
func GenerateReferralCode() (string, error) {
	buf := make([]byte, 8)
	max := big.NewInt(int64(len(referralCodeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("ошибка генерации кода: %w", err)
		}
		buf[i] = referralCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// Register регистрирует пользователя и обновляет его профиль.
// При повторном вызове только освежает username/first_name.
// Возвращает true, если пользователь новый.
func (s *Service) Register(ctx context.Context, userID int64, username, firstName string) (bool, error) {
	code, err := GenerateReferralCode()
	if err != nil {
		return false, err
	}

	created, err := s.repo.CreateUser(ctx, userID, username, firstName, code)
	if err != nil {
		return false, err
	}
	if created {
		log.WithFields(log.Fields{"user_id": userID, "username": username}).Info("Новый пользователь зарегистрирован")
		return true, nil
	}

	if err := s.repo.UpdateProfile(ctx, userID, username, firstName); err != nil {
		return false, err
	}
	return false, nil
}

// GetUser возвращает пользователя по ID.
func (s *Service) GetUser(ctx context.Context, userID int64) (*User, error) {
	return s.repo.GetUser(ctx, userID)
}

// GetUserByUsername ищет пользователя по юзернейму (принимает с "@" и без).
func (s *Service) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	norm := common.NormalizeUsername(username)
	if norm == "" {
		return nil, common.ErrUserNotFound
	}
	return s.repo.GetUserByUsername(ctx, norm[1:])
}

// AttachReferrerByCode привязывает пригласившего по его реферальному коду.
// Самоприглашение и повторная привязка запрещены.
func (s *Service) AttachReferrerByCode(ctx context.Context, userID int64, code string) error {
	referrer, err := s.repo.GetUserByReferralCode(ctx, code)
	if err != nil {
		return err
	}
	if referrer.UserID == userID {
		return common.ErrSelfReferral
	}
	if err := s.repo.AttachReferrer(ctx, userID, referrer.UserID); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"user_id":     userID,
		"referrer_id": referrer.UserID,
	}).Info("Реферал привязан")
	return nil
}

// RequireRole проверяет, что роль пользователя не ниже требуемой.
func (s *Service) RequireRole(ctx context.Context, userID int64, required Role) (*User, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.Role.AtLeast(required) {
		return nil, common.ErrNoAccess
	}
	return u, nil
}

// SetRole назначает роль. Назначающий должен быть строго выше
// и текущей, и новой роли цели.
func (s *Service) SetRole(ctx context.Context, actorID, targetID int64, role Role) error {
	if !role.Valid() {
		return fmt.Errorf("неизвестная роль %q", role)
	}
	actor, err := s.repo.GetUser(ctx, actorID)
	if err != nil {
		return err
	}
	target, err := s.repo.GetUser(ctx, targetID)
	if err != nil {
		return err
	}
	if actor.Role.Level() <= target.Role.Level() || actor.Role.Level() <= role.Level() {
		return common.ErrNoAccess
	}
	if err := s.repo.SetRole(ctx, targetID, role); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"actor_id":  actorID,
		"target_id": targetID,
		"role":      role,
	}).Info("Роль назначена")
	return nil
}

// CheckAccess проверяет, может ли пользователь пользоваться ботом.
// Забаненный получает ErrUserBanned, истёкший бан снимается на месте.
func (s *Service) CheckAccess(ctx context.Context, userID int64) error {
	ban, err := s.repo.GetBan(ctx, userID)
	if err != nil {
		return err
	}
	if ban == nil {
		return nil
	}
	if ban.Until != nil && !ban.Until.After(s.now()) {
		return s.repo.UnbanUser(ctx, userID)
	}
	return common.ErrUserBanned
}

// CheckSpendAllowed проверяет, что пользователь может тратить средства
// (не забанен и не заморожен).
func (s *Service) CheckSpendAllowed(ctx context.Context, userID int64) error {
	if err := s.CheckAccess(ctx, userID); err != nil {
		return err
	}
	frozen, err := s.repo.IsFrozen(ctx, userID)
	if err != nil {
		return err
	}
	if frozen {
		return common.ErrUserFrozen
	}
	return nil
}

// Ban банит пользователя. duration == 0 означает навсегда.
func (s *Service) Ban(ctx context.Context, actorID, targetID int64, reason string, duration time.Duration) error {
	actor, err := s.repo.GetUser(ctx, actorID)
	if err != nil {
		return err
	}
	target, err := s.repo.GetUser(ctx, targetID)
	if err != nil {
		return err
	}
	if !actor.Role.CanModerate(target.Role) {
		return common.ErrNoAccess
	}

	b := &Ban{UserID: targetID, Reason: reason, BannedBy: actorID}
	if duration > 0 {
		until := s.now().Add(duration)
		b.Until = &until
	}
	if err := s.repo.BanUser(ctx, b); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"actor_id":  actorID,
		"target_id": targetID,
		"duration":  duration.String(),
	}).Info("Пользователь забанен")
	return nil
}

// Unban снимает бан.
func (s *Service) Unban(ctx context.Context, actorID, targetID int64) error {
	if _, err := s.RequireRole(ctx, actorID, RoleModer); err != nil {
		return err
	}
	return s.repo.UnbanUser(ctx, targetID)
}

// Freeze замораживает аккаунт (блокирует траты и выводы).
func (s *Service) Freeze(ctx context.Context, actorID, targetID int64, reason string) error {
	actor, err := s.repo.GetUser(ctx, actorID)
	if err != nil {
		return err
	}
	target, err := s.repo.GetUser(ctx, targetID)
	if err != nil {
		return err
	}
	if !actor.Role.CanModerate(target.Role) {
		return common.ErrNoAccess
	}
	return s.repo.FreezeUser(ctx, &Freeze{UserID: targetID, Reason: reason, FrozenBy: actorID})
}

// Unfreeze размораживает аккаунт.
func (s *Service) Unfreeze(ctx context.Context, actorID, targetID int64) error {
	if _, err := s.RequireRole(ctx, actorID, RoleModer); err != nil {
		return err
	}
	return s.repo.UnfreezeUser(ctx, targetID)
}

// Warn выдаёт предупреждение. Три предупреждения = автобан на сутки.
func (s *Service) Warn(ctx context.Context, actorID, targetID int64, reason string) (int, error) {
	actor, err := s.repo.GetUser(ctx, actorID)
	if err != nil {
		return 0, err
	}
	target, err := s.repo.GetUser(ctx, targetID)
	if err != nil {
		return 0, err
	}
	if !actor.Role.CanModerate(target.Role) {
		return 0, common.ErrNoAccess
	}

	total, err := s.repo.AddWarn(ctx, &Warn{UserID: targetID, Reason: reason, WarnedBy: actorID})
	if err != nil {
		return 0, err
	}

	if total >= 3 {
		until := s.now().Add(24 * time.Hour)
		err := s.repo.BanUser(ctx, &Ban{
			UserID:   targetID,
			Reason:   "3 предупреждения",
			BannedBy: actorID,
			Until:    &until,
		})
		if err != nil {
			return total, err
		}
		if err := s.repo.ClearWarns(ctx, targetID); err != nil {
			return total, err
		}
		log.WithField("user_id", targetID).Warn("Автобан за 3 предупреждения")
	}
	return total, nil
}

// TouchLastAction фиксирует активность пользователя.
func (s *Service) TouchLastAction(ctx context.Context, userID int64) error {
	return s.repo.TouchLastAction(ctx, userID, s.now())
}

// CountReferrals возвращает число приглашённых пользователем.
func (s *Service) CountReferrals(ctx context.Context, referrerID int64) (int64, error) {
	return s.repo.CountReferrals(ctx, referrerID)
}

// CleanupExpiredBans удаляет истёкшие баны. Вызывается планировщиком.
func (s *Service) CleanupExpiredBans(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredBans(ctx, s.now())
}
