// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: снятие истёкших банов
// и чистку журнала дедупликации действий.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"starbazar.ru/stars-bot/internal/features/actions"
	"starbazar.ru/stars-bot/internal/features/members"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron           *cron.Cron
	memberService  *members.Service
	actionsService *actions.Service
}

// NewScheduler создаёт планировщик задач с московским часовым поясом.
func NewScheduler(memberService *members.Service, actionsService *actions.Service) *Scheduler {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		log.WithError(err).Warn("Не удалось загрузить Europe/Moscow, используем UTC+3")
		loc = time.FixedZone("MSK", 3*60*60)
	}

	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:           c,
		memberService:  memberService,
		actionsService: actionsService,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Снятие истёкших банов каждый час
	s.cron.AddFunc("0 * * * *", func() {
		n, err := s.memberService.CleanupExpiredBans(ctx)
		if err != nil {
			log.WithError(err).Error("[CRON] Ошибка снятия банов")
			return
		}
		if n > 0 {
			log.WithField("count", n).Info("[CRON] Истёкшие баны сняты")
		}
	})

	// Чистка кэша и журнала дедупликации каждые 6 часов
	s.cron.AddFunc("0 */6 * * *", func() {
		log.Debug("[CRON] Чистка журнала дедупликации")
		if err := s.actionsService.Cleanup(ctx); err != nil {
			log.WithError(err).Error("[CRON] Ошибка чистки дедупликации")
		}
	})

	s.cron.Start()
	log.Info("Планировщик задач запущен (Europe/Moscow)")
}

// Stop останавливает планировщик.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
