// Package tickets — service.go содержит бизнес-логику поддержки.
// У пользователя может быть только одно открытое обращение.
package tickets

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"starbazar.ru/stars-bot/internal/common"
)

// Service управляет обращениями в поддержку.
type Service struct {
	repo *Repository
	now  common.Clock
}

// NewService создаёт новый сервис поддержки.
func NewService(repo *Repository, now common.Clock) *Service {
	return &Service{repo: repo, now: now}
}

// Create открывает обращение. Если у пользователя уже есть открытое,
// возвращает его без создания нового.
func (s *Service) Create(ctx context.Context, userID int64, subject, text string) (*Ticket, error) {
	subject = strings.TrimSpace(subject)
	text = strings.TrimSpace(text)
	if subject == "" || text == "" {
		return nil, common.ErrInvalidAmount
	}

	if existing, err := s.repo.OpenTicketOf(ctx, userID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	t := &Ticket{UserID: userID, Subject: common.TruncateText(subject, 256)}
	if err := s.repo.Create(ctx, t, text); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"ticket_id": t.ID, "user_id": userID}).Info("Обращение создано")
	return t, nil
}

// Reply добавляет сообщение в открытое обращение. Писать могут
// автор обращения и поддержка.
func (s *Service) Reply(ctx context.Context, ticketID int, authorID int64, text string) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, common.ErrInvalidAmount
	}
	m := &Message{TicketID: ticketID, AuthorID: authorID, Text: text}
	if err := s.repo.AddMessage(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Close закрывает обращение.
func (s *Service) Close(ctx context.Context, ticketID int) error {
	if err := s.repo.Close(ctx, ticketID, s.now()); err != nil {
		return err
	}
	log.WithField("ticket_id", ticketID).Info("Обращение закрыто")
	return nil
}

// Get возвращает обращение по ID.
func (s *Service) Get(ctx context.Context, ticketID int) (*Ticket, error) {
	return s.repo.Get(ctx, ticketID)
}

// Messages возвращает переписку по обращению.
func (s *Service) Messages(ctx context.Context, ticketID int) ([]*Message, error) {
	return s.repo.Messages(ctx, ticketID)
}

// OpenTickets возвращает очередь открытых обращений.
func (s *Service) OpenTickets(ctx context.Context, limit int) ([]*Ticket, error) {
	return s.repo.OpenTickets(ctx, limit)
}

// OpenTicketOf возвращает открытое обращение пользователя или nil.
func (s *Service) OpenTicketOf(ctx context.Context, userID int64) (*Ticket, error) {
	return s.repo.OpenTicketOf(ctx, userID)
}
