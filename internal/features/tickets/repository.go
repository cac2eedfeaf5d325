// Package tickets — repository.go выполняет операции с таблицами
// tickets и ticket_messages.
package tickets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"starbazar.ru/stars-bot/internal/common"
)

// Repository предоставляет методы для работы с обращениями.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий обращений.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create создаёт обращение с первым сообщением одной транзакцией.
func (r *Repository) Create(ctx context.Context, t *Ticket, text string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO tickets (user_id, subject, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, t.UserID, t.Subject, StatusOpen).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка создания обращения: %w", err)
	}
	t.Status = StatusOpen

	_, err = tx.Exec(ctx, `
		INSERT INTO ticket_messages (ticket_id, author_id, text)
		VALUES ($1, $2, $3)
	`, t.ID, t.UserID, text)
	if err != nil {
		return fmt.Errorf("ошибка записи сообщения: %w", err)
	}

	return tx.Commit(ctx)
}

// Get возвращает обращение по ID.
func (r *Repository) Get(ctx context.Context, ticketID int) (*Ticket, error) {
	var t Ticket
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, subject, status, created_at, closed_at
		FROM tickets WHERE id = $1
	`, ticketID).Scan(&t.ID, &t.UserID, &t.Subject, &t.Status, &t.CreatedAt, &t.ClosedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка чтения обращения: %w", err)
	}
	return &t, nil
}

// AddMessage добавляет сообщение в открытое обращение.
func (r *Repository) AddMessage(ctx context.Context, m *Message) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO ticket_messages (ticket_id, author_id, text)
		SELECT $1, $2, $3
		WHERE EXISTS (SELECT 1 FROM tickets WHERE id = $1 AND status = $4)
		RETURNING id, created_at
	`, m.TicketID, m.AuthorID, m.Text, StatusOpen).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.ErrAlreadyProcessed
		}
		return fmt.Errorf("ошибка записи сообщения: %w", err)
	}
	return nil
}

// Close закрывает обращение. Условный UPDATE отсекает повторное закрытие.
func (r *Repository) Close(ctx context.Context, ticketID int, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE tickets SET status = $2, closed_at = $3
		WHERE id = $1 AND status = $4
	`, ticketID, StatusClosed, at, StatusOpen)
	if err != nil {
		return fmt.Errorf("ошибка закрытия обращения: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, gerr := r.Get(ctx, ticketID); gerr == nil {
			return common.ErrAlreadyProcessed
		}
		return common.ErrNotFound
	}
	return nil
}

// Messages возвращает переписку по обращению.
func (r *Repository) Messages(ctx context.Context, ticketID int) ([]*Message, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, ticket_id, author_id, text, created_at
		FROM ticket_messages WHERE ticket_id = $1 ORDER BY created_at ASC
	`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения переписки: %w", err)
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.TicketID, &m.AuthorID, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования сообщения: %w", err)
		}
		out = append(out, &m)
	}
	return out, nil
}

// OpenTickets возвращает открытые обращения (для поддержки).
func (r *Repository) OpenTickets(ctx context.Context, limit int) ([]*Ticket, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, subject, status, created_at, closed_at
		FROM tickets WHERE status = $1 ORDER BY created_at ASC LIMIT $2
	`, StatusOpen, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения обращений: %w", err)
	}
	defer rows.Close()

	var out []*Ticket
	for rows.Next() {
		var t Ticket
		if err := rows.Scan(&t.ID, &t.UserID, &t.Subject, &t.Status, &t.CreatedAt, &t.ClosedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования обращения: %w", err)
		}
		out = append(out, &t)
	}
	return out, nil
}

// OpenTicketOf возвращает открытое обращение пользователя или nil.
func (r *Repository) OpenTicketOf(ctx context.Context, userID int64) (*Ticket, error) {
	var t Ticket
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, subject, status, created_at, closed_at
		FROM tickets WHERE user_id = $1 AND status = $2
		ORDER BY created_at DESC LIMIT 1
	`, userID, StatusOpen).Scan(&t.ID, &t.UserID, &t.Subject, &t.Status, &t.CreatedAt, &t.ClosedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка чтения обращения: %w", err)
	}
	return &t, nil
}
