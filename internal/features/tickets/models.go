// Package tickets — models.go описывает обращения в поддержку.
package tickets

import "time"

// TicketStatus — статус обращения.
type TicketStatus string

const (
	StatusOpen   TicketStatus = "open"
	StatusClosed TicketStatus = "closed"
)

// Ticket — обращение пользователя в поддержку.
type Ticket struct {
	ID        int
	UserID    int64
	Subject   string
	Status    TicketStatus
	CreatedAt time.Time
	ClosedAt  *time.Time
}

// Message — сообщение в переписке по обращению.
type Message struct {
	ID        int
	TicketID  int
	AuthorID  int64
	Text      string
	CreatedAt time.Time
}
