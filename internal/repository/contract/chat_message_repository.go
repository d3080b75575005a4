package contract

import (
	"context"

	"telemed-chat-be/internal/entity"

	"github.com/google/uuid"
)

// ChatMessageRepository is an append-only log. There is deliberately no
// update or delete: messages are immutable once accepted.
type ChatMessageRepository interface {
	// Create persists the message and fills in the store-assigned fields
	// (Id, Seq, SentAt) on the passed entity.
	Create(ctx context.Context, message *entity.ChatMessage) error

	// FindByAppointment returns the full backlog in ascending send order,
	// ties broken by insertion order. Empty slice when nothing exists yet.
	FindByAppointment(ctx context.Context, appointmentId uuid.UUID) ([]*entity.ChatMessage, error)

	CountByAppointment(ctx context.Context, appointmentId uuid.UUID) (int64, error)
}
