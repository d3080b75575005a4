package contract

import (
	"context"

	"telemed-chat-be/internal/entity"

	"github.com/google/uuid"
)

type ParticipantRepository interface {
	FindById(ctx context.Context, id uuid.UUID) (*entity.Participant, error)
	Create(ctx context.Context, participant *entity.Participant) error
}
